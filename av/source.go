package av

import (
	"io"
	"os"
)

// Source opens sticker files. Implementations report the size of the opened
// stream so callers can enforce caps before reading.
type Source interface {
	Open(path string) (io.ReadSeekCloser, int64, error)
}

// OSSource opens files from the local filesystem.
type OSSource struct{}

// Open implements Source.
func (OSSource) Open(path string) (io.ReadSeekCloser, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, Wrap(ErrIO, "OSSource.Open", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, Wrap(ErrIO, "OSSource.Open", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, Errorf(ErrIO, "OSSource.Open", "%s is a directory", path)
	}
	return f, info.Size(), nil
}

// ReadAll reads the whole file at path through src, refusing files larger
// than maxSize with ErrSizeLimit before reading any content.
func ReadAll(src Source, path string, maxSize int64) ([]byte, error) {
	if src == nil {
		src = OSSource{}
	}
	rc, size, err := src.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if size > maxSize {
		return nil, Errorf(ErrSizeLimit, "av.ReadAll", "%s is %d bytes, limit %d", path, size, maxSize)
	}
	data, err := io.ReadAll(io.LimitReader(rc, maxSize+1))
	if err != nil {
		return nil, Wrap(ErrIO, "av.ReadAll", err)
	}
	if int64(len(data)) > maxSize {
		return nil, Errorf(ErrSizeLimit, "av.ReadAll", "%s grew past limit %d", path, maxSize)
	}
	return data, nil
}
