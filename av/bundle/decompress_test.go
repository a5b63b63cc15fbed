package bundle

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/stickerplay/av"
	"github.com/opd-ai/stickerplay/limits"
)

// gzipBytes compresses data for use as a test bundle.
func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	require.NoError(t, err)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const testDoc = `{"v":"5.5.2","fr":60,"ip":0,"op":60,"w":512,"h":512,"layers":[]}`

func TestDecompress_RoundTrip(t *testing.T) {
	d := NewDecompressor()

	out, err := d.Decompress(gzipBytes(t, []byte(testDoc)))

	require.NoError(t, err)
	assert.Equal(t, testDoc, string(out))
}

func TestDecompress_MultipleChunks(t *testing.T) {
	doc := bytes.Repeat([]byte("0123456789abcdef"), 1000)
	d := NewDecompressorWithLimits(0, 0, 100)

	out, err := d.Decompress(gzipBytes(t, doc))

	require.NoError(t, err)
	assert.Equal(t, doc, out)
}

func TestDecompress_Errors(t *testing.T) {
	valid := gzipBytes(t, []byte(testDoc))

	badChecksum := append([]byte(nil), valid...)
	badChecksum[len(badChecksum)-8] ^= 0xff

	tests := []struct {
		name string
		data []byte
		kind error
	}{
		{"nil input", nil, av.ErrFormat},
		{"empty input", []byte{}, av.ErrFormat},
		{"bad magic", []byte("this is not a gzip stream at all"), av.ErrFormat},
		{"truncated stream", valid[:len(valid)-10], av.ErrFormat},
		{"checksum mismatch", badChecksum, av.ErrFormat},
		{"empty document", gzipBytes(t, nil), av.ErrFormat},
	}

	d := NewDecompressor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := d.Decompress(tt.data)
			assert.Nil(t, out)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestDecompress_RejectsOversizedInputBeforeDecompressing(t *testing.T) {
	// Not a gzip stream: a format error here would prove decompression was attempted.
	data := make([]byte, limits.MaxCompressedBundle+1)

	_, err := NewDecompressor().Decompress(data)

	require.Error(t, err)
	assert.True(t, errors.Is(err, av.ErrSizeLimit))
	assert.False(t, errors.Is(err, av.ErrFormat))
	assert.True(t, errors.Is(err, limits.ErrTooLarge))
}

func TestDecompress_OutputCap(t *testing.T) {
	d := NewDecompressorWithLimits(0, 1024, 256)

	_, err := d.Decompress(gzipBytes(t, make([]byte, 4096)))

	require.Error(t, err)
	assert.True(t, errors.Is(err, av.ErrSizeLimit))
}

func TestDecompress_OutputCapDefault(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates more than 50 MiB")
	}
	bomb := gzipBytes(t, make([]byte, limits.MaxDecompressedBundle+1))
	require.Less(t, len(bomb), limits.MaxCompressedBundle)

	_, err := NewDecompressor().Decompress(bomb)

	assert.True(t, errors.Is(err, av.ErrSizeLimit))
}

func TestDecompressFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sticker.tgs")
	require.NoError(t, os.WriteFile(path, gzipBytes(t, []byte(testDoc)), 0o600))

	out, err := NewDecompressor().DecompressFile(nil, path)
	require.NoError(t, err)
	assert.Equal(t, testDoc, string(out))

	_, err = NewDecompressorWithLimits(8, 0, 0).DecompressFile(av.OSSource{}, path)
	assert.True(t, errors.Is(err, av.ErrSizeLimit))

	_, err = NewDecompressor().DecompressFile(av.OSSource{}, filepath.Join(dir, "nope.tgs"))
	assert.True(t, errors.Is(err, av.ErrIO))
}
