package av

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for sticker decoding.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrIO indicates the source could not be opened or read.
	ErrIO = errors.New("i/o error")

	// ErrFormat indicates a header or parse failure, or a malformed stream.
	ErrFormat = errors.New("format error")

	// ErrValidation indicates dimensions, frame count or frame rate outside accepted ranges.
	ErrValidation = errors.New("validation error")

	// ErrSizeLimit indicates a compressed, decompressed, payload or pixel cap was exceeded.
	ErrSizeLimit = errors.New("size limit exceeded")

	// ErrCodec indicates a codec engine failure. Per-frame codec errors are not fatal.
	ErrCodec = errors.New("codec error")
)

// Player state errors.
var (
	// ErrNotLoaded indicates an operation that requires a loaded sticker.
	ErrNotLoaded = errors.New("no sticker loaded")

	// ErrClosed indicates the player or decoder has been closed.
	ErrClosed = errors.New("closed")
)

// Error describes a failed operation together with its error kind.
type Error struct {
	// Op names the operation that failed, e.g. "bundle.Decompress".
	Op string
	// Kind is one of the sentinel kinds above.
	Kind error
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind error, op, format string, args ...interface{}) error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the sentinel kind of err, or nil when err is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrIO, ErrFormat, ErrValidation, ErrSizeLimit, ErrCodec} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
