// Package limits provides centralized resource caps for sticker decoding.
// This ensures consistent validation across the bundle, vector, demux and video paths.
package limits

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// MaxCompressedBundle is the largest compressed vector bundle accepted (10 MiB).
	// Larger inputs are rejected before any decompression is attempted.
	MaxCompressedBundle = 10 * 1024 * 1024

	// MaxDecompressedBundle caps the inflated vector document (50 MiB).
	MaxDecompressedBundle = 50 * 1024 * 1024

	// DecompressChunk is the fixed output chunk used while inflating.
	DecompressChunk = 64 * 1024

	// MaxFramePayload is the largest video frame payload handed to a codec (50 MiB).
	MaxFramePayload = 50 * 1024 * 1024

	// MinFramePayload is the smallest payload treated as video data.
	// Anything shorter is presumed to be index or padding data.
	MinFramePayload = 32

	// MaxDimension bounds native and render width/height per axis.
	MaxDimension = 4096

	// MaxVideoRenderDimension bounds the caller-set render size on the video path.
	MaxVideoRenderDimension = 1024

	// MaxFramePixels caps any frame buffer (about 64 MB at 4 bytes per pixel).
	MaxFramePixels = 16777216

	// MaxTotalFrames bounds the derived frame count of a video clip.
	MaxTotalFrames = 10000

	// MaxFrameRate is the highest accepted video frame rate.
	MaxFrameRate = 120

	// DefaultFrameRate replaces a missing or out-of-range video frame rate.
	DefaultFrameRate = 30

	// MaxDurationSeconds is the longest accepted video duration.
	MaxDurationSeconds = 300

	// DefaultDurationSeconds replaces an out-of-range duration; stickers are short.
	DefaultDurationSeconds = 5

	// MaxDemuxIterations bounds the element scan of a single DecodeNextFrame call.
	MaxDemuxIterations = 1000

	// MinTickInterval is the playback tick floor (about 60 Hz).
	MinTickInterval = 16 * time.Millisecond

	// MaxParentDepth bounds layer parenting chains in vector documents.
	MaxParentDepth = 16

	// MaxPathCommands bounds the path commands a vector engine may emit
	// while rendering one frame.
	MaxPathCommands = 100000

	// PathBoundFactor sets how far outside the canvas a transformed path
	// point may lie, as a multiple of the larger canvas side. Points beyond
	// it are clamped.
	PathBoundFactor = 4
)

var (
	// ErrEmpty indicates an empty input was provided
	ErrEmpty = errors.New("empty input")

	// ErrTooLarge indicates an input exceeds its maximum size
	ErrTooLarge = errors.New("input too large")

	// ErrOutOfRange indicates a numeric property outside its accepted range
	ErrOutOfRange = errors.New("value out of range")
)

// ValidateSize validates data against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidateSize(data []byte, maxSize int) error {
	if len(data) == 0 {
		return ErrEmpty
	}
	if len(data) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrTooLarge, len(data), maxSize)
	}
	return nil
}

// ValidateDimensions checks that width and height are both within 1..maxDim.
func ValidateDimensions(width, height, maxDim int) error {
	if width < 1 || width > maxDim || height < 1 || height > maxDim {
		return fmt.Errorf("%w: dimensions %dx%d outside 1..%d", ErrOutOfRange, width, height, maxDim)
	}
	return nil
}

// ValidatePixelCount checks the width*height product against MaxFramePixels.
func ValidatePixelCount(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrOutOfRange, width, height)
	}
	if int64(width)*int64(height) > MaxFramePixels {
		return fmt.Errorf("%w: %dx%d pixels exceeds limit %d", ErrTooLarge, width, height, MaxFramePixels)
	}
	return nil
}

// TickInterval returns the recommended playback tick for a frame rate:
// max(16ms, round(1000/frameRate) ms). A non-positive rate yields the floor.
func TickInterval(frameRate float64) time.Duration {
	if frameRate <= 0 || math.IsNaN(frameRate) || math.IsInf(frameRate, 0) {
		return MinTickInterval
	}
	interval := time.Duration(math.Round(1000/frameRate)) * time.Millisecond
	if interval < MinTickInterval {
		return MinTickInterval
	}
	return interval
}
