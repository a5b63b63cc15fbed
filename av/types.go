// Package av implements the shared types of the sticker decode-and-playback pipeline.
//
// Both sticker encodings (vector bundles and video clips) produce the same
// Raster type and describe themselves with the same TrackDescriptor, so the
// playback controller can drive either one through a single contract.
package av

import (
	"fmt"
	"image"
	"time"

	"github.com/opd-ai/stickerplay/limits"
)

// TrackDescriptor describes a loaded sticker. It is derived once at load
// time and is immutable until the sticker is reloaded.
type TrackDescriptor struct {
	Width           int
	Height          int
	FrameRate       float64
	TotalFrames     int
	DurationSeconds float64
}

// NewTrackDescriptor builds a descriptor with DurationSeconds derived as
// TotalFrames / FrameRate.
func NewTrackDescriptor(width, height int, frameRate float64, totalFrames int) TrackDescriptor {
	d := TrackDescriptor{
		Width:       width,
		Height:      height,
		FrameRate:   frameRate,
		TotalFrames: totalFrames,
	}
	if frameRate > 0 {
		d.DurationSeconds = float64(totalFrames) / frameRate
	}
	return d
}

// TickInterval returns the recommended external tick for this track.
func (d TrackDescriptor) TickInterval() time.Duration {
	return limits.TickInterval(d.FrameRate)
}

// String returns a compact description for logging.
func (d TrackDescriptor) String() string {
	return fmt.Sprintf("%dx%d %.2ffps %d frames (%.2fs)",
		d.Width, d.Height, d.FrameRate, d.TotalFrames, d.DurationSeconds)
}

// Outcome tags the result of a single decode or render call.
type Outcome uint8

const (
	// OutcomeFrame indicates a frame was produced
	OutcomeFrame Outcome = iota
	// OutcomeRetry indicates no frame this call; the next tick may succeed
	OutcomeRetry
	// OutcomeEnd indicates the frame sequence is exhausted
	OutcomeEnd
	// OutcomeFatal indicates the source can no longer produce frames
	OutcomeFatal
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeFrame:
		return "frame"
	case OutcomeRetry:
		return "retry"
	case OutcomeEnd:
		return "end"
	case OutcomeFatal:
		return "fatal"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// Raster is a displayable frame: a packed RGB plane (3 bytes per pixel) and
// a separate 8-bit alpha plane, both row-major with no padding.
type Raster struct {
	Width  int
	Height int
	RGB    []byte
	Alpha  []byte
}

// NewRaster allocates a raster of the given size with alpha preset to opaque.
func NewRaster(width, height int) *Raster {
	n := width * height
	r := &Raster{
		Width:  width,
		Height: height,
		RGB:    make([]byte, n*3),
		Alpha:  make([]byte, n),
	}
	for i := range r.Alpha {
		r.Alpha[i] = 0xff
	}
	return r
}

// At returns the straight (non-premultiplied) colour at x, y.
func (r *Raster) At(x, y int) (red, green, blue, alpha uint8) {
	i := y*r.Width + x
	return r.RGB[i*3], r.RGB[i*3+1], r.RGB[i*3+2], r.Alpha[i]
}

// Set stores a straight colour at x, y.
func (r *Raster) Set(x, y int, red, green, blue, alpha uint8) {
	i := y*r.Width + x
	r.RGB[i*3], r.RGB[i*3+1], r.RGB[i*3+2] = red, green, blue
	r.Alpha[i] = alpha
}

// Clone returns a deep copy of the raster.
func (r *Raster) Clone() *Raster {
	return &Raster{
		Width:  r.Width,
		Height: r.Height,
		RGB:    append([]byte(nil), r.RGB...),
		Alpha:  append([]byte(nil), r.Alpha...),
	}
}

// ToNRGBA converts the raster to an image for painting or encoding.
func (r *Raster) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i, j := 0, 0; i < r.Width*r.Height; i, j = i+1, j+4 {
		img.Pix[j] = r.RGB[i*3]
		img.Pix[j+1] = r.RGB[i*3+1]
		img.Pix[j+2] = r.RGB[i*3+2]
		img.Pix[j+3] = r.Alpha[i]
	}
	return img
}

// FrameBuffer is a reusable packed 32-bit pixel buffer (0xAARRGGBB).
// It holds exactly Width*Height pixels and is reallocated only when the
// dimensions change.
type FrameBuffer struct {
	Width  int
	Height int
	Pix    []uint32
}

// Resize prepares the buffer for width x height pixels. The existing
// allocation is kept when the dimensions are unchanged.
func (b *FrameBuffer) Resize(width, height int) error {
	if width < 1 || height < 1 {
		return Errorf(ErrValidation, "FrameBuffer.Resize", "invalid dimensions %dx%d", width, height)
	}
	if err := limits.ValidatePixelCount(width, height); err != nil {
		return Wrap(ErrSizeLimit, "FrameBuffer.Resize", err)
	}
	if b.Pix != nil && b.Width == width && b.Height == height {
		return nil
	}
	b.Width = width
	b.Height = height
	b.Pix = make([]uint32, width*height)
	return nil
}

// Release drops the pixel storage.
func (b *FrameBuffer) Release() {
	b.Width, b.Height, b.Pix = 0, 0, nil
}
