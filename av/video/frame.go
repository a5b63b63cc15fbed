package video

import (
	"image"

	"github.com/opd-ai/stickerplay/av/pixel"
)

// VideoFrame represents a decoded YUV420 frame.
//
// The chroma planes cover ceil(Width/2) x ceil(Height/2) samples, so odd
// dimensions are allowed.
type VideoFrame struct {
	Width   int
	Height  int
	Y       []byte // Luminance plane
	U       []byte // Chrominance U plane
	V       []byte // Chrominance V plane
	YStride int    // Stride for Y plane
	UStride int    // Stride for U plane
	VStride int    // Stride for V plane
}

// NewVideoFrame allocates a tightly packed frame.
func NewVideoFrame(width, height int) *VideoFrame {
	cw, ch := (width+1)/2, (height+1)/2
	return &VideoFrame{
		Width:   width,
		Height:  height,
		Y:       make([]byte, width*height),
		U:       make([]byte, cw*ch),
		V:       make([]byte, cw*ch),
		YStride: width,
		UStride: cw,
		VStride: cw,
	}
}

// FromYCbCr wraps a 4:2:0 image without copying. Other subsampling ratios
// are rejected by the caller before reaching here.
func FromYCbCr(img *image.YCbCr) *VideoFrame {
	b := img.Rect
	yOff := img.YOffset(b.Min.X, b.Min.Y)
	cOff := img.COffset(b.Min.X, b.Min.Y)
	return &VideoFrame{
		Width:   b.Dx(),
		Height:  b.Dy(),
		Y:       img.Y[yOff:],
		U:       img.Cb[cOff:],
		V:       img.Cr[cOff:],
		YStride: img.YStride,
		UStride: img.CStride,
		VStride: img.CStride,
	}
}

// Planes returns the frame as input for the colour converter.
func (f *VideoFrame) Planes() pixel.Planes {
	return pixel.Planes{
		Width:   f.Width,
		Height:  f.Height,
		Y:       f.Y,
		U:       f.U,
		V:       f.V,
		YStride: f.YStride,
		UStride: f.UStride,
		VStride: f.VStride,
	}
}

// Clone returns a deep copy of the frame.
func (f *VideoFrame) Clone() *VideoFrame {
	return &VideoFrame{
		Width:   f.Width,
		Height:  f.Height,
		YStride: f.YStride,
		UStride: f.UStride,
		VStride: f.VStride,
		Y:       append([]byte(nil), f.Y...),
		U:       append([]byte(nil), f.U...),
		V:       append([]byte(nil), f.V...),
	}
}
