// Package pixel converts decoder output into displayable rasters.
//
// Two conversions are provided: planar YUV 4:2:0 to packed RGB for the
// video path, and premultiplied ARGB to straight RGB plus alpha for the
// vector path.
package pixel

import (
	"math"

	"github.com/opd-ai/stickerplay/av"
	"github.com/opd-ai/stickerplay/limits"
)

// Planes describes a planar YUV 4:2:0 image. Each chroma sample covers a
// 2x2 block of luma samples.
type Planes struct {
	Width   int
	Height  int
	Y       []byte
	U       []byte
	V       []byte
	YStride int
	UStride int
	VStride int
}

// ChromaWidth returns the number of chroma samples per row.
func (p Planes) ChromaWidth() int {
	return (p.Width + 1) / 2
}

// ChromaHeight returns the number of chroma rows.
func (p Planes) ChromaHeight() int {
	return (p.Height + 1) / 2
}

// Validate checks dimensions, strides and plane lengths.
func (p Planes) Validate() error {
	const op = "pixel.Planes"

	if err := limits.ValidateDimensions(p.Width, p.Height, limits.MaxDimension); err != nil {
		return av.Wrap(av.ErrValidation, op, err)
	}
	if p.YStride < p.Width {
		return av.Errorf(av.ErrValidation, op, "luma stride %d < width %d", p.YStride, p.Width)
	}
	cw, ch := p.ChromaWidth(), p.ChromaHeight()
	if p.UStride < cw || p.VStride < cw {
		return av.Errorf(av.ErrValidation, op, "chroma strides %d/%d < chroma width %d", p.UStride, p.VStride, cw)
	}
	if len(p.Y) < (p.Height-1)*p.YStride+p.Width {
		return av.Errorf(av.ErrValidation, op, "luma plane too short: %d bytes", len(p.Y))
	}
	if len(p.U) < (ch-1)*p.UStride+cw || len(p.V) < (ch-1)*p.VStride+cw {
		return av.Errorf(av.ErrValidation, op, "chroma planes too short: %d/%d bytes", len(p.U), len(p.V))
	}
	return nil
}

// YUVToRGB converts one full-range BT.601 sample to RGB:
//
//	R = Y + 1.402(V-128)
//	G = Y - 0.344136(U-128) - 0.714136(V-128)
//	B = Y + 1.772(U-128)
func YUVToRGB(y, u, v uint8) (r, g, b uint8) {
	fy := float64(y)
	fu := float64(u) - 128
	fv := float64(v) - 128

	r = clamp(fy + 1.402*fv)
	g = clamp(fy - 0.344136*fu - 0.714136*fv)
	b = clamp(fy + 1.772*fu)
	return r, g, b
}

func clamp(x float64) uint8 {
	x = math.Round(x)
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}

// PlanarToRaster converts a YUV 4:2:0 image to an opaque raster.
func PlanarToRaster(p Planes) (*av.Raster, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	out := av.NewRaster(p.Width, p.Height)
	for y := 0; y < p.Height; y++ {
		yRow := p.Y[y*p.YStride:]
		uRow := p.U[(y/2)*p.UStride:]
		vRow := p.V[(y/2)*p.VStride:]
		dst := out.RGB[y*p.Width*3:]
		for x := 0; x < p.Width; x++ {
			r, g, b := YUVToRGB(yRow[x], uRow[x/2], vRow[x/2])
			dst[x*3] = r
			dst[x*3+1] = g
			dst[x*3+2] = b
		}
	}
	return out, nil
}
