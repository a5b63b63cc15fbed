package pixel

import (
	"github.com/opd-ai/stickerplay/av"
)

// Unpremultiply recovers a straight colour channel from a premultiplied one.
// Alpha 0 and 255 pass the channel through unchanged.
func Unpremultiply(c, a uint8) uint8 {
	if a == 0 || a == 0xff {
		return c
	}
	v := uint32(c) * 255 / uint32(a)
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// UnpackARGB splits a packed 0xAARRGGBB pixel.
func UnpackARGB(p uint32) (a, r, g, b uint8) {
	return uint8(p >> 24), uint8(p >> 16), uint8(p >> 8), uint8(p)
}

// PackARGB builds a packed 0xAARRGGBB pixel.
func PackARGB(a, r, g, b uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// ARGBToRaster converts premultiplied packed ARGB pixels to a raster with
// straight colour and a separate alpha plane.
func ARGBToRaster(pix []uint32, width, height int) (*av.Raster, error) {
	if width < 1 || height < 1 {
		return nil, av.Errorf(av.ErrValidation, "pixel.ARGBToRaster", "invalid dimensions %dx%d", width, height)
	}
	if len(pix) < width*height {
		return nil, av.Errorf(av.ErrValidation, "pixel.ARGBToRaster",
			"buffer holds %d pixels, need %d", len(pix), width*height)
	}

	out := av.NewRaster(width, height)
	for i, p := range pix[:width*height] {
		a, r, g, b := UnpackARGB(p)
		out.RGB[i*3] = Unpremultiply(r, a)
		out.RGB[i*3+1] = Unpremultiply(g, a)
		out.RGB[i*3+2] = Unpremultiply(b, a)
		out.Alpha[i] = a
	}
	return out, nil
}
