package video

import (
	"github.com/opd-ai/stickerplay/av"
	"github.com/opd-ai/stickerplay/limits"
)

// Scaler resizes YUV420 frames with bilinear interpolation.
type Scaler struct {
	maxDimension int
}

// NewScaler creates a scaler bounded by limits.MaxVideoRenderDimension.
func NewScaler() *Scaler {
	return &Scaler{maxDimension: limits.MaxVideoRenderDimension}
}

// Scale resizes a frame to targetWidth x targetHeight.
//
// Each plane is interpolated independently; chroma planes are sized
// ceil(target/2) so odd targets keep full coverage.
func (s *Scaler) Scale(frame *VideoFrame, targetWidth, targetHeight int) (*VideoFrame, error) {
	const op = "video.Scale"

	if frame == nil {
		return nil, av.Errorf(av.ErrValidation, op, "source frame cannot be nil")
	}
	if err := limits.ValidateDimensions(targetWidth, targetHeight, s.maxDimension); err != nil {
		return nil, av.Wrap(av.ErrValidation, op, err)
	}
	if err := frame.Planes().Validate(); err != nil {
		return nil, err
	}

	// If dimensions are the same, return a copy
	if frame.Width == targetWidth && frame.Height == targetHeight {
		return frame.Clone(), nil
	}

	result := NewVideoFrame(targetWidth, targetHeight)
	srcCW, srcCH := (frame.Width+1)/2, (frame.Height+1)/2
	dstCW, dstCH := (targetWidth+1)/2, (targetHeight+1)/2

	s.scalePlane(frame.Y, frame.Width, frame.Height, frame.YStride,
		result.Y, targetWidth, targetHeight, result.YStride)
	s.scalePlane(frame.U, srcCW, srcCH, frame.UStride,
		result.U, dstCW, dstCH, result.UStride)
	s.scalePlane(frame.V, srcCW, srcCH, frame.VStride,
		result.V, dstCW, dstCH, result.VStride)

	return result, nil
}

// scalePlane scales a single plane using bilinear interpolation. Buffer
// sizes are validated by the caller.
func (s *Scaler) scalePlane(src []byte, srcWidth, srcHeight, srcStride int,
	dst []byte, dstWidth, dstHeight, dstStride int) {

	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for y := 0; y < dstHeight; y++ {
		srcY := float64(y) * yRatio
		y1 := int(srcY)
		y2 := y1 + 1
		if y2 >= srcHeight {
			y2 = srcHeight - 1
		}
		fy := srcY - float64(y1)

		for x := 0; x < dstWidth; x++ {
			srcX := float64(x) * xRatio
			x1 := int(srcX)
			x2 := x1 + 1
			if x2 >= srcWidth {
				x2 = srcWidth - 1
			}
			fx := srcX - float64(x1)

			p11 := float64(src[y1*srcStride+x1])
			p12 := float64(src[y1*srcStride+x2])
			p21 := float64(src[y2*srcStride+x1])
			p22 := float64(src[y2*srcStride+x2])

			top := p11*(1-fx) + p12*fx
			bottom := p21*(1-fx) + p22*fx
			dst[y*dstStride+x] = byte(top*(1-fy) + bottom*fy + 0.5)
		}
	}
}

// IsScalingRequired checks if scaling is needed for given dimensions.
func (s *Scaler) IsScalingRequired(srcWidth, srcHeight, dstWidth, dstHeight int) bool {
	return srcWidth != dstWidth || srcHeight != dstHeight
}

// FitRenderSize caps a requested render size at the scaler's maximum per
// axis, preserving the aspect ratio.
func (s *Scaler) FitRenderSize(width, height int) (int, int) {
	if width <= s.maxDimension && height <= s.maxDimension {
		return width, height
	}
	if width >= height {
		h := height * s.maxDimension / width
		if h < 1 {
			h = 1
		}
		return s.maxDimension, h
	}
	w := width * s.maxDimension / height
	if w < 1 {
		w = 1
	}
	return w, s.maxDimension
}
