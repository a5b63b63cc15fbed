package video

import (
	"bytes"
	"errors"
	"image"

	"golang.org/x/image/vp8"
)

// ErrNotKeyFrame is returned by VP8Engine for inter frames.
var ErrNotKeyFrame = errors.New("vp8: only key frames are supported")

// VP8Engine decodes VP8 key frames in pure Go.
type VP8Engine struct {
	dec *vp8.Decoder
}

// NewVP8Engine creates a pure Go VP8 engine.
func NewVP8Engine() *VP8Engine {
	return &VP8Engine{dec: vp8.NewDecoder()}
}

// Decode implements Engine.
func (e *VP8Engine) Decode(payload []byte) (*VideoFrame, error) {
	if e.dec == nil {
		return nil, errors.New("vp8: engine closed")
	}

	e.dec.Init(bytes.NewReader(payload), len(payload))
	fh, err := e.dec.DecodeFrameHeader()
	if err != nil {
		return nil, err
	}
	if !fh.KeyFrame {
		return nil, ErrNotKeyFrame
	}

	img, err := e.dec.DecodeFrame()
	if err != nil {
		return nil, err
	}
	if img.SubsampleRatio != image.YCbCrSubsampleRatio420 {
		return nil, errors.New("vp8: unexpected chroma subsampling")
	}
	return FromYCbCr(img), nil
}

// Close implements Engine.
func (e *VP8Engine) Close() error {
	e.dec = nil
	return nil
}
