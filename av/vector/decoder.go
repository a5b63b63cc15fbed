// Package vector decodes vector-animation stickers through an opaque engine.
//
// The Decoder owns the engine's animation handle and a reusable frame
// buffer. Rendering produces premultiplied ARGB, which is always
// un-premultiplied before the caller receives a Raster.
package vector

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/stickerplay/av"
	"github.com/opd-ai/stickerplay/av/pixel"
	"github.com/opd-ai/stickerplay/limits"
)

// Decoder wraps a vector engine and exposes frame count, frame rate,
// native size and rendering.
type Decoder struct {
	engine Engine
	anim   Animation
	desc   av.TrackDescriptor

	// Caller-requested render size; zero means native.
	reqWidth  int
	reqHeight int

	renderWidth  int
	renderHeight int
	buffer       av.FrameBuffer
}

// NewDecoder creates a decoder that parses documents with engine.
func NewDecoder(engine Engine) *Decoder {
	return &Decoder{engine: engine}
}

// SetRenderSize overrides the render size. Zero for both dimensions
// restores the native size. When loaded, the frame buffer is resized
// immediately.
func (d *Decoder) SetRenderSize(width, height int) error {
	const op = "vector.SetRenderSize"

	if width == 0 && height == 0 {
		d.reqWidth, d.reqHeight = 0, 0
	} else {
		if err := limits.ValidateDimensions(width, height, limits.MaxDimension); err != nil {
			return av.Wrap(av.ErrValidation, op, err)
		}
		d.reqWidth, d.reqHeight = width, height
	}

	if d.anim == nil {
		return nil
	}
	return d.establishRenderSize()
}

// Load parses doc with the engine and validates the result. On any error
// the decoder is left unloaded and the partial handle released.
func (d *Decoder) Load(doc []byte) error {
	const op = "vector.Load"

	d.Unload()

	if len(doc) == 0 {
		return av.Wrap(av.ErrFormat, op, limits.ErrEmpty)
	}
	if d.engine == nil {
		return av.Errorf(av.ErrFormat, op, "no vector engine configured")
	}

	anim, err := parseSafely(d.engine, doc)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Decoder.Load",
			"engine":   d.engine.Name(),
			"doc_size": len(doc),
			"error":    err.Error(),
		}).Error("Vector engine rejected document")
		return av.Wrap(av.ErrFormat, op, err)
	}

	frames := anim.FrameCount()
	rate := anim.FrameRate()
	width, height := anim.Size()

	if err := validateTrack(frames, rate, width, height); err != nil {
		anim.Close()
		return av.Wrap(av.ErrValidation, op, err)
	}

	d.anim = anim
	d.desc = av.NewTrackDescriptor(width, height, rate, frames)

	if err := d.establishRenderSize(); err != nil {
		d.Unload()
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function":      "Decoder.Load",
		"engine":        d.engine.Name(),
		"track":         d.desc.String(),
		"render_width":  d.renderWidth,
		"render_height": d.renderHeight,
	}).Info("Vector sticker loaded")

	return nil
}

func validateTrack(frames int, rate float64, width, height int) error {
	if frames <= 0 {
		return fmt.Errorf("%w: frame count %d", limits.ErrOutOfRange, frames)
	}
	if !(rate > 0) {
		return fmt.Errorf("%w: frame rate %v", limits.ErrOutOfRange, rate)
	}
	return limits.ValidateDimensions(width, height, limits.MaxDimension)
}

// establishRenderSize picks the render size and sizes the frame buffer.
func (d *Decoder) establishRenderSize() error {
	w, h := d.reqWidth, d.reqHeight
	if w == 0 || h == 0 {
		w, h = d.desc.Width, d.desc.Height
	}
	if err := d.buffer.Resize(w, h); err != nil {
		return err
	}
	d.renderWidth, d.renderHeight = w, h
	return nil
}

// RenderFrame renders frame index at width x height and returns the
// un-premultiplied raster. An out-of-range index is clamped into
// [0, TotalFrames-1] rather than rejected.
func (d *Decoder) RenderFrame(index, width, height int) (*av.Raster, error) {
	const op = "vector.RenderFrame"

	if d.anim == nil {
		return nil, &av.Error{Op: op, Kind: av.ErrNotLoaded}
	}
	if err := limits.ValidateDimensions(width, height, limits.MaxDimension); err != nil {
		return nil, av.Wrap(av.ErrValidation, op, err)
	}
	if err := d.buffer.Resize(width, height); err != nil {
		return nil, err
	}

	if index >= d.desc.TotalFrames {
		index = d.desc.TotalFrames - 1
	}
	if index < 0 {
		index = 0
	}

	if err := renderSafely(d.anim, index, d.buffer.Pix, width, height); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Decoder.RenderFrame",
			"index":    index,
			"error":    err.Error(),
		}).Warn("Vector engine failed to render frame")
		return nil, av.Wrap(av.ErrFormat, op, err)
	}

	return pixel.ARGBToRaster(d.buffer.Pix, width, height)
}

// Render renders frame index at the current render size.
func (d *Decoder) Render(index int) (*av.Raster, error) {
	return d.RenderFrame(index, d.renderWidth, d.renderHeight)
}

// Descriptor returns the loaded track descriptor.
func (d *Decoder) Descriptor() av.TrackDescriptor {
	return d.desc
}

// RenderSize returns the current render dimensions.
func (d *Decoder) RenderSize() (width, height int) {
	return d.renderWidth, d.renderHeight
}

// Loaded reports whether an animation handle is held.
func (d *Decoder) Loaded() bool {
	return d.anim != nil
}

// Unload releases the animation handle and the frame buffer.
func (d *Decoder) Unload() {
	if d.anim != nil {
		if err := d.anim.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Decoder.Unload",
				"error":    err.Error(),
			}).Warn("Vector engine close failed")
		}
		d.anim = nil
	}
	d.desc = av.TrackDescriptor{}
	d.renderWidth, d.renderHeight = 0, 0
	d.buffer.Release()
}

// Close releases all decoder resources.
func (d *Decoder) Close() error {
	d.Unload()
	return nil
}

// parseSafely calls the engine, converting a panic into an error.
func parseSafely(engine Engine, doc []byte) (anim Animation, err error) {
	defer func() {
		if r := recover(); r != nil {
			anim = nil
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	anim, err = engine.Parse(doc)
	if err == nil && anim == nil {
		err = fmt.Errorf("engine returned no animation")
	}
	return anim, err
}

// renderSafely calls the engine, converting a panic into an error.
func renderSafely(anim Animation, index int, dst []uint32, width, height int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return anim.Render(index, dst, width, height)
}
