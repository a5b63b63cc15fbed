package video

import (
	"errors"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/stickerplay/av"
	"github.com/opd-ai/stickerplay/av/pixel"
	"github.com/opd-ai/stickerplay/av/webm"
	"github.com/opd-ai/stickerplay/limits"
)

// Clip decodes a WebM or Matroska video sticker.
//
// Only the first key frame of the stream is decoded. Once it has been
// converted, every later call advances the demux cursor and returns the
// same cached raster until the stream ends.
type Clip struct {
	source  av.Source
	factory EngineFactory
	scaler  *Scaler

	closer  io.Closer
	demux   *webm.Demuxer
	decoder *CodecDecoder
	desc    av.TrackDescriptor

	reqWidth     int
	reqHeight    int
	renderWidth  int
	renderHeight int

	keyFrame *VideoFrame
	cached   *av.Raster
	packets  int
}

// NewClip creates an unloaded clip. A nil source reads the local filesystem
// and a nil factory selects DefaultEngineFactory.
func NewClip(source av.Source, factory EngineFactory) *Clip {
	if source == nil {
		source = av.OSSource{}
	}
	if factory == nil {
		factory = DefaultEngineFactory
	}
	return &Clip{source: source, factory: factory, scaler: NewScaler()}
}

// Load opens path through the clip's source. The file stays open until the
// clip is unloaded.
func (c *Clip) Load(path string) error {
	c.Unload()

	rc, size, err := c.source.Open(path)
	if err != nil {
		return err
	}
	if err := c.load(rc, size); err != nil {
		rc.Close()
		return err
	}
	c.closer = rc

	logrus.WithFields(logrus.Fields{
		"function": "Clip.Load",
		"path":     path,
		"codec":    c.decoder.Codec().String(),
		"track":    c.desc.String(),
	}).Info("Video sticker loaded")
	return nil
}

// LoadReader loads a clip from r. The caller keeps ownership of r, which
// must stay readable until the clip is unloaded.
func (c *Clip) LoadReader(r io.ReadSeeker, size int64) error {
	c.Unload()

	if err := c.load(r, size); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Clip.LoadReader",
		"codec":    c.decoder.Codec().String(),
		"track":    c.desc.String(),
	}).Info("Video sticker loaded")
	return nil
}

func (c *Clip) load(r io.ReadSeeker, size int64) error {
	const op = "video.Load"

	if size <= 0 {
		return av.Wrap(av.ErrFormat, op, limits.ErrEmpty)
	}

	demux, err := webm.Open(r, size)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Clip.Load",
			"size":     size,
			"error":    err.Error(),
		}).Error("Failed to open video container")
		return av.Wrap(av.ErrFormat, op, err)
	}

	track := demux.Track()
	if err := limits.ValidateDimensions(track.Width, track.Height, limits.MaxDimension); err != nil {
		return av.Wrap(av.ErrValidation, op, err)
	}

	rate := track.FrameRate()
	if !(rate > 0 && rate <= limits.MaxFrameRate) {
		rate = limits.DefaultFrameRate
	}
	duration := demux.Info().DurationSeconds()
	if !(duration > 0 && duration <= limits.MaxDurationSeconds) {
		duration = limits.DefaultDurationSeconds
	}
	total := totalFrames(duration, rate)

	decoder, err := NewCodecDecoder(CodecFromID(track.CodecID), c.factory)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Clip.Load",
			"codec_id": track.CodecID,
			"error":    err.Error(),
		}).Error("No codec engine for video track")
		return err
	}

	c.demux = demux
	c.decoder = decoder
	c.desc = av.NewTrackDescriptor(track.Width, track.Height, rate, total)
	c.applyRenderSize()
	return nil
}

func totalFrames(duration, rate float64) int {
	n := math.Floor(duration * rate)
	if n > limits.MaxTotalFrames {
		return limits.MaxTotalFrames
	}
	if n < 1 {
		return 1
	}
	return int(n)
}

// SetRenderSize requests an output size. It is capped at
// limits.MaxVideoRenderDimension per axis with the aspect ratio kept. Zero
// for both dimensions restores the native size.
func (c *Clip) SetRenderSize(width, height int) error {
	const op = "video.SetRenderSize"

	reqWidth, reqHeight := 0, 0
	if width != 0 || height != 0 {
		if err := limits.ValidateDimensions(width, height, limits.MaxDimension); err != nil {
			return av.Wrap(av.ErrValidation, op, err)
		}
		reqWidth, reqHeight = c.scaler.FitRenderSize(width, height)
	}

	if c.demux == nil {
		c.reqWidth, c.reqHeight = reqWidth, reqHeight
		return nil
	}

	// The cached frame is rebuilt before any state changes so a failed
	// conversion leaves the previous size in effect.
	renderWidth, renderHeight := c.effectiveSize(reqWidth, reqHeight)
	var raster *av.Raster
	if c.keyFrame != nil {
		var err error
		raster, err = c.convertTo(c.keyFrame, renderWidth, renderHeight)
		if err != nil {
			return err
		}
	}

	c.reqWidth, c.reqHeight = reqWidth, reqHeight
	c.renderWidth, c.renderHeight = renderWidth, renderHeight
	if raster != nil {
		c.cached = raster
	}
	return nil
}

func (c *Clip) applyRenderSize() {
	c.renderWidth, c.renderHeight = c.effectiveSize(c.reqWidth, c.reqHeight)
}

// effectiveSize resolves a requested size against the native track size.
func (c *Clip) effectiveSize(reqWidth, reqHeight int) (int, int) {
	if reqWidth > 0 && reqHeight > 0 {
		return reqWidth, reqHeight
	}
	return c.desc.Width, c.desc.Height
}

// DecodeNextFrame advances the scan by one frame.
//
// It returns OutcomeFrame with a raster, OutcomeRetry when no frame could be
// produced this call, OutcomeEnd at the end of the stream (including a
// malformed tail or an exhausted scan budget) and OutcomeFatal when no clip
// is loaded. The returned raster is shared and must not be modified.
func (c *Clip) DecodeNextFrame() (*av.Raster, av.Outcome) {
	if c.demux == nil {
		return nil, av.OutcomeFatal
	}

	budget := limits.MaxDemuxIterations
	for budget > 0 {
		c.demux.SetMaxIterations(budget)
		var pkt webm.Packet
		var err error
		if c.cached != nil {
			// Only the cached key frame is shown, so later payloads stay unread.
			pkt, err = c.demux.SkipPacket()
		} else {
			pkt, err = c.demux.NextPacket()
		}
		budget -= c.demux.Scanned()
		if err != nil {
			c.logStreamEnd(err)
			return nil, av.OutcomeEnd
		}
		c.packets++

		if c.cached != nil {
			return c.cached, av.OutcomeFrame
		}

		if !c.isKeyFrame(pkt) {
			logrus.WithFields(logrus.Fields{
				"function":  "Clip.DecodeNextFrame",
				"timestamp": pkt.Timestamp,
			}).Debug("Skipping frame before first key frame")
			continue
		}

		frame, err := c.decoder.Decode(pkt.Data)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":  "Clip.DecodeNextFrame",
				"timestamp": pkt.Timestamp,
				"size":      len(pkt.Data),
				"error":     err.Error(),
			}).Warn("Codec rejected key frame, continuing scan")
			continue
		}
		if frame == nil {
			continue
		}

		raster, err := c.convert(frame)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Clip.DecodeNextFrame",
				"error":    err.Error(),
			}).Warn("Failed to convert decoded frame")
			continue
		}

		c.keyFrame = frame.Clone()
		c.cached = raster
		logrus.WithFields(logrus.Fields{
			"function":  "Clip.DecodeNextFrame",
			"timestamp": pkt.Timestamp,
			"width":     raster.Width,
			"height":    raster.Height,
		}).Debug("Decoded first key frame")
		return raster, av.OutcomeFrame
	}

	logrus.WithFields(logrus.Fields{
		"function": "Clip.DecodeNextFrame",
		"budget":   limits.MaxDemuxIterations,
	}).Warn("Scan budget exhausted, treating as end of stream")
	return nil, av.OutcomeEnd
}

// isKeyFrame prefers the bitstream header and falls back to the container
// flag for payloads it cannot recognise.
func (c *Clip) isKeyFrame(pkt webm.Packet) bool {
	if key, ok := PeekKeyFrame(c.decoder.Codec(), pkt.Data); ok {
		return key
	}
	return pkt.KeyFrame
}

func (c *Clip) logStreamEnd(err error) {
	fields := logrus.Fields{
		"function": "Clip.DecodeNextFrame",
		"packets":  c.packets,
	}
	switch {
	case errors.Is(err, io.EOF):
		logrus.WithFields(fields).Debug("End of video stream")
	case errors.Is(err, webm.ErrScanLimit):
		logrus.WithFields(fields).Warn("Scan iteration limit reached, treating as end of stream")
	default:
		fields["error"] = err.Error()
		logrus.WithFields(fields).Warn("Malformed video stream, treating as end of stream")
	}
}

// convert scales the frame to the render size when needed and converts it
// to an opaque raster.
func (c *Clip) convert(frame *VideoFrame) (*av.Raster, error) {
	return c.convertTo(frame, c.renderWidth, c.renderHeight)
}

func (c *Clip) convertTo(frame *VideoFrame, width, height int) (*av.Raster, error) {
	if c.scaler.IsScalingRequired(frame.Width, frame.Height, width, height) {
		scaled, err := c.scaler.Scale(frame, width, height)
		if err != nil {
			return nil, err
		}
		frame = scaled
	}
	return pixel.PlanarToRaster(frame.Planes())
}

// Rewind moves the scan back to the first cluster. The cached raster is
// kept.
func (c *Clip) Rewind() {
	if c.demux == nil {
		return
	}
	c.demux.Reset()
	c.packets = 0
}

// Descriptor returns the loaded track descriptor.
func (c *Clip) Descriptor() av.TrackDescriptor {
	return c.desc
}

// RenderSize returns the current output dimensions.
func (c *Clip) RenderSize() (width, height int) {
	return c.renderWidth, c.renderHeight
}

// Loaded reports whether a clip is open.
func (c *Clip) Loaded() bool {
	return c.demux != nil
}

// Unload releases the codec engine and the underlying file.
func (c *Clip) Unload() {
	if c.decoder != nil {
		if err := c.decoder.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Clip.Unload",
				"error":    err.Error(),
			}).Warn("Codec engine close failed")
		}
		c.decoder = nil
	}
	if c.closer != nil {
		c.closer.Close()
		c.closer = nil
	}
	c.demux = nil
	c.desc = av.TrackDescriptor{}
	c.renderWidth, c.renderHeight = 0, 0
	c.keyFrame = nil
	c.cached = nil
	c.packets = 0
}

// Close releases all clip resources.
func (c *Clip) Close() error {
	c.Unload()
	return nil
}
