package player

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/stickerplay/av"
	"github.com/opd-ai/stickerplay/limits"
)

// State is the playback state of a controller.
type State uint8

const (
	// StateIdle means nothing is playing. A sticker may still be loaded
	// after Stop.
	StateIdle State = iota
	// StateLoaded means a sticker was loaded and has not been played yet.
	StateLoaded
	// StatePlaying means Advance produces frames.
	StatePlaying
	// StatePaused means playback is suspended at the current frame.
	StatePaused
	// StateEnded means the last frame was reached without looping.
	StateEnded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Config holds the per-player options.
type Config struct {
	// RenderWidth and RenderHeight override the output size. Zero for both
	// selects the native size.
	RenderWidth  int
	RenderHeight int
	// Loop restarts playback at frame 0 after the last frame.
	Loop bool
}

// DefaultConfig returns native-size, looping playback.
func DefaultConfig() Config {
	return Config{Loop: true}
}

// Status is a snapshot of the controller.
type Status struct {
	Loaded       bool
	Playing      bool
	Loop         bool
	CurrentFrame int
	RenderWidth  int
	RenderHeight int
	State        State
}

// FrameHandler receives every produced frame. It is called synchronously
// from Load, Play and Advance.
type FrameHandler func(frame *av.Raster, index int)

// Controller drives one sticker. It owns its source exclusively and runs
// entirely on the caller's goroutine; the host supplies the tick by calling
// Advance every TickInterval.
//
// Controller is not safe for concurrent use.
type Controller struct {
	id     uuid.UUID
	loader Loader
	config Config

	source  FrameSource
	desc    av.TrackDescriptor
	state   State
	current int
	closed  bool

	onFrame      FrameHandler
	stats        Stats
	timeProvider TimeProvider
}

// New creates an idle controller that loads stickers with loader.
func New(loader Loader, config Config) *Controller {
	c := &Controller{
		id:     uuid.New(),
		loader: loader,
		config: config,
	}

	logrus.WithFields(logrus.Fields{
		"function":  "New",
		"player_id": c.id.String(),
		"loop":      config.Loop,
	}).Debug("Created playback controller")

	return c
}

// ID returns the controller's log identifier.
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// SetTimeProvider sets the time provider used for frame timing statistics.
func (c *Controller) SetTimeProvider(tp TimeProvider) {
	c.timeProvider = tp
}

func (c *Controller) getTimeProvider() TimeProvider {
	if c.timeProvider == nil {
		return DefaultTimeProvider{}
	}
	return c.timeProvider
}

// OnFrameReady sets the frame-ready handler. A nil handler disables
// notifications.
func (c *Controller) OnFrameReady(handler FrameHandler) {
	c.onFrame = handler
}

// Load loads the sticker at path, replacing any loaded one, and emits its
// first frame. On error the controller is left idle with nothing loaded.
func (c *Controller) Load(path string) error {
	return c.load("Load", func() (FrameSource, error) {
		return c.loader.LoadFile(path)
	})
}

// LoadBytes is Load for in-memory sticker data.
func (c *Controller) LoadBytes(data []byte) error {
	return c.load("LoadBytes", func() (FrameSource, error) {
		return c.loader.LoadBytes(data)
	})
}

func (c *Controller) load(function string, open func() (FrameSource, error)) error {
	if c.closed {
		return &av.Error{Op: "player." + function, Kind: av.ErrClosed}
	}

	c.Unload()

	source, err := open()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":  function,
			"player_id": c.id.String(),
			"error":     err.Error(),
		}).Error("Failed to load sticker")
		return err
	}

	if c.config.RenderWidth != 0 || c.config.RenderHeight != 0 {
		if err := source.SetRenderSize(c.config.RenderWidth, c.config.RenderHeight); err != nil {
			source.Close()
			return err
		}
	}

	c.source = source
	c.desc = source.Descriptor()
	c.state = StateLoaded
	c.current = 0

	width, height := source.RenderSize()
	logrus.WithFields(logrus.Fields{
		"function":      function,
		"player_id":     c.id.String(),
		"track":         c.desc.String(),
		"render_width":  width,
		"render_height": height,
		"tick":          c.desc.TickInterval().String(),
	}).Info("Sticker loaded")

	c.produce(0)
	return nil
}

// Play starts playback from frame 0 and emits it. It is a no-op while
// already playing.
func (c *Controller) Play() error {
	if err := c.requireLoaded("player.Play"); err != nil {
		return err
	}
	if c.state == StatePlaying {
		return nil
	}

	c.state = StatePlaying
	c.current = 0
	c.source.Rewind()

	logrus.WithFields(logrus.Fields{
		"function":  "Play",
		"player_id": c.id.String(),
	}).Debug("Playback started")

	c.produce(0)
	return nil
}

// Pause suspends playback at the current frame.
func (c *Controller) Pause() error {
	if err := c.requireLoaded("player.Pause"); err != nil {
		return err
	}
	if c.state == StatePlaying {
		c.state = StatePaused
	}
	return nil
}

// Resume continues paused playback without resetting the frame cursor.
func (c *Controller) Resume() error {
	if err := c.requireLoaded("player.Resume"); err != nil {
		return err
	}
	if c.state == StatePaused {
		c.state = StatePlaying
	}
	return nil
}

// Stop halts playback and moves the cursor to frame 0. The sticker stays
// loaded.
func (c *Controller) Stop() {
	if c.source == nil {
		return
	}
	c.state = StateIdle
	c.current = 0
	c.source.Rewind()
}

// Advance moves to the next frame and emits it. It must be called once per
// tick and does nothing unless playing. It returns false when playback is
// not running after the call, which includes reaching the last frame
// without looping.
func (c *Controller) Advance() bool {
	if c.state != StatePlaying || c.source == nil {
		return false
	}

	c.current++
	if c.current >= c.desc.TotalFrames {
		return c.wrap()
	}

	switch c.produce(c.current) {
	case av.OutcomeEnd:
		// The stream ran out before the declared frame count.
		return c.wrap()
	case av.OutcomeFatal:
		c.state = StateEnded
		c.current = 0
		return false
	}
	return true
}

// wrap handles the end of the frame sequence.
func (c *Controller) wrap() bool {
	if !c.config.Loop {
		c.state = StateEnded
		c.current = c.desc.TotalFrames - 1

		logrus.WithFields(logrus.Fields{
			"function":  "Advance",
			"player_id": c.id.String(),
		}).Debug("Playback ended")
		return false
	}

	c.stats.Loops++
	c.current = 0
	c.source.Rewind()
	if c.produce(0) == av.OutcomeFatal {
		c.state = StateEnded
		return false
	}
	return true
}

// produce obtains frame index from the source and notifies the handler.
func (c *Controller) produce(index int) av.Outcome {
	tp := c.getTimeProvider()
	start := tp.Now()
	raster, outcome := c.source.Frame(index)
	elapsed := tp.Since(start)

	switch outcome {
	case av.OutcomeFrame:
		c.stats.FramesEmitted++
		c.stats.recordFrameTime(elapsed)
		if c.onFrame != nil {
			c.onFrame(raster, index)
		}
	case av.OutcomeRetry:
		c.stats.Retries++
		logrus.WithFields(logrus.Fields{
			"function":  "produce",
			"player_id": c.id.String(),
			"index":     index,
		}).Debug("No frame this tick")
	case av.OutcomeFatal:
		logrus.WithFields(logrus.Fields{
			"function":  "produce",
			"player_id": c.id.String(),
			"index":     index,
		}).Error("Sticker source can no longer produce frames")
	}
	return outcome
}

// SetLoop sets whether playback restarts after the last frame.
func (c *Controller) SetLoop(loop bool) {
	c.config.Loop = loop
}

// SetRenderSize changes the output size. Zero for both dimensions restores
// the native size. A loaded sticker is resized immediately.
func (c *Controller) SetRenderSize(width, height int) error {
	const op = "player.SetRenderSize"

	if c.closed {
		return &av.Error{Op: op, Kind: av.ErrClosed}
	}
	if width != 0 || height != 0 {
		if err := limits.ValidateDimensions(width, height, limits.MaxDimension); err != nil {
			return av.Wrap(av.ErrValidation, op, err)
		}
	}
	if c.source != nil {
		if err := c.source.SetRenderSize(width, height); err != nil {
			return err
		}
	}
	c.config.RenderWidth, c.config.RenderHeight = width, height
	return nil
}

// Unload releases the loaded sticker and returns to the idle state.
func (c *Controller) Unload() {
	if c.source == nil {
		return
	}
	if err := c.source.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "Unload",
			"player_id": c.id.String(),
			"error":     err.Error(),
		}).Warn("Failed to close sticker source")
	}
	c.source = nil
	c.desc = av.TrackDescriptor{}
	c.state = StateIdle
	c.current = 0

	logrus.WithFields(logrus.Fields{
		"function":  "Unload",
		"player_id": c.id.String(),
	}).Info("Sticker unloaded")
}

// Close unloads the sticker. Later loads fail with ErrClosed.
func (c *Controller) Close() error {
	c.Unload()
	c.closed = true
	c.onFrame = nil
	return nil
}

// Status returns a snapshot of the playback state.
func (c *Controller) Status() Status {
	s := Status{
		Loaded:       c.source != nil,
		Playing:      c.state == StatePlaying,
		Loop:         c.config.Loop,
		CurrentFrame: c.current,
		State:        c.state,
	}
	if c.source != nil {
		s.RenderWidth, s.RenderHeight = c.source.RenderSize()
	}
	return s
}

// Descriptor returns the loaded track descriptor, or the zero value.
func (c *Controller) Descriptor() av.TrackDescriptor {
	return c.desc
}

// TickInterval returns how often the host should call Advance.
func (c *Controller) TickInterval() time.Duration {
	return c.desc.TickInterval()
}

// Stats returns the playback statistics.
func (c *Controller) Stats() Stats {
	return c.stats
}

// ResetStats clears the playback statistics.
func (c *Controller) ResetStats() {
	c.stats = Stats{}
}

func (c *Controller) requireLoaded(op string) error {
	if c.closed {
		return &av.Error{Op: op, Kind: av.ErrClosed}
	}
	if c.source == nil {
		return &av.Error{Op: op, Kind: av.ErrNotLoaded}
	}
	return nil
}
