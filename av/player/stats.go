package player

import (
	"time"
)

// TimeProvider abstracts time operations for deterministic testing.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// DefaultTimeProvider uses the standard library time functions.
type DefaultTimeProvider struct{}

// Now returns the current time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// Since returns the duration since t.
func (DefaultTimeProvider) Since(t time.Time) time.Duration { return time.Since(t) }

// Stats contains playback statistics for one controller.
type Stats struct {
	FramesEmitted int64         // Frames delivered to the frame-ready handler
	Retries       int64         // Ticks that produced no frame
	Loops         int64         // Wraps from the last frame back to frame 0
	AvgFrameTime  time.Duration // Exponential moving average of decode+convert time
	PeakFrameTime time.Duration // Maximum observed decode+convert time
}

// recordFrameTime folds one frame production time into the statistics.
func (s *Stats) recordFrameTime(d time.Duration) {
	// EMA with alpha = 0.1 for smooth averaging
	if s.AvgFrameTime == 0 {
		s.AvgFrameTime = d
	} else {
		s.AvgFrameTime = time.Duration(float64(s.AvgFrameTime)*0.9 + float64(d)*0.1)
	}
	if d > s.PeakFrameTime {
		s.PeakFrameTime = d
	}
}
