// Package av implements the animated-sticker decode-and-playback pipeline.
//
// This package holds the types shared by every stage: the error kinds,
// the Raster delivered to the painting layer, the reusable FrameBuffer,
// the TrackDescriptor derived at load time, and the Outcome tag returned
// by every decode call.
//
// # Architecture
//
// The av package consists of several integrated subsystems:
//
//   - av/bundle: gzip bundle inflation with size caps and a shared cache
//   - av/vector: vector-animation decoding over an opaque engine
//   - av/vector/lottie: the built-in Lottie engine
//   - av/webm: WebM/Matroska demuxing with a resumable, bounded cursor
//   - av/video: VP8/VP9 codec engines, YUV420 frames and plane scaling
//   - av/pixel: YUV to RGB conversion and alpha un-premultiply
//   - av/player: the playback state machine shared by both encodings
//
// # Data Flow
//
//	Load(bytes|path) → parse/decode-init → decode frame 0 → convert → notify
//	Advance()        → move cursor → decode → convert → notify | end
//
// # Error Handling
//
// Errors carry one of the sentinel kinds and are matched with errors.Is:
//
//	if errors.Is(err, av.ErrSizeLimit) {
//	    // reject oversized sticker
//	}
//
// Per-frame failures never surface as errors from playback; they resolve to
// an Outcome instead:
//
//	raster, outcome := clip.DecodeNextFrame()
//	switch outcome {
//	case av.OutcomeFrame:
//	    paint(raster)
//	case av.OutcomeEnd:
//	    // loop or stop
//	}
//
// # Concurrency
//
// Every operation runs synchronously on the calling goroutine. There are no
// internal goroutines or timers; the host drives playback by calling Advance
// at the interval reported by TrackDescriptor.TickInterval.
package av
