// Package stickerplay decodes and plays animated chat stickers.
//
// Two sticker encodings are supported: gzip-compressed Lottie vector
// bundles (.tgs) and VP8/VP9 video clips in WebM or Matroska containers.
// Both decode into the same [av.Raster] frames and are driven by the same
// playback controller, so a host renders either kind with one code path.
//
// # Getting Started
//
// Open a sticker, register a frame handler and call Advance on every tick:
//
//	opts := stickerplay.NewOptions()
//	opts.RenderWidth, opts.RenderHeight = 256, 256
//
//	p, err := stickerplay.Open("sticker.tgs", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	p.OnFrameReady(func(frame *av.Raster, index int) {
//	    draw(frame.ToNRGBA())
//	})
//
//	if err := p.Play(); err != nil {
//	    log.Fatal(err)
//	}
//
//	ticker := time.NewTicker(p.TickInterval())
//	defer ticker.Stop()
//	for range ticker.C {
//	    if !p.Advance() {
//	        break
//	    }
//	}
//
// The player never starts goroutines or timers of its own. The host owns
// the clock, and a player must only be used from one goroutine at a time.
//
// # Configuration
//
// [Options] can be built in code with [NewOptions] or read from YAML with
// [LoadOptions]:
//
//	render_width: 512
//	render_height: 512
//	loop: true
//	log_level: debug
//	cache_entries: 32
//
// Players created from the same Options share a content-addressed cache of
// decompressed vector bundles, so a sticker shown many times is inflated
// once.
//
// # Packages
//
//   - [github.com/opd-ai/stickerplay/av/bundle]: gzip bundle decompression and caching
//   - [github.com/opd-ai/stickerplay/av/vector]: vector animation decoding
//   - [github.com/opd-ai/stickerplay/av/webm]: WebM/Matroska demuxing
//   - [github.com/opd-ai/stickerplay/av/video]: VP8/VP9 decoding and scaling
//   - [github.com/opd-ai/stickerplay/av/pixel]: YUV and ARGB conversion
//   - [github.com/opd-ai/stickerplay/av/player]: the playback controller
//   - [github.com/opd-ai/stickerplay/limits]: resource caps
//
// # Errors
//
// Errors carry a kind that can be tested with errors.Is:
//
//	if errors.Is(err, av.ErrFormat) {
//	    // not a sticker this package understands
//	}
//
// # Logging
//
// All packages log through logrus with structured fields. Use
// [Options.ApplyLogLevel] to set the level from configuration.
package stickerplay
