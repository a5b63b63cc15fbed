// Package video decodes video stickers: a short VP8 or VP9 clip inside a
// WebM or Matroska container.
//
// # Architecture Overview
//
// The decode path runs one step per playback tick:
//
//	webm.Demuxer → key-frame check → CodecDecoder → Scaler → pixel.PlanarToRaster
//
// The demuxer and the codec engine have independent lifecycles. Rewinding
// the clip resets the demux cursor but keeps the engine and the cached
// frame.
//
// # Clips
//
// A Clip opens the container, validates the video track and derives the
// track descriptor:
//
//	clip := video.NewClip(nil, nil) // local files, default engines
//	if err := clip.Load("sticker.webm"); err != nil {
//	    return err
//	}
//	defer clip.Close()
//
//	raster, outcome := clip.DecodeNextFrame()
//
// Frame rates outside (0, 120] become 30 and durations outside (0, 300]
// seconds become 5. The frame count is duration times rate, capped at
// limits.MaxTotalFrames.
//
// Only the first key frame of a stream reaches the codec engine. Every later
// call advances the demux cursor and returns the same raster until the
// stream ends, so a sticker clip is shown as its first picture for its
// whole duration.
//
// # Codec Engines
//
// Engines are created through an EngineFactory. DefaultEngineFactory uses
// VPXEngine for VP9, which loads libmedia_vpx at runtime through purego and
// is compiled out with the novpx build tag, and the pure Go VP8Engine for
// VP8. When no engine can be created for the track's codec the other codec
// is tried once.
//
// # Video Scaling
//
// The Scaler resizes frames using bilinear interpolation. Caller-requested
// render sizes are capped at limits.MaxVideoRenderDimension per axis:
//
//	scaler := video.NewScaler()
//	w, h := scaler.FitRenderSize(2048, 1024) // 1024, 512
//	scaled, err := scaler.Scale(frame, w, h)
//
// # Thread Safety
//
// Types in this package are NOT thread-safe. A Clip is owned by a single
// player and driven from the host's tick goroutine.
package video
