// Package limits provides centralized resource caps and validation functions
// for sticker decoding. This package ensures consistent bound enforcement
// across every stage of the decode-and-playback pipeline.
//
// # Size Hierarchy
//
// The package defines caps for each stage that handles untrusted input:
//
//   - MaxCompressedBundle (10 MiB): the largest gzip vector bundle accepted.
//     Checked before any decompression begins.
//
//   - MaxDecompressedBundle (50 MiB): the ceiling for inflated output. Inflation
//     happens in DecompressChunk steps and aborts once this is crossed.
//
//   - MaxFramePayload (50 MiB): the largest video payload handed to a codec.
//     Larger payloads are skipped, not treated as fatal.
//
//   - MaxFramePixels (16,777,216): the ceiling for any frame buffer.
//
// # Validation Functions
//
// Each validation function checks for empty input and limit violations:
//
//	err := limits.ValidateSize(data, limits.MaxCompressedBundle)
//	if err != nil {
//	    // Handle validation error (ErrEmpty or ErrTooLarge)
//	}
//
// Dimension checks report ErrOutOfRange:
//
//	err := limits.ValidateDimensions(width, height, limits.MaxDimension)
//
// # Timing
//
// TickInterval derives the recommended external tick from a frame rate with a
// floor of MinTickInterval:
//
//	interval := limits.TickInterval(60) // 17ms
//
// # Error Types
//
//   - ErrEmpty: an empty or nil input
//   - ErrTooLarge: input exceeds the specified limit
//   - ErrOutOfRange: a dimension or rate outside its accepted range
package limits
