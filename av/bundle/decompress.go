// Package bundle inflates gzip-compressed vector sticker bundles.
//
// Inflation is bounded twice: the compressed input is checked against
// limits.MaxCompressedBundle before a reader is created, and the output is
// accumulated in limits.DecompressChunk steps that abort as soon as
// limits.MaxDecompressedBundle would be crossed.
package bundle

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/stickerplay/av"
	"github.com/opd-ai/stickerplay/limits"
)

// Decompressor inflates gzip bundles into size-bounded buffers.
type Decompressor struct {
	maxInput  int
	maxOutput int
	chunkSize int
}

// NewDecompressor creates a decompressor with the standard sticker limits.
func NewDecompressor() *Decompressor {
	return &Decompressor{
		maxInput:  limits.MaxCompressedBundle,
		maxOutput: limits.MaxDecompressedBundle,
		chunkSize: limits.DecompressChunk,
	}
}

// NewDecompressorWithLimits creates a decompressor with custom limits.
// Non-positive values fall back to the standard limits.
func NewDecompressorWithLimits(maxInput, maxOutput, chunkSize int) *Decompressor {
	d := NewDecompressor()
	if maxInput > 0 {
		d.maxInput = maxInput
	}
	if maxOutput > 0 {
		d.maxOutput = maxOutput
	}
	if chunkSize > 0 {
		d.chunkSize = chunkSize
	}
	return d
}

// Decompress inflates data and returns the decompressed document.
//
// Errors:
//   - av.ErrFormat: empty input, bad magic, truncated stream or checksum mismatch
//   - av.ErrSizeLimit: compressed input or decompressed output over its cap
func (d *Decompressor) Decompress(data []byte) ([]byte, error) {
	const op = "bundle.Decompress"

	if err := limits.ValidateSize(data, d.maxInput); err != nil {
		if errors.Is(err, limits.ErrEmpty) {
			return nil, av.Wrap(av.ErrFormat, op, err)
		}
		logrus.WithFields(logrus.Fields{
			"function":   "Decompressor.Decompress",
			"input_size": len(data),
			"limit":      d.maxInput,
		}).Warn("Rejecting oversized bundle before decompression")
		return nil, av.Wrap(av.ErrSizeLimit, op, err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, av.Wrap(av.ErrFormat, op, err)
	}
	defer zr.Close()

	initial := len(data) * 4
	if initial > d.maxOutput {
		initial = d.maxOutput
	}
	out := make([]byte, 0, initial)
	chunk := make([]byte, d.chunkSize)

	for {
		n, err := zr.Read(chunk)
		if n > 0 {
			if len(out)+n > d.maxOutput {
				logrus.WithFields(logrus.Fields{
					"function":    "Decompressor.Decompress",
					"input_size":  len(data),
					"output_size": len(out) + n,
					"limit":       d.maxOutput,
				}).Warn("Decompressed bundle exceeds limit, aborting")
				return nil, av.Errorf(av.ErrSizeLimit, op, "decompressed size exceeds limit %d", d.maxOutput)
			}
			out = append(out, chunk[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, av.Wrap(av.ErrFormat, op, err)
		}
	}

	if len(out) == 0 {
		return nil, av.Errorf(av.ErrFormat, op, "bundle decompressed to an empty document")
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Decompressor.Decompress",
		"input_size":  len(data),
		"output_size": len(out),
	}).Debug("Bundle decompressed")

	return out, nil
}

// DecompressFile reads a bundle through src and inflates it. Files larger
// than the compressed cap are rejected before they are read.
func (d *Decompressor) DecompressFile(src av.Source, path string) ([]byte, error) {
	data, err := av.ReadAll(src, path, int64(d.maxInput))
	if err != nil {
		return nil, err
	}
	return d.Decompress(data)
}
