package stickerplay

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/opd-ai/stickerplay/av"
)

// Format identifies a sticker encoding.
type Format uint8

const (
	// FormatUnknown is returned when the encoding cannot be determined.
	FormatUnknown Format = iota
	// FormatVector is a gzip-compressed Lottie bundle (.tgs).
	FormatVector
	// FormatVideo is a WebM or Matroska clip.
	FormatVideo
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatVector:
		return "vector"
	case FormatVideo:
		return "video"
	default:
		return "unknown"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	ebmlMagic = []byte{0x1a, 0x45, 0xdf, 0xa3}
)

// DetectFormat identifies sticker data by its leading bytes.
func DetectFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return FormatVector
	case bytes.HasPrefix(data, ebmlMagic):
		return FormatVideo
	default:
		return FormatUnknown
	}
}

// DetectFormatFromPath identifies a sticker file by extension, falling back
// to reading its leading bytes through src. A nil src selects the local
// filesystem.
func DetectFormatFromPath(src av.Source, path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tgs":
		return FormatVector, nil
	case ".webm", ".mkv":
		return FormatVideo, nil
	}

	if src == nil {
		src = av.OSSource{}
	}
	f, _, err := src.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	head := make([]byte, len(ebmlMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUnknown, av.Wrap(av.ErrIO, "stickerplay.DetectFormatFromPath", err)
	}
	return DetectFormat(head[:n]), nil
}
