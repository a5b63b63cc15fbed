package stickerplay

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/stickerplay/av"
	"github.com/opd-ai/stickerplay/av/player"
)

// Player is a playback controller for one sticker.
type Player = player.Controller

// NewPlayer creates an idle player for stickers of the given format. Players
// created from the same Options share one bundle cache. A nil opts selects
// NewOptions.
func NewPlayer(format Format, opts *Options) (*Player, error) {
	const op = "stickerplay.NewPlayer"

	if opts == nil {
		opts = NewOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var loader player.Loader
	switch format {
	case FormatVector:
		loader = player.NewVectorLoader(opts.source(), opts.bundleCache(), nil)
	case FormatVideo:
		loader = player.NewVideoLoader(opts.source(), nil)
	default:
		return nil, av.Errorf(av.ErrFormat, op, "unsupported sticker format %s", format)
	}

	p := player.New(loader, player.Config{
		RenderWidth:  opts.RenderWidth,
		RenderHeight: opts.RenderHeight,
		Loop:         opts.Loop,
	})

	logrus.WithFields(logrus.Fields{
		"function":  "NewPlayer",
		"format":    format.String(),
		"player_id": p.ID().String(),
	}).Debug("Created player")

	return p, nil
}

// Open creates a player for the sticker file at path and loads it.
func Open(path string, opts *Options) (*Player, error) {
	if opts == nil {
		opts = NewOptions()
	}
	format, err := DetectFormatFromPath(opts.Source, path)
	if err != nil {
		return nil, err
	}
	p, err := NewPlayer(format, opts)
	if err != nil {
		return nil, err
	}
	if err := p.Load(path); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// OpenBytes creates a player for in-memory sticker data and loads it. The
// format is detected from the leading bytes. data must not be modified while
// the player holds a video sticker.
func OpenBytes(data []byte, opts *Options) (*Player, error) {
	p, err := NewPlayer(DetectFormat(data), opts)
	if err != nil {
		return nil, err
	}
	if err := p.LoadBytes(data); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}
