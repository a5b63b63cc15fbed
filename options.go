package stickerplay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/opd-ai/stickerplay/av"
	"github.com/opd-ai/stickerplay/av/bundle"
	"github.com/opd-ai/stickerplay/limits"
)

// DefaultCacheEntries is the default bundle cache capacity.
const DefaultCacheEntries = 16

// Options contains the configuration shared by the players created with it.
type Options struct {
	// RenderWidth and RenderHeight set the output size. Zero for both keeps
	// each sticker's native size.
	RenderWidth  int `yaml:"render_width"`
	RenderHeight int `yaml:"render_height"`
	// Loop restarts playback after the last frame.
	Loop bool `yaml:"loop"`
	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level"`
	// CacheEntries bounds the decompressed bundle cache. Zero disables it.
	CacheEntries int `yaml:"cache_entries"`
	// Source opens sticker files. Nil selects the local filesystem.
	Source av.Source `yaml:"-"`

	cacheOnce sync.Once
	cache     *bundle.Cache
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		Loop:         true,
		LogLevel:     "info",
		CacheEntries: DefaultCacheEntries,
	}
}

// LoadOptions reads options from a YAML file. Keys missing from the file
// keep their NewOptions defaults.
func LoadOptions(path string) (*Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, av.Wrap(av.ErrIO, "stickerplay.LoadOptions", err)
	}
	defer f.Close()

	opts := NewOptions()
	// An empty or comment-only file decodes to io.EOF and keeps the defaults.
	if err := yaml.NewDecoder(f).Decode(opts); err != nil && !errors.Is(err, io.EOF) {
		return nil, av.Wrap(av.ErrFormat, "stickerplay.LoadOptions", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":      "LoadOptions",
		"path":          path,
		"render_width":  opts.RenderWidth,
		"render_height": opts.RenderHeight,
		"loop":          opts.Loop,
		"cache_entries": opts.CacheEntries,
	}).Debug("Loaded options")

	return opts, nil
}

// Validate checks that every field is in range.
func (o *Options) Validate() error {
	const op = "stickerplay.Options"

	if o.RenderWidth != 0 || o.RenderHeight != 0 {
		if err := limits.ValidateDimensions(o.RenderWidth, o.RenderHeight, limits.MaxDimension); err != nil {
			return av.Wrap(av.ErrValidation, op, fmt.Errorf("render size: %w", err))
		}
	}
	if o.LogLevel != "" {
		if _, err := logrus.ParseLevel(o.LogLevel); err != nil {
			return av.Wrap(av.ErrValidation, op, err)
		}
	}
	if o.CacheEntries < 0 {
		return av.Errorf(av.ErrValidation, op, "cache entries %d is negative", o.CacheEntries)
	}
	return nil
}

// ApplyLogLevel sets the global logrus level from LogLevel. An empty level
// leaves logging unchanged.
func (o *Options) ApplyLogLevel() error {
	if o.LogLevel == "" {
		return nil
	}
	level, err := logrus.ParseLevel(o.LogLevel)
	if err != nil {
		return av.Wrap(av.ErrValidation, "stickerplay.ApplyLogLevel", err)
	}
	logrus.SetLevel(level)
	return nil
}

// bundleCache returns the cache shared by every player built from o. It is
// sized from CacheEntries on first use.
func (o *Options) bundleCache() *bundle.Cache {
	o.cacheOnce.Do(func() {
		o.cache = bundle.NewCache(o.CacheEntries, nil)
	})
	return o.cache
}

func (o *Options) source() av.Source {
	if o.Source == nil {
		return av.OSSource{}
	}
	return o.Source
}
