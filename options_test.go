package stickerplay

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/stickerplay/av"
)

func TestNewOptions(t *testing.T) {
	opts := NewOptions()

	assert.True(t, opts.Loop)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Equal(t, DefaultCacheEntries, opts.CacheEntries)
	assert.Zero(t, opts.RenderWidth)
	assert.Zero(t, opts.RenderHeight)
	assert.Nil(t, opts.Source)
	assert.NoError(t, opts.Validate())
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		valid  bool
	}{
		{"defaults", func(*Options) {}, true},
		{"explicit render size", func(o *Options) { o.RenderWidth, o.RenderHeight = 512, 256 }, true},
		{"max render size", func(o *Options) { o.RenderWidth, o.RenderHeight = 4096, 4096 }, true},
		{"render size too large", func(o *Options) { o.RenderWidth, o.RenderHeight = 4097, 10 }, false},
		{"only width", func(o *Options) { o.RenderWidth = 100 }, false},
		{"negative height", func(o *Options) { o.RenderWidth, o.RenderHeight = 10, -1 }, false},
		{"empty log level", func(o *Options) { o.LogLevel = "" }, true},
		{"unknown log level", func(o *Options) { o.LogLevel = "chatty" }, false},
		{"cache disabled", func(o *Options) { o.CacheEntries = 0 }, true},
		{"negative cache", func(o *Options) { o.CacheEntries = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewOptions()
			tt.modify(opts)
			err := opts.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, av.ErrValidation), "got %v", err)
			}
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOptions(t *testing.T) {
	path := writeFile(t, "player.yaml", "render_width: 320\nrender_height: 240\nloop: false\nlog_level: debug\n")

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, 320, opts.RenderWidth)
	assert.Equal(t, 240, opts.RenderHeight)
	assert.False(t, opts.Loop)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, DefaultCacheEntries, opts.CacheEntries)
}

func TestLoadOptions_EmptyFileKeepsDefaults(t *testing.T) {
	for name, content := range map[string]string{
		"empty.yaml":    "",
		"comments.yaml": "# player settings\n# render_width: 512\n",
	} {
		t.Run(name, func(t *testing.T) {
			opts, err := LoadOptions(writeFile(t, name, content))
			require.NoError(t, err)
			assert.True(t, opts.Loop)
			assert.Equal(t, "info", opts.LogLevel)
			assert.Equal(t, DefaultCacheEntries, opts.CacheEntries)
			assert.Zero(t, opts.RenderWidth)
		})
	}
}

func TestLoadOptions_Errors(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, av.ErrIO))

	_, err = LoadOptions(writeFile(t, "bad.yaml", "render_width: [1, 2\n"))
	assert.True(t, errors.Is(err, av.ErrFormat))

	_, err = LoadOptions(writeFile(t, "range.yaml", "cache_entries: -4\n"))
	assert.True(t, errors.Is(err, av.ErrValidation))
}

func TestApplyLogLevel(t *testing.T) {
	previous := logrus.GetLevel()
	defer logrus.SetLevel(previous)

	opts := NewOptions()
	opts.LogLevel = "warn"
	require.NoError(t, opts.ApplyLogLevel())
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	opts.LogLevel = ""
	require.NoError(t, opts.ApplyLogLevel())
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	opts.LogLevel = "nope"
	assert.Error(t, opts.ApplyLogLevel())
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
}

func TestOptions_SharedCache(t *testing.T) {
	opts := NewOptions()
	assert.Same(t, opts.bundleCache(), opts.bundleCache())
	assert.NotSame(t, opts.bundleCache(), NewOptions().bundleCache())
}
