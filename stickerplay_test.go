package stickerplay

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/stickerplay/av"
	"github.com/opd-ai/stickerplay/av/webm/webmtest"
)

// blueSquare is a 32x32 canvas with a blue square in the middle.
const blueSquare = `{
  "fr": 30, "ip": 0, "op": 15, "w": 32, "h": 32,
  "layers": [{
    "ty": 4, "ip": 0, "op": 15, "st": 0, "ks": {},
    "shapes": [
      {"ty": "rc", "p": {"a": 0, "k": [16, 16]}, "s": {"a": 0, "k": [16, 16]}, "r": {"a": 0, "k": 0}},
      {"ty": "fl", "c": {"a": 0, "k": [0, 0, 1, 1]}, "o": {"a": 0, "k": 100}}
    ]
  }]
}`

func tgs(t *testing.T, doc string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00}, FormatVector},
		{"ebml", []byte{0x1a, 0x45, 0xdf, 0xa3, 0x01}, FormatVideo},
		{"json", []byte(`{"fr": 30}`), FormatUnknown},
		{"short", []byte{0x1a, 0x45}, FormatUnknown},
		{"empty", nil, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.data))
		})
	}
}

func TestDetectFormatFromPath(t *testing.T) {
	format, err := DetectFormatFromPath(nil, "/nonexistent/sticker.TGS")
	require.NoError(t, err)
	assert.Equal(t, FormatVector, format)

	format, err = DetectFormatFromPath(nil, "/nonexistent/clip.mkv")
	require.NoError(t, err)
	assert.Equal(t, FormatVideo, format)

	sniffed := writeFile(t, "sticker.bin", string(webmtest.NewClip().Bytes()))
	format, err = DetectFormatFromPath(nil, sniffed)
	require.NoError(t, err)
	assert.Equal(t, FormatVideo, format)

	tiny := writeFile(t, "tiny", "x")
	format, err = DetectFormatFromPath(nil, tiny)
	require.NoError(t, err)
	assert.Equal(t, FormatUnknown, format)

	_, err = DetectFormatFromPath(nil, "/nonexistent/sticker")
	assert.True(t, errors.Is(err, av.ErrIO))
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "vector", FormatVector.String())
	assert.Equal(t, "video", FormatVideo.String())
	assert.Equal(t, "unknown", FormatUnknown.String())
}

func TestNewPlayer(t *testing.T) {
	_, err := NewPlayer(FormatUnknown, nil)
	assert.True(t, errors.Is(err, av.ErrFormat))

	opts := NewOptions()
	opts.CacheEntries = -1
	_, err = NewPlayer(FormatVector, opts)
	assert.True(t, errors.Is(err, av.ErrValidation))

	p, err := NewPlayer(FormatVideo, nil)
	require.NoError(t, err)
	assert.False(t, p.Status().Loaded)
	assert.True(t, p.Status().Loop)
}

func TestOpenBytes_Vector(t *testing.T) {
	opts := NewOptions()
	opts.RenderWidth, opts.RenderHeight = 64, 64
	opts.Loop = false

	p, err := OpenBytes(tgs(t, blueSquare), opts)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, av.NewTrackDescriptor(32, 32, 30, 15), p.Descriptor())
	st := p.Status()
	assert.True(t, st.Loaded)
	assert.False(t, st.Loop)
	assert.Equal(t, 64, st.RenderWidth)

	var frame *av.Raster
	p.OnFrameReady(func(r *av.Raster, _ int) { frame = r })
	require.NoError(t, p.Play())
	require.NotNil(t, frame)
	_, _, b, a := frame.At(32, 32)
	assert.GreaterOrEqual(t, b, uint8(250))
	assert.GreaterOrEqual(t, a, uint8(250))
}

func TestOpen_Vector(t *testing.T) {
	path := writeFile(t, "sticker.tgs", string(tgs(t, blueSquare)))

	opts := NewOptions()
	p, err := Open(path, opts)
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, 15, p.Descriptor().TotalFrames)

	// A second player from the same options reuses the inflated bundle.
	q, err := Open(path, opts)
	require.NoError(t, err)
	defer q.Close()
	hits, misses := opts.bundleCache().Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestOpenBytes_Video(t *testing.T) {
	clip := webmtest.NewClip()
	clip.Clusters = [][]byte{webmtest.Cluster(0,
		webmtest.SimpleBlock(1, 0, true, webmtest.Payload("V_VP9", 64, true)),
	)}

	p, err := OpenBytes(clip.Bytes(), nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, av.NewTrackDescriptor(64, 64, 25, 50), p.Descriptor())
	assert.True(t, p.Status().Loaded)
}

func TestOpen_Errors(t *testing.T) {
	_, err := OpenBytes([]byte("plain text"), nil)
	assert.True(t, errors.Is(err, av.ErrFormat))

	_, err = OpenBytes(tgs(t, `{"fr": 30}`), nil)
	assert.Error(t, err)

	corrupt := writeFile(t, "broken.tgs", "not gzip at all")
	_, err = Open(corrupt, nil)
	assert.True(t, errors.Is(err, av.ErrFormat))

	_, err = Open("/nonexistent/sticker.webm", nil)
	assert.True(t, errors.Is(err, av.ErrIO))
}
