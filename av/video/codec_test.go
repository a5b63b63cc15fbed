package video

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/stickerplay/av"
	"github.com/opd-ai/stickerplay/av/webm/webmtest"
)

// fakeEngine returns a uniform frame for every payload.
type fakeEngine struct {
	width, height int
	luma          byte
	decodeErr     error
	failures      int
	panicOnDecode bool
	buffering     int

	calls  int
	closed bool
}

func (e *fakeEngine) Decode(payload []byte) (*VideoFrame, error) {
	e.calls++
	if e.panicOnDecode {
		panic("engine exploded")
	}
	if e.decodeErr != nil {
		return nil, e.decodeErr
	}
	if e.failures > 0 {
		e.failures--
		return nil, errors.New("corrupt frame")
	}
	if e.buffering > 0 {
		e.buffering--
		return nil, nil
	}
	f := NewVideoFrame(e.width, e.height)
	for i := range f.Y {
		f.Y[i] = e.luma
	}
	for i := range f.U {
		f.U[i], f.V[i] = 128, 128
	}
	return f, nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

// factoryFor serves engine only for the listed codecs.
func factoryFor(engine *fakeEngine, codecs ...Codec) (EngineFactory, *[]Codec) {
	var asked []Codec
	return func(c Codec) (Engine, error) {
		asked = append(asked, c)
		for _, ok := range codecs {
			if ok == c {
				return engine, nil
			}
		}
		return nil, errors.New("codec unavailable")
	}, &asked
}

func TestCodecFromID(t *testing.T) {
	tests := []struct {
		id   string
		want Codec
	}{
		{"V_VP8", CodecVP8},
		{"V_VP9", CodecVP9},
		{"v_vp8", CodecVP8},
		{"V_AV1", CodecVP9},
		{"", CodecVP9},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, CodecFromID(tt.id))
		})
	}
}

func TestCodec_OtherAndString(t *testing.T) {
	assert.Equal(t, CodecVP9, CodecVP8.Other())
	assert.Equal(t, CodecVP8, CodecVP9.Other())
	assert.Equal(t, "VP8", CodecVP8.String())
	assert.Equal(t, "VP9", CodecVP9.String())
	assert.Equal(t, "codec(7)", Codec(7).String())
}

func TestPeekKeyFrame(t *testing.T) {
	tests := []struct {
		name    string
		codec   Codec
		data    []byte
		wantKey bool
		wantOK  bool
	}{
		{"vp8 key", CodecVP8, webmtest.Payload("V_VP8", 40, true), true, true},
		{"vp8 delta", CodecVP8, webmtest.Payload("V_VP8", 40, false), false, true},
		{"vp8 key without start code", CodecVP8, []byte{0x10, 0, 0, 1, 2, 3}, false, false},
		{"vp8 short", CodecVP8, []byte{0x10, 0}, false, false},
		{"vp9 key", CodecVP9, webmtest.Payload("V_VP9", 40, true), true, true},
		{"vp9 delta", CodecVP9, webmtest.Payload("V_VP9", 40, false), false, true},
		{"vp9 show existing", CodecVP9, []byte{0x88, 0, 0, 0, 0}, false, true},
		{"vp9 bad marker", CodecVP9, []byte{0x02, 0x49, 0x83, 0x42, 0}, false, false},
		{"vp9 key without sync", CodecVP9, []byte{0x82, 0, 0, 0, 0}, false, false},
		// profile 3: sync code starts one bit late
		{"vp9 profile 3 key", CodecVP9, []byte{0xB1, 0x24, 0xC1, 0xA1, 0x00}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := PeekKeyFrame(tt.codec, tt.data)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestNewCodecDecoder_FallsBackOnce(t *testing.T) {
	engine := &fakeEngine{width: 2, height: 2}
	factory, asked := factoryFor(engine, CodecVP8)

	dec, err := NewCodecDecoder(CodecVP9, factory)
	require.NoError(t, err)
	assert.Equal(t, CodecVP8, dec.Codec())
	assert.Equal(t, []Codec{CodecVP9, CodecVP8}, *asked)
}

func TestNewCodecDecoder_NoEngine(t *testing.T) {
	factory, asked := factoryFor(nil)

	dec, err := NewCodecDecoder(CodecVP8, factory)
	assert.Nil(t, dec)
	assert.True(t, errors.Is(err, av.ErrCodec))
	assert.Len(t, *asked, 2)
}

func TestNewCodecDecoder_FactoryPanics(t *testing.T) {
	calls := 0
	factory := func(c Codec) (Engine, error) {
		calls++
		if c == CodecVP9 {
			panic("boom")
		}
		return &fakeEngine{width: 1, height: 1}, nil
	}

	dec, err := NewCodecDecoder(CodecVP9, factory)
	require.NoError(t, err)
	assert.Equal(t, CodecVP8, dec.Codec())
	assert.Equal(t, 2, calls)
}

func TestCodecDecoder_Decode(t *testing.T) {
	t.Run("frame", func(t *testing.T) {
		engine := &fakeEngine{width: 4, height: 2, luma: 9}
		factory, _ := factoryFor(engine, CodecVP9)
		dec, err := NewCodecDecoder(CodecVP9, factory)
		require.NoError(t, err)

		frame, err := dec.Decode([]byte{1})
		require.NoError(t, err)
		assert.Equal(t, 4, frame.Width)
		assert.Equal(t, byte(9), frame.Y[0])
	})

	t.Run("engine error is a codec error", func(t *testing.T) {
		engine := &fakeEngine{decodeErr: errors.New("corrupt")}
		factory, _ := factoryFor(engine, CodecVP9)
		dec, err := NewCodecDecoder(CodecVP9, factory)
		require.NoError(t, err)

		frame, err := dec.Decode([]byte{1})
		assert.Nil(t, frame)
		assert.True(t, errors.Is(err, av.ErrCodec))
	})

	t.Run("panic is recovered", func(t *testing.T) {
		engine := &fakeEngine{panicOnDecode: true}
		factory, _ := factoryFor(engine, CodecVP9)
		dec, err := NewCodecDecoder(CodecVP9, factory)
		require.NoError(t, err)

		frame, err := dec.Decode([]byte{1})
		assert.Nil(t, frame)
		assert.True(t, errors.Is(err, av.ErrCodec))
	})

	t.Run("closed", func(t *testing.T) {
		engine := &fakeEngine{width: 1, height: 1}
		factory, _ := factoryFor(engine, CodecVP9)
		dec, err := NewCodecDecoder(CodecVP9, factory)
		require.NoError(t, err)

		require.NoError(t, dec.Close())
		require.NoError(t, dec.Close())
		assert.True(t, engine.closed)

		_, err = dec.Decode([]byte{1})
		assert.True(t, errors.Is(err, av.ErrClosed))
	})
}

func TestVP8Engine_RejectsInterFrames(t *testing.T) {
	e := NewVP8Engine()
	defer e.Close()

	frame, err := e.Decode(webmtest.Payload("V_VP8", 40, false))
	assert.Nil(t, frame)
	assert.True(t, errors.Is(err, ErrNotKeyFrame))
}

func TestVP8Engine_Truncated(t *testing.T) {
	e := NewVP8Engine()

	frame, err := e.Decode([]byte{0x10})
	assert.Nil(t, frame)
	assert.Error(t, err)

	require.NoError(t, e.Close())
	_, err = e.Decode(webmtest.Payload("V_VP8", 40, true))
	assert.Error(t, err)
}

func TestDefaultEngineFactory_VP8(t *testing.T) {
	e, err := DefaultEngineFactory(CodecVP8)
	require.NoError(t, err)
	assert.IsType(t, &VP8Engine{}, e)
	assert.NoError(t, e.Close())
}
