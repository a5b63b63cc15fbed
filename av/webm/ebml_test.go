package webm

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVintLength(t *testing.T) {
	assert.Equal(t, 1, vintLength(0x80))
	assert.Equal(t, 2, vintLength(0x40))
	assert.Equal(t, 4, vintLength(0x1A))
	assert.Equal(t, 8, vintLength(0x01))
	assert.Equal(t, 0, vintLength(0x00))
}

func TestReadSize(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want int64
		n    int
	}{
		{"one byte", []byte{0x85}, 5, 1},
		{"two bytes", []byte{0x41, 0x2C}, 300, 2},
		{"unknown one byte", []byte{0xFF}, unknownSize, 1},
		{"unknown eight bytes", []byte{0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, unknownSize, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := readSize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.n, n)
		})
	}

	_, _, err := readSize([]byte{0x00})
	assert.True(t, errors.Is(err, ErrBadVint))
	_, _, err = readSize([]byte{0x40})
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestReadID(t *testing.T) {
	id, n, err := readID([]byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F})
	require.NoError(t, err)
	assert.Equal(t, uint64(idEBML), id)
	assert.Equal(t, 4, n)

	_, _, err = readID([]byte{0x08, 0, 0, 0, 0})
	assert.True(t, errors.Is(err, ErrBadVint))
}

func TestReadSigned(t *testing.T) {
	v, n, err := readSigned([]byte{0xBF})
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
	assert.Equal(t, 1, n)

	v, _, err = readSigned([]byte{0x80})
	require.NoError(t, err)
	assert.Equal(t, int64(-63), v)
}

func TestParseFloat(t *testing.T) {
	v, ok := parseFloat([]byte{0x40, 0x49, 0x0F, 0xDB})
	assert.True(t, ok)
	assert.InDelta(t, 3.14159, v, 1e-5)

	_, ok = parseFloat([]byte{1, 2, 3})
	assert.False(t, ok)
}

func TestWalk_Truncated(t *testing.T) {
	err := walk([]byte{0x86, 0x85, 'V', '_'}, func(uint64, []byte) error { return nil })
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestParseBlockHeader(t *testing.T) {
	t.Run("unlaced", func(t *testing.T) {
		h, err := parseBlockHeader([]byte{0x81, 0x00, 0x28, 0x80}, 104)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), h.track)
		assert.Equal(t, int16(40), h.timecode)
		assert.True(t, h.keyFlag())
		assert.Equal(t, 4, h.headerLen)
		assert.Equal(t, []int64{100}, h.frames)
	})

	t.Run("negative timecode", func(t *testing.T) {
		h, err := parseBlockHeader([]byte{0x81, 0xFF, 0xFE, 0x00}, 10)
		require.NoError(t, err)
		assert.Equal(t, int16(-2), h.timecode)
		assert.False(t, h.keyFlag())
	})

	t.Run("fixed lacing must divide evenly", func(t *testing.T) {
		_, err := parseBlockHeader([]byte{0x81, 0, 0, 0x04, 0x01}, 5+7)
		assert.True(t, errors.Is(err, ErrLacing))
	})

	t.Run("xiph sizes exceed block", func(t *testing.T) {
		_, err := parseBlockHeader([]byte{0x81, 0, 0, 0x02, 0x01, 0xFF, 0x10}, 40)
		assert.True(t, errors.Is(err, ErrLacing))
	})

	t.Run("truncated lace header", func(t *testing.T) {
		_, err := parseBlockHeader([]byte{0x81, 0, 0, 0x02, 0x01, 0xFF}, 1000)
		assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	})
}
