package bundle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/stickerplay/av"
)

func TestCache_HitAndMiss(t *testing.T) {
	c := NewCache(4, nil)
	data := gzipBytes(t, []byte(testDoc))

	first, err := c.Decompress(data)
	require.NoError(t, err)
	second, err := c.Decompress(data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Same(t, &first[0], &second[0])

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 1, c.Len())
}

func TestCache_Eviction(t *testing.T) {
	c := NewCache(2, nil)

	for i := 0; i < 5; i++ {
		_, err := c.Decompress(gzipBytes(t, []byte(fmt.Sprintf(`{"n":%d}`, i))))
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c := NewCache(2, nil)

	_, err := c.Decompress([]byte("garbage input that is not gzip"))
	assert.True(t, errors.Is(err, av.ErrFormat))
	assert.Zero(t, c.Len())

	_, err = c.Decompress(nil)
	assert.True(t, errors.Is(err, av.ErrFormat))
}

func TestCache_Disabled(t *testing.T) {
	c := NewCache(0, nil)
	data := gzipBytes(t, []byte(testDoc))

	out, err := c.Decompress(data)
	require.NoError(t, err)
	assert.Equal(t, testDoc, string(out))
	assert.Zero(t, c.Len())
}

func TestKeyOf(t *testing.T) {
	a := KeyOf([]byte("a"))
	b := KeyOf([]byte("b"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, KeyOf([]byte("a")))
}
