package bundle

import (
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"github.com/opd-ai/stickerplay/av"
	"github.com/opd-ai/stickerplay/limits"
)

// Key identifies a compressed bundle by content.
type Key [blake2b.Size256]byte

// KeyOf returns the BLAKE2b-256 digest of a compressed bundle.
func KeyOf(data []byte) Key {
	return blake2b.Sum256(data)
}

// Cache is a bounded, content-addressed cache of decompressed documents.
//
// The same sticker is commonly shown several times in one chat; the cache
// lets every player share one inflated copy. Entries are evicted in
// insertion order. Cached documents are shared and must not be modified.
type Cache struct {
	decompressor *Decompressor
	capacity     int
	entries      map[Key][]byte
	order        []Key
	hits         uint64
	misses       uint64
	mu           sync.Mutex
}

// NewCache creates a cache holding at most capacity documents. A capacity of
// zero disables caching; every call inflates afresh.
func NewCache(capacity int, d *Decompressor) *Cache {
	if d == nil {
		d = NewDecompressor()
	}
	if capacity < 0 {
		capacity = 0
	}
	return &Cache{
		decompressor: d,
		capacity:     capacity,
		entries:      make(map[Key][]byte),
	}
}

// Decompress returns the inflated document for data, from the cache when
// the same bytes were inflated before.
func (c *Cache) Decompress(data []byte) ([]byte, error) {
	if c.capacity == 0 {
		return c.decompressor.Decompress(data)
	}
	// Refuse oversized input before spending time hashing it.
	if err := limits.ValidateSize(data, c.decompressor.maxInput); err != nil {
		return c.decompressor.Decompress(data)
	}

	key := KeyOf(data)

	c.mu.Lock()
	if doc, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function": "Cache.Decompress",
			"size":     len(doc),
		}).Debug("Bundle cache hit")
		return doc, nil
	}
	c.misses++
	c.mu.Unlock()

	doc, err := c.decompressor.Decompress(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		for len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.entries[key] = doc
		c.order = append(c.order, key)
	}
	return doc, nil
}

// DecompressFile reads a bundle through src and inflates it via the cache.
func (c *Cache) DecompressFile(src av.Source, path string) ([]byte, error) {
	data, err := av.ReadAll(src, path, int64(c.decompressor.maxInput))
	if err != nil {
		return nil, err
	}
	return c.Decompress(data)
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the cache hit and miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Purge drops every cached document.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key][]byte)
	c.order = nil
}
