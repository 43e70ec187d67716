package region

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
	"strconv"
	"sync"

	"github.com/couchcryptid/synthetic-met-data/internal/domain"
)

// CachedSource wraps a RegionSource with an in-memory LRU of masks keyed by
// axis pair, so observation and forecast runs over the same axes share one mask.
type CachedSource struct {
	inner domain.RegionSource
	cache *lruCache
}

// NewCachedSource creates a cache decorator around a region source.
func NewCachedSource(inner domain.RegionSource, maxEntries int) *CachedSource {
	return &CachedSource{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

// Mask returns a cached mask for axes, computing it on a miss. Errors are not
// cached so a later call can retry the source.
func (c *CachedSource) Mask(ctx context.Context, axes domain.Axes) (domain.RegionMask, error) {
	key := axesKey(axes)
	if m, ok := c.cache.get(key); ok {
		return m, nil
	}
	m, err := c.inner.Mask(ctx, axes)
	if err != nil {
		return m, err
	}
	c.cache.put(key, m)
	return m, nil
}

// Boundary delegates to the wrapped source.
func (c *CachedSource) Boundary(ctx context.Context) ([]domain.Vertex, error) {
	return c.inner.Boundary(ctx)
}

// axesKey fingerprints both axes by length and exact bit pattern.
func axesKey(a domain.Axes) string {
	h := fnv.New64a()
	var buf [8]byte
	for _, axis := range [][]float64{a.Lat, a.Lon} {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(axis)))
		h.Write(buf[:])
		for _, v := range axis {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return strconv.Itoa(len(a.Lat)) + "x" + strconv.Itoa(len(a.Lon)) + ":" + strconv.FormatUint(h.Sum64(), 16)
}

// lruCache is a simple thread-safe LRU cache for region masks.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.RegionMask
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.RegionMask, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.RegionMask{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.RegionMask) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
