package memo

import (
	"container/list"
	"sync"

	"resolvels/internal/shared/observability"
)

// DefaultCapacity bounds a cache when the caller passes a non-positive capacity.
const DefaultCapacity = 1 << 16

// Cache memoizes values per key, stamped with the modification counter value
// they were computed under. A lookup under any other stamp misses. When the
// cache holds more than its capacity the least-recently-used entry is evicted.
//
// Safe for concurrent use.
type Cache[K comparable, V any] struct {
	name     string
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List // front = most recently used
	stamp    Stamp
}

type cacheEntry[K comparable, V any] struct {
	key   K
	stamp Stamp
	value V
}

// NewCache creates a cache. name labels its hit/miss metrics.
func NewCache[K comparable, V any](name string, capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[K, V]{
		name:     name,
		capacity: capacity,
		items:    make(map[K]*list.Element),
		order:    list.New(),
	}
}

// Get returns the value stored for key under stamp.
func (c *Cache[K, V]) Get(key K, stamp Stamp) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	if stamp != c.stamp {
		// Everything stored was computed under an older counter value.
		if stamp > c.stamp {
			c.resetLocked(stamp)
		}
		observability.CacheMisses.WithLabelValues(c.name).Inc()
		return zero, false
	}
	el, ok := c.items[key]
	if !ok {
		observability.CacheMisses.WithLabelValues(c.name).Inc()
		return zero, false
	}
	entry := el.Value.(*cacheEntry[K, V])
	if entry.stamp != stamp {
		c.order.Remove(el)
		delete(c.items, key)
		observability.CacheMisses.WithLabelValues(c.name).Inc()
		return zero, false
	}
	c.order.MoveToFront(el)
	observability.CacheHits.WithLabelValues(c.name).Inc()
	return entry.value, true
}

// Put stores value for key under stamp. Values computed under a stamp older
// than the newest one seen are dropped.
func (c *Cache[K, V]) Put(key K, stamp Stamp, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stamp < c.stamp {
		return
	}
	if stamp > c.stamp {
		c.resetLocked(stamp)
	}
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		entry := el.Value.(*cacheEntry[K, V])
		entry.stamp = stamp
		entry.value = value
		return
	}
	if c.order.Len() >= c.capacity {
		c.evictLeastRecentLocked()
	}
	el := c.order.PushFront(&cacheEntry[K, V]{key: key, stamp: stamp, value: value})
	c.items[key] = el
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache[K, V]) Cap() int { return c.capacity }

// Clear drops every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(c.stamp)
}

func (c *Cache[K, V]) resetLocked(stamp Stamp) {
	c.order.Init()
	c.items = make(map[K]*list.Element)
	c.stamp = stamp
}

// Caller must hold c.mu.
func (c *Cache[K, V]) evictLeastRecentLocked() {
	back := c.order.Back()
	if back == nil {
		return
	}
	c.order.Remove(back)
	delete(c.items, back.Value.(*cacheEntry[K, V]).key)
}
