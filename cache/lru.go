// Package cache provides a small in-memory LRU used for derived render
// artifacts, chiefly palette lookup tables keyed by scheme and
// iteration bound.
package cache

import (
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the maximum entry count used when New is given a
// non-positive capacity.
const DefaultCapacity = 16

// Stats is a snapshot of cache counters.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	HitRate   float64
	Evictions uint64
}

// LRU is a mutex-guarded least-recently-used cache.
//
// Values are stored as-is, not copied. Callers must not modify a value
// after handing it to the cache.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*lruEntry[K, V]
	lru      *lruList[K]
	capacity int

	// Statistics (atomic for zero-allocation reads)
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// lruEntry holds a cached value with its LRU node.
type lruEntry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// New creates a cache holding at most capacity entries.
// If capacity <= 0, DefaultCapacity is used.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRU[K, V]{
		entries:  make(map[K]*lruEntry[K, V]),
		lru:      newLRUList[K](),
		capacity: capacity,
	}
}

// Get retrieves a cached value by key.
// Returns (value, true) if found, (zero, false) otherwise.
// A hit moves the entry to the front of the LRU order.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.lru.MoveToFront(entry.node)
	value := entry.value
	c.mu.Unlock()

	c.hits.Add(1)
	return value, true
}

// Set stores a value in the cache, evicting the oldest entries when
// the cache is at capacity.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		existing.value = value
		c.lru.MoveToFront(existing.node)
		return
	}

	c.evictIfFull()
	node := c.lru.PushFront(key)
	c.entries[key] = &lruEntry[K, V]{value: value, node: node}
}

// GetOrCreate returns the cached value for key, calling create to
// build it on a miss. create runs with the cache lock held so
// concurrent callers of the same key never compute the value twice;
// keep it bounded.
func (c *LRU[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.lru.MoveToFront(entry.node)
		value := entry.value
		c.mu.Unlock()
		c.hits.Add(1)
		return value
	}
	c.misses.Add(1)

	value := create()
	c.evictIfFull()
	node := c.lru.PushFront(key)
	c.entries[key] = &lruEntry[K, V]{value: value, node: node}
	c.mu.Unlock()

	return value
}

// evictIfFull removes the oldest entries once the cache is at
// capacity. Eviction runs in batches of a quarter of the capacity,
// at least one entry.
func (c *LRU[K, V]) evictIfFull() {
	if len(c.entries) < c.capacity {
		return
	}
	batch := c.capacity / 4
	if batch < 1 {
		batch = 1
	}
	for i := 0; i < batch; i++ {
		oldest, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		delete(c.entries, oldest)
		c.evictions.Add(1)
	}
}

// Delete removes an entry from the cache.
// Returns true if the entry was found and removed.
func (c *LRU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	c.lru.Remove(entry.node)
	delete(c.entries, key)
	return true
}

// Clear removes all entries from the cache.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[K]*lruEntry[K, V])
	c.lru.Clear()
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the maximum entry count.
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns current cache statistics.
func (c *LRU[K, V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	evictions := c.evictions.Load()

	var hitRate float64
	total := hits + misses
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity,
		Hits:      hits,
		Misses:    misses,
		HitRate:   hitRate,
		Evictions: evictions,
	}
}

// ResetStats resets all statistics counters to zero.
func (c *LRU[K, V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}
