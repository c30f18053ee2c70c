package cache

import "container/list"

// Cacher is the interface for a bounded key-value store.
//
// Contract:
// - Concurrency: implementations are NOT internally synchronized; callers
//   must coordinate access, holding a lock across get-or-insert sequences.
// - Errors: operations never fail, they only evict.
type Cacher[K comparable, V any] interface {
	// Get returns the value for key and marks it most-recently-used.
	// Returns (zero, false) on miss with no side effect.
	Get(key K) (V, bool)

	// Put inserts or overwrites. Inserting a new key into a full bounded
	// cache evicts the least-recently-used entry first.
	Put(key K, value V)

	// Len returns the number of entries currently held.
	Len() int
}

// EvictFunc is called with each entry removed by capacity eviction.
type EvictFunc[K comparable, V any] func(key K, value V)

// LRU is a capacity-bounded map with least-recently-used eviction.
// A capacity of zero or below means unbounded: no eviction ever occurs.
type LRU[K comparable, V any] struct {
	capacity int
	items    map[K]*list.Element
	order    *list.List // front = most recently used
	onEvict  EvictFunc[K, V]
	evicted  uint64
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU creates an LRU with the given capacity.
// capacity <= 0 creates an unbounded cache.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	return &LRU[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		order:    list.New(),
	}
}

// SetOnEvict registers a callback invoked for each capacity eviction.
// The callback runs synchronously inside Put.
func (c *LRU[K, V]) SetOnEvict(fn EvictFunc[K, V]) {
	c.onEvict = fn
}

// Get returns the value for key, promoting it to most-recently-used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*lruEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Put inserts or overwrites the value for key.
// Overwriting an existing key promotes it without consuming capacity.
// Inserting a new key into a full bounded cache evicts the LRU entry first.
func (c *LRU[K, V]) Put(key K, value V) {
	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruEntry[K, V]).value = value
		c.order.MoveToFront(elem)
		return
	}

	if c.capacity > 0 && c.order.Len() >= c.capacity {
		c.evictOldest()
	}

	elem := c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
	c.items[key] = elem
}

// evictOldest removes the least-recently-used entry.
func (c *LRU[K, V]) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*lruEntry[K, V])
	c.order.Remove(elem)
	delete(c.items, entry.key)
	c.evicted++
	if c.onEvict != nil {
		c.onEvict(entry.key, entry.value)
	}
}

// Len returns the number of entries currently held.
func (c *LRU[K, V]) Len() int {
	return len(c.items)
}

// Capacity returns the configured capacity (<= 0 means unbounded).
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Evictions returns the total number of capacity evictions so far.
func (c *LRU[K, V]) Evictions() uint64 {
	return c.evicted
}

// Clear removes every entry without firing the eviction callback.
func (c *LRU[K, V]) Clear() {
	c.items = make(map[K]*list.Element)
	c.order.Init()
}

// Keys returns the keys ordered most- to least-recently-used.
func (c *LRU[K, V]) Keys() []K {
	keys := make([]K, 0, len(c.items))
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*lruEntry[K, V]).key)
	}
	return keys
}

// Ensure LRU implements Cacher
var _ Cacher[string, int] = (*LRU[string, int])(nil)
