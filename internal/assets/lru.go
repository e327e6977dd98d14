package assets

import "container/list"

// DefaultMaxEntries bounds an LRU when no capacity is given.
const DefaultMaxEntries = 200

// LRU is a fixed-capacity mapping that evicts the least-recently-used entry
// when a new key is inserted at capacity. Get and Set of an existing key
// refresh its recency; Contains and Delete do not. There is no time-based
// expiry. LRU is not safe for concurrent use; callers hold their own lock.
type LRU[K comparable, V any] struct {
	maxEntries int
	order      *list.List // front = most recently used
	items      map[K]*list.Element
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU creates an LRU bounded to maxEntries keys. A non-positive capacity
// falls back to DefaultMaxEntries.
func NewLRU[K comparable, V any](maxEntries int) *LRU[K, V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &LRU[K, V]{
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[K]*list.Element),
	}
}

// Get returns the value stored under key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	element, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	c.order.MoveToFront(element)
	return element.Value.(*lruEntry[K, V]).value, true
}

// Set stores value under key and marks it most recently used. Inserting a new
// key at capacity first evicts the single least-recently-used entry.
func (c *LRU[K, V]) Set(key K, value V) {
	if element, ok := c.items[key]; ok {
		element.Value.(*lruEntry[K, V]).value = value
		c.order.MoveToFront(element)
		return
	}

	if c.order.Len() >= c.maxEntries {
		c.evictOldest()
	}

	c.items[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
}

// Delete removes key from the cache, reporting whether it was present.
func (c *LRU[K, V]) Delete(key K) bool {
	element, ok := c.items[key]
	if !ok {
		return false
	}

	c.order.Remove(element)
	delete(c.items, key)
	return true
}

// Contains reports whether key is cached without refreshing its recency.
func (c *LRU[K, V]) Contains(key K) bool {
	_, ok := c.items[key]
	return ok
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	return len(c.items)
}

func (c *LRU[K, V]) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}

	c.order.Remove(oldest)
	delete(c.items, oldest.Value.(*lruEntry[K, V]).key)
}
