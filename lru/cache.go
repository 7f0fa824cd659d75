// Package lru implements a generic, thread-safe LRU cache with an
// optional idle TTL.
//
// Time complexity: O(1) for Get, Put, Delete, Len.
// Space complexity: O(n) where n is capacity.
//
// Implementation uses a hash map for O(1) key lookup combined with
// a doubly linked list for O(1) eviction ordering. When a TTL is set,
// entries not touched within the TTL are treated as absent and removed
// lazily on access, or in bulk via PruneExpired.
package lru

import (
	"sync"
	"time"
)

// node is a doubly linked list node holding a key-value pair.
type node[K comparable, V any] struct {
	key     K
	val     V
	touched time.Time
	prev    *node[K, V]
	next    *node[K, V]
}

// Cache is a generic, thread-safe LRU cache.
// K must be comparable (map key constraint), V can be any type.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration // 0 means entries never expire
	now      func() time.Time
	items    map[K]*node[K, V]
	head     *node[K, V] // most recently used (sentinel)
	tail     *node[K, V] // least recently used (sentinel)
}

// New creates an LRU cache with the given capacity and no TTL.
// Panics if capacity < 1.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	return NewWithTTL[K, V](capacity, 0)
}

// NewWithTTL creates an LRU cache whose entries expire after ttl of
// inactivity. A ttl of 0 disables expiry. Panics if capacity < 1.
func NewWithTTL[K comparable, V any](capacity int, ttl time.Duration) *Cache[K, V] {
	if capacity < 1 {
		panic("lru: capacity must be >= 1")
	}

	head := &node[K, V]{}
	tail := &node[K, V]{}
	head.next = tail
	tail.prev = head

	return &Cache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[K]*node[K, V], capacity),
		head:     head,
		tail:     tail,
	}
}

// Get retrieves a value by key and refreshes its recency and TTL.
// Returns the zero value and false if the key is absent or expired. O(1).
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok || c.expired(n) {
		if ok {
			c.remove(n)
			delete(c.items, key)
		}
		var zero V
		return zero, false
	}

	n.touched = c.now()
	c.moveToFront(n)
	return n.val, true
}

// Put inserts or updates a key-value pair. If the cache is at capacity,
// the least recently used entry is evicted. O(1).
// Returns the evicted key/value and true if an eviction occurred.
func (c *Cache[K, V]) Put(key K, val V) (K, V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Update existing
	if n, ok := c.items[key]; ok {
		n.val = val
		n.touched = c.now()
		c.moveToFront(n)
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}

	// Evict if at capacity
	var evictedKey K
	var evictedVal V
	evicted := false
	if len(c.items) >= c.capacity {
		victim := c.tail.prev
		c.remove(victim)
		delete(c.items, victim.key)
		evictedKey = victim.key
		evictedVal = victim.val
		evicted = true
	}

	// Insert new
	n := &node[K, V]{key: key, val: val, touched: c.now()}
	c.items[key] = n
	c.pushFront(n)

	return evictedKey, evictedVal, evicted
}

// Delete removes a key from the cache. Returns true if the key existed. O(1).
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		return false
	}

	c.remove(n)
	delete(c.items, key)
	return true
}

// Len returns the current number of entries, including any not yet
// pruned expired entries. O(1).
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Peek retrieves a value without updating access order or TTL. O(1).
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok || c.expired(n) {
		var zero V
		return zero, false
	}
	return n.val, true
}

// Keys returns all live keys in order from most to least recently used. O(n).
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.items))
	for cur := c.head.next; cur != c.tail; cur = cur.next {
		if c.expired(cur) {
			continue
		}
		keys = append(keys, cur.key)
	}
	return keys
}

// PruneExpired removes all expired entries and returns their values. O(n).
// A no-op when the cache has no TTL.
func (c *Cache[K, V]) PruneExpired() []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl <= 0 {
		return nil
	}

	var pruned []V
	// Walk from the LRU end; recency order means everything before the
	// first live entry is live too.
	for cur := c.tail.prev; cur != c.head; {
		if !c.expired(cur) {
			break
		}
		prev := cur.prev
		pruned = append(pruned, cur.val)
		c.remove(cur)
		delete(c.items, cur.key)
		cur = prev
	}
	return pruned
}

// Clear removes all entries from the cache. O(n).
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head.next = c.tail
	c.tail.prev = c.head
	c.items = make(map[K]*node[K, V], c.capacity)
}

// --- internal linked list operations (caller must hold lock) ---

func (c *Cache[K, V]) expired(n *node[K, V]) bool {
	return c.ttl > 0 && c.now().Sub(n.touched) > c.ttl
}

// remove detaches a node from the list.
func (c *Cache[K, V]) remove(n *node[K, V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
}

// pushFront inserts a node right after head sentinel.
func (c *Cache[K, V]) pushFront(n *node[K, V]) {
	n.next = c.head.next
	n.prev = c.head
	c.head.next.prev = n
	c.head.next = n
}

// moveToFront detaches and reinserts a node at front.
func (c *Cache[K, V]) moveToFront(n *node[K, V]) {
	c.remove(n)
	c.pushFront(n)
}
