// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

// Package cache provides the bounded in-memory registry used to hold live
// user sessions.
package cache

import (
	"sync"
	"time"
)

// EvictReason says why an entry left the cache.
type EvictReason int

// Evict reasons.
const (
	EvictedCapacity EvictReason = iota
	EvictedExpired
	EvictedRemoved
)

func (r EvictReason) String() string {
	switch r {
	case EvictedCapacity:
		return "capacity"
	case EvictedExpired:
		return "expired"
	default:
		return "removed"
	}
}

type lruEntry[V any] struct {
	key       string
	value     V
	prev      *lruEntry[V]
	next      *lruEntry[V]
	expiresAt time.Time
}

// LRU is a thread-safe least recently used cache with an idle TTL: every
// hit pushes the entry's expiry forward, so only entries left untouched
// for a full TTL expire. Get, Add and eviction are O(1); expiry is lazy
// plus CleanupExpired.
type LRU[V any] struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	onEvict  func(key string, value V, reason EvictReason)
	now      func() time.Time

	items map[string]*lruEntry[V]

	// head.next is the most recently used, tail.prev the least.
	head *lruEntry[V]
	tail *lruEntry[V]

	hits   int64
	misses int64
}

// NewLRU creates a cache holding at most capacity entries that expire after
// ttl without access. onEvict, if set, is called outside the lock for every
// entry that leaves the cache.
func NewLRU[V any](capacity int, ttl time.Duration, onEvict func(key string, value V, reason EvictReason)) *LRU[V] {
	if capacity <= 0 {
		capacity = 1000
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	c := &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		onEvict:  onEvict,
		now:      time.Now,
		items:    make(map[string]*lruEntry[V], capacity),
		head:     &lruEntry[V]{},
		tail:     &lruEntry[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

type eviction[V any] struct {
	key    string
	value  V
	reason EvictReason
}

// Get returns the value for key and refreshes its recency and expiry.
func (c *LRU[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	entry, ok := c.items[key]
	if !ok {
		c.misses++
		c.mu.Unlock()
		return zero, false
	}

	now := c.now()
	if now.After(entry.expiresAt) {
		c.removeEntry(entry)
		c.misses++
		c.mu.Unlock()
		c.notify([]eviction[V]{{entry.key, entry.value, EvictedExpired}})
		return zero, false
	}

	entry.expiresAt = now.Add(c.ttl)
	c.moveToFront(entry)
	c.hits++
	v := entry.value
	c.mu.Unlock()
	return v, true
}

// Add inserts or replaces key. Replacing does not call onEvict. If the
// cache is over capacity the least recently used entries are evicted.
func (c *LRU[V]) Add(key string, value V) {
	c.mu.Lock()

	expiresAt := c.now().Add(c.ttl)
	if entry, ok := c.items[key]; ok {
		entry.value = value
		entry.expiresAt = expiresAt
		c.moveToFront(entry)
		c.mu.Unlock()
		return
	}

	entry := &lruEntry[V]{key: key, value: value, expiresAt: expiresAt}
	c.addToFront(entry)
	c.items[key] = entry

	var evicted []eviction[V]
	for len(c.items) > c.capacity {
		oldest := c.tail.prev
		c.removeEntry(oldest)
		evicted = append(evicted, eviction[V]{oldest.key, oldest.value, EvictedCapacity})
	}
	c.mu.Unlock()

	c.notify(evicted)
}

// Remove deletes key and reports whether it was present.
func (c *LRU[V]) Remove(key string) bool {
	c.mu.Lock()
	entry, ok := c.items[key]
	if ok {
		c.removeEntry(entry)
	}
	c.mu.Unlock()

	if ok {
		c.notify([]eviction[V]{{entry.key, entry.value, EvictedRemoved}})
	}
	return ok
}

// Len returns the number of entries, including expired ones not yet
// collected.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanupExpired removes every expired entry and returns how many.
func (c *LRU[V]) CleanupExpired() int {
	c.mu.Lock()
	now := c.now()
	var evicted []eviction[V]
	for entry := c.tail.prev; entry != c.head; {
		prev := entry.prev
		if now.After(entry.expiresAt) {
			c.removeEntry(entry)
			evicted = append(evicted, eviction[V]{entry.key, entry.value, EvictedExpired})
		}
		entry = prev
	}
	c.mu.Unlock()

	c.notify(evicted)
	return len(evicted)
}

// Stats returns hit and miss counts and the current size.
func (c *LRU[V]) Stats() (hits, misses int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.items)
}

func (c *LRU[V]) notify(evicted []eviction[V]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range evicted {
		c.onEvict(e.key, e.value, e.reason)
	}
}

// Internal list operations; callers hold c.mu.

func (c *LRU[V]) addToFront(entry *lruEntry[V]) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *LRU[V]) moveToFront(entry *lruEntry[V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *LRU[V]) removeEntry(entry *lruEntry[V]) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
}
