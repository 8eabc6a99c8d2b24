// Package cache provides a small in-memory TTL cache with a capacity bound.
// All routing-engine caches (geodata, crime, route results) are explicit
// instances of this type, constructed once and injected, never process-wide
// singletons. Entries are written at most once per key per TTL window and
// read many times, so a single RWMutex over the map is enough.
package cache

import (
	"sync"
	"time"
)

// TTL is a concurrency-safe map cache with per-entry expiry and a soft
// capacity bound. Eviction over capacity is an unordered sweep: expired
// entries first, then arbitrary entries until the cache fits.
type TTL[V any] struct {
	ttl        time.Duration
	maxEntries int

	mu      sync.RWMutex
	entries map[string]entry[V]
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// New creates a cache with the given TTL and capacity bound.
// maxEntries <= 0 means unbounded.
func New[V any](ttl time.Duration, maxEntries int) *TTL[V] {
	return &TTL[V]{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]entry[V]),
	}
}

// Get returns the cached value for key if present and not expired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key and sweeps if over capacity.
func (c *TTL[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.sweepLocked()
	}
}

// sweepLocked drops expired entries, then arbitrary entries until the cache
// is back under capacity. Caller must hold the write lock.
func (c *TTL[V]) sweepLocked() {
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	for k := range c.entries {
		if len(c.entries) <= c.maxEntries {
			break
		}
		delete(c.entries, k)
	}
}

// Len returns the number of entries, including any not yet swept.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}
