// Package cache provides a bounded in-memory cache with per-entry expiry.
package cache

import (
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry wraps the cached data with its expiry.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Option configures a TTLCache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// TTLCache is an LRU cache whose entries also expire after a fixed TTL.
// It is safe for concurrent use.
type TTLCache[V any] struct {
	lru    *lru.Cache[string, *entry[V]]
	ttl    time.Duration
	now    func() time.Time
	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats reports cache hits and misses since creation.
type Stats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// New creates a TTLCache holding at most size entries.
func New[V any](size int, ttl time.Duration, opts ...Option) (*TTLCache[V], error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	l, err := lru.New[string, *entry[V]](size)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}

	return &TTLCache[V]{
		lru: l,
		ttl: ttl,
		now: o.now,
	}, nil
}

// Get returns the cached value if present and not expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	if e, ok := c.lru.Get(key); ok {
		if c.now().Before(e.expiresAt) {
			c.hits.Add(1)
			return e.value, true
		}
		// Entry expired, remove it
		c.lru.Remove(key)
	}
	c.misses.Add(1)

	var zero V
	return zero, false
}

// Set stores a value under key.
func (c *TTLCache[V]) Set(key string, value V) {
	c.lru.Add(key, &entry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	})
}

// Remove drops the given keys.
func (c *TTLCache[V]) Remove(keys ...string) {
	for _, k := range keys {
		c.lru.Remove(k)
	}
}

// Purge removes all entries.
func (c *TTLCache[V]) Purge() {
	c.lru.Purge()
}

// Stats returns hit/miss counters and the current size.
func (c *TTLCache[V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.lru.Len(),
	}
}
