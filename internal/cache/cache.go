// Package cache memoizes compiled conditions.
//
// Entries are kept in a bounded LRU. Concurrent misses for the same key are
// collapsed so the compile function runs once; the other callers wait and
// receive the same result. Failed compilations are not stored.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

// DefaultSize is the number of entries kept when no size is configured.
const DefaultSize = 256

// Cache is a bounded LRU of compiled results keyed by fingerprint.
type Cache[V any] struct {
	entries *lru.Cache
	group   singleflight.Group
}

// New creates a cache holding at most size entries.
func New[V any](size int) (*Cache[V], error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Cache[V]{entries: entries}, nil
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	if v, ok := c.entries.Get(key); ok {
		return v.(V), true
	}
	var zero V
	return zero, false
}

// GetOrCompute returns the cached value for key, calling compute on a miss.
// The second result reports whether the value came from the cache.
func (c *Cache[V]) GetOrCompute(key string, compute func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return v.(V), false, nil
}

// Invalidate removes key and reports whether it was present.
func (c *Cache[V]) Invalidate(key string) bool {
	return c.entries.Remove(key)
}

// Purge removes every entry.
func (c *Cache[V]) Purge() {
	c.entries.Purge()
}

// Len returns the number of entries.
func (c *Cache[V]) Len() int {
	return c.entries.Len()
}
