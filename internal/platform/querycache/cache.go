// Package querycache is a keyed, stale-time-aware cache of server data.
// Concurrent fetches for the same key are collapsed into one request, and
// entries can be invalidated by key or key prefix after a mutation.
package querycache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads fresh data for a key.
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	value     any
	fetchedAt time.Time
}

type Cache struct {
	staleAfter time.Duration
	now        func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

// New creates a cache whose entries are considered fresh for staleAfter.
// A zero staleAfter means every Get refetches.
func New(staleAfter time.Duration) *Cache {
	return &Cache{
		staleAfter: staleAfter,
		now:        time.Now,
		entries:    make(map[string]entry),
	}
}

// Get returns the cached value for key when it is still fresh, otherwise
// calls fetch and caches the result. Concurrent callers for the same key
// share a single in-flight fetch. Fetch errors are returned to the caller
// and nothing is cached.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.fetchedAt) < c.staleAfter {
		return e.value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have populated the
		// entry between the staleness check and Do.
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && c.now().Sub(e.fetchedAt) < c.staleAfter {
			return e.value, nil
		}

		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = entry{value: value, fetchedAt: c.now()}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Invalidate drops the entry for key. The next Get refetches.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidatePrefix drops every entry whose key starts with prefix.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
