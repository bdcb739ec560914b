// pkg/cache/cache.go
package cache

import (
    "sync"
    "time"
)

type entry[V any] struct {
    value     V
    timestamp time.Time
}

// Cache is a time-boxed key/value cache. An entry is valid while
// now - timestamp <= ttl. Expired entries are dropped lazily on read and
// proactively by the sweeper once started.
//
// Values are expected to be immutable facts; concurrent writers for the same
// key are last-writer-wins.
type Cache[V any] struct {
    mu      sync.RWMutex
    entries map[string]entry[V]
    ttl     time.Duration

    now func() time.Time

    stopOnce sync.Once
    stop     chan struct{}
}

// New creates a cache whose entries expire after ttl. The sweeper is not
// running until Start is called.
func New[V any](ttl time.Duration) *Cache[V] {
    return &Cache[V]{
        entries: make(map[string]entry[V]),
        ttl:     ttl,
        now:     time.Now,
        stop:    make(chan struct{}),
    }
}

// Get returns the cached value for key if it has not expired. An expired
// entry is evicted and reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
    c.mu.RLock()
    e, ok := c.entries[key]
    c.mu.RUnlock()

    var zero V
    if !ok {
        return zero, false
    }
    if c.now().Sub(e.timestamp) > c.ttl {
        c.mu.Lock()
        // Re-check under the write lock: a concurrent Set may have refreshed it.
        if cur, ok := c.entries[key]; ok && c.now().Sub(cur.timestamp) > c.ttl {
            delete(c.entries, key)
        }
        c.mu.Unlock()
        return zero, false
    }
    return e.value, true
}

// Set stores value under key with the current time.
func (c *Cache[V]) Set(key string, value V) {
    c.mu.Lock()
    c.entries[key] = entry[V]{value: value, timestamp: c.now()}
    c.mu.Unlock()
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache[V]) Len() int {
    c.mu.RLock()
    defer c.mu.RUnlock()
    return len(c.entries)
}

// Start launches a background sweeper that evicts stale entries every
// interval. Call Stop to release it.
func (c *Cache[V]) Start(interval time.Duration) {
    go func() {
        ticker := time.NewTicker(interval)
        defer ticker.Stop()
        for {
            select {
            case <-ticker.C:
                c.sweep()
            case <-c.stop:
                return
            }
        }
    }()
}

// Stop terminates the sweeper. Safe to call more than once.
func (c *Cache[V]) Stop() {
    c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache[V]) sweep() {
    now := c.now()
    c.mu.Lock()
    for key, e := range c.entries {
        if now.Sub(e.timestamp) > c.ttl {
            delete(c.entries, key)
        }
    }
    c.mu.Unlock()
}
