package cache

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestCacheHitWithinTTL(t *testing.T) {
    c := New[float64](time.Hour)
    base := time.Now()
    c.now = func() time.Time { return base }

    c.Set("USD,EUR,2024-01-02", 0.92)

    c.now = func() time.Time { return base.Add(time.Hour) } // exactly at the boundary
    got, ok := c.Get("USD,EUR,2024-01-02")
    require.True(t, ok)
    assert.Equal(t, 0.92, got)
}

func TestCacheExpiryPurgesEntry(t *testing.T) {
    c := New[float64](time.Hour)
    base := time.Now()
    c.now = func() time.Time { return base }

    c.Set("USD,EUR,2024-01-02", 0.92)

    c.now = func() time.Time { return base.Add(time.Hour + time.Nanosecond) }
    _, ok := c.Get("USD,EUR,2024-01-02")
    assert.False(t, ok)
    assert.Equal(t, 0, c.Len(), "expired entry should be purged on read")
}

func TestCacheMissOnUnknownKey(t *testing.T) {
    c := New[string](time.Minute)
    _, ok := c.Get("nope")
    assert.False(t, ok)
}

func TestCacheSweepEvictsStaleEntries(t *testing.T) {
    c := New[int](time.Hour)
    base := time.Now()
    c.now = func() time.Time { return base }

    c.Set("a", 1)
    c.Set("b", 2)

    c.now = func() time.Time { return base.Add(2 * time.Hour) }
    c.Set("c", 3)
    c.sweep()

    assert.Equal(t, 1, c.Len())
    got, ok := c.Get("c")
    require.True(t, ok)
    assert.Equal(t, 3, got)
}

func TestCacheSweeperLifecycle(t *testing.T) {
    c := New[int](time.Nanosecond)
    c.Set("a", 1)

    c.Start(time.Millisecond)
    defer c.Stop()

    assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)

    c.Stop()
    c.Stop() // idempotent
}
