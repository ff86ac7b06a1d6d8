package store

import (
	"sync"
	"time"

	"github.com/Pangu-Immortal/cyberweather-core/internal/weather"
)

// CacheEntry is one cached snapshot together with its provenance.
type CacheEntry struct {
	Snapshot   weather.Snapshot
	Provider   string
	CapturedAt time.Time
}

// SnapshotCache is a concurrency-safe TTL cache of normalized snapshots,
// keyed by grid-rounded coordinate. Expired entries are ignored on read
// rather than deleted; a size bound keeps entries for abandoned coordinates
// from accumulating in a long-running process.
type SnapshotCache struct {
	mu sync.RWMutex

	entries map[string]CacheEntry

	ttl        time.Duration
	maxEntries int // <= 0 means unlimited
}

// NewSnapshotCache creates a cache with the given TTL and size bound.
func NewSnapshotCache(ttl time.Duration, maxEntries int) *SnapshotCache {
	return &SnapshotCache{
		entries:    make(map[string]CacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get returns the cached snapshot for key if present and younger than the
// TTL at the given time.
func (c *SnapshotCache) Get(key string, now time.Time) (weather.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return weather.Snapshot{}, false
	}
	if now.Sub(entry.CapturedAt) >= c.ttl {
		return weather.Snapshot{}, false
	}
	return entry.Snapshot, true
}

// Entry returns the full cache entry, including provenance, if unexpired.
func (c *SnapshotCache) Entry(key string, now time.Time) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || now.Sub(entry.CapturedAt) >= c.ttl {
		return CacheEntry{}, false
	}
	return entry, true
}

// Put unconditionally overwrites the entry for key and enforces the size
// bound by dropping the oldest entries first.
func (c *SnapshotCache) Put(key string, snapshot weather.Snapshot, provider string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = CacheEntry{
		Snapshot:   snapshot,
		Provider:   provider,
		CapturedAt: now,
	}

	if c.maxEntries <= 0 {
		return
	}
	for len(c.entries) > c.maxEntries {
		oldestKey := ""
		var oldest time.Time
		for k, e := range c.entries {
			if k == key {
				continue
			}
			if oldestKey == "" || e.CapturedAt.Before(oldest) {
				oldestKey = k
				oldest = e.CapturedAt
			}
		}
		if oldestKey == "" {
			return
		}
		delete(c.entries, oldestKey)
	}
}

// Len reports the number of entries currently held, expired or not.
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
