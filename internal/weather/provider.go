package weather

import (
	"context"
	"time"
)

// Provider abstracts one external weather backend. Adapters are stateless;
// cooldown bookkeeping and caching happen in the Service.
type Provider interface {
	// Name is the stable human-readable label used in logs, cache entries
	// and aggregate errors.
	Name() string
	// Priority orders fallback attempts; lower values are tried first.
	Priority() int
	Fetch(ctx context.Context, q Query) (Snapshot, error)
}

// Cache is the contract for the snapshot result cache.
type Cache interface {
	Get(key string, now time.Time) (Snapshot, bool)
	Put(key string, snapshot Snapshot, provider string, now time.Time)
}
