// Package cache implements the volatile and shared cache tiers that sit in
// front of the durable store and the external enrichment pipeline. Both tiers
// cache whole resolved payloads keyed by the normalized query; entries are
// replaced wholesale on refresh and never partially mutated.
package cache

import (
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/gstyle/go-shop-backend/internal/domain"
)

// MemoryCache is the process-local tier. It exists purely to absorb bursts of
// identical requests within one running instance: no persistence, no
// cross-instance visibility. An entry is fresh for TTL after the write;
// reads never extend freshness, and a stale entry behaves exactly like a
// miss. The cache is injected into the orchestrator rather than held as
// package-level state so tests get a clean instance each time.
type MemoryCache struct {
	cache *otter.Cache[string, *domain.SearchResult]
	ttl   time.Duration
}

// NewMemoryCache builds a bounded in-process cache whose entries expire a
// fixed TTL after each write.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: otter.Must(&otter.Options[string, *domain.SearchResult]{
			MaximumSize:      10_000,
			ExpiryCalculator: otter.ExpiryWriting[string, *domain.SearchResult](ttl),
		}),
		ttl: ttl,
	}
}

// Get returns the fresh payload for key, or (nil, false) on miss or staleness.
func (m *MemoryCache) Get(key string) (*domain.SearchResult, bool) {
	return m.cache.GetIfPresent(key)
}

// Set stores the payload for key, restarting its TTL. Cannot fail.
func (m *MemoryCache) Set(key string, value *domain.SearchResult) {
	m.cache.Set(key, value)
}

// Invalidate drops key immediately. Used only by tests and force refreshes;
// normal operation relies on TTL expiry alone.
func (m *MemoryCache) Invalidate(key string) {
	m.cache.Invalidate(key)
}
