package analysis

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ResultCache is a concurrent-safe LRU cache of summaries keyed by snapshot
// version and radius, with TTL expiration. Entries are bounded by
// cache_entries (256 by default), so recency is a plain slice and a touch is
// a linear move to the back, small next to one coverage computation.
type ResultCache struct {
	mu         sync.Mutex
	entries    map[cacheKey]*cacheEntry
	order      []cacheKey // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
}

type cacheKey struct {
	version  uuid.UUID
	radiusKM float64
}

type cacheEntry struct {
	summary   *Summary
	createdAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewResultCache creates a cache holding at most maxEntries summaries. A ttl
// of zero disables expiry.
func NewResultCache(maxEntries int, ttl time.Duration) *ResultCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &ResultCache{
		entries:    make(map[cacheKey]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

func newKey(version uuid.UUID, radiusKM float64) cacheKey {
	// +0 folds -0 into 0.
	return cacheKey{version: version, radiusKM: radiusKM + 0}
}

// Get returns the cached summary, or nil on miss or expiration.
func (c *ResultCache) Get(version uuid.UUID, radiusKM float64) *Summary {
	key := newKey(version, radiusKM)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}

	if c.ttl > 0 && time.Since(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses.Add(1)
		return nil
	}

	c.removeFromOrder(key)
	c.order = append(c.order, key)
	c.hits.Add(1)
	return entry.summary
}

// Put stores a summary, evicting the least recently used entry when full.
func (c *ResultCache) Put(version uuid.UUID, radiusKM float64, s *Summary) {
	key := newKey(version, radiusKM)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = &cacheEntry{summary: s, createdAt: time.Now()}
		c.removeFromOrder(key)
		c.order = append(c.order, key)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = &cacheEntry{summary: s, createdAt: time.Now()}
	c.order = append(c.order, key)
}

// Purge drops every entry.
func (c *ResultCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*cacheEntry)
	c.order = nil
}

// Stats returns cache performance statistics.
func (c *ResultCache) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	maxEntries := c.maxEntries
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *ResultCache) removeFromOrder(key cacheKey) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
