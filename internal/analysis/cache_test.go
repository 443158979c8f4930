package analysis

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResultCache_BasicGetPut(t *testing.T) {
	cache := NewResultCache(10, time.Hour)
	v := uuid.New()

	assert.Nil(t, cache.Get(v, 5))

	s := &Summary{Version: v, RadiusKM: 5}
	cache.Put(v, 5, s)
	assert.Same(t, s, cache.Get(v, 5))

	// Different radius or version is still a miss.
	assert.Nil(t, cache.Get(v, 5.5))
	assert.Nil(t, cache.Get(uuid.New(), 5))
}

func TestResultCache_NegativeZero(t *testing.T) {
	cache := NewResultCache(10, time.Hour)
	v := uuid.New()
	negZero := 0.0
	negZero = -negZero

	cache.Put(v, negZero, &Summary{})
	assert.NotNil(t, cache.Get(v, 0))
}

func TestResultCache_TTLExpiration(t *testing.T) {
	cache := NewResultCache(10, 50*time.Millisecond)
	v := uuid.New()

	cache.Put(v, 1, &Summary{})
	assert.NotNil(t, cache.Get(v, 1))

	time.Sleep(60 * time.Millisecond)
	assert.Nil(t, cache.Get(v, 1))

	cache.mu.Lock()
	_, exists := cache.entries[newKey(v, 1)]
	cache.mu.Unlock()
	assert.False(t, exists)
}

func TestResultCache_ZeroTTLNeverExpires(t *testing.T) {
	cache := NewResultCache(10, 0)
	v := uuid.New()
	cache.Put(v, 1, &Summary{})
	time.Sleep(5 * time.Millisecond)
	assert.NotNil(t, cache.Get(v, 1))
}

func TestResultCache_LRUEviction(t *testing.T) {
	cache := NewResultCache(3, time.Hour)
	v := uuid.New()

	cache.Put(v, 1, &Summary{})
	cache.Put(v, 2, &Summary{})
	cache.Put(v, 3, &Summary{})

	// Touch 1 so 2 becomes the oldest.
	assert.NotNil(t, cache.Get(v, 1))
	cache.Put(v, 4, &Summary{})

	assert.Nil(t, cache.Get(v, 2))
	assert.NotNil(t, cache.Get(v, 1))
	assert.NotNil(t, cache.Get(v, 3))
	assert.NotNil(t, cache.Get(v, 4))
}

func TestResultCache_PutUpdatesInPlace(t *testing.T) {
	cache := NewResultCache(2, time.Hour)
	v := uuid.New()

	cache.Put(v, 1, &Summary{MaxWeight: 1})
	cache.Put(v, 1, &Summary{MaxWeight: 2})

	assert.Equal(t, int64(2), cache.Get(v, 1).MaxWeight)
	assert.Equal(t, 1, cache.Stats().Entries)
}

func TestResultCache_PurgeAndStats(t *testing.T) {
	cache := NewResultCache(5, time.Hour)
	v := uuid.New()
	cache.Put(v, 1, &Summary{})
	cache.Get(v, 1)
	cache.Get(v, 2)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 5, stats.MaxEntries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)

	cache.Purge()
	assert.Equal(t, 0, cache.Stats().Entries)
	assert.Nil(t, cache.Get(v, 1))
}

func TestResultCache_Concurrent(t *testing.T) {
	cache := NewResultCache(16, time.Hour)
	v := uuid.New()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := range 100 {
				r := float64((i + j) % 20)
				cache.Put(v, r, &Summary{})
				cache.Get(v, r)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, cache.Stats().Entries, 16)
}
