package engine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	cache := NewCache(time.Minute, 10)
	result := ScheduleResult{Status: StatusComplete, Strategy: StrategyGreedy}

	_, ok := cache.Get("fp1")
	assert.False(t, ok)

	cache.Put("fp1", result)
	got, ok := cache.Get("fp1")
	require.True(t, ok)
	assert.Equal(t, StatusComplete, got.Status)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := NewCache(time.Minute, 10)
	current := time.Unix(1000, 0)
	cache.now = func() time.Time { return current }

	cache.Put("fp1", ScheduleResult{Status: StatusComplete})

	current = current.Add(59 * time.Second)
	_, ok := cache.Get("fp1")
	assert.True(t, ok)

	current = current.Add(2 * time.Second)
	_, ok = cache.Get("fp1")
	assert.False(t, ok)
	// The expired entry was purged, not just hidden.
	assert.Equal(t, 0, cache.Len())
}

func TestCacheOverwriteRefreshesTTL(t *testing.T) {
	cache := NewCache(time.Minute, 10)
	current := time.Unix(1000, 0)
	cache.now = func() time.Time { return current }

	cache.Put("fp1", ScheduleResult{Status: StatusPartial})
	current = current.Add(50 * time.Second)
	cache.Put("fp1", ScheduleResult{Status: StatusComplete})

	current = current.Add(30 * time.Second)
	got, ok := cache.Get("fp1")
	require.True(t, ok)
	assert.Equal(t, StatusComplete, got.Status)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheLRUEviction(t *testing.T) {
	cache := NewCache(time.Minute, 3)

	cache.Put("fp1", ScheduleResult{})
	cache.Put("fp2", ScheduleResult{})
	cache.Put("fp3", ScheduleResult{})

	// Touch fp1 so fp2 becomes the least recently used.
	_, ok := cache.Get("fp1")
	require.True(t, ok)

	cache.Put("fp4", ScheduleResult{})

	assert.Equal(t, 3, cache.Len())
	_, ok = cache.Get("fp2")
	assert.False(t, ok)
	_, ok = cache.Get("fp1")
	assert.True(t, ok)
	_, ok = cache.Get("fp3")
	assert.True(t, ok)
	_, ok = cache.Get("fp4")
	assert.True(t, ok)
}

func TestCacheKeysMostRecentFirst(t *testing.T) {
	cache := NewCache(time.Minute, 10)

	cache.Put("fp1", ScheduleResult{})
	cache.Put("fp2", ScheduleResult{})
	cache.Put("fp3", ScheduleResult{})
	_, _ = cache.Get("fp1")

	assert.Equal(t, []string{"fp1", "fp3", "fp2"}, cache.Keys())
}

func TestCacheClear(t *testing.T) {
	cache := NewCache(time.Minute, 10)
	cache.Put("fp1", ScheduleResult{})
	cache.Put("fp2", ScheduleResult{})

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	assert.Empty(t, cache.Keys())
	_, ok := cache.Get("fp1")
	assert.False(t, ok)
}

func TestCacheDefaults(t *testing.T) {
	cache := NewCache(0, 0)
	assert.Equal(t, DefaultCacheTTL, cache.TTL())
	assert.Equal(t, DefaultCacheMaxEntries, cache.MaxSize())
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache := NewCache(time.Minute, 20)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("fp%d", (n+j)%30)
				cache.Put(key, ScheduleResult{Status: StatusComplete})
				cache.Get(key)
				cache.Keys()
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Len(), 20)
}
