package engine

import (
	"container/list"
	"sync"
	"time"
)

const (
	// DefaultCacheTTL matches the 30 minute result lifetime.
	DefaultCacheTTL = 30 * time.Minute
	// DefaultCacheMaxEntries bounds the in-memory result cache.
	DefaultCacheMaxEntries = 50
)

type cacheEntry struct {
	fingerprint string
	result      ScheduleResult
	insertedAt  time.Time
}

// Cache memoizes gate-validated schedule results by request fingerprint.
// Entries expire after the TTL and the least-recently-used entry is evicted
// once the map exceeds the maximum size. One mutex serializes the map and
// recency list; the cache holds no authority over correctness.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[string]*list.Element
	recency *list.List // front = most recently used

	now func() time.Time
}

// NewCache builds a cache with the given TTL and entry bound, substituting
// defaults for non-positive values.
func NewCache(ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultCacheMaxEntries
	}
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		recency: list.New(),
		now:     time.Now,
	}
}

// Get returns the cached result when present and fresh. Expired entries are
// treated as absent and purged lazily. Hits refresh recency.
func (c *Cache) Get(fingerprint string) (ScheduleResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[fingerprint]
	if !ok {
		return ScheduleResult{}, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.now().Sub(entry.insertedAt) >= c.ttl {
		c.removeLocked(elem)
		return ScheduleResult{}, false
	}
	c.recency.MoveToFront(elem)
	return entry.result, true
}

// Put inserts or overwrites the entry and evicts the least-recently-used
// entry when the cache is over capacity.
func (c *Cache) Put(fingerprint string, result ScheduleResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[fingerprint]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.result = result
		entry.insertedAt = c.now()
		c.recency.MoveToFront(elem)
		return
	}

	elem := c.recency.PushFront(&cacheEntry{
		fingerprint: fingerprint,
		result:      result,
		insertedAt:  c.now(),
	})
	c.entries[fingerprint] = elem

	for len(c.entries) > c.maxSize {
		oldest := c.recency.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.recency.Init()
}

// Len reports the current entry count, counting not-yet-purged expired
// entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys lists the cached fingerprints, most recently used first.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for elem := c.recency.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*cacheEntry).fingerprint)
	}
	return keys
}

// TTL exposes the configured entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// MaxSize exposes the configured entry bound.
func (c *Cache) MaxSize() int { return c.maxSize }

func (c *Cache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	delete(c.entries, entry.fingerprint)
	c.recency.Remove(elem)
}
