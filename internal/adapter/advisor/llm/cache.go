package llm

import (
	"sync"
	"time"

	"npcforge/internal/domain/npc"
)

const (
	defaultCacheCapacity = 1000
	defaultCacheTTL      = time.Hour
)

type cacheEntry struct {
	decision npc.Decision
	storedAt time.Time
}

// responseCache keys parsed decisions by prompt hash. Eviction is FIFO in
// insertion order, capacity-bounded; entries also expire after a TTL.
type responseCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	entries map[string]cacheEntry
	order   []string
}

func newResponseCache(capacity int, ttl time.Duration, now func() time.Time) *responseCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &responseCache{
		capacity: capacity,
		ttl:      ttl,
		now:      now,
		entries:  make(map[string]cacheEntry, capacity),
	}
}

func (c *responseCache) Get(key string) (npc.Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return npc.Decision{}, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return npc.Decision{}, false
	}
	return entry.decision, true
}

func (c *responseCache) Put(key string, decision npc.Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.capacity && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{decision: decision, storedAt: c.now()}
}

func (c *responseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
