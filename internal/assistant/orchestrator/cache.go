package orchestrator

import (
	"sync"
	"time"

	"flowdesk-backend/internal/assistant/domain"
)

// Cache keeps recent tool outputs keyed by the request hash. Entries expire
// after the TTL; past the cap the oldest entry is evicted first.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type cacheEntry struct {
	output   *domain.ToolOutput
	storedAt time.Time
}

func NewCache(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *Cache) Get(key string) (*domain.ToolOutput, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweep()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry.output, true
}

func (c *Cache) Set(key string, output *domain.ToolOutput) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweep()
	for len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = cacheEntry{output: output, storedAt: c.now()}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sweep drops expired entries. Callers hold the lock.
func (c *Cache) sweep() {
	cutoff := c.now().Add(-c.ttl)
	for key, entry := range c.entries {
		if entry.storedAt.Before(cutoff) {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.storedAt.Before(oldest) {
			oldestKey = key
			oldest = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
