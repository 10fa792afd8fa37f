package memory

import (
	"context"
	"sync"
	"time"

	portidem "github.com/brightdoor/leadrouter/internal/port/idempotency"
)

var _ portidem.Store = (*IdempotencyCache)(nil)

type cacheEntry struct {
	result    []byte
	expiresAt time.Time
}

// IdempotencyCache keeps processed-operation records in memory with a TTL.
// Good for tests and single-node deployments; the Postgres adapter is the
// durable implementation.
type IdempotencyCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewIdempotencyCache(ttl time.Duration) *IdempotencyCache {
	return &IdempotencyCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *IdempotencyCache) Check(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.result, true, nil
}

func (c *IdempotencyCache) Record(_ context.Context, key, _ string, result []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// First write wins — a replayed request must see the original result.
	if _, ok := c.entries[key]; ok {
		return nil
	}
	c.entries[key] = cacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
	return nil
}
