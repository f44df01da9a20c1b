package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	cachedAt  time.Time
	expiresAt time.Time
}

// Memory is an in-process cache used when no redis is configured.
// Entries never expire when ttl is zero.
type Memory struct {
	entries   map[string]memoryEntry
	mutex     sync.RWMutex
	ttl       time.Duration
	hitCount  int64
	missCount int64
	now       func() time.Time
}

// NewMemory creates a new in-process cache
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the payload stored under key
func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if exists && !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		exists = false
	}
	if !exists {
		c.missCount++
		return nil, false, nil
	}

	c.hitCount++
	return append([]byte(nil), entry.payload...), true, nil
}

// Set stores payload under key, replacing any previous value
func (c *Memory) Set(_ context.Context, key string, payload []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry := memoryEntry{
		payload:  append([]byte(nil), payload...),
		cachedAt: c.now(),
	}
	if c.ttl > 0 {
		entry.expiresAt = entry.cachedAt.Add(c.ttl)
	}
	c.entries[key] = entry
	return nil
}

// Delete removes the given keys
func (c *Memory) Delete(_ context.Context, keys ...string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix
func (c *Memory) DeletePrefix(_ context.Context, prefix string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// Ping always succeeds
func (c *Memory) Ping(context.Context) error {
	return nil
}

// Stats returns cache statistics
func (c *Memory) Stats() map[string]interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	totalRequests := c.hitCount + c.missCount
	hitRatio := float64(0)
	if totalRequests > 0 {
		hitRatio = float64(c.hitCount) / float64(totalRequests)
	}

	return map[string]interface{}{
		"entries":     len(c.entries),
		"hit_count":   c.hitCount,
		"miss_count":  c.missCount,
		"hit_ratio":   hitRatio,
		"ttl_seconds": c.ttl.Seconds(),
	}
}
