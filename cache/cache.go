// Package cache holds fetched page content keyed by record key so
// repeated reads of the same record skip the database.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Cache stores page content by key. Implementations are safe for
// concurrent use. A miss and a backend failure look the same to callers.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// entry holds cached content with its creation timestamp.
type entry struct {
	value     string
	createdAt time.Time
}

// Memory is a simple in-memory Cache.
type Memory struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	stop       chan struct{}
}

// NewMemory creates a Memory cache holding at most maxEntries values for
// ttl each. A background goroutine evicts expired entries every 5
// minutes until Close is called.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	c := &Memory{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		stop:       make(chan struct{}),
	}

	go c.cleanupLoop()
	return c
}

// Key derives a cache key from its parts.
func Key(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte("|"))
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the value for key if present and younger than the TTL.
func (c *Memory) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if c.ttl > 0 && time.Since(e.createdAt) > c.ttl {
		return "", false
	}
	return e.value, true
}

// Set stores value under key. If the cache is at capacity, a random
// entry is evicted to make room.
func (c *Memory) Set(_ context.Context, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Map iteration order is random, so this evicts an arbitrary entry.
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		value:     value,
		createdAt: time.Now(),
	}
}

// Len reports the number of stored entries, expired ones included.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine.
func (c *Memory) Close() {
	close(c.stop)
}

// cleanupLoop evicts expired entries every 5 minutes.
func (c *Memory) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired(time.Now())
		}
	}
}

func (c *Memory) evictExpired(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	cutoff := now.Add(-c.ttl)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}
