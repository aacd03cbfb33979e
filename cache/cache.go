// Package cache holds an optional in-memory TTL cache of search results.
// Caching is off unless a max age is configured, so the default service
// behavior stays fully stateless.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/plenzo-app/plenzo/models"
)

// entry holds a cached result list with its creation timestamp.
type entry struct {
	deals     []models.Deal
	createdAt time.Time
}

// Cache is a simple in-memory cache of deal lists. It is safe for
// concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	maxAge     time.Duration
}

// New creates a Cache. When maxAge is zero the cache is inert: Get always
// misses and Set is a no-op. A background goroutine evicts expired entries
// every minute.
func New(maxEntries int, maxAge time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
	}
	if maxAge > 0 {
		go c.cleanupLoop()
	}
	return c
}

// Enabled reports whether caching is active.
func (c *Cache) Enabled() bool {
	return c.maxAge > 0
}

// Key derives the cache key for a search term. Terms are case-folded and
// trimmed so "Laptop " and "laptop" share an entry.
func Key(term string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(term))))
	return hex.EncodeToString(h[:])
}

// Get retrieves a cached result list if it exists and is still fresh.
func (c *Cache) Get(key string) ([]models.Deal, bool) {
	if !c.Enabled() {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > c.maxAge {
		return nil, false
	}
	return e.deals, true
}

// Set stores a result list. If the cache is at capacity, a random entry is
// evicted to make room (map iteration is random in Go).
func (c *Cache) Set(key string, deals []models.Deal) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		deals:     deals,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts expired entries once a minute.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-c.maxAge)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
