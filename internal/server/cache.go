package server

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/timvw/dashgen/internal/generator"
)

// ResponseCache caches generation results keyed by the full request.
//
// Each slot (the panel key, or the kind for ad-hoc panels) holds the most
// recent result together with the hash of the request that produced it.
// A request with a different hash, or an entry older than the TTL, is a miss.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	requestHash string
	result      generator.Result
	cachedAt    time.Time
	hitCount    int
}

// NewResponseCache creates a cache with the given TTL. A TTL of 0 disables
// caching.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
	}
}

// Enabled reports whether the cache stores anything.
func (c *ResponseCache) Enabled() bool {
	return c != nil && c.ttl > 0
}

// Lookup returns the cached result for req when it is present and fresh.
func (c *ResponseCache) Lookup(req generator.Request) (*generator.Result, bool) {
	if !c.Enabled() {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[slot(req)]
	if !ok || entry.requestHash != hashRequest(req) {
		return nil, false
	}
	if time.Since(entry.cachedAt) > c.ttl {
		return nil, false
	}
	entry.hitCount++

	res := entry.result
	res.Commands = append(res.Commands[:0:0], entry.result.Commands...)
	return &res, true
}

// Store saves res as the result for req.
func (c *ResponseCache) Store(req generator.Request, res generator.Result) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[slot(req)] = &cacheEntry{
		requestHash: hashRequest(req),
		result:      res,
		cachedAt:    time.Now(),
	}
}

// Stats reports the number of entries and the total hit count.
func (c *ResponseCache) Stats() (entries, hits int) {
	if c == nil {
		return 0, 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		hits += e.hitCount
	}
	return len(c.entries), hits
}

func slot(req generator.Request) string {
	if req.PanelKey != "" {
		return req.PanelKey
	}
	return string(req.Kind)
}

func hashRequest(req generator.Request) string {
	data, _ := json.Marshal(req)
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
