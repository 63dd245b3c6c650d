package server

import (
	"sync"
	"time"

	"github.com/abhinvv1/WebDriverAgent/internal/gridsample"
)

// resultEntry holds a sampling result with its timestamp.
type resultEntry struct {
	result    *gridsample.Result
	timestamp time.Time
}

// ResultCache provides a TTL-based cache of complete sampling results keyed
// by the sampling configuration that produced them.
type ResultCache struct {
	mu      sync.Mutex
	entries map[gridsample.Config]resultEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewResultCache creates a new cache. A ttl of 0 disables caching.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		entries: make(map[gridsample.Config]resultEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// BuildTree returns a cached result if within TTL, otherwise runs build.
// Partial results are returned but never cached.
func (c *ResultCache) BuildTree(cfg gridsample.Config, build func() (*gridsample.Result, error)) (*gridsample.Result, bool, error) {
	if c.ttl == 0 {
		res, err := build()
		return res, false, err
	}

	c.mu.Lock()
	c.pruneLocked()
	if entry, ok := c.entries[cfg]; ok {
		c.mu.Unlock()
		return entry.result, true, nil
	}
	c.mu.Unlock()

	res, err := build()
	if err != nil {
		return nil, false, err
	}
	if res.Complete() {
		c.mu.Lock()
		c.pruneLocked()
		c.entries[cfg] = resultEntry{result: res, timestamp: c.now()}
		c.mu.Unlock()
	}
	return res, false, nil
}

// pruneLocked drops entries older than the TTL. c.mu must be held.
func (c *ResultCache) pruneLocked() {
	now := c.now()
	for cfg, entry := range c.entries {
		if now.Sub(entry.timestamp) >= c.ttl {
			delete(c.entries, cfg)
		}
	}
}

// Len returns the number of cached results not yet pruned.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// InvalidateAll clears the entire cache.
func (c *ResultCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[gridsample.Config]resultEntry)
}
