// Package attrcache caches element attribute values read from the platform.
//
// The cache is keyed by (element identity, attribute name). It is bounded:
// inserting past the maximum evicts the oldest insertion first. Entries
// older than the expiry read as absent and are removed lazily on access or
// eagerly by Sweep.
package attrcache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/model"
)

const (
	DefaultMaxSize = 1000
	DefaultExpiry  = 30 * time.Second
)

// Key identifies one cached attribute value.
type Key struct {
	Identity model.Identity
	Name     string
}

type entry struct {
	key        Key
	value      any
	insertedAt time.Time
}

// Options configures a Cache. Zero fields take defaults.
type Options struct {
	MaxSize int
	Expiry  time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Size        int   `yaml:"size"        json:"size"`
	MaxSize     int   `yaml:"max_size"    json:"max_size"`
	Hits        int64 `yaml:"hits"        json:"hits"`
	Misses      int64 `yaml:"misses"      json:"misses"`
	Evictions   int64 `yaml:"evictions"   json:"evictions"`
	Expirations int64 `yaml:"expirations" json:"expirations"`
}

// Cache is a bounded, expiring attribute cache. All methods are safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	expiry  time.Duration
	items   map[Key]*list.Element
	order   *list.List // Front = oldest insertion
	now     func() time.Time

	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64
}

// New creates a cache.
func New(opts Options) *Cache {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultExpiry
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		maxSize: opts.MaxSize,
		expiry:  opts.Expiry,
		items:   make(map[Key]*list.Element),
		order:   list.New(),
		now:     opts.Now,
	}
}

// Get returns the cached value for (id, name). Expired entries are removed
// and reported as a miss.
func (c *Cache) Get(id model.Identity, name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[Key{id, name}]
	if !ok {
		c.recordMiss()
		return nil, false
	}
	e := el.Value.(*entry)
	if c.expired(e) {
		c.removeElement(el)
		c.expirations.Add(1)
		cacheExpirations.Inc()
		cacheEntries.Set(float64(len(c.items)))
		c.recordMiss()
		return nil, false
	}
	c.hits.Add(1)
	cacheHits.Inc()
	return e.value, true
}

// Set stores value for (id, name). Overwriting an entry counts as a fresh
// insertion. The oldest entries are evicted while the cache is over its
// bound.
func (c *Cache) Set(id model.Identity, name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key{id, name}
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.insertedAt = c.now()
		c.order.MoveToBack(el)
		return
	}
	c.items[key] = c.order.PushBack(&entry{key: key, value: value, insertedAt: c.now()})
	c.evictOverflow()
	cacheEntries.Set(float64(len(c.items)))
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[Key]*list.Element)
	c.order.Init()
	cacheEntries.Set(0)
}

// ClearElement removes every entry for one element and returns how many
// were removed.
func (c *Cache) ClearElement(id model.Identity) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*entry).key.Identity == id {
			c.removeElement(el)
			removed++
		}
		el = next
	}
	cacheEntries.Set(float64(len(c.items)))
	return removed
}

// MaxSize returns the current size bound.
func (c *Cache) MaxSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxSize
}

// SetMaxSize changes the size bound, evicting the oldest entries if the
// cache is now over it.
func (c *Cache) SetMaxSize(n int) error {
	if n < 1 {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidConfig, "cache max size must be at least 1",
			map[string]any{"max_size": n})
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSize = n
	c.evictOverflow()
	cacheEntries.Set(float64(len(c.items)))
	return nil
}

// Expiry returns how long entries stay valid.
func (c *Cache) Expiry() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiry
}

// SetExpiry changes how long entries stay valid. It applies to existing
// entries as well.
func (c *Cache) SetExpiry(d time.Duration) error {
	if d <= 0 {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidConfig, "cache expiry must be positive",
			map[string]any{"expiry": d.String()})
	}
	c.mu.Lock()
	c.expiry = d
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, including expired entries not
// yet swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Sweep removes all expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	// Insertion order is also age order, so stop at the first live entry.
	for el := c.order.Front(); el != nil; el = c.order.Front() {
		if !c.expired(el.Value.(*entry)) {
			break
		}
		c.removeElement(el)
		removed++
	}
	if removed > 0 {
		c.expirations.Add(int64(removed))
		cacheExpirations.Add(float64(removed))
		cacheEntries.Set(float64(len(c.items)))
	}
	return removed
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	size, maxSize := len(c.items), c.maxSize
	c.mu.Unlock()
	return Stats{
		Size:        size,
		MaxSize:     maxSize,
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		Expirations: c.expirations.Load(),
	}
}

// Janitor sweeps expired entries every interval until ctx is done.
func (c *Cache) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

func (c *Cache) expired(e *entry) bool {
	return c.now().Sub(e.insertedAt) >= c.expiry
}

func (c *Cache) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

func (c *Cache) evictOverflow() {
	for len(c.items) > c.maxSize {
		c.removeElement(c.order.Front())
		c.evictions.Add(1)
		cacheEvictions.Inc()
	}
}

func (c *Cache) recordMiss() {
	c.misses.Add(1)
	cacheMisses.Inc()
}
