package fallback

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/wayfarerhq/datacore/internal/metrics"
)

const (
	// DefaultTTL is how long a cached result stays valid.
	DefaultTTL = time.Hour
	// DefaultMaxEntries caps the store size; exceeding it evicts the
	// oldest ~20% of entries.
	DefaultMaxEntries = 1000
)

// MemoryCache is the in-process Cache implementation.
type MemoryCache struct {
	mu         sync.Mutex
	clock      clock.Clock
	ttl        time.Duration
	maxEntries int
	entries    map[string]*Entry
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a bounded in-memory cache. Zero ttl or
// maxEntries select the defaults; a nil clock uses the wall clock.
func NewMemoryCache(ttl time.Duration, maxEntries int, clk clock.Clock) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &MemoryCache{
		clock:      clk,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]*Entry),
	}
}

// Get returns the cached payload when present and younger than the
// TTL. Expired entries are removed and treated as absent.
func (c *MemoryCache) Get(_ context.Context, service, method string, params map[string]any) (any, bool, error) {
	key, err := Key(service, method, params)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.clock.Now().Sub(e.StoredAt) >= c.ttl {
		delete(c.entries, key)
		metrics.FallbackCacheSize.Set(float64(len(c.entries)))
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Put stores a successful result for future fallback, evicting the
// oldest entries when the cap is exceeded.
func (c *MemoryCache) Put(_ context.Context, service, method string, params map[string]any, data any) error {
	key, err := Key(service, method, params)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &Entry{
		Key:      key,
		Data:     data,
		StoredAt: c.clock.Now(),
		Service:  service,
		Method:   method,
	}
	if len(c.entries) > c.maxEntries {
		c.evictOldestLocked(c.maxEntries / 5)
	}
	metrics.FallbackCacheSize.Set(float64(len(c.entries)))
	return nil
}

// Size returns the current number of entries, expired or not.
func (c *MemoryCache) Size(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries), nil
}

// evictOldestLocked removes the n entries with the oldest StoredAt.
// Caller holds c.mu.
func (c *MemoryCache) evictOldestLocked(n int) {
	for ; n > 0 && len(c.entries) > 0; n-- {
		var (
			oldestKey string
			oldestAt  time.Time
		)
		for k, e := range c.entries {
			if oldestKey == "" || e.StoredAt.Before(oldestAt) {
				oldestKey = k
				oldestAt = e.StoredAt
			}
		}
		delete(c.entries, oldestKey)
	}
}
