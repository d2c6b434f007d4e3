// Package redis provides the Redis-backed fallback cache used when
// multiple processes should share recovered results. Entries rely on
// server-side TTL expiry; the in-memory size bound does not apply.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wayfarerhq/datacore/internal/recovery/fallback"
)

const keyPrefix = "fallback:"

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Cache implements the fallback cache contract on Redis.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ fallback.Cache = (*Cache)(nil)

// NewCache creates a Redis-backed fallback cache. A zero ttl selects
// the default TTL.
func NewCache(cfg Config, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if ttl <= 0 {
		ttl = fallback.DefaultTTL
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Get returns the cached payload when present; expiry is handled by
// the Redis server via TTL.
func (c *Cache) Get(ctx context.Context, service, method string, params map[string]any) (any, bool, error) {
	key, err := fallback.Key(service, method, params)
	if err != nil {
		return nil, false, err
	}

	raw, err := c.rdb.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var entry fallback.Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry: %w", err)
	}
	return entry.Data, true, nil
}

// Put stores a successful result with the configured TTL.
func (c *Cache) Put(ctx context.Context, service, method string, params map[string]any, data any) error {
	key, err := fallback.Key(service, method, params)
	if err != nil {
		return err
	}

	entry := fallback.Entry{
		Key:      key,
		Data:     data,
		StoredAt: time.Now(),
		Service:  service,
		Method:   method,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := c.rdb.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Size counts unexpired fallback entries.
func (c *Cache) Size(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, keyPrefix+"*", 500).Result()
		if err != nil {
			return 0, fmt.Errorf("redis scan failed: %w", err)
		}
		count += len(keys)
		if next == 0 {
			return count, nil
		}
		cursor = next
	}
}
