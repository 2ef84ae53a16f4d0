package maps

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores geocode results, including misses (a nil place).
type Cache interface {
	Get(ctx context.Context, key string) (place *Place, ok bool, err error)
	Set(ctx context.Context, key string, place *Place, ttl time.Duration) error
}

// cacheKey folds case and surrounding whitespace so equivalent queries share an entry.
func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

type cacheEntry struct {
	Place *Place `json:"place"`
}

// RedisCache keeps geocode results in Redis so every API instance shares them.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed cache. Keys are stored under prefix.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Place, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, err
	}
	return entry.Place, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, place *Place, ttl time.Duration) error {
	raw, err := json.Marshal(cacheEntry{Place: place})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

type memoryEntry struct {
	place   *Place
	expires time.Time
}

// MemoryCache is an in-process TTL cache for single-instance deployments.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Place, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return entry.place, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, place *Place, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memoryEntry{place: place, expires: now.Add(ttl)}
	return nil
}
