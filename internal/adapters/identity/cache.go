package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/pkg/logger"
	"github.com/okian/salesboard/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is how long a resolved identity is reused.
const DefaultCacheTTL = 15 * time.Minute

const cacheKeyPrefix = "user_context:"

// Cache stores resolved identities by email.
type Cache interface {
	Get(ctx context.Context, email string) (model.Identity, bool)
	Set(ctx context.Context, email string, id model.Identity)
}

type memoryEntry struct {
	id      model.Identity
	expires time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryCache returns a cache whose entries live for ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

// Get implements Cache. Expired entries are dropped on read.
func (c *MemoryCache) Get(_ context.Context, email string) (model.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[email]
	if !ok {
		metrics.RecordIdentityCacheLookup("memory", "miss")
		return model.Identity{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, email)
		metrics.RecordIdentityCacheLookup("memory", "expired")
		return model.Identity{}, false
	}
	metrics.RecordIdentityCacheLookup("memory", "hit")
	return e.id, true
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, email string, id model.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[email] = memoryEntry{id: id, expires: c.now().Add(c.ttl)}
}

// RedisCache shares identities across replicas. Redis errors fall back to
// an in-memory cache.
type RedisCache struct {
	client   *redis.Client
	ttl      time.Duration
	fallback *MemoryCache
	logger   logger.Logger
}

// OpenRedisCache connects to url and pings it.
func OpenRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisCache(client, ttl), nil
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{
		client:   client,
		ttl:      ttl,
		fallback: NewMemoryCache(ttl),
		logger:   logger.Get().Named("identity_cache"),
	}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, email string) (model.Identity, bool) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+email).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.RecordIdentityCacheLookup("redis", "miss")
		return model.Identity{}, false
	case err != nil:
		c.logger.Warn(ctx, "redis read failed; using memory", logger.Error(err))
		metrics.RecordIdentityCacheLookup("redis", "error")
		return c.fallback.Get(ctx, email)
	}
	var id model.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		metrics.RecordIdentityCacheLookup("redis", "corrupt")
		return model.Identity{}, false
	}
	metrics.RecordIdentityCacheLookup("redis", "hit")
	return id, true
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, email string, id model.Identity) {
	data, err := json.Marshal(id)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+email, data, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "redis write failed; using memory", logger.Error(err))
		c.fallback.Set(ctx, email, id)
	}
}

// Close closes the client.
func (c *RedisCache) Close() error { return c.client.Close() }
