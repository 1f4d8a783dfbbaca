package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache backs the result cache with Redis so multiple orchestrator
// processes share tool results. Redis handles TTL expiry and SET replaces
// values atomically, satisfying the last-writer-wins contract.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	// Prefix namespaces cache keys so several deployments can share a server.
	Prefix string
}

// NewRedisCache wraps an existing redis client.
func NewRedisCache(client *redis.Client, optFns ...func(o *RedisOptions)) *RedisCache {
	opts := RedisOptions{Prefix: "troupe:toolcache:"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RedisCache{client: client, prefix: opts.Prefix}
}

// Get returns the cached value for key, if any.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores value under key for ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// Invalidate removes key if present.
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}
