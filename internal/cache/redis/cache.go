// Package redis provides a Redis-backed cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/prn-tf/itlibrary/internal/cache"
	"github.com/prn-tf/itlibrary/internal/config"
)

// Cache implements cache.Cache on a Redis client. Keys are namespaced with
// prefix. The client is owned by the caller and shared with lock.RedisLocker.
type Cache struct {
	client goredis.UniversalClient
	prefix string
}

// NewClient builds a go-redis client from cfg and checks connectivity.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
	}
	return client, nil
}

// New wraps client.
func New(client goredis.UniversalClient, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, cache.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
	}
	return value, nil
}

// Set stores a value. A zero ttl keeps it until deleted.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
	}
	return nil
}

// Delete removes a value by key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
	}
	return nil
}

// Close is a no-op; the caller closes the shared client.
func (c *Cache) Close() error { return nil }

var _ cache.Cache = (*Cache)(nil)
