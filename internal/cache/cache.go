// Package cache defines the byte cache the persistence adapter mirrors
// documents into.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values by key.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an optional TTL.
	// If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Close releases the cache's resources.
	Close() error
}

// Error represents a cache error type.
type Error string

const (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheUnavailable indicates the cache is unavailable.
	ErrCacheUnavailable Error = "cache unavailable"
)

func (e Error) Error() string {
	return string(e)
}
