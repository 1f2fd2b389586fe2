package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Ownership-checked scripts: only the token that took the lock may touch it.
var (
	releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	extendScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// RedisLocker implements Locker with SET NX PX on a shared Redis.
// The lock value is the owner token.
type RedisLocker struct {
	client goredis.UniversalClient
}

// NewRedisLocker creates a new RedisLocker on client.
func NewRedisLocker(client goredis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire sets key to a fresh token if it is unset.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// AcquireWithRetry polls Acquire.
func (l *RedisLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (string, error) {
	return acquireWithRetry(ctx, maxRetries, retryDelay, func() (string, error) {
		return l.Acquire(ctx, key, ttl)
	})
}

// Release deletes key if it still holds token.
func (l *RedisLocker) Release(ctx context.Context, key, token string) (bool, error) {
	n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Extend renews key's expiry if it still holds token.
func (l *RedisLocker) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, l.client, []string{key}, token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IsHeld checks if anyone currently holds the lock.
func (l *RedisLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	_, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Ensure RedisLocker implements Locker
var _ Locker = (*RedisLocker)(nil)
