package lock

import (
	"context"
	"time"
)

// noopToken is the owner token every NoOpLocker acquire returns.
const noopToken = "noop"

// NoOpLocker grants every key to every caller at once.
// Selected by lock.backend "noop" when a single writer runs at a time.
type NoOpLocker struct{}

// NewNoOpLocker creates a new no-op locker.
func NewNoOpLocker() *NoOpLocker {
	return &NoOpLocker{}
}

func (n *NoOpLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return noopToken, nil
}

func (n *NoOpLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (string, error) {
	return n.Acquire(ctx, key, ttl)
}

func (n *NoOpLocker) Release(ctx context.Context, key, token string) (bool, error) {
	return token == noopToken, ctx.Err()
}

func (n *NoOpLocker) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return token == noopToken, ctx.Err()
}

// IsHeld is always false: nothing is tracked.
func (n *NoOpLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	return false, ctx.Err()
}

var _ Locker = (*NoOpLocker)(nil)
