// Package lock provides distributed and local locking abstractions.
// A single process uses memory locks; several processes sharing one
// backend coordinate through Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Locker defines the interface for distributed/local locking.
// Every successful Acquire hands back an owner token; Release and Extend
// only act when given the token that currently owns the key, so a holder
// whose lease ran out can never free someone else's lock.
type Locker interface {
	// Acquire attempts to take key for ttl.
	// Returns the owner token, or "" if someone else holds the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)

	// AcquireWithRetry is Acquire retried up to maxRetries times, retryDelay apart.
	AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (string, error)

	// Release frees key if token still owns it.
	// Returns false if the lease expired or passed to another owner.
	Release(ctx context.Context, key, token string) (bool, error)

	// Extend pushes the expiry of key to ttl from now if token still owns it.
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)

	// IsHeld reports whether anyone currently holds key.
	IsHeld(ctx context.Context, key string) (bool, error)
}

// acquireWithRetry drives acquire until it returns a token or the retries run out.
func acquireWithRetry(ctx context.Context, maxRetries int, retryDelay time.Duration, acquire func() (string, error)) (string, error) {
	for i := 0; i <= maxRetries; i++ {
		token, err := acquire()
		if err != nil || token != "" {
			return token, err
		}

		// Don't sleep on the last attempt.
		if i < maxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return "", nil
}

// Lock is one caller's hold on a key. It remembers the owner token.
type Lock struct {
	locker Locker
	key    string
	token  string
}

// NewLock creates a Lock on key that is not yet held.
func NewLock(locker Locker, key string) *Lock {
	return &Lock{locker: locker, key: key}
}

// Acquire takes the key, retrying as opts says.
func (l *Lock) Acquire(ctx context.Context, opts Options) (bool, error) {
	token, err := l.locker.AcquireWithRetry(ctx, l.key, opts.TTL, opts.MaxRetries, opts.RetryDelay)
	if err != nil {
		return false, err
	}
	l.token = token
	return token != "", nil
}

// Release frees the key if this Lock still owns it.
func (l *Lock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	_, err := l.locker.Release(ctx, l.key, l.token)
	l.token = ""
	return err
}

// Extend renews the lease. It returns false once ownership is lost.
func (l *Lock) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	if l.token == "" {
		return false, nil
	}
	extended, err := l.locker.Extend(ctx, l.key, l.token, ttl)
	if err != nil {
		return false, err
	}
	if !extended {
		l.token = ""
	}
	return extended, nil
}

// IsHeld returns whether this Lock believes it owns the key.
func (l *Lock) IsHeld() bool {
	return l.token != ""
}

// keepAlive extends the lease every ttl/2 until the returned stop is called
// or ownership is lost. stop waits for the renewal goroutine to exit.
func (l *Lock) keepAlive(ctx context.Context, ttl time.Duration) (stop func()) {
	interval := ttl / 2
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if ok, err := l.Extend(context.WithoutCancel(ctx), ttl); err != nil || !ok {
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

// =============================================================================
// Lock Keys
// =============================================================================

// Lock keys serialising read-modify-write cycles on the stored collections.
const (
	// KeyCatalog guards the subjects and resources documents together.
	KeyCatalog = "lock:catalog"

	// KeyUsers guards the users document.
	KeyUsers = "lock:users"
)

// ErrNotAcquired is returned by WithLock when the lock stayed held by
// someone else through every retry.
var ErrNotAcquired = errors.New("lock not acquired")

// Options controls WithLock.
type Options struct {
	TTL        time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// WithLock acquires key, runs fn while renewing the lease, and releases key.
func WithLock(ctx context.Context, locker Locker, key string, opts Options, fn func() error) error {
	l := NewLock(locker, key)
	acquired, err := l.Acquire(ctx, opts)
	if err != nil {
		return fmt.Errorf("acquire %s: %w", key, err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrNotAcquired, key)
	}

	stop := l.keepAlive(ctx, opts.TTL)
	defer func() {
		stop()
		// Release with a fresh context so a cancelled caller still unlocks.
		_ = l.Release(context.WithoutCancel(ctx))
	}()

	return fn()
}
