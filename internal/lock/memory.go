package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker keeps leases in a map for callers inside one process.
// Nothing is shared across processes or restarts.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]lease
	now    func() time.Time
}

type lease struct {
	token   string
	expires time.Time
}

// NewMemoryLocker creates a new in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		leases: make(map[string]lease),
		now:    time.Now,
	}
}

// live returns the unexpired lease on key. Caller holds m.mu.
func (m *MemoryLocker) live(key string, now time.Time) (lease, bool) {
	l, ok := m.leases[key]
	if !ok {
		return lease{}, false
	}
	if !now.Before(l.expires) {
		delete(m.leases, key)
		return lease{}, false
	}
	return l, true
}

// Acquire takes key unless a live lease exists.
func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, held := m.live(key, now); held {
		return "", nil
	}

	// Drop other expired leases so the map only holds live ones.
	for k, l := range m.leases {
		if !now.Before(l.expires) {
			delete(m.leases, k)
		}
	}

	token := uuid.NewString()
	m.leases[key] = lease{token: token, expires: now.Add(ttl)}
	return token, nil
}

// AcquireWithRetry polls Acquire.
func (m *MemoryLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (string, error) {
	return acquireWithRetry(ctx, maxRetries, retryDelay, func() (string, error) {
		return m.Acquire(ctx, key, ttl)
	})
}

// Release deletes the lease only when token owns it.
func (m *MemoryLocker) Release(ctx context.Context, key, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.live(key, m.now())
	if !ok || l.token != token {
		return false, nil
	}
	delete(m.leases, key)
	return true, nil
}

// Extend renews the lease only when token owns it.
func (m *MemoryLocker) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	l, ok := m.live(key, now)
	if !ok || l.token != token {
		return false, nil
	}
	l.expires = now.Add(ttl)
	m.leases[key] = l
	return true, nil
}

// IsHeld reports whether key has a live lease.
func (m *MemoryLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.live(key, m.now())
	return ok, nil
}

var _ Locker = (*MemoryLocker)(nil)
