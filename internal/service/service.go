package service

import (
	"context"
	"time"

	"github.com/prn-tf/itlibrary/internal/lock"
	"github.com/prn-tf/itlibrary/internal/metrics"
)

// Options holds the collaborators shared by every service.
type Options struct {
	// Locker serialises read-modify-write cycles. Nil uses an in-process locker.
	Locker lock.Locker

	// Lock controls lock TTL and retries.
	Lock lock.Options

	// Metrics may be nil.
	Metrics *metrics.Metrics

	// Clock returns the current time. Nil uses time.Now.
	Clock func() time.Time

	// RejectOrphanResources makes AddResource fail when the subject
	// doesn't exist. By default the resource is stored as an orphan.
	RejectOrphanResources bool

	// ValidateStage makes Register accept only "admin" or a positive year.
	ValidateStage bool
}

// DefaultLockOptions is used when Options.Lock has a zero TTL.
var DefaultLockOptions = lock.Options{
	TTL:        30 * time.Second,
	MaxRetries: 50,
	RetryDelay: 100 * time.Millisecond,
}

func (o Options) withDefaults() Options {
	if o.Locker == nil {
		o.Locker = lock.NewMemoryLocker()
	}
	if o.Lock.TTL <= 0 {
		o.Lock = DefaultLockOptions
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// runner wraps an operation with its locks and metrics.
type runner struct {
	locker  lock.Locker
	opts    lock.Options
	metrics *metrics.Metrics
}

func newRunner(o Options) runner {
	return runner{locker: o.Locker, opts: o.Lock, metrics: o.Metrics}
}

// run holds every key, in the given order, for the duration of fn.
// Callers needing both locks pass lock.KeyCatalog before lock.KeyUsers.
func (r runner) run(ctx context.Context, op string, keys []string, fn func() error) (err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveOperation(op, start, err) }()

	return r.hold(ctx, keys, fn)
}

func (r runner) hold(ctx context.Context, keys []string, fn func() error) error {
	if len(keys) == 0 {
		return fn()
	}
	return lock.WithLock(ctx, r.locker, keys[0], r.opts, func() error {
		return r.hold(ctx, keys[1:], fn)
	})
}
