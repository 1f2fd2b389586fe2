package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/itlibrary/internal/adapter"
	"github.com/prn-tf/itlibrary/internal/cache"
	cachememory "github.com/prn-tf/itlibrary/internal/cache/memory"
	cacheredis "github.com/prn-tf/itlibrary/internal/cache/redis"
	"github.com/prn-tf/itlibrary/internal/config"
	"github.com/prn-tf/itlibrary/internal/lock"
	"github.com/prn-tf/itlibrary/internal/metrics"
	"github.com/prn-tf/itlibrary/internal/storage"
	"github.com/prn-tf/itlibrary/internal/storage/bolt"
	"github.com/prn-tf/itlibrary/internal/storage/filesystem"
	"github.com/prn-tf/itlibrary/internal/storage/memory"
	"github.com/prn-tf/itlibrary/internal/storage/overlay"
	"github.com/prn-tf/itlibrary/internal/storage/postgres"
	"github.com/prn-tf/itlibrary/internal/storage/s3"
	"github.com/prn-tf/itlibrary/internal/storage/snapshot"
	"github.com/prn-tf/itlibrary/internal/storage/sqlite"
)

// Factory creates repositories based on configuration.
type Factory struct {
	cfg    *config.Config
	logger zerolog.Logger

	redis *goredis.Client
}

// NewFactory creates a new repository factory.
func NewFactory(cfg *config.Config, logger zerolog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateRepositoriesResult contains the created repositories and the
// collaborators services need alongside them.
type CreateRepositoriesResult struct {
	Repos   *Repositories
	Adapter *adapter.Adapter
	Locker  lock.Locker
	Metrics *metrics.Metrics

	redis *goredis.Client
}

// Close releases the backend, the cache and any Redis connection.
func (r *CreateRepositoriesResult) Close() error {
	errs := []error{r.Adapter.Close()}
	if r.redis != nil {
		errs = append(errs, r.redis.Close())
	}
	return errors.Join(errs...)
}

// Create opens the configured backend, cache and locker, replays any
// interrupted commit and returns the repositories. reg may be nil, which
// disables metrics.
func (f *Factory) Create(ctx context.Context, reg prometheus.Registerer) (*CreateRepositoriesResult, error) {
	backend, err := f.Backend(ctx)
	if err != nil {
		return nil, err
	}

	c, err := f.Cache(ctx)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	locker, err := f.Locker(ctx)
	if err != nil {
		_ = backend.Close()
		if c != nil {
			_ = c.Close()
		}
		f.closeRedis()
		return nil, err
	}

	var m *metrics.Metrics
	if f.cfg.Metrics.Enabled && reg != nil {
		m = metrics.New(reg, f.cfg.Metrics.Namespace)
	}

	a := adapter.New(backend, adapter.Options{
		Prefix:    f.cfg.Storage.DocumentPrefix,
		IOTimeout: f.cfg.Adapter.IOTimeout,
		Cache:     c,
		CacheTTL:  f.cfg.Cache.TTL,
		Metrics:   m,
	}, f.logger)

	result := &CreateRepositoriesResult{
		Repos:   New(a),
		Adapter: a,
		Locker:  locker,
		Metrics: m,
		redis:   f.redis,
	}

	if _, err := a.Recover(ctx); err != nil {
		// Reads still work; the next successful commit supersedes the journal.
		f.logger.Warn().Err(err).Msg("journal recovery failed")
	}

	f.logger.Info().
		Str("backend", storage.BackendName(backend)).
		Str("cache", f.cfg.Cache.Backend).
		Str("lock", f.cfg.Lock.Backend).
		Msg("repositories ready")

	return result, nil
}

// Backend opens the configured storage backend.
func (f *Factory) Backend(ctx context.Context) (storage.Backend, error) {
	return f.openBackend(ctx, f.cfg.Storage.Backend)
}

func (f *Factory) openBackend(ctx context.Context, name string) (storage.Backend, error) {
	sc := f.cfg.Storage
	logger := f.logger.With().Str("component", "storage").Str("driver", name).Logger()

	switch name {
	case config.BackendMemory:
		return memory.NewStore(), nil

	case config.BackendFilesystem:
		return filesystem.NewStore(sc.Dir)

	case config.BackendBolt:
		return bolt.Open(bolt.Config{
			Path:        sc.Bolt.Path,
			Bucket:      sc.Bolt.Bucket,
			OpenTimeout: sc.Bolt.OpenTimeout,
		}, logger)

	case config.BackendSQLite:
		return sqlite.Open(ctx, sqlite.Config{
			Path:            sc.SQLite.Path,
			JournalMode:     sc.SQLite.JournalMode,
			BusyTimeout:     sc.SQLite.BusyTimeout,
			SynchronousMode: sc.SQLite.SynchronousMode,
		}, logger)

	case config.BackendPostgres:
		db, err := postgres.NewDB(ctx, sc.Postgres, logger)
		if err != nil {
			return nil, err
		}
		store, err := postgres.NewStore(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil

	case config.BackendS3:
		return s3.New(ctx, sc.S3)

	case config.BackendSnapshot:
		if sc.Snapshot.Local == config.BackendSnapshot {
			return nil, fmt.Errorf("%w: snapshot over snapshot", ErrUnknownBackend)
		}
		base, err := snapshot.New(sc.Snapshot.BaseURL)
		if err != nil {
			return nil, err
		}
		upper, err := f.openBackend(ctx, sc.Snapshot.Local)
		if err != nil {
			_ = base.Close()
			return nil, err
		}
		return overlay.New(upper, base), nil
	}

	return nil, fmt.Errorf("%w: storage %q", ErrUnknownBackend, name)
}

// Cache opens the configured mirror. It returns nil for "none".
func (f *Factory) Cache(ctx context.Context) (cache.Cache, error) {
	switch f.cfg.Cache.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return cachememory.NewCache(), nil
	case "redis":
		client, err := f.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return cacheredis.New(client, f.cfg.Storage.DocumentPrefix+"cache:"), nil
	}
	return nil, fmt.Errorf("%w: cache %q", ErrUnknownBackend, f.cfg.Cache.Backend)
}

// Locker builds the configured locker.
func (f *Factory) Locker(ctx context.Context) (lock.Locker, error) {
	switch f.cfg.Lock.Backend {
	case "", "memory":
		return lock.NewMemoryLocker(), nil
	case "noop":
		return lock.NewNoOpLocker(), nil
	case "redis":
		client, err := f.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return lock.NewRedisLocker(client), nil
	}
	return nil, fmt.Errorf("%w: lock %q", ErrUnknownBackend, f.cfg.Lock.Backend)
}

// redisClient lazily connects the Redis client shared by cache and locker.
func (f *Factory) redisClient(ctx context.Context) (*goredis.Client, error) {
	if f.redis != nil {
		return f.redis, nil
	}
	client, err := cacheredis.NewClient(ctx, f.cfg.Redis)
	if err != nil {
		return nil, err
	}
	f.redis = client
	return client, nil
}

func (f *Factory) closeRedis() {
	if f.redis != nil {
		_ = f.redis.Close()
		f.redis = nil
	}
}
