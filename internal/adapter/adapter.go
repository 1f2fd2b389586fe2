// Package adapter turns a storage.Backend into the catalog's load/save
// contract: reads never fail the caller, writes are whole-document, and a
// best-effort cache mirrors everything that was read or written.
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/itlibrary/internal/cache"
	"github.com/prn-tf/itlibrary/internal/domain"
	"github.com/prn-tf/itlibrary/internal/metrics"
	"github.com/prn-tf/itlibrary/internal/storage"
)

// DefaultIOTimeout bounds a backend call when Options.IOTimeout is zero.
const DefaultIOTimeout = 5 * time.Second

// Options configures an Adapter.
type Options struct {
	// Prefix is prepended to every logical document name.
	Prefix string

	// IOTimeout bounds every backend and cache call.
	IOTimeout time.Duration

	// Cache is the optional mirror. Nil disables mirroring.
	Cache cache.Cache

	// CacheTTL is passed to Cache.Set.
	CacheTTL time.Duration

	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// Adapter loads and saves named JSON documents.
type Adapter struct {
	backend  storage.Backend
	cache    cache.Cache
	cacheTTL time.Duration
	prefix   string
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// New creates an Adapter over backend.
func New(backend storage.Backend, opts Options, logger zerolog.Logger) *Adapter {
	timeout := opts.IOTimeout
	if timeout <= 0 {
		timeout = DefaultIOTimeout
	}
	return &Adapter{
		backend:  backend,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		prefix:   opts.Prefix,
		timeout:  timeout,
		metrics:  opts.Metrics,
		logger: logger.With().
			Str("component", "adapter").
			Str("backend", storage.BackendName(backend)).
			Logger(),
	}
}

// Key returns the stored name of logical document name.
func (a *Adapter) Key(name string) string {
	return a.prefix + name
}

// Backend returns the underlying backend.
func (a *Adapter) Backend() storage.Backend {
	return a.backend
}

// Close closes the backend and the cache.
func (a *Adapter) Close() error {
	var errs []error
	if err := a.backend.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Load decodes document name into a T. When the document is absent it
// returns fallback. When the backend fails or the stored bytes don't decode
// it tries the cache mirror, then returns fallback. Load never fails.
func Load[T any](ctx context.Context, a *Adapter, name string, fallback T) T {
	key := a.Key(name)

	data, err := a.get(ctx, key)
	switch {
	case err == nil:
		var v T
		derr := json.Unmarshal(data, &v)
		if derr == nil {
			a.mirror(ctx, key, data)
			a.metrics.ObserveLoad(key, metrics.SourcePrimary)
			return v
		}
		err = fmt.Errorf("decode: %w", derr)
	case errors.Is(err, storage.ErrDocumentNotFound):
		a.logger.Debug().Str("document", key).Msg("document absent, using defaults")
		a.metrics.ObserveLoad(key, metrics.SourceDefault)
		return fallback
	}

	a.logger.Warn().Err(err).Str("document", key).Msg("primary read failed")

	if cached, ok := a.fromCache(ctx, key); ok {
		var v T
		if derr := json.Unmarshal(cached, &v); derr == nil {
			a.logger.Warn().Str("document", key).Msg("serving mirrored copy")
			a.metrics.ObserveLoad(key, metrics.SourceCache)
			return v
		}
	}

	a.logger.Warn().Str("document", key).Msg("falling back to defaults")
	a.metrics.ObserveLoad(key, metrics.SourceFallback)
	return fallback
}

// Save encodes doc and replaces document name with it.
// Failures wrap domain.ErrStorageUnavailable.
func (a *Adapter) Save(ctx context.Context, name string, doc any) error {
	key := a.Key(name)

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	err = a.put(ctx, key, data)
	a.metrics.ObserveSave(key, err)
	if err != nil {
		a.logger.Error().Err(err).Str("document", key).Msg("save failed")
		return fmt.Errorf("%w: save %s: %v", domain.ErrStorageUnavailable, key, err)
	}

	a.mirror(ctx, key, data)
	a.logger.Debug().Str("document", key).Int("bytes", len(data)).Msg("document saved")
	return nil
}

// Delete removes document name. Missing documents are not an error.
func (a *Adapter) Delete(ctx context.Context, name string) error {
	key := a.Key(name)

	if err := a.deleteKey(ctx, key); err != nil {
		return fmt.Errorf("%w: delete %s: %v", domain.ErrStorageUnavailable, key, err)
	}

	a.unmirror(ctx, key)
	return nil
}

// Exists reports whether document name is stored. Backend failures are
// returned, so callers never mistake an outage for an empty store.
func (a *Adapter) Exists(ctx context.Context, name string) (bool, error) {
	_, err := a.get(ctx, a.Key(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrDocumentNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}

func (a *Adapter) get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.backend.Get(ctx, key)
}

func (a *Adapter) put(ctx context.Context, key string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.backend.Put(ctx, key, data)
}

func (a *Adapter) mirror(ctx context.Context, key string, data []byte) {
	if a.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.cache.Set(ctx, key, data, a.cacheTTL); err != nil {
		a.logger.Debug().Err(err).Str("document", key).Msg("cache mirror failed")
	}
}

func (a *Adapter) unmirror(ctx context.Context, key string) {
	if a.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.cache.Delete(ctx, key); err != nil {
		a.logger.Debug().Err(err).Str("document", key).Msg("cache delete failed")
	}
}

func (a *Adapter) fromCache(ctx context.Context, key string) ([]byte, bool) {
	if a.cache == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	data, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			a.logger.Debug().Err(err).Str("document", key).Msg("cache read failed")
		}
		return nil, false
	}
	return data, true
}
