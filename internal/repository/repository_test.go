package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/itlibrary/internal/adapter"
	"github.com/prn-tf/itlibrary/internal/config"
	"github.com/prn-tf/itlibrary/internal/domain"
	"github.com/prn-tf/itlibrary/internal/lock"
	"github.com/prn-tf/itlibrary/internal/storage/memory"
)

func testConfig(backend string) *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Backend: backend, DocumentPrefix: "itlibrary_"},
		Cache:   config.CacheConfig{Backend: "none"},
		Lock:    config.LockConfig{Backend: "memory", TTL: time.Second},
		Adapter: config.AdapterConfig{IOTimeout: time.Second},
		Metrics: config.MetricsConfig{Enabled: true, Namespace: "test"},
	}
}

func create(t *testing.T, cfg *config.Config) *CreateRepositoriesResult {
	t.Helper()
	res, err := NewFactory(cfg, zerolog.Nop()).Create(context.Background(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })
	return res
}

func newRepos(t *testing.T) (*Repositories, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	a := adapter.New(store, adapter.Options{Prefix: "itlibrary_"}, zerolog.Nop())
	return New(a), store
}

func TestRepositories_DefaultsWhenAbsent(t *testing.T) {
	ctx := context.Background()
	repos, store := newRepos(t)

	require.Len(t, repos.Users.Load(ctx), 2)
	require.Len(t, repos.Subjects.Load(ctx), 4)
	require.Len(t, repos.Resources.Load(ctx), 3)
	require.Nil(t, repos.Session.Load(ctx))

	// Loading never writes.
	require.Equal(t, 0, store.Len())
}

func TestRepositories_SaveEmptyStoresArray(t *testing.T) {
	ctx := context.Background()
	repos, store := newRepos(t)

	require.NoError(t, repos.Resources.Save(ctx, nil))

	raw, err := store.Get(ctx, "itlibrary_resources")
	require.NoError(t, err)
	require.Equal(t, "[]", string(raw))

	got := repos.Resources.Load(ctx)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestRepositories_KeepOrder(t *testing.T) {
	ctx := context.Background()
	repos, _ := newRepos(t)

	in := []domain.User{{ID: 9, Username: "z"}, {ID: 3, Username: "a"}, {ID: 5, Username: "m"}}
	require.NoError(t, repos.Users.Save(ctx, in))
	require.Equal(t, in, repos.Users.Load(ctx))
}

func TestRepositories_Session(t *testing.T) {
	ctx := context.Background()
	repos, store := newRepos(t)

	admin := domain.User{ID: 2, Username: "admin", Stage: domain.StageAdmin}
	require.NoError(t, repos.Session.Save(ctx, admin))
	require.Equal(t, &admin, repos.Session.Load(ctx))

	require.NoError(t, repos.Session.Clear(ctx))
	require.Nil(t, repos.Session.Load(ctx))
	require.NoError(t, repos.Session.Clear(ctx))

	require.NoError(t, store.Put(ctx, "itlibrary_current_user", []byte(`{"id":`)))
	require.Nil(t, repos.Session.Load(ctx), "unparseable pointer reads as absent")
}

func TestRepositories_SaveCollections(t *testing.T) {
	ctx := context.Background()
	repos, store := newRepos(t)

	subjects := []domain.Subject{{ID: "IT101"}}
	require.NoError(t, repos.SaveCatalog(ctx, subjects, nil))
	require.Equal(t, subjects, repos.Subjects.Load(ctx))
	require.Empty(t, repos.Resources.Load(ctx))

	_, err := store.Get(ctx, "itlibrary_users")
	require.Error(t, err, "users untouched")

	require.NoError(t, repos.SaveCollections(ctx, Collections{}))
	require.True(t, Collections{}.Empty())
}

func TestFactory_Memory(t *testing.T) {
	res := create(t, testConfig(config.BackendMemory))
	require.NotNil(t, res.Metrics)
	require.IsType(t, &lock.MemoryLocker{}, res.Locker)
	require.Len(t, res.Repos.Subjects.Load(context.Background()), 4)
}

func TestFactory_MetricsDisabled(t *testing.T) {
	cfg := testConfig(config.BackendMemory)
	cfg.Metrics.Enabled = false
	res := create(t, cfg)
	require.Nil(t, res.Metrics)
}

func TestFactory_NoopLockAndMemoryCache(t *testing.T) {
	cfg := testConfig(config.BackendMemory)
	cfg.Lock.Backend = "noop"
	cfg.Cache.Backend = "memory"
	res := create(t, cfg)
	require.IsType(t, &lock.NoOpLocker{}, res.Locker)
}

func TestFactory_FileBackendsPersist(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  func() *config.Config
	}{
		{name: "filesystem", cfg: func() *config.Config {
			c := testConfig(config.BackendFilesystem)
			c.Storage.Dir = filepath.Join(dir, "docs")
			return c
		}},
		{name: "bolt", cfg: func() *config.Config {
			c := testConfig(config.BackendBolt)
			c.Storage.Bolt.Path = filepath.Join(dir, "catalog.db")
			c.Storage.Bolt.OpenTimeout = time.Second
			return c
		}},
		{name: "sqlite", cfg: func() *config.Config {
			c := testConfig(config.BackendSQLite)
			c.Storage.SQLite = config.SQLiteConfig{
				Path: filepath.Join(dir, "catalog.sqlite"), JournalMode: "WAL",
				BusyTimeout: 1000, SynchronousMode: "NORMAL",
			}
			return c
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			res, err := NewFactory(tt.cfg(), zerolog.Nop()).Create(ctx, nil)
			require.NoError(t, err)
			require.NoError(t, res.Repos.Subjects.Save(ctx, []domain.Subject{{ID: "IT301"}}))
			require.NoError(t, res.Close())

			res, err = NewFactory(tt.cfg(), zerolog.Nop()).Create(ctx, nil)
			require.NoError(t, err)
			defer res.Close()
			require.Equal(t, []domain.Subject{{ID: "IT301"}}, res.Repos.Subjects.Load(ctx))
		})
	}
}

func TestFactory_SnapshotOverlay(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/data/itlibrary_subjects.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"SNAP1","stage":"3"}]`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	cfg := testConfig(config.BackendSnapshot)
	cfg.Storage.Snapshot = config.SnapshotConfig{BaseURL: srv.URL + "/data", Local: config.BackendMemory}
	res := create(t, cfg)
	ctx := context.Background()

	require.Equal(t, []domain.Subject{{ID: "SNAP1", Stage: "3"}}, res.Repos.Subjects.Load(ctx))
	// Not published: defaults.
	require.Len(t, res.Repos.Users.Load(ctx), 2)

	require.NoError(t, res.Repos.Subjects.Save(ctx, []domain.Subject{{ID: "LOCAL"}}))
	require.Equal(t, []domain.Subject{{ID: "LOCAL"}}, res.Repos.Subjects.Load(ctx))
}

func TestFactory_UnknownBackend(t *testing.T) {
	_, err := NewFactory(testConfig("floppy"), zerolog.Nop()).Create(context.Background(), nil)
	require.ErrorIs(t, err, ErrUnknownBackend)
}
