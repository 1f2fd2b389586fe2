package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/itlibrary/internal/config"
	"github.com/prn-tf/itlibrary/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Storage: config.StorageConfig{
			Backend:        config.BackendBolt,
			DocumentPrefix: "itlibrary_",
			Bolt: config.BoltConfig{
				Path:        filepath.Join(t.TempDir(), "itlibrary.db"),
				Bucket:      "documents",
				OpenTimeout: time.Second,
			},
		},
		Cache:   config.CacheConfig{Backend: "memory", TTL: time.Minute},
		Lock:    config.LockConfig{Backend: "memory", TTL: time.Second, MaxRetries: 5, RetryDelay: time.Millisecond},
		Adapter: config.AdapterConfig{IOTimeout: time.Second},
		Session: config.SessionConfig{Persist: true},
		Metrics: config.MetricsConfig{Enabled: true, Namespace: "itlibrary"},
	}
}

func TestApp_EndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := NewWithConfig(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)

	out, err := a.Init.Initialize(ctx)
	require.NoError(t, err)
	require.Len(t, out.Seeded, 3)

	_, err = a.Catalog.AddResource(ctx, service.AddResourceInput{SubjectID: "IT202", Title: "SQL"})
	require.NoError(t, err)

	sess := a.Gate.Resume(ctx)
	require.False(t, sess.LoggedIn())
	_, err = a.Gate.Login(ctx, sess, "admin", "admin123")
	require.NoError(t, err)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	require.NoError(t, a.Close())

	// Everything survives a reopen of the same file.
	b, err := NewWithConfig(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	subject, err := b.Catalog.Subject(ctx, "IT202")
	require.NoError(t, err)
	require.Equal(t, 1, subject.ResourcesCount)
	require.Equal(t, "admin", b.Gate.Resume(ctx).User().Username)
}

func TestApp_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "localstorage"

	_, err := NewWithConfig(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestApp_LoadsConfigFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ITLIBRARY_STORAGE_BACKEND", "memory")

	a, err := New(context.Background(), "")
	require.NoError(t, err)
	defer a.Close()
	require.Equal(t, config.BackendMemory, a.Config.Storage.Backend)
}
