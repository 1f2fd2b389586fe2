package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/itlibrary/internal/storage"
	"github.com/prn-tf/itlibrary/internal/storage/storagetest"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(Config{Path: path}, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestStore_Conformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		s := openTestStore(t, filepath.Join(t.TempDir(), "itlibrary.db"))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "itlibrary.db")
	ctx := context.Background()

	s := openTestStore(t, path)
	require.NoError(t, s.Put(ctx, "itlibrary_users", []byte(`[{"id":1,"username":"ahmed123"}]`)))
	require.NoError(t, s.Close())

	s = openTestStore(t, path)
	defer s.Close()

	got, err := s.Get(ctx, "itlibrary_users")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":1,"username":"ahmed123"}]`, string(got))
}
