package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/itlibrary/internal/storage"
	"github.com/prn-tf/itlibrary/internal/storage/storagetest"
)

func TestStore_Conformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		return NewStore()
	})
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "itlibrary_users", []byte(`[1]`)))

	got, err := s.Get(ctx, "itlibrary_users")
	require.NoError(t, err)
	got[1] = '9'

	again, err := s.Get(ctx, "itlibrary_users")
	require.NoError(t, err)
	require.Equal(t, `[1]`, string(again))
	require.Equal(t, 1, s.Len())
}
