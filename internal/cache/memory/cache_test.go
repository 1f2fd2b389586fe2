package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/itlibrary/internal/cache"
)

func TestCache_SetGetDelete(t *testing.T) {
	c := NewCache()
	defer c.Close()
	ctx := context.Background()

	_, err := c.Get(ctx, "itlibrary_users")
	require.ErrorIs(t, err, cache.ErrCacheMiss)

	value := []byte(`[{"id":1}]`)
	require.NoError(t, c.Set(ctx, "itlibrary_users", value, 0))

	// Mutating the caller's slice must not leak into the cache.
	value[0] = 'X'

	got, err := c.Get(ctx, "itlibrary_users")
	require.NoError(t, err)
	require.Equal(t, `[{"id":1}]`, string(got))

	require.NoError(t, c.Delete(ctx, "itlibrary_users"))
	_, err = c.Get(ctx, "itlibrary_users")
	require.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache()
	defer c.Close()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrCacheMiss)

	c.cleanup()
	require.Equal(t, 0, c.Len())
}

func TestCache_CloseTwice(t *testing.T) {
	c := NewCache()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
