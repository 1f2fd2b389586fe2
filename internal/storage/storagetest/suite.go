// Package storagetest provides a conformance suite that every
// storage.Backend implementation runs from its own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/itlibrary/internal/storage"
)

// Factory returns a fresh, empty backend for one subtest.
type Factory func(t *testing.T) storage.Backend

// Run exercises the storage.Backend contract against backends built by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Helper()

	t.Run("get missing", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Get(context.Background(), "itlibrary_users")
		require.True(t, errors.Is(err, storage.ErrDocumentNotFound), "got %v", err)
	})

	t.Run("put then get", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		payload := []byte(`[{"id":"IT101","name":"مقدمة في البرمجة"}]`)

		require.NoError(t, b.Put(ctx, "itlibrary_subjects", payload))

		got, err := b.Get(ctx, "itlibrary_subjects")
		require.NoError(t, err)
		require.JSONEq(t, string(payload), string(got))
	})

	t.Run("put replaces", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.Put(ctx, "itlibrary_resources", []byte(`[{"id":"R001"}]`)))
		require.NoError(t, b.Put(ctx, "itlibrary_resources", []byte(`[]`)))

		got, err := b.Get(ctx, "itlibrary_resources")
		require.NoError(t, err)
		require.JSONEq(t, `[]`, string(got))
	})

	t.Run("repeated identical put", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		payload := []byte(`{"id":2,"username":"admin"}`)

		for i := 0; i < 3; i++ {
			require.NoError(t, b.Put(ctx, "itlibrary_current_user", payload))
		}
		got, err := b.Get(ctx, "itlibrary_current_user")
		require.NoError(t, err)
		require.JSONEq(t, string(payload), string(got))
	})

	t.Run("delete", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.Put(ctx, "itlibrary_current_user", []byte(`{"id":1}`)))
		require.NoError(t, b.Delete(ctx, "itlibrary_current_user"))

		_, err := b.Get(ctx, "itlibrary_current_user")
		require.ErrorIs(t, err, storage.ErrDocumentNotFound)

		// Deleting again is a no-op.
		require.NoError(t, b.Delete(ctx, "itlibrary_current_user"))
	})

	t.Run("documents are independent", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.Put(ctx, "itlibrary_users", []byte(`[{"id":1}]`)))
		require.NoError(t, b.Put(ctx, "itlibrary_subjects", []byte(`[{"id":"IT101"}]`)))
		require.NoError(t, b.Delete(ctx, "itlibrary_users"))

		got, err := b.Get(ctx, "itlibrary_subjects")
		require.NoError(t, err)
		require.JSONEq(t, `[{"id":"IT101"}]`, string(got))
	})

	t.Run("invalid name", func(t *testing.T) {
		b := newBackend(t)
		err := b.Put(context.Background(), "../escape", []byte(`[]`))
		require.ErrorIs(t, err, storage.ErrInvalidName)
	})

	t.Run("cancelled context", func(t *testing.T) {
		b := newBackend(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := b.Put(ctx, "itlibrary_users", []byte(`[]`))
		require.Error(t, err)
	})

	t.Run("batch", func(t *testing.T) {
		b := newBackend(t)
		batcher, ok := b.(storage.Batcher)
		if !ok {
			t.Skip("backend does not implement storage.Batcher")
		}
		ctx := context.Background()

		err := batcher.PutBatch(ctx, map[string][]byte{
			"itlibrary_subjects":  []byte(`[{"id":"IT102"}]`),
			"itlibrary_resources": []byte(`[]`),
		})
		require.NoError(t, err)

		got, err := b.Get(ctx, "itlibrary_subjects")
		require.NoError(t, err)
		require.JSONEq(t, `[{"id":"IT102"}]`, string(got))

		got, err = b.Get(ctx, "itlibrary_resources")
		require.NoError(t, err)
		require.JSONEq(t, `[]`, string(got))

		// A batch with one bad name must not write the good one.
		err = batcher.PutBatch(ctx, map[string][]byte{
			"itlibrary_subjects": []byte(`[]`),
			"bad/name":           []byte(`[]`),
		})
		require.Error(t, err)

		got, err = b.Get(ctx, "itlibrary_subjects")
		require.NoError(t, err)
		require.JSONEq(t, `[{"id":"IT102"}]`, string(got))
	})
}
