// Package overlay layers a writable backend over a read-only one.
package overlay

import (
	"context"
	"errors"

	"github.com/prn-tf/itlibrary/internal/storage"
)

// TombstoneSuffix names the marker document a Delete leaves in upper.
// While "<name>.deleted" exists and upper has no "<name>", base's copy
// stays hidden, across restarts too.
const TombstoneSuffix = ".deleted"

var tombstoneBody = []byte("{}")

// Store reads from upper first and falls back to base. Writes go to upper.
type Store struct {
	upper storage.Backend
	base  storage.Backend
}

type batchStore struct {
	*Store
	batcher storage.Batcher
}

// New returns an overlay of upper on base. The result implements
// storage.Batcher when upper does.
func New(upper, base storage.Backend) storage.Backend {
	s := &Store{upper: upper, base: base}
	if b, ok := upper.(storage.Batcher); ok {
		return &batchStore{Store: s, batcher: b}
	}
	return s
}

// Name returns "overlay(<upper>/<base>)".
func (s *Store) Name() string {
	return "overlay(" + storage.BackendName(s.upper) + "/" + storage.BackendName(s.base) + ")"
}

func tombstone(name string) string { return name + TombstoneSuffix }

// Get returns upper's copy, else base's unless upper holds a tombstone.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.upper.Get(ctx, name)
	if err == nil || !errors.Is(err, storage.ErrDocumentNotFound) {
		return data, err
	}

	_, err = s.upper.Get(ctx, tombstone(name))
	switch {
	case err == nil:
		return nil, storage.ErrDocumentNotFound
	case !errors.Is(err, storage.ErrDocumentNotFound):
		return nil, err
	}
	return s.base.Get(ctx, name)
}

// Put writes to upper.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := s.upper.Put(ctx, name, data); err != nil {
		return err
	}
	s.dropTombstones(ctx, name)
	return nil
}

// dropTombstones removes markers for documents upper now holds.
// A leftover marker is never read while upper has the document.
func (s *Store) dropTombstones(ctx context.Context, names ...string) {
	for _, n := range names {
		_ = s.upper.Delete(ctx, tombstone(n))
	}
}

// Delete writes a tombstone, then removes upper's copy.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.upper.Put(ctx, tombstone(name), tombstoneBody); err != nil {
		return err
	}
	return s.upper.Delete(ctx, name)
}

// Close closes both layers.
func (s *Store) Close() error {
	return errors.Join(s.upper.Close(), s.base.Close())
}

// PutBatch delegates to upper's batch commit.
func (b *batchStore) PutBatch(ctx context.Context, docs map[string][]byte) error {
	if err := b.batcher.PutBatch(ctx, docs); err != nil {
		return err
	}
	names := make([]string, 0, len(docs))
	for n := range docs {
		names = append(names, n)
	}
	b.dropTombstones(ctx, names...)
	return nil
}
