// Package memory provides an in-process document backend.
// It is the default for tests and for the writable layer over fetched
// snapshots; nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/prn-tf/itlibrary/internal/storage"
)

// Store implements storage.Backend using a map guarded by a RWMutex.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// Name returns the driver name.
func (s *Store) Name() string { return "memory" }

// Get returns a copy of the stored document.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[name]
	if !ok {
		return nil, storage.ErrDocumentNotFound
	}

	// Return a copy to prevent mutation.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put stores a copy of data under name.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	return s.PutBatch(ctx, map[string][]byte{name: data})
}

// PutBatch stores every document under a single lock hold.
func (s *Store) PutBatch(ctx context.Context, docs map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for name := range docs {
		if err := storage.ValidateName(name); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for name, data := range docs {
		valueCopy := make([]byte, len(data))
		copy(valueCopy, data)
		s.docs[name] = valueCopy
	}
	return nil
}

// Delete removes name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, name)
	return nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Ensure Store implements the storage interfaces.
var (
	_ storage.Backend = (*Store)(nil)
	_ storage.Batcher = (*Store)(nil)
)
