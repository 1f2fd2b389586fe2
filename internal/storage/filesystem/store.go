// Package filesystem provides a document backend that keeps one JSON file
// per document:
//
//	<root>/
//	  itlibrary_users.json
//	  itlibrary_subjects.json
//	  ...
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/prn-tf/itlibrary/internal/storage"
)

const fileExt = ".json"

// Store implements storage.Backend on a local directory.
type Store struct {
	root string
}

// NewStore creates the root directory if needed and returns a Store on it.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Name returns the driver name.
func (s *Store) Name() string { return "filesystem" }

// Root returns the document directory.
func (s *Store) Root() string { return s.root }

func (s *Store) path(name string) string {
	return filepath.Join(s.root, name+fileExt)
}

// Get reads the document file.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read document %s: %w", name, err)
	}
	return data, nil
}

// Put writes data to a temp file in the same directory and renames it over
// the document, so readers see either the old or the new content.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.ValidateName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write document %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync document %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close document %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, s.path(name)); err != nil {
		return fmt.Errorf("failed to commit document %s: %w", name, err)
	}
	committed = true
	return nil
}

// Delete removes the document file.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.ValidateName(name); err != nil {
		return err
	}

	if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete document %s: %w", name, err)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Ensure Store implements storage.Backend.
var _ storage.Backend = (*Store)(nil)
