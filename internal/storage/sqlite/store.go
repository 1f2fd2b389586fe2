package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/itlibrary/internal/storage"
)

// Store implements storage.Backend and storage.Batcher on the documents table.
type Store struct {
	db *DB
}

// NewStore creates a document store on an open DB.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Open opens the database at cfg.Path and returns a store that owns it.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	db, err := NewDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// Name returns the driver name.
func (s *Store) Name() string { return "sqlite" }

// Get returns the stored document.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.db.QueryRowContext(ctx, `SELECT payload FROM documents WHERE name = ?`, name).Scan(&payload)
	if err != nil {
		if isNoRows(err) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document %s: %w", name, err)
	}
	return payload, nil
}

// Put upserts a single document.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	return s.PutBatch(ctx, map[string][]byte{name: data})
}

// PutBatch upserts every document in one transaction.
func (s *Store) PutBatch(ctx context.Context, docs map[string][]byte) error {
	for name := range docs {
		if err := storage.ValidateName(name); err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		for name, data := range docs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO documents (name, payload, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
			`, name, data, now)
			if err != nil {
				return fmt.Errorf("failed to upsert document %s: %w", name, err)
			}
		}
		return nil
	})
}

// Delete removes name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.db.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", name, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements the storage interfaces.
var (
	_ storage.Backend = (*Store)(nil)
	_ storage.Batcher = (*Store)(nil)
)
