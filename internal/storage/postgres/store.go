package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/itlibrary/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS itlibrary_documents (
    name       TEXT PRIMARY KEY,
    payload    JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Store implements storage.Backend and storage.Batcher on a JSONB table.
// Payloads must be valid JSON; key order is not preserved.
type Store struct {
	db *DB
}

// NewStore creates the documents table if needed and returns a store on db.
func NewStore(ctx context.Context, db *DB) (*Store, error) {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}
	return &Store{db: db}, nil
}

// Name returns the driver name.
func (s *Store) Name() string { return "postgres" }

// Get returns the stored document.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.Pool.QueryRow(ctx,
		`SELECT payload::text FROM itlibrary_documents WHERE name = $1`, name,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

	return s.db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for name, data := range docs {
			_, err := tx.Exec(ctx, `
				INSERT INTO itlibrary_documents (name, payload, updated_at)
				VALUES ($1, $2::jsonb, NOW())
				ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
			`, name, string(data))
			if err != nil {
				return fmt.Errorf("failed to upsert document %s: %w", name, err)
			}
		}
		return nil
	})
}

// Delete removes name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM itlibrary_documents WHERE name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", name, err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

var (
	_ storage.Backend = (*Store)(nil)
	_ storage.Batcher = (*Store)(nil)
)
