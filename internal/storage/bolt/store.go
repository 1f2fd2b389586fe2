// Package bolt provides a durable key-value document backend on bbolt.
// All documents live as values in a single bucket keyed by document name.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"github.com/prn-tf/itlibrary/internal/storage"
)

// DefaultBucket is used when Config.Bucket is empty.
const DefaultBucket = "documents"

// Config holds bbolt settings.
type Config struct {
	// Path is the database file.
	Path string

	// Bucket is the bbolt bucket holding documents.
	Bucket string

	// OpenTimeout bounds waiting for the file lock held by another process.
	OpenTimeout time.Duration
}

// Store implements storage.Backend and storage.Batcher on bbolt.
type Store struct {
	db     *bbolt.DB
	bucket []byte
	logger zerolog.Logger
}

// Open opens (or creates) the database file and its bucket.
func Open(cfg Config, logger zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = DefaultBucket
	}

	db, err := bbolt.Open(cfg.Path, 0o600, &bbolt.Options{Timeout: cfg.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}

	logger.Info().
		Str("path", cfg.Path).
		Str("bucket", bucket).
		Msg("opened bolt document store")

	return &Store{db: db, bucket: []byte(bucket), logger: logger}, nil
}

// Name returns the driver name.
func (s *Store) Name() string { return "bolt" }

// Get returns a copy of the stored document.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket %s not found", s.bucket)
		}
		v := b.Get([]byte(name))
		if v == nil {
			return storage.ErrDocumentNotFound
		}
		// v is only valid inside the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put stores data under name in its own transaction.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	return s.PutBatch(ctx, map[string][]byte{name: data})
}

// PutBatch stores every document in one bbolt write transaction.
func (s *Store) PutBatch(ctx context.Context, docs map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for name := range docs {
		if err := storage.ValidateName(name); err != nil {
			return err
		}
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		for name, data := range docs {
			if err := b.Put([]byte(name), data); err != nil {
				return fmt.Errorf("failed to put %s: %w", name, err)
			}
		}
		return nil
	})
}

// Delete removes name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(name))
	})
}

// Close closes the database file.
func (s *Store) Close() error {
	s.logger.Info().Msg("closing bolt document store")
	return s.db.Close()
}

// Ensure Store implements the storage interfaces.
var (
	_ storage.Backend = (*Store)(nil)
	_ storage.Batcher = (*Store)(nil)
)
