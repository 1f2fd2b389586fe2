// Package storage defines the interface for document storage backends.
// A document is a named, whole-replace unit of JSON data; backends store
// opaque bytes and never interpret them.
package storage

import (
	"context"
	"errors"
	"regexp"
)

// Storage errors.
var (
	// ErrDocumentNotFound indicates the named document does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrReadOnly indicates the backend does not accept writes.
	ErrReadOnly = errors.New("backend is read-only")

	// ErrInvalidName indicates a document name outside the allowed alphabet.
	ErrInvalidName = errors.New("invalid document name")
)

// Backend defines the interface for document storage backends.
// Implementations include in-memory, filesystem, bbolt, SQLite, PostgreSQL,
// S3 and fetched HTTP snapshots.
type Backend interface {
	// Get returns the stored bytes for name.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put stores data under name, replacing any previous content.
	// A Put either fully succeeds or leaves the previous content in place.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes name. Deleting a missing document is not an error.
	Delete(ctx context.Context, name string) error

	// Close releases resources held by the backend.
	Close() error
}

// Batcher is implemented by backends that can commit several documents in
// one atomic step (a single database transaction or a single lock hold).
type Batcher interface {
	// PutBatch stores every document in docs, or none of them.
	PutBatch(ctx context.Context, docs map[string][]byte) error
}

// Namer is implemented by backends that report a short driver name for logs.
type Namer interface {
	Name() string
}

var validName = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// ValidateName checks that a document name is safe to use as a file name,
// object key or table key.
func ValidateName(name string) error {
	if !validName.MatchString(name) || name == "." || name == ".." {
		return ErrInvalidName
	}
	return nil
}

// BackendName returns b's Name() when available, else "unknown".
func BackendName(b Backend) string {
	if n, ok := b.(Namer); ok {
		return n.Name()
	}
	return "unknown"
}
