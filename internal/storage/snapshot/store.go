// Package snapshot reads documents from a published set of JSON files
// served over HTTP. The source is read-only; pair it with overlay to
// accept writes.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prn-tf/itlibrary/internal/storage"
)

// maxDocumentSize caps a fetched document.
const maxDocumentSize = 16 << 20

// Store implements storage.Backend by fetching <baseURL>/<name>.json.
type Store struct {
	base   *url.URL
	client *http.Client
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.client = c }
}

// New creates a snapshot store rooted at baseURL.
func New(baseURL string, opts ...Option) (*Store, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid snapshot base url %q: scheme must be http or https", baseURL)
	}

	s := &Store{
		base:   u,
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the driver name.
func (s *Store) Name() string { return "snapshot" }

// Get fetches the document. A 404 maps to storage.ErrDocumentNotFound.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	target := s.base.JoinPath(name + ".json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, storage.ErrDocumentNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %d", target, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", target, err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("document %s exceeds %d bytes", name, maxDocumentSize)
	}
	return data, nil
}

// Put always fails with storage.ErrReadOnly.
func (s *Store) Put(context.Context, string, []byte) error { return storage.ErrReadOnly }

// Delete always fails with storage.ErrReadOnly.
func (s *Store) Delete(context.Context, string) error { return storage.ErrReadOnly }

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

var _ storage.Backend = (*Store)(nil)
