package repository

import "errors"

// Factory errors
var (
	// ErrUnknownBackend indicates a storage, cache or lock backend name the factory can't build.
	ErrUnknownBackend = errors.New("unknown backend")
)
