// Package domain contains the core entities of the IT library catalog.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrDuplicateUsername indicates a user with the same username exists.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentials indicates no user matched the username/password pair.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidStage indicates the stage is neither a study year nor "admin".
	ErrInvalidStage = errors.New("invalid stage")

	// ===========================================
	// Access Errors
	// ===========================================

	// ErrNotLoggedIn indicates the session has no current user.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrAccessDenied indicates the current user lacks the admin stage.
	ErrAccessDenied = errors.New("access denied")

	// ===========================================
	// Catalog Errors
	// ===========================================

	// ErrDuplicateSubjectID indicates a subject with the same code exists.
	ErrDuplicateSubjectID = errors.New("subject id already exists")

	// ErrSubjectNotFound indicates the requested subject does not exist.
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrDuplicateResourceID indicates a resource with the same id exists.
	ErrDuplicateResourceID = errors.New("resource id already exists")

	// ErrResourceNotFound indicates the requested resource does not exist.
	ErrResourceNotFound = errors.New("resource not found")

	// ===========================================
	// Storage Errors
	// ===========================================

	// ErrStorageUnavailable indicates a document could not be written.
	// Reads never surface it; they degrade to defaults instead.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMalformedImportDocument indicates an import payload could not be parsed.
	ErrMalformedImportDocument = errors.New("malformed import document")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected entity (username, subject code, resource id).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		if e.Message != "" {
			return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
		}
		return fmt.Sprintf("%s (%s)", e.Err.Error(), e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}
