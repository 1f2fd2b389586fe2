// Package repository defines typed access to the catalog's stored collections.
// Each repository is bound to one document and one bundled default dataset;
// none of them validate what they store.
package repository

import (
	"context"

	"github.com/prn-tf/itlibrary/internal/domain"
)

// Logical document names. The adapter prepends storage.document_prefix.
const (
	DocUsers       = "users"
	DocSubjects    = "subjects"
	DocResources   = "resources"
	DocCurrentUser = "current_user"
)

// =============================================================================
// Collection Repositories
// =============================================================================

// UserRepository loads and saves the users collection.
type UserRepository interface {
	// Load returns the stored users in insertion order, or the defaults.
	Load(ctx context.Context) []domain.User

	// Save replaces the users collection.
	Save(ctx context.Context, users []domain.User) error
}

// SubjectRepository loads and saves the subjects collection.
type SubjectRepository interface {
	Load(ctx context.Context) []domain.Subject
	Save(ctx context.Context, subjects []domain.Subject) error
}

// ResourceRepository loads and saves the resources collection.
type ResourceRepository interface {
	Load(ctx context.Context) []domain.Resource
	Save(ctx context.Context, resources []domain.Resource) error
}

// =============================================================================
// Session Repository
// =============================================================================

// SessionRepository persists the current-user pointer.
type SessionRepository interface {
	// Load returns the stored user, or nil when absent or unreadable.
	Load(ctx context.Context) *domain.User

	// Save stores user as the current user.
	Save(ctx context.Context, user domain.User) error

	// Clear removes the pointer. Clearing an absent pointer is not an error.
	Clear(ctx context.Context) error
}

// =============================================================================
// Multi-document writes
// =============================================================================

// Collections selects which collections a combined write replaces.
// A nil field leaves that collection untouched; a pointer to an empty
// slice empties it.
type Collections struct {
	Users     *[]domain.User
	Subjects  *[]domain.Subject
	Resources *[]domain.Resource
}

// Empty reports whether c selects nothing.
func (c Collections) Empty() bool {
	return c.Users == nil && c.Subjects == nil && c.Resources == nil
}

// Committer writes several collections as one unit.
type Committer interface {
	SaveCollections(ctx context.Context, c Collections) error

	// SaveCatalog is SaveCollections for subjects and resources together.
	SaveCatalog(ctx context.Context, subjects []domain.Subject, resources []domain.Resource) error
}
