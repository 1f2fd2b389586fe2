package repository

import (
	"context"

	"github.com/prn-tf/itlibrary/internal/adapter"
	"github.com/prn-tf/itlibrary/internal/domain"
	"github.com/prn-tf/itlibrary/internal/seed"
)

// Repositories groups the document-backed repositories over one adapter.
type Repositories struct {
	Users     UserRepository
	Subjects  SubjectRepository
	Resources ResourceRepository
	Session   SessionRepository

	adapter *adapter.Adapter
}

// New builds the repositories over a.
func New(a *adapter.Adapter) *Repositories {
	return &Repositories{
		Users:     &userRepo{a: a},
		Subjects:  &subjectRepo{a: a},
		Resources: &resourceRepo{a: a},
		Session:   &sessionRepo{a: a},
		adapter:   a,
	}
}

// SaveCatalog commits subjects and resources as one unit.
func (r *Repositories) SaveCatalog(ctx context.Context, subjects []domain.Subject, resources []domain.Resource) error {
	return r.SaveCollections(ctx, Collections{Subjects: &subjects, Resources: &resources})
}

// SaveCollections commits every selected collection as one unit.
func (r *Repositories) SaveCollections(ctx context.Context, c Collections) error {
	var docs []adapter.Document
	if c.Users != nil {
		docs = append(docs, adapter.Document{Name: DocUsers, Value: nonNil(*c.Users)})
	}
	if c.Subjects != nil {
		docs = append(docs, adapter.Document{Name: DocSubjects, Value: nonNil(*c.Subjects)})
	}
	if c.Resources != nil {
		docs = append(docs, adapter.Document{Name: DocResources, Value: nonNil(*c.Resources)})
	}
	if len(docs) == 0 {
		return nil
	}
	return r.adapter.SaveAll(ctx, docs...)
}

// nonNil keeps empty collections stored as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type userRepo struct{ a *adapter.Adapter }

func (r *userRepo) Load(ctx context.Context) []domain.User {
	return nonNil(adapter.Load(ctx, r.a, DocUsers, seed.Users()))
}

func (r *userRepo) Save(ctx context.Context, users []domain.User) error {
	return r.a.Save(ctx, DocUsers, nonNil(users))
}

type subjectRepo struct{ a *adapter.Adapter }

func (r *subjectRepo) Load(ctx context.Context) []domain.Subject {
	return nonNil(adapter.Load(ctx, r.a, DocSubjects, seed.Subjects()))
}

func (r *subjectRepo) Save(ctx context.Context, subjects []domain.Subject) error {
	return r.a.Save(ctx, DocSubjects, nonNil(subjects))
}

type resourceRepo struct{ a *adapter.Adapter }

func (r *resourceRepo) Load(ctx context.Context) []domain.Resource {
	return nonNil(adapter.Load(ctx, r.a, DocResources, seed.Resources()))
}

func (r *resourceRepo) Save(ctx context.Context, resources []domain.Resource) error {
	return r.a.Save(ctx, DocResources, nonNil(resources))
}

type sessionRepo struct{ a *adapter.Adapter }

func (r *sessionRepo) Load(ctx context.Context) *domain.User {
	return adapter.Load[*domain.User](ctx, r.a, DocCurrentUser, nil)
}

func (r *sessionRepo) Save(ctx context.Context, user domain.User) error {
	return r.a.Save(ctx, DocCurrentUser, user)
}

func (r *sessionRepo) Clear(ctx context.Context) error {
	return r.a.Delete(ctx, DocCurrentUser)
}

var (
	_ Committer          = (*Repositories)(nil)
	_ UserRepository     = (*userRepo)(nil)
	_ SubjectRepository  = (*subjectRepo)(nil)
	_ ResourceRepository = (*resourceRepo)(nil)
	_ SessionRepository  = (*sessionRepo)(nil)
)
