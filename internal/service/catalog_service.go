package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/itlibrary/internal/domain"
	"github.com/prn-tf/itlibrary/internal/lock"
	"github.com/prn-tf/itlibrary/internal/repository"
)

// CatalogService handles subject and resource operations. Every mutation
// keeps each subject's resourcesCount equal to its number of resources.
type CatalogService struct {
	subjects  repository.SubjectRepository
	resources repository.ResourceRepository
	committer repository.Committer

	allowOrphans bool
	clock        func() time.Time
	run          runner
	logger       zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	subjects repository.SubjectRepository,
	resources repository.ResourceRepository,
	committer repository.Committer,
	opts Options,
	logger zerolog.Logger,
) *CatalogService {
	opts = opts.withDefaults()
	return &CatalogService{
		subjects:     subjects,
		resources:    resources,
		committer:    committer,
		allowOrphans: !opts.RejectOrphanResources,
		clock:        opts.Clock,
		run:          newRunner(opts),
		logger:       logger.With().Str("service", "catalog").Logger(),
	}
}

// =============================================================================
// Queries
// =============================================================================

// Subjects returns every subject in stored order.
func (s *CatalogService) Subjects(ctx context.Context) []domain.Subject {
	return s.subjects.Load(ctx)
}

// SubjectsByStage returns the subjects whose stage equals stage exactly.
func (s *CatalogService) SubjectsByStage(ctx context.Context, stage string) []domain.Subject {
	return domain.FilterByStage(s.subjects.Load(ctx), stage)
}

// Subject returns the subject with id.
func (s *CatalogService) Subject(ctx context.Context, id string) (*domain.Subject, error) {
	subjects := s.subjects.Load(ctx)
	i := domain.FindSubject(subjects, id)
	if i < 0 {
		return nil, domain.NewDomainError(domain.ErrSubjectNotFound, "", id)
	}
	return &subjects[i], nil
}

// Resources returns every resource in stored order.
func (s *CatalogService) Resources(ctx context.Context) []domain.Resource {
	return s.resources.Load(ctx)
}

// ResourcesBySubject returns the resources attached to subjectID.
func (s *CatalogService) ResourcesBySubject(ctx context.Context, subjectID string) []domain.Resource {
	var out []domain.Resource
	for _, r := range s.resources.Load(ctx) {
		if r.SubjectID == subjectID {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// Subjects
// =============================================================================

// AddSubjectInput contains the data needed to create a subject.
type AddSubjectInput struct {
	ID          string
	Name        string
	Stage       string
	Description string
}

// AddSubject creates a subject with a zero resource count.
// Returns domain.ErrDuplicateSubjectID if the id is taken.
func (s *CatalogService) AddSubject(ctx context.Context, input AddSubjectInput) (*domain.Subject, error) {
	var created domain.Subject

	err := s.run.run(ctx, "add_subject", []string{lock.KeyCatalog}, func() error {
		subjects := s.subjects.Load(ctx)
		if domain.FindSubject(subjects, input.ID) >= 0 {
			return domain.NewDomainError(domain.ErrDuplicateSubjectID, "", input.ID)
		}

		created = domain.Subject{
			ID:             input.ID,
			Name:           input.Name,
			Stage:          input.Stage,
			Description:    input.Description,
			ResourcesCount: 0,
		}
		subjects = append(subjects, created)

		return s.subjects.Save(ctx, subjects)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("subject_id", input.ID).Msg("add subject failed")
		return nil, err
	}

	s.logger.Info().Str("subject_id", created.ID).Str("stage", created.Stage).Msg("subject added")
	return &created, nil
}

// DeleteSubjectOutput contains the result of deleting a subject.
type DeleteSubjectOutput struct {
	Subject          domain.Subject
	RemovedResources int
}

// DeleteSubject removes a subject and every resource attached to it,
// committing both collections as one unit.
func (s *CatalogService) DeleteSubject(ctx context.Context, id string) (*DeleteSubjectOutput, error) {
	var out DeleteSubjectOutput

	err := s.run.run(ctx, "delete_subject", []string{lock.KeyCatalog}, func() error {
		subjects := s.subjects.Load(ctx)
		i := domain.FindSubject(subjects, id)
		if i < 0 {
			return domain.NewDomainError(domain.ErrSubjectNotFound, "", id)
		}

		out.Subject = subjects[i]
		subjects = append(subjects[:i:i], subjects[i+1:]...)

		resources, removed := domain.RemoveBySubject(s.resources.Load(ctx), id)
		out.RemovedResources = removed

		return s.committer.SaveCatalog(ctx, subjects, resources)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("subject_id", id).Msg("delete subject failed")
		return nil, err
	}

	s.logger.Info().
		Str("subject_id", id).
		Int("removed_resources", out.RemovedResources).
		Msg("subject deleted")
	return &out, nil
}

// =============================================================================
// Resources
// =============================================================================

// AddResourceInput contains the data needed to attach a resource.
// An empty ID is generated; a zero UploadDate becomes today.
type AddResourceInput struct {
	ID          string
	SubjectID   string
	Title       string
	Type        string
	URL         string
	Description string
	UploadDate  domain.Date
	Size        string
}

// AddResource attaches a resource to its subject and increments the
// subject's count. An unknown subject is stored as an orphan, or fails with
// domain.ErrSubjectNotFound when orphans are rejected.
func (s *CatalogService) AddResource(ctx context.Context, input AddResourceInput) (*domain.Resource, error) {
	var created domain.Resource

	err := s.run.run(ctx, "add_resource", []string{lock.KeyCatalog}, func() error {
		subjects := s.subjects.Load(ctx)
		resources := s.resources.Load(ctx)

		owner := domain.FindSubject(subjects, input.SubjectID)
		if owner < 0 && !s.allowOrphans {
			return domain.NewDomainError(domain.ErrSubjectNotFound, "", input.SubjectID)
		}

		created = domain.Resource{
			ID:          input.ID,
			SubjectID:   input.SubjectID,
			Title:       input.Title,
			Type:        input.Type,
			URL:         input.URL,
			Description: input.Description,
			UploadDate:  input.UploadDate,
			Size:        input.Size,
		}
		if created.ID == "" {
			created.ID = uuid.NewString()
		}
		if created.UploadDate.IsZero() {
			created.UploadDate = domain.NewDate(s.clock())
		}
		if domain.FindResource(resources, created.ID) >= 0 {
			return domain.NewDomainError(domain.ErrDuplicateResourceID, "", created.ID)
		}

		resources = append(resources, created)
		if owner >= 0 {
			subjects[owner].ResourcesCount++
		} else {
			s.logger.Warn().
				Str("resource_id", created.ID).
				Str("subject_id", created.SubjectID).
				Msg("storing orphan resource")
		}

		return s.committer.SaveCatalog(ctx, subjects, resources)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("subject_id", input.SubjectID).Msg("add resource failed")
		return nil, err
	}

	s.logger.Info().
		Str("resource_id", created.ID).
		Str("subject_id", created.SubjectID).
		Msg("resource added")
	return &created, nil
}

// DeleteResource removes a resource and decrements its subject's count,
// never below zero.
func (s *CatalogService) DeleteResource(ctx context.Context, id string) (*domain.Resource, error) {
	var removed domain.Resource

	err := s.run.run(ctx, "delete_resource", []string{lock.KeyCatalog}, func() error {
		resources := s.resources.Load(ctx)
		i := domain.FindResource(resources, id)
		if i < 0 {
			return domain.NewDomainError(domain.ErrResourceNotFound, "", id)
		}

		removed = resources[i]
		resources = append(resources[:i:i], resources[i+1:]...)

		subjects := s.subjects.Load(ctx)
		if owner := domain.FindSubject(subjects, removed.SubjectID); owner >= 0 && subjects[owner].ResourcesCount > 0 {
			subjects[owner].ResourcesCount--
		}

		return s.committer.SaveCatalog(ctx, subjects, resources)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("resource_id", id).Msg("delete resource failed")
		return nil, err
	}

	s.logger.Info().Str("resource_id", id).Str("subject_id", removed.SubjectID).Msg("resource deleted")
	return &removed, nil
}

// =============================================================================
// Maintenance
// =============================================================================

// Reconcile recomputes every subject's resourcesCount from the resource
// set and returns how many subjects changed.
func (s *CatalogService) Reconcile(ctx context.Context) (int, error) {
	var changed int
	err := s.run.run(ctx, "reconcile", []string{lock.KeyCatalog}, func() error {
		var err error
		changed, err = s.reconcile(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// reconcile is Reconcile without locking. Caller holds lock.KeyCatalog.
func (s *CatalogService) reconcile(ctx context.Context) (int, error) {
	subjects := s.subjects.Load(ctx)
	changed := domain.CountResources(subjects, s.resources.Load(ctx))
	if changed == 0 {
		return 0, nil
	}
	if err := s.subjects.Save(ctx, subjects); err != nil {
		return 0, fmt.Errorf("save reconciled subjects: %w", err)
	}
	s.logger.Info().Int("changed", changed).Msg("resource counts reconciled")
	return changed, nil
}
