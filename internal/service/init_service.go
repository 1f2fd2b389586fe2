package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prn-tf/itlibrary/internal/adapter"
	"github.com/prn-tf/itlibrary/internal/lock"
	"github.com/prn-tf/itlibrary/internal/repository"
	"github.com/prn-tf/itlibrary/internal/seed"
)

// InitService seeds a fresh store with the bundled defaults.
type InitService struct {
	adapter   *adapter.Adapter
	committer repository.Committer
	catalog   *CatalogService
	run       runner
	logger    zerolog.Logger
}

// NewInitService creates a new InitService. catalog reconciles counts after seeding.
func NewInitService(a *adapter.Adapter, committer repository.Committer, catalog *CatalogService, opts Options, logger zerolog.Logger) *InitService {
	opts = opts.withDefaults()
	return &InitService{
		adapter:   a,
		committer: committer,
		catalog:   catalog,
		run:       newRunner(opts),
		logger:    logger.With().Str("service", "init").Logger(),
	}
}

// InitializeOutput reports what Initialize wrote.
type InitializeOutput struct {
	Seeded     []string
	Reconciled int
}

// Initialize writes each default collection whose document is absent, then
// reconciles resource counts if anything was seeded. Existing documents are
// never overwritten; a backend that can't answer aborts without writing.
func (s *InitService) Initialize(ctx context.Context) (*InitializeOutput, error) {
	out := &InitializeOutput{}

	err := s.run.run(ctx, "initialize", []string{lock.KeyCatalog, lock.KeyUsers}, func() error {
		var c repository.Collections

		for _, doc := range []string{repository.DocUsers, repository.DocSubjects, repository.DocResources} {
			exists, err := s.adapter.Exists(ctx, doc)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			out.Seeded = append(out.Seeded, doc)
			switch doc {
			case repository.DocUsers:
				users := seed.Users()
				c.Users = &users
			case repository.DocSubjects:
				subjects := seed.Subjects()
				c.Subjects = &subjects
			case repository.DocResources:
				resources := seed.Resources()
				c.Resources = &resources
			}
		}

		if c.Empty() {
			return nil
		}
		if err := s.committer.SaveCollections(ctx, c); err != nil {
			return err
		}

		changed, err := s.catalog.reconcile(ctx)
		if err != nil {
			return err
		}
		out.Reconciled = changed
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("initialize failed")
		return nil, err
	}

	if len(out.Seeded) > 0 {
		s.logger.Info().Strs("seeded", out.Seeded).Int("reconciled", out.Reconciled).Msg("store initialized")
	}
	return out, nil
}
