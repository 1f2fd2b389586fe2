package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/itlibrary/internal/domain"
	"github.com/prn-tf/itlibrary/internal/lock"
	"github.com/prn-tf/itlibrary/internal/repository"
)

// ExportDocument is the exchange format for a full catalog backup.
type ExportDocument struct {
	Users      []domain.User     `json:"users"`
	Subjects   []domain.Subject  `json:"subjects"`
	Resources  []domain.Resource `json:"resources"`
	ExportedAt time.Time         `json:"exportedAt"`
}

// TransferService exports and imports whole collections.
type TransferService struct {
	users     repository.UserRepository
	subjects  repository.SubjectRepository
	resources repository.ResourceRepository
	committer repository.Committer

	clock  func() time.Time
	run    runner
	logger zerolog.Logger
}

// NewTransferService creates a new TransferService.
func NewTransferService(
	users repository.UserRepository,
	subjects repository.SubjectRepository,
	resources repository.ResourceRepository,
	committer repository.Committer,
	opts Options,
	logger zerolog.Logger,
) *TransferService {
	opts = opts.withDefaults()
	return &TransferService{
		users:     users,
		subjects:  subjects,
		resources: resources,
		committer: committer,
		clock:     opts.Clock,
		run:       newRunner(opts),
		logger:    logger.With().Str("service", "transfer").Logger(),
	}
}

// Export snapshots all three collections.
func (s *TransferService) Export(ctx context.Context) (*ExportDocument, error) {
	var doc ExportDocument
	err := s.run.run(ctx, "export", []string{lock.KeyCatalog, lock.KeyUsers}, func() error {
		doc = ExportDocument{
			Users:      s.users.Load(ctx),
			Subjects:   s.subjects.Load(ctx),
			Resources:  s.resources.Load(ctx),
			ExportedAt: s.clock().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// WriteExport writes Export's document to w as indented JSON.
func (s *TransferService) WriteExport(ctx context.Context, w io.Writer) error {
	doc, err := s.Export(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ImportOutput reports which collections an import replaced.
type ImportOutput struct {
	Users     int
	Subjects  int
	Resources int
	Replaced  []string
}

// ParseImport decodes an export document. Each of users, subjects and
// resources that is present is returned; absent keys stay nil. Anything that
// is not a JSON object, or a present key that isn't an array of the right
// shape, fails with domain.ErrMalformedImportDocument.
func ParseImport(data []byte) (repository.Collections, error) {
	var c repository.Collections

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return c, domain.NewDomainError(domain.ErrMalformedImportDocument, err.Error(), "")
	}
	if raw == nil {
		return c, domain.NewDomainError(domain.ErrMalformedImportDocument, "document is null", "")
	}

	if v, ok := raw["users"]; ok {
		users, err := decodeCollection[domain.User]("users", v)
		if err != nil {
			return c, err
		}
		c.Users = &users
	}
	if v, ok := raw["subjects"]; ok {
		subjects, err := decodeCollection[domain.Subject]("subjects", v)
		if err != nil {
			return c, err
		}
		c.Subjects = &subjects
	}
	if v, ok := raw["resources"]; ok {
		resources, err := decodeCollection[domain.Resource]("resources", v)
		if err != nil {
			return c, err
		}
		c.Resources = &resources
	}
	return c, nil
}

func decodeCollection[T any](key string, raw json.RawMessage) ([]T, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, domain.NewDomainError(domain.ErrMalformedImportDocument, key+" must be an array", "")
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, domain.NewDomainError(domain.ErrMalformedImportDocument, key+": "+err.Error(), "")
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Import replaces every collection present in data, all as one unit.
// Nothing is written unless the whole document parses.
func (s *TransferService) Import(ctx context.Context, data []byte) (*ImportOutput, error) {
	c, err := ParseImport(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("import rejected")
		return nil, err
	}

	out := &ImportOutput{}
	if c.Users != nil {
		out.Users = len(*c.Users)
		out.Replaced = append(out.Replaced, repository.DocUsers)
	}
	if c.Subjects != nil {
		out.Subjects = len(*c.Subjects)
		out.Replaced = append(out.Replaced, repository.DocSubjects)
	}
	if c.Resources != nil {
		out.Resources = len(*c.Resources)
		out.Replaced = append(out.Replaced, repository.DocResources)
	}
	if c.Empty() {
		return out, nil
	}

	err = s.run.run(ctx, "import", []string{lock.KeyCatalog, lock.KeyUsers}, func() error {
		return s.committer.SaveCollections(ctx, c)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("import failed")
		return nil, err
	}

	s.logger.Info().Strs("replaced", out.Replaced).Msg("import applied")
	return out, nil
}

// ReadImport reads r fully and imports it.
func (s *TransferService) ReadImport(ctx context.Context, r io.Reader) (*ImportOutput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	return s.Import(ctx, data)
}
