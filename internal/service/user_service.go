package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/itlibrary/internal/domain"
	"github.com/prn-tf/itlibrary/internal/lock"
	"github.com/prn-tf/itlibrary/internal/repository"
)

// UserService handles account registration and credential checks.
// Passwords are stored and compared as given.
type UserService struct {
	users         repository.UserRepository
	clock         func() time.Time
	validateStage bool
	run           runner
	logger        zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository, opts Options, logger zerolog.Logger) *UserService {
	opts = opts.withDefaults()
	return &UserService{
		users:         users,
		clock:         opts.Clock,
		validateStage: opts.ValidateStage,
		run:           newRunner(opts),
		logger:        logger.With().Str("service", "user").Logger(),
	}
}

// RegisterInput contains the data needed to create a new account.
type RegisterInput struct {
	FullName string
	Username string
	Password string
	Stage    string
}

// Register creates a new account with the next free id.
// Returns domain.ErrDuplicateUsername if the username exists (case-sensitive).
// The stage is stored as given unless stage validation is on.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if s.validateStage {
		if err := domain.ValidateStage(input.Stage); err != nil {
			return nil, err
		}
	}

	var created domain.User
	err := s.run.run(ctx, "register", []string{lock.KeyUsers}, func() error {
		users := s.users.Load(ctx)
		for _, u := range users {
			if u.Username == input.Username {
				return domain.NewDomainError(domain.ErrDuplicateUsername, "", input.Username)
			}
		}

		created = domain.User{
			ID:        domain.NextUserID(users),
			Username:  input.Username,
			Password:  input.Password,
			FullName:  input.FullName,
			Stage:     input.Stage,
			CreatedAt: domain.NewDate(s.clock()),
		}
		return s.users.Save(ctx, append(users, created))
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("username", input.Username).Msg("registration failed")
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", created.ID).
		Str("username", created.Username).
		Str("stage", created.Stage).
		Msg("user registered")
	return &created, nil
}

// Authenticate returns the first user, in stored order, whose username and
// password both match exactly.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	for _, u := range s.users.Load(ctx) {
		if u.Username == username && u.Password == password {
			user := u
			return &user, nil
		}
	}
	s.logger.Debug().Str("username", username).Msg("authentication failed")
	return nil, domain.ErrInvalidCredentials
}

// Users returns every account in stored order.
func (s *UserService) Users(ctx context.Context) []domain.User {
	return s.users.Load(ctx)
}
