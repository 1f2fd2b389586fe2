package auth

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prn-tf/itlibrary/internal/domain"
	"github.com/prn-tf/itlibrary/internal/repository"
)

// Authenticator checks a username/password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

// Gate logs users in and out.
type Gate struct {
	users  Authenticator
	store  repository.SessionRepository
	logger zerolog.Logger
}

// NewGate creates a Gate. A nil store keeps sessions in memory only.
func NewGate(users Authenticator, store repository.SessionRepository, logger zerolog.Logger) *Gate {
	return &Gate{
		users:  users,
		store:  store,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// Login authenticates and, on success, makes the user current in sess.
// A failed login leaves sess untouched.
func (g *Gate) Login(ctx context.Context, sess *Session, username, password string) (Route, error) {
	user, err := g.users.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	sess.set(*user)
	if g.store != nil {
		if err := g.store.Save(ctx, *user); err != nil {
			// The in-memory session still holds; only Resume is affected.
			g.logger.Warn().Err(err).Str("username", user.Username).Msg("failed to persist session")
		}
	}

	route := RouteFor(user)
	g.logger.Info().Int64("user_id", user.ID).Str("route", string(route)).Msg("user logged in")
	return route, nil
}

// Logout clears sess. It is safe to call on a logged-out session.
func (g *Gate) Logout(ctx context.Context, sess *Session) error {
	sess.clear()
	if g.store == nil {
		return nil
	}
	if err := g.store.Clear(ctx); err != nil {
		g.logger.Warn().Err(err).Msg("failed to clear persisted session")
		return err
	}
	return nil
}

// CurrentUser returns the user logged into sess, or nil.
func (g *Gate) CurrentUser(sess *Session) *domain.User {
	return sess.User()
}

// Resume rebuilds a session from the persisted pointer. It returns a
// logged-out session when nothing usable is stored.
func (g *Gate) Resume(ctx context.Context) *Session {
	sess := &Session{}
	if g.store == nil {
		return sess
	}
	if u := g.store.Load(ctx); u != nil && u.Username != "" {
		sess.set(*u)
		g.logger.Debug().Int64("user_id", u.ID).Msg("session resumed")
	}
	return sess
}
