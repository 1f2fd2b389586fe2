// Package auth gates catalog access behind a logged-in user.
// The session is an explicit value owned by the caller; the gate only
// mirrors it to storage when persistence is enabled.
package auth

import "github.com/prn-tf/itlibrary/internal/domain"

// Route is the landing area a successful login leads to.
type Route string

const (
	RouteAdmin   Route = "admin"
	RouteStudent Route = "student"
)

// RouteFor returns RouteAdmin for admin-stage users, else RouteStudent.
func RouteFor(u *domain.User) Route {
	if u.IsAdmin() {
		return RouteAdmin
	}
	return RouteStudent
}

// Session holds the current user, if any. The zero value is logged out.
type Session struct {
	user *domain.User
}

// User returns a copy of the current user, or nil.
func (s *Session) User() *domain.User {
	if s == nil || s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// LoggedIn reports whether the session has a current user.
func (s *Session) LoggedIn() bool {
	return s != nil && s.user != nil
}

func (s *Session) set(u domain.User) { s.user = &u }

func (s *Session) clear() { s.user = nil }

// RequireUser returns the current user or domain.ErrNotLoggedIn.
func RequireUser(s *Session) (*domain.User, error) {
	u := s.User()
	if u == nil {
		return nil, domain.ErrNotLoggedIn
	}
	return u, nil
}

// RequireAdmin returns the current user if it is an admin, else
// domain.ErrAccessDenied.
func RequireAdmin(s *Session) (*domain.User, error) {
	u, err := RequireUser(s)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	return u, nil
}
