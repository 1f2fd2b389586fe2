// Package domain contains the core entities of the IT library catalog.
// These are plain Go structs with no infrastructure dependencies; they are
// persisted as whole JSON documents, so the JSON tags are the wire format.
package domain

import (
	"strconv"
)

// StageAdmin is the stage value that marks an administrator account.
const StageAdmin = "admin"

// User represents a registered library user.
type User struct {
	// ID is unique and assigned as max(existing)+1 at registration.
	ID int64 `json:"id"`

	// Username is the unique login name (case-sensitive).
	Username string `json:"username"`

	// Password is stored and compared verbatim.
	Password string `json:"password"`

	// FullName is the display name.
	FullName string `json:"fullName"`

	// Stage is the study year ("1", "2", ...) or "admin".
	Stage string `json:"stage"`

	// CreatedAt is the registration date.
	CreatedAt Date `json:"createdAt"`
}

// IsAdmin reports whether the user holds the admin stage.
func (u *User) IsAdmin() bool {
	return u.Stage == StageAdmin
}

// ValidateStage checks that stage is "admin" or a positive study year.
func ValidateStage(stage string) error {
	if stage == StageAdmin {
		return nil
	}
	n, err := strconv.Atoi(stage)
	if err != nil || n < 1 {
		return NewDomainError(ErrInvalidStage, "stage must be a positive year or \"admin\"", stage)
	}
	return nil
}

// NextUserID returns max(id)+1 over users, or 1 when users is empty.
func NextUserID(users []User) int64 {
	var highest int64
	for _, u := range users {
		if u.ID > highest {
			highest = u.ID
		}
	}
	return highest + 1
}
