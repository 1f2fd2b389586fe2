package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/itlibrary/internal/domain"
)

func TestUserService_Register(t *testing.T) {
	svc := newFixture(t).users()
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{
		FullName: "سارة خالد",
		Username: "sara",
		Password: "s3cret",
		Stage:    "2",
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), created.ID)
	require.Equal(t, "2026-03-01", created.CreatedAt.String())

	users := svc.Users(ctx)
	require.Len(t, users, 3)
	require.Equal(t, "sara", users[2].Username)
}

func TestUserService_Register_Duplicate(t *testing.T) {
	svc := newFixture(t).users()
	ctx := context.Background()

	before := len(svc.Users(ctx))
	_, err := svc.Register(ctx, RegisterInput{FullName: "x", Username: "ahmed123", Password: "p", Stage: "1"})
	require.ErrorIs(t, err, domain.ErrDuplicateUsername)
	require.Len(t, svc.Users(ctx), before)

	// Usernames compare case-sensitively.
	_, err = svc.Register(ctx, RegisterInput{FullName: "x", Username: "Ahmed123", Password: "p", Stage: "1"})
	require.NoError(t, err)
}

func TestUserService_Register_InvalidStage(t *testing.T) {
	f := newFixture(t)
	f.opts.ValidateStage = true
	svc := f.users()

	for _, stage := range []string{"", "0", "first", "-1"} {
		_, err := svc.Register(context.Background(), RegisterInput{Username: "u" + stage, Stage: stage})
		require.ErrorIs(t, err, domain.ErrInvalidStage, stage)
	}
	require.Zero(t, f.backend.Len())
}

func TestUserService_Register_StageStoredAsGiven(t *testing.T) {
	svc := newFixture(t).users()
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{Username: "nour", Password: "p", Stage: "first"})
	require.NoError(t, err)
	require.Equal(t, "first", created.Stage)

	users := svc.Users(ctx)
	require.Equal(t, "first", users[len(users)-1].Stage)
}

func TestUserService_Register_IDsAfterGap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repos.Users.Save(ctx, []domain.User{{ID: 7, Username: "a", Stage: "1"}, {ID: 2, Username: "b", Stage: "1"}}))

	created, err := f.users().Register(ctx, RegisterInput{Username: "c", Stage: "1"})
	require.NoError(t, err)
	require.Equal(t, int64(8), created.ID)
}

func TestUserService_Authenticate(t *testing.T) {
	svc := newFixture(t).users()
	ctx := context.Background()

	u, err := svc.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.True(t, u.IsAdmin())

	_, err = svc.Authenticate(ctx, "admin", "ADMIN123")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "admin123")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
