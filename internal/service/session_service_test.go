package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/mocks"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository/memory"
)

func TestSessionService_Apply(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	exp := now.Add(time.Hour)
	user := &models.ApplicationUser{SubjectID: "u1", Email: "a@x.com", Username: "ab1"}

	t.Run("LoggedInStoresSnapshotWithTokenExpiry", func(t *testing.T) {
		repo := memory.NewMemorySessionRepository()
		service := NewSessionService(repo)
		service.now = func() time.Time { return now }
		token := signHS256(t, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()})

		session, err := service.Apply(ctx, models.LoggedIn("u1", models.AuthProviderDefault, token, user))

		require.NoError(t, err)
		assert.Equal(t, "u1", session.SubjectID)
		assert.Equal(t, models.AuthProviderDefault, session.AuthProvider)
		assert.Equal(t, user, session.User)
		assert.Equal(t, now, session.CreatedAt)
		assert.True(t, exp.Equal(session.Expiry))

		stored, err := repo.GetSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, "u1", stored.SubjectID)
	})

	t.Run("OpaqueTokenHasNoExpiry", func(t *testing.T) {
		service := NewSessionService(memory.NewMemorySessionRepository())

		session, err := service.Apply(ctx, models.LoggedIn("u1", models.AuthProviderGoogle, "opaque", nil))

		require.NoError(t, err)
		assert.True(t, session.Expiry.IsZero())
	})

	t.Run("SignedOutClearsSnapshot", func(t *testing.T) {
		repo := memory.NewMemorySessionRepository()
		service := NewSessionService(repo)
		_, err := service.Apply(ctx, models.LoggedIn("u1", models.AuthProviderDefault, "", nil))
		require.NoError(t, err)

		session, err := service.Apply(ctx, models.SignedOut())

		require.NoError(t, err)
		assert.Nil(t, session)
		_, err = repo.GetSession(ctx)
		assert.ErrorIs(t, err, repository.ErrSessionNotFound)

		// Signing out twice is fine.
		_, err = service.Apply(ctx, models.SignedOut())
		assert.NoError(t, err)
	})

	t.Run("InvalidTransitions", func(t *testing.T) {
		service := NewSessionService(memory.NewMemorySessionRepository())

		_, err := service.Apply(ctx, nil)
		assert.Error(t, err)
		_, err = service.Apply(ctx, models.LoggedIn("", models.AuthProviderDefault, "", nil))
		assert.Error(t, err)
		_, err = service.Apply(ctx, &models.SessionTransition{Kind: "BOGUS"})
		assert.Error(t, err)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		repo := new(mocks.MockSessionRepository)
		repo.On("StoreSession", mock.Anything, mock.AnythingOfType("*models.Session")).Return(errors.New("redis down")).Once()
		service := NewSessionService(repo)

		session, err := service.Apply(ctx, models.LoggedIn("u1", models.AuthProviderDefault, "", nil))

		assert.Nil(t, session)
		assert.ErrorContains(t, err, "failed to store session")
		repo.AssertExpectations(t)
	})
}

func TestSessionService_Current(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("NoSession", func(t *testing.T) {
		service := NewSessionService(memory.NewMemorySessionRepository())
		_, err := service.Current(ctx)
		assert.ErrorIs(t, err, ErrNoActiveSession)
	})

	t.Run("ActiveThenExpired", func(t *testing.T) {
		repo := memory.NewMemorySessionRepository()
		service := NewSessionService(repo)
		service.now = func() time.Time { return now }
		token := signHS256(t, jwt.MapClaims{"sub": "u1", "exp": now.Add(time.Minute).Unix()})
		_, err := service.Apply(ctx, models.LoggedIn("u1", models.AuthProviderDefault, token, nil))
		require.NoError(t, err)

		session, err := service.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "u1", session.SubjectID)

		service.now = func() time.Time { return now.Add(2 * time.Minute) }
		_, err = service.Current(ctx)
		assert.ErrorIs(t, err, ErrNoActiveSession)

		_, err = repo.GetSession(ctx)
		assert.ErrorIs(t, err, repository.ErrSessionNotFound, "expired snapshot should be dropped")
	})

	t.Run("RepositoryError", func(t *testing.T) {
		repo := new(mocks.MockSessionRepository)
		repo.On("GetSession", mock.Anything).Return(nil, errors.New("redis down")).Once()
		service := NewSessionService(repo)

		_, err := service.Current(ctx)
		assert.ErrorContains(t, err, "failed to load session")
		assert.False(t, errors.Is(err, ErrNoActiveSession))
	})
}
