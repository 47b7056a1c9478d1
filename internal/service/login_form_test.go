package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/config"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/mocks"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository/memory"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository/sqlite"
)

type loginFormTestDeps struct {
	auth      *mocks.MockAuthenticator
	sessions  *mocks.MockSessionApplier
	notifier  *mocks.MockNotifier
	cooldowns repository.CooldownRepository
	clock     *time.Time
	form      *LoginForm
}

func setupLoginFormTest(t *testing.T) loginFormTestDeps {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	deps := loginFormTestDeps{
		auth:      new(mocks.MockAuthenticator),
		sessions:  new(mocks.MockSessionApplier),
		notifier:  new(mocks.MockNotifier),
		cooldowns: memory.NewMemoryCooldownRepository(),
		clock:     &now,
	}
	deps.notifier.On("Notify", mock.Anything, mock.Anything).Return().Maybe()
	deps.form = NewLoginForm(deps.auth, deps.sessions, deps.cooldowns, deps.notifier, config.LoginPolicyConfig{
		MaxAttempts: 4,
		Cooldown:    30 * time.Minute,
	})
	deps.form.now = func() time.Time { return *deps.clock }
	return deps
}

func (d loginFormTestDeps) advance(by time.Duration) {
	*d.clock = d.clock.Add(by)
}

var errLoginRejected = models.NewAuthError(models.ErrorKindExternalRejection, "LoginWithEmail", ErrCredentialRejected)

func TestLoginForm_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Email identifier routes to LoginWithEmail", func(t *testing.T) {
		deps := setupLoginFormTest(t)
		transition := models.LoggedIn("u1", models.AuthProviderDefault, "tok", nil)
		session := &models.Session{SubjectID: "u1", AuthProvider: models.AuthProviderDefault}
		deps.auth.On("LoginWithEmail", mock.Anything, "a@x.com", "pw").
			Return(&models.AuthResult{Outcome: models.OutcomeLoggedIn, Transition: transition}, nil).Once()
		deps.sessions.On("Apply", mock.Anything, transition).Return(session, nil).Once()

		got, err := deps.form.Submit(ctx, "a@x.com", "pw")

		require.NoError(t, err)
		assert.Equal(t, session, got)
		assert.Equal(t, 0, deps.form.Attempts())
		deps.auth.AssertNotCalled(t, "LoginWithUsername", mock.Anything, mock.Anything, mock.Anything)
		deps.auth.AssertExpectations(t)
		deps.sessions.AssertExpectations(t)
	})

	t.Run("Username identifier routes to LoginWithUsername", func(t *testing.T) {
		deps := setupLoginFormTest(t)
		transition := models.LoggedIn("u1", models.AuthProviderDefault, "tok", nil)
		deps.auth.On("LoginWithUsername", mock.Anything, "ab1", "pw").
			Return(&models.AuthResult{Outcome: models.OutcomeLoggedIn, Transition: transition}, nil).Once()
		deps.sessions.On("Apply", mock.Anything, transition).Return(&models.Session{SubjectID: "u1"}, nil).Once()

		_, err := deps.form.Submit(ctx, "ab1", "pw")

		require.NoError(t, err)
		deps.auth.AssertNotCalled(t, "LoginWithEmail", mock.Anything, mock.Anything, mock.Anything)
		deps.auth.AssertExpectations(t)
	})

	t.Run("Empty fields fail validation without calling the orchestrator", func(t *testing.T) {
		deps := setupLoginFormTest(t)

		_, err := deps.form.Submit(ctx, "", "pw")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "identifier")

		_, err = deps.form.Submit(ctx, "a@x.com", "")
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "password")

		assert.Equal(t, 0, deps.form.Attempts())
		deps.auth.AssertNotCalled(t, "LoginWithEmail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failures are counted", func(t *testing.T) {
		deps := setupLoginFormTest(t)
		deps.auth.On("LoginWithEmail", mock.Anything, "a@x.com", "bad").Return(nil, errLoginRejected)

		for i := 1; i <= 3; i++ {
			_, err := deps.form.Submit(ctx, "a@x.com", "bad")
			assert.Equal(t, models.ErrorKindExternalRejection, models.KindOf(err))
			assert.Equal(t, i, deps.form.Attempts())
		}

		_, err := deps.cooldowns.GetCooldown(ctx)
		assert.ErrorIs(t, err, repository.ErrCooldownNotFound)
	})

	t.Run("Session apply failure is reported", func(t *testing.T) {
		deps := setupLoginFormTest(t)
		transition := models.LoggedIn("u1", models.AuthProviderDefault, "tok", nil)
		deps.auth.On("LoginWithEmail", mock.Anything, "a@x.com", "pw").
			Return(&models.AuthResult{Outcome: models.OutcomeLoggedIn, Transition: transition}, nil).Once()
		deps.sessions.On("Apply", mock.Anything, transition).Return(nil, errors.New("disk full")).Once()

		_, err := deps.form.Submit(ctx, "a@x.com", "pw")

		assert.ErrorContains(t, err, "failed to apply login")
		assert.Equal(t, 0, deps.form.Attempts())
	})
}

func TestLoginForm_Cooldown(t *testing.T) {
	ctx := context.Background()

	t.Run("Fourth failure blocks login for the cooldown period", func(t *testing.T) {
		deps := setupLoginFormTest(t)
		deps.auth.On("LoginWithEmail", mock.Anything, "a@x.com", "bad").Return(nil, errLoginRejected).Times(4)

		for i := 0; i < 4; i++ {
			_, _ = deps.form.Submit(ctx, "a@x.com", "bad")
		}
		t0 := *deps.clock

		expiresAt, err := deps.cooldowns.GetCooldown(ctx)
		require.NoError(t, err)
		assert.True(t, expiresAt.Equal(t0.Add(30*time.Minute)))

		deps.advance(29 * time.Minute)
		assert.False(t, deps.form.CanSubmit(ctx))

		_, err = deps.form.Submit(ctx, "a@x.com", "good")

		assert.ErrorIs(t, err, ErrCooldownActive)
		deps.auth.AssertNumberOfCalls(t, "LoginWithEmail", 4)
		deps.notifier.AssertCalled(t, "Notify", mock.Anything, models.Notification{
			Template: models.NotifyCooldownActive,
			Params:   map[string]any{"minutes": 1},
		})

		deps.advance(2 * time.Minute)
		transition := models.LoggedIn("u1", models.AuthProviderDefault, "tok", nil)
		deps.auth.On("LoginWithEmail", mock.Anything, "a@x.com", "good").
			Return(&models.AuthResult{Outcome: models.OutcomeLoggedIn, Transition: transition}, nil).Once()
		deps.sessions.On("Apply", mock.Anything, transition).Return(&models.Session{SubjectID: "u1"}, nil).Once()

		assert.True(t, deps.form.CanSubmit(ctx))
		_, err = deps.form.Submit(ctx, "a@x.com", "good")

		require.NoError(t, err)
		_, err = deps.cooldowns.GetCooldown(ctx)
		assert.ErrorIs(t, err, repository.ErrCooldownNotFound)
	})

	t.Run("Remaining minutes round up", func(t *testing.T) {
		deps := setupLoginFormTest(t)
		require.NoError(t, deps.cooldowns.SetCooldown(ctx, deps.clock.Add(90*time.Second)))

		_, err := deps.form.Submit(ctx, "ab1", "pw")

		assert.ErrorIs(t, err, ErrCooldownActive)
		assert.ErrorContains(t, err, "2 minutes remaining")
		deps.auth.AssertNotCalled(t, "LoginWithUsername", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Attempt counter survives the cooldown", func(t *testing.T) {
		deps := setupLoginFormTest(t)
		deps.auth.On("LoginWithEmail", mock.Anything, "a@x.com", "bad").Return(nil, errLoginRejected)

		for i := 0; i < 4; i++ {
			_, _ = deps.form.Submit(ctx, "a@x.com", "bad")
		}
		deps.advance(31 * time.Minute)

		_, _ = deps.form.Submit(ctx, "a@x.com", "bad")

		assert.Equal(t, 5, deps.form.Attempts())
		expiresAt, err := deps.cooldowns.GetCooldown(ctx)
		require.NoError(t, err)
		assert.True(t, expiresAt.Equal(deps.clock.Add(30*time.Minute)))
	})

	t.Run("Reset clears the counter but not the cooldown", func(t *testing.T) {
		deps := setupLoginFormTest(t)
		deps.auth.On("LoginWithEmail", mock.Anything, "a@x.com", "bad").Return(nil, errLoginRejected)
		for i := 0; i < 4; i++ {
			_, _ = deps.form.Submit(ctx, "a@x.com", "bad")
		}

		deps.form.Reset()

		assert.Equal(t, 0, deps.form.Attempts())
		remaining, err := deps.form.CooldownRemaining(ctx)
		require.NoError(t, err)
		assert.Equal(t, 30*time.Minute, remaining)
	})

	t.Run("Unreadable cooldown store allows submission", func(t *testing.T) {
		deps := setupLoginFormTest(t)
		cooldowns := new(mocks.MockCooldownRepository)
		cooldowns.On("GetCooldown", mock.Anything).Return(time.Time{}, errors.New("store offline"))
		deps.form.cooldowns = cooldowns
		transition := models.LoggedIn("u1", models.AuthProviderDefault, "tok", nil)
		deps.auth.On("LoginWithEmail", mock.Anything, "a@x.com", "pw").
			Return(&models.AuthResult{Outcome: models.OutcomeLoggedIn, Transition: transition}, nil).Once()
		deps.sessions.On("Apply", mock.Anything, transition).Return(&models.Session{SubjectID: "u1"}, nil).Once()

		assert.True(t, deps.form.CanSubmit(ctx))
		_, err := deps.form.Submit(ctx, "a@x.com", "pw")

		require.NoError(t, err)
	})

	t.Run("Corrupt cooldown value is cleared on read", func(t *testing.T) {
		deps := setupLoginFormTest(t)
		db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "cooldown.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		_, err = db.ExecContext(ctx, `INSERT INTO metadata (key, value) VALUES (?, ?)`, repository.CooldownKey, "soon")
		require.NoError(t, err)
		deps.cooldowns = sqlite.NewSQLiteCooldownRepository(db)
		deps.form.cooldowns = deps.cooldowns

		remaining, err := deps.form.CooldownRemaining(ctx)

		require.NoError(t, err)
		assert.Zero(t, remaining)
		_, err = deps.cooldowns.GetCooldown(ctx)
		assert.ErrorIs(t, err, repository.ErrCooldownNotFound)
		assert.True(t, deps.form.CanSubmit(ctx))
	})

	t.Run("Corrupt cooldown that cannot be cleared is reported", func(t *testing.T) {
		deps := setupLoginFormTest(t)
		cooldowns := new(mocks.MockCooldownRepository)
		cooldowns.On("GetCooldown", mock.Anything).
			Return(time.Time{}, fmt.Errorf("parse: %w", repository.ErrCooldownCorrupt)).Once()
		cooldowns.On("ClearCooldown", mock.Anything).Return(errors.New("read-only")).Once()
		deps.form.cooldowns = cooldowns

		_, err := deps.form.CooldownRemaining(ctx)

		assert.ErrorContains(t, err, "failed to clear corrupt cooldown")
		cooldowns.AssertExpectations(t)
	})
}

func TestLoginForm_InFlight(t *testing.T) {
	ctx := context.Background()
	deps := setupLoginFormTest(t)
	started := make(chan struct{})
	release := make(chan struct{})
	transition := models.LoggedIn("u1", models.AuthProviderDefault, "tok", nil)
	deps.auth.On("LoginWithEmail", mock.Anything, "a@x.com", "pw").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&models.AuthResult{Outcome: models.OutcomeLoggedIn, Transition: transition}, nil).Once()
	deps.sessions.On("Apply", mock.Anything, transition).Return(&models.Session{SubjectID: "u1"}, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := deps.form.Submit(ctx, "a@x.com", "pw")
		done <- err
	}()
	<-started

	assert.False(t, deps.form.CanSubmit(ctx))
	_, err := deps.form.Submit(ctx, "a@x.com", "pw")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(release)
	require.NoError(t, <-done)
	deps.auth.AssertNumberOfCalls(t, "LoginWithEmail", 1)
}
