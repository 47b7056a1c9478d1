package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/config"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/logger"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
)

// ErrSubmissionInFlight is returned when a form is submitted while its
// previous submission has not finished.
var ErrSubmissionInFlight = errors.New("a submission is already in flight")

// LoginForm applies the attempt and cooldown policy in front of the
// orchestrator. The attempt counter lives only as long as the form; the
// cooldown expiration is durable.
type LoginForm struct {
	auth        Authenticator
	sessions    SessionApplier
	cooldowns   repository.CooldownRepository
	notifier    Notifier
	maxAttempts int
	cooldown    time.Duration
	now         func() time.Time
	log         zerolog.Logger

	mu       sync.Mutex
	attempts int
	inFlight bool
}

func NewLoginForm(
	auth Authenticator,
	sessions SessionApplier,
	cooldowns repository.CooldownRepository,
	notifier Notifier,
	policy config.LoginPolicyConfig,
) *LoginForm {
	return &LoginForm{
		auth:        auth,
		sessions:    sessions,
		cooldowns:   cooldowns,
		notifier:    notifier,
		maxAttempts: policy.MaxAttempts,
		cooldown:    policy.Cooldown,
		now:         time.Now,
		log:         logger.Component("login_form"),
	}
}

// Attempts returns the number of failed submissions since the form was mounted.
func (f *LoginForm) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

// Reset models a remount of the form.
func (f *LoginForm) Reset() {
	f.mu.Lock()
	f.attempts = 0
	f.mu.Unlock()
}

// CooldownRemaining returns how long login stays blocked. An expired
// cooldown is cleared as a side effect of reading it.
func (f *LoginForm) CooldownRemaining(ctx context.Context) (time.Duration, error) {
	expiresAt, err := f.cooldowns.GetCooldown(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrCooldownNotFound) {
			return 0, nil
		}
		if errors.Is(err, repository.ErrCooldownCorrupt) {
			f.log.Warn().Err(err).Msg("Clearing unreadable login cooldown")
			if err := f.cooldowns.ClearCooldown(ctx); err != nil {
				return 0, fmt.Errorf("failed to clear corrupt cooldown: %w", err)
			}
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cooldown: %w", err)
	}

	now := f.now()
	if !now.Before(expiresAt) {
		if err := f.cooldowns.ClearCooldown(ctx); err != nil {
			return 0, fmt.Errorf("failed to clear expired cooldown: %w", err)
		}
		f.log.Info().Time("expiredAt", expiresAt).Msg("Login cooldown expired")
		return 0, nil
	}
	return expiresAt.Sub(now), nil
}

// CanSubmit reports whether the submit control should be enabled.
func (f *LoginForm) CanSubmit(ctx context.Context) bool {
	f.mu.Lock()
	inFlight := f.inFlight
	f.mu.Unlock()
	if inFlight {
		return false
	}
	remaining, err := f.CooldownRemaining(ctx)
	if err != nil {
		f.log.Warn().Err(err).Msg("Cooldown unreadable, allowing submission")
		return true
	}
	return remaining == 0
}

// Submit logs in with an email or a username. Identifiers containing "@" are
// treated as emails. During a cooldown the orchestrator is not called.
func (f *LoginForm) Submit(ctx context.Context, identifier, password string) (*models.Session, error) {
	if err := validate.Var(identifier, "required"); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"identifier": "required"}}
	}
	if err := validate.Var(password, "required"); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"password": "required"}}
	}

	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	f.inFlight = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight = false
		f.mu.Unlock()
	}()

	remaining, err := f.CooldownRemaining(ctx)
	if err != nil {
		f.log.Warn().Err(err).Msg("Cooldown unreadable, allowing submission")
	}
	if remaining > 0 {
		minutes := int(math.Ceil(remaining.Minutes()))
		f.notifier.Notify(ctx, models.Notification{
			Template: models.NotifyCooldownActive,
			Params:   map[string]any{"minutes": minutes},
		})
		return nil, fmt.Errorf("%w: %d minutes remaining", ErrCooldownActive, minutes)
	}

	var result *models.AuthResult
	if strings.Contains(identifier, "@") {
		result, err = f.auth.LoginWithEmail(ctx, identifier, password)
	} else {
		result, err = f.auth.LoginWithUsername(ctx, identifier, password)
	}
	if err != nil {
		f.recordFailure(ctx)
		return nil, err
	}

	session, err := f.sessions.Apply(ctx, result.Transition)
	if err != nil {
		return nil, fmt.Errorf("failed to apply login: %w", err)
	}
	return session, nil
}

func (f *LoginForm) recordFailure(ctx context.Context) {
	f.mu.Lock()
	f.attempts++
	attempts := f.attempts
	f.mu.Unlock()

	if attempts < f.maxAttempts {
		return
	}
	expiresAt := f.now().Add(f.cooldown)
	if err := f.cooldowns.SetCooldown(ctx, expiresAt); err != nil {
		f.log.Error().Err(err).Int("attempts", attempts).Msg("Failed to store login cooldown")
		return
	}
	f.log.Warn().Int("attempts", attempts).Time("expiresAt", expiresAt).Msg("Login cooldown started")
}
