package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/logger"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
)

// SignUpForm validates registration input and drives account creation. One
// idempotency key is kept per form instance so resubmits after a timeout do
// not create a second credential.
type SignUpForm struct {
	accounts AccountCreator
	registry UserRegistry
	sessions SessionApplier
	log      zerolog.Logger

	mu             sync.Mutex
	idempotencyKey string
	inFlight       bool
}

func NewSignUpForm(accounts AccountCreator, registry UserRegistry, sessions SessionApplier) *SignUpForm {
	return &SignUpForm{
		accounts:       accounts,
		registry:       registry,
		sessions:       sessions,
		log:            logger.Component("signup_form"),
		idempotencyKey: uuid.NewString(),
	}
}

// IdempotencyKey returns the key the next submission will carry.
func (f *SignUpForm) IdempotencyKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idempotencyKey
}

// Validate checks formats only. Uniqueness is the registry's call.
func (f *SignUpForm) Validate(profile models.Profile, credentials models.Credentials) error {
	return validateStructs(profile, credentials)
}

// CheckAvailability is an advisory pre-check of email and username. Lookup
// errors are logged and treated as available.
func (f *SignUpForm) CheckAvailability(ctx context.Context, email, username string) error {
	fields := make(map[string]string)
	if email != "" {
		taken, err := f.registry.DoesEmailExist(ctx, email)
		if err != nil {
			f.log.Warn().Err(err).Str("email", email).Msg("Email availability check failed")
		} else if taken {
			fields["email"] = "taken"
		}
	}
	if username != "" {
		taken, err := f.registry.DoesUsernameExist(ctx, username)
		if err != nil {
			f.log.Warn().Err(err).Str("username", username).Msg("Username availability check failed")
		} else if taken {
			fields["username"] = "taken"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Submit creates an email/password account and applies the resulting login.
func (f *SignUpForm) Submit(ctx context.Context, profile models.Profile, credentials models.Credentials) (*models.ApplicationUser, *models.Session, error) {
	if err := f.Validate(profile, credentials); err != nil {
		return nil, nil, err
	}
	if err := f.CheckAvailability(ctx, credentials.Email, profile.Username); err != nil {
		return nil, nil, err
	}

	release, err := f.begin()
	if err != nil {
		return nil, nil, err
	}
	defer release()

	profile.IdempotencyKey = f.IdempotencyKey()
	result, err := f.accounts.CreateAccount(ctx, profile, credentials)
	if err != nil {
		return nil, nil, err
	}
	return f.complete(ctx, result)
}

// SubmitWithProvider registers through an OAuth provider, using the form
// fields as registration hints.
func (f *SignUpForm) SubmitWithProvider(ctx context.Context, provider models.AuthProvider, hints models.ProfileHints) (*models.ApplicationUser, *models.Session, error) {
	if hints.Username != "" {
		if err := validate.Var(hints.Username, "username"); err != nil {
			return nil, nil, &ValidationError{Fields: map[string]string{"username": "username"}}
		}
		if err := f.CheckAvailability(ctx, "", hints.Username); err != nil {
			return nil, nil, err
		}
	}

	release, err := f.begin()
	if err != nil {
		return nil, nil, err
	}
	defer release()

	result, err := f.accounts.AuthenticateWithProvider(ctx, provider, &hints)
	if err != nil {
		return nil, nil, err
	}
	return f.complete(ctx, result)
}

func (f *SignUpForm) begin() (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return nil, ErrSubmissionInFlight
	}
	f.inFlight = true
	return func() {
		f.mu.Lock()
		f.inFlight = false
		f.mu.Unlock()
	}, nil
}

func (f *SignUpForm) complete(ctx context.Context, result *models.AuthResult) (*models.ApplicationUser, *models.Session, error) {
	f.mu.Lock()
	f.idempotencyKey = uuid.NewString()
	f.mu.Unlock()

	session, err := f.sessions.Apply(ctx, result.Transition)
	if err != nil {
		return result.User, nil, fmt.Errorf("failed to apply login: %w", err)
	}
	return result.User, session, nil
}
