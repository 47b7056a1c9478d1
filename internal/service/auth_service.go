package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/logger"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
)

var (
	_ Authenticator  = (*AuthService)(nil)
	_ AccountCreator = (*AuthService)(nil)
)

// AuthService keeps the identity service and the user registry consistent
// across account creation, login and sign-out. It never writes the session;
// every successful result carries the transition for the session reducer.
//
// Calls are strictly sequential and not safe to run concurrently for the same
// user; callers gate submission while a call is in flight.
type AuthService struct {
	credentials CredentialProvider
	registry    UserRegistry
	notifier    Notifier
	analytics   AnalyticsSink
	orphans     repository.OrphanRepository
	log         zerolog.Logger
	now         func() time.Time
}

func NewAuthService(
	credentials CredentialProvider,
	registry UserRegistry,
	notifier Notifier,
	analytics AnalyticsSink,
	orphans repository.OrphanRepository,
) *AuthService {
	return &AuthService{
		credentials: credentials,
		registry:    registry,
		notifier:    notifier,
		analytics:   analytics,
		orphans:     orphans,
		log:         logger.Component("auth_service"),
		now:         time.Now,
	}
}

// CreateAccount creates a credential and then the matching ApplicationUser.
// When the registry rejects the user the credential is deleted again and an
// InvariantViolation is returned.
func (s *AuthService) CreateAccount(ctx context.Context, profile models.Profile, credentials models.Credentials) (*models.AuthResult, error) {
	const op = "CreateAccount"

	idempotencyKey := profile.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	credential, err := s.credentials.CreateCredential(ctx, credentials.Email, credentials.Password, idempotencyKey)
	if err == nil && credential == nil {
		err = ErrCredentialRejected
	}
	if err != nil {
		s.log.Warn().Err(err).Str("email", credentials.Email).Msg("Credential creation rejected")
		s.notify(ctx, models.NotifyAccountCreationFailed, map[string]any{"email": credentials.Email})
		s.track(ctx, models.EventAccountCreationFailed, "", map[string]any{
			"email":    credentials.Email,
			"provider": string(models.AuthProviderDefault),
			"stage":    "credential",
		})
		return nil, models.NewAuthError(models.ErrorKindExternalRejection, op, err)
	}

	user, err := s.registerUser(ctx, op, credential, models.CreateUserInput{
		SubjectID:            credential.SubjectID,
		Email:                credentials.Email,
		Username:             profile.Username,
		FirstName:            profile.FirstName,
		LastName:             profile.LastName,
		AuthProvider:         models.AuthProviderDefault,
		ExternalReferralCode: profile.ExternalReferralCode,
	})
	if err != nil {
		return nil, err
	}

	return &models.AuthResult{
		Outcome:    models.OutcomeLoggedIn,
		User:       user,
		Transition: models.LoggedIn(credential.SubjectID, models.AuthProviderDefault, credential.Token, user),
	}, nil
}

// AuthenticateWithProvider runs the provider flow and then decides whether
// the identity belongs to a returning user, a user registering through the
// sign-up form, or nobody yet.
func (s *AuthService) AuthenticateWithProvider(ctx context.Context, provider models.AuthProvider, hints *models.ProfileHints) (*models.AuthResult, error) {
	const op = "AuthenticateWithProvider"

	if !provider.IsOAuth() {
		s.notify(ctx, models.NotifyProviderAuthFailed, map[string]any{"provider": string(provider)})
		return nil, models.NewAuthError(models.ErrorKindExternalRejection, op, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider))
	}

	identity, err := s.credentials.BeginProviderFlow(ctx, provider)
	if err != nil || !identity.Complete() {
		s.log.Warn().Err(err).Str("provider", string(provider)).Msg("Provider flow yielded no usable identity")
		s.notify(ctx, models.NotifyProviderAuthFailed, map[string]any{"provider": string(provider)})
		s.track(ctx, models.EventProviderAuthFailed, "", map[string]any{"provider": string(provider)})
		return &models.AuthResult{Outcome: models.OutcomeInsufficientParams},
			models.NewAuthError(models.ErrorKindIncompleteIdentity, op, err)
	}

	existing, err := s.registry.GetUserByEmail(ctx, identity.Email)
	if err != nil {
		// The credential may belong to an existing user, so it is left alone.
		s.log.Error().Err(err).Str("provider", string(provider)).Str("email", identity.Email).Msg("User lookup failed after provider flow")
		s.notify(ctx, models.NotifyProviderAuthFailed, map[string]any{"provider": string(provider)})
		s.track(ctx, models.EventProviderAuthFailed, identity.SubjectID, map[string]any{"provider": string(provider), "stage": "lookup"})
		return nil, models.NewAuthError(models.ErrorKindExternalRejection, op, err)
	}

	if existing != nil {
		originalProvider := existing.AuthProvider
		if originalProvider == "" {
			originalProvider = provider
		}
		s.log.Info().Str("subjectId", identity.SubjectID).Str("provider", string(provider)).Str("registeredWith", string(originalProvider)).Msg("Returning user logged in with provider")
		s.track(ctx, models.EventLoginSucceeded, identity.SubjectID, map[string]any{"provider": string(provider)})
		return &models.AuthResult{
			Outcome:    models.OutcomeLoggedIn,
			User:       existing,
			Transition: models.LoggedIn(identity.SubjectID, originalProvider, identity.Credential.Token, existing),
		}, nil
	}

	if input, ok := registrationInput(provider, identity, hints); ok {
		user, err := s.registerUser(ctx, op, identity.Credential, input)
		if err != nil {
			return nil, err
		}
		return &models.AuthResult{
			Outcome:    models.OutcomeLoggedIn,
			User:       user,
			Transition: models.LoggedIn(identity.SubjectID, provider, identity.Credential.Token, user),
		}, nil
	}

	s.log.Info().Str("provider", string(provider)).Str("email", identity.Email).Msg("New provider identity without registration data")
	s.compensate(ctx, identity.Credential, "provider identity has no application user")
	s.notify(ctx, models.NotifyAccountCreationNeeded, map[string]any{
		"provider": string(provider),
		"email":    identity.Email,
	})
	return &models.AuthResult{Outcome: models.OutcomeNotFound},
		models.NewAuthError(models.ErrorKindNotRegistered, op, nil)
}

// registrationInput builds the user record for a new provider identity. It
// needs a username from the hints and both names from the hints or the
// provider display name.
func registrationInput(provider models.AuthProvider, identity *models.ProviderIdentity, hints *models.ProfileHints) (models.CreateUserInput, bool) {
	if hints == nil || hints.Username == "" {
		return models.CreateUserInput{}, false
	}
	firstName := hints.FirstName
	if firstName == "" {
		firstName = identity.FirstName()
	}
	lastName := hints.LastName
	if lastName == "" {
		lastName = identity.LastName()
	}
	if firstName == "" || lastName == "" {
		return models.CreateUserInput{}, false
	}
	return models.CreateUserInput{
		SubjectID:            identity.SubjectID,
		Email:                identity.Email,
		Username:             hints.Username,
		FirstName:            firstName,
		LastName:             lastName,
		AuthProvider:         provider,
		ExternalReferralCode: hints.ExternalReferralCode,
	}, true
}

// LoginWithEmail verifies the password. It does not count attempts; the login
// form does.
func (s *AuthService) LoginWithEmail(ctx context.Context, email, password string) (*models.AuthResult, error) {
	const op = "LoginWithEmail"

	credential, err := s.credentials.VerifyCredential(ctx, email, password)
	if err == nil && credential == nil {
		err = ErrCredentialRejected
	}
	if err != nil {
		s.log.Info().Err(err).Str("email", email).Msg("Login rejected")
		s.notify(ctx, models.NotifyLoginFailed, nil)
		s.track(ctx, models.EventLoginFailed, "", map[string]any{"method": "email"})
		return nil, models.NewAuthError(models.ErrorKindExternalRejection, op, err)
	}

	s.track(ctx, models.EventLoginSucceeded, credential.SubjectID, map[string]any{"provider": string(models.AuthProviderDefault)})
	return &models.AuthResult{
		Outcome:    models.OutcomeLoggedIn,
		Transition: models.LoggedIn(credential.SubjectID, models.AuthProviderDefault, credential.Token, nil),
	}, nil
}

// LoginWithUsername resolves the username to its email and delegates to
// LoginWithEmail. An unknown username never reaches the identity service.
func (s *AuthService) LoginWithUsername(ctx context.Context, username, password string) (*models.AuthResult, error) {
	const op = "LoginWithUsername"

	email, err := s.registry.GetEmailForUsername(ctx, username)
	if err == nil && email == "" {
		err = ErrUserNotFound
	}
	if errors.Is(err, ErrUserNotFound) {
		s.log.Warn().Str("username", username).Msg("No email mapped to username")
		s.notify(ctx, models.NotifyUsernameNotFound, map[string]any{"username": username})
		s.track(ctx, models.EventLoginFailed, "", map[string]any{"method": "username", "reason": "username_not_found"})
		return nil, models.NewAuthError(models.ErrorKindExternalRejection, op, err)
	}
	if err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("Failed to resolve username")
		s.notify(ctx, models.NotifyLoginFailed, nil)
		s.track(ctx, models.EventLoginFailed, "", map[string]any{"method": "username", "reason": "registry_unavailable"})
		return nil, models.NewAuthError(models.ErrorKindExternalRejection, op, fmt.Errorf("failed to resolve username: %w", err))
	}
	return s.LoginWithEmail(ctx, email, password)
}

// SignOut always returns the SignedOut transition. A remote failure is
// reported alongside it.
func (s *AuthService) SignOut(ctx context.Context) (*models.AuthResult, error) {
	result := &models.AuthResult{Transition: models.SignedOut()}
	s.track(ctx, models.EventSignedOut, "", nil)

	if err := s.credentials.SignOut(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Remote sign-out failed, clearing local session anyway")
		s.notify(ctx, models.NotifySignOutFailed, nil)
		return result, models.NewAuthError(models.ErrorKindExternalRejection, "SignOut", err)
	}
	return result, nil
}

// SendResetPasswordEmailLink asks the identity service for a reset email.
func (s *AuthService) SendResetPasswordEmailLink(ctx context.Context, email string) bool {
	if s.credentials.SendPasswordResetEmail(ctx, email) {
		s.notify(ctx, models.NotifyPasswordResetSent, map[string]any{"email": email})
		return true
	}
	s.notify(ctx, models.NotifyPasswordResetFailed, map[string]any{"email": email})
	return false
}

// registerUser creates the ApplicationUser for credential and compensates
// when the registry does not return one.
func (s *AuthService) registerUser(ctx context.Context, op string, credential *models.Credential, input models.CreateUserInput) (*models.ApplicationUser, error) {
	user, err := s.registry.CreateUser(ctx, input)
	if err == nil && user == nil {
		err = ErrUserRejected
	}
	if err != nil {
		s.log.Error().Err(err).
			Str("subjectId", credential.SubjectID).
			Str("email", input.Email).
			Str("provider", string(input.AuthProvider)).
			Msg("User registry rejected user after credential was created")
		s.compensate(ctx, credential, "user registry rejected user")
		s.notify(ctx, models.NotifyAccountCreationFailed, map[string]any{"email": input.Email})
		s.track(ctx, models.EventAccountCreationFailed, credential.SubjectID, map[string]any{
			"email":    input.Email,
			"provider": string(input.AuthProvider),
			"stage":    "registry",
		})
		return nil, models.NewAuthError(models.ErrorKindInvariantViolation, op,
			fmt.Errorf("credential %s created but user was not: %w", credential.SubjectID, err))
	}

	s.identify(ctx, user)
	s.track(ctx, models.EventUserCreated, user.SubjectID, map[string]any{"provider": string(user.AuthProvider)})
	s.log.Info().Str("subjectId", user.SubjectID).Str("provider", string(user.AuthProvider)).Msg("Account created")
	return user, nil
}

// compensate deletes a credential that has no application user. A failed
// delete is queued for the reconciler.
func (s *AuthService) compensate(ctx context.Context, credential *models.Credential, reason string) {
	err := s.credentials.DeleteCredential(ctx, credential)
	if err == nil {
		s.log.Info().Str("subjectId", credential.SubjectID).Str("reason", reason).Msg("Credential compensated")
		s.track(ctx, models.EventCredentialCompensated, credential.SubjectID, map[string]any{"reason": reason})
		return
	}

	s.log.Error().Err(err).Str("subjectId", credential.SubjectID).Str("reason", reason).Msg("Compensating delete failed, queueing orphaned credential")
	s.track(ctx, models.EventCompensationFailed, credential.SubjectID, map[string]any{"reason": reason})
	orphan := &models.OrphanCredential{
		ID:        uuid.NewString(),
		SubjectID: credential.SubjectID,
		Email:     credential.Email,
		Token:     credential.Token,
		Reason:    fmt.Sprintf("%s: %v", reason, err),
		CreatedAt: s.now().UTC(),
	}
	if err := s.orphans.EnqueueOrphan(ctx, orphan); err != nil {
		s.log.Error().Err(err).Str("subjectId", credential.SubjectID).Msg("Orphaned credential could not be queued")
	}
}

func (s *AuthService) notify(ctx context.Context, template models.NotificationTemplate, params map[string]any) {
	s.notifier.Notify(ctx, models.Notification{Template: template, Params: params})
}

func (s *AuthService) track(ctx context.Context, event, subjectID string, properties map[string]any) {
	s.analytics.Track(ctx, event, subjectID, properties)
}

func (s *AuthService) identify(ctx context.Context, user *models.ApplicationUser) {
	s.analytics.Identify(ctx, user.SubjectID, map[string]any{
		"email":    user.Email,
		"username": user.Username,
		"provider": string(user.AuthProvider),
	})
}
