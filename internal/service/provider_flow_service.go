package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/logger"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
)

var _ ProviderAuthorizer = (*ProviderFlowService)(nil)

// ProviderFlowService drives the browser part of an OAuth login: it opens the
// provider page, waits for the loopback redirect and verifies the ID token.
type ProviderFlowService struct {
	providers   map[models.AuthProvider]OAuthProvider
	states      repository.StateRepository
	receiver    CallbackReceiver
	opener      BrowserOpener
	stateExpiry time.Duration
	log         zerolog.Logger
}

func NewProviderFlowService(
	providers map[models.AuthProvider]OAuthProvider,
	states repository.StateRepository,
	receiver CallbackReceiver,
	opener BrowserOpener,
	stateExpiry time.Duration,
) *ProviderFlowService {
	if stateExpiry <= 0 {
		stateExpiry = 10 * time.Minute
	}
	return &ProviderFlowService{
		providers:   providers,
		states:      states,
		receiver:    receiver,
		opener:      opener,
		stateExpiry: stateExpiry,
		log:         logger.Component("provider_flow"),
	}
}

// Authorize runs one authorization code flow with PKCE against provider.
func (s *ProviderFlowService) Authorize(ctx context.Context, provider models.AuthProvider) (*models.VerifiedIDToken, error) {
	oauthProvider, ok := s.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}

	pending := models.PendingAuthState{
		State:        uuid.NewString(),
		Provider:     provider,
		CodeVerifier: oauth2.GenerateVerifier(),
		Expiry:       time.Now().Add(s.stateExpiry),
	}
	if err := s.states.StoreAuthState(ctx, pending); err != nil {
		return nil, fmt.Errorf("failed to store auth state: %w", err)
	}
	defer func() {
		if err := s.states.DeleteAuthState(context.WithoutCancel(ctx), pending.State); err != nil {
			s.log.Warn().Err(err).Str("state", pending.State).Msg("Failed to delete auth state")
		}
	}()

	// registered before the browser opens; the redirect can beat WaitForCode
	if err := s.receiver.Expect(pending.State); err != nil {
		return nil, fmt.Errorf("failed to register callback: %w", err)
	}
	defer s.receiver.Forget(pending.State)

	redirectURL := s.receiver.RedirectURL()
	authURL, err := oauthProvider.GetAuthCodeURL(ctx, pending.State, redirectURL, pending.CodeVerifier)
	if err != nil {
		return nil, fmt.Errorf("failed to build auth URL: %w", err)
	}
	if err := s.opener.Open(ctx, authURL); err != nil {
		return nil, fmt.Errorf("failed to open auth URL: %w", err)
	}
	s.log.Info().Str("provider", string(provider)).Msg("Waiting for OAuth redirect")

	waitCtx, cancel := context.WithDeadline(ctx, pending.Expiry)
	defer cancel()
	code, err := s.receiver.WaitForCode(waitCtx, pending.State)
	if err != nil {
		return nil, fmt.Errorf("failed to receive authorization code: %w", err)
	}

	stored, err := s.states.GetAuthState(ctx, pending.State)
	if err != nil {
		if errors.Is(err, repository.ErrStateNotFound) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("failed to load auth state: %w", err)
	}
	if stored.Provider != provider {
		return nil, ErrInvalidState
	}

	token, err := oauthProvider.ExchangeCode(ctx, code, redirectURL, stored.CodeVerifier)
	if err != nil {
		return nil, err
	}
	verified, err := oauthProvider.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("provider", string(provider)).Str("subject", verified.Subject).Msg("Provider authorization completed")
	return verified, nil
}
