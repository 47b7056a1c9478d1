package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/config"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
)

var _ OAuthProvider = (*OAuthService)(nil)

// OAuthService handles interactions with one OIDC provider using the
// authorization code flow with PKCE.
type OAuthService struct {
	provider   models.AuthProvider
	cfg        config.OAuthProviderConfig
	httpClient *http.Client

	mu       sync.Mutex
	endpoint *oauth2.Endpoint
	verifier *oidc.IDTokenVerifier
}

type OAuthOption func(*OAuthService)

// WithIDTokenVerifier replaces issuer discovery for ID token verification.
func WithIDTokenVerifier(verifier *oidc.IDTokenVerifier) OAuthOption {
	return func(s *OAuthService) { s.verifier = verifier }
}

func WithOAuthHTTPClient(client *http.Client) OAuthOption {
	return func(s *OAuthService) { s.httpClient = client }
}

// NewOAuthService creates a new instance of OAuthService
func NewOAuthService(provider models.AuthProvider, cfg config.OAuthProviderConfig, opts ...OAuthOption) *OAuthService {
	s := &OAuthService{
		provider:   provider,
		cfg:        cfg,
		httpClient: http.DefaultClient,
	}
	if cfg.AuthURL != "" && cfg.TokenURL != "" {
		s.endpoint = &oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	} else if provider == models.AuthProviderMicrosoft {
		endpoint := microsoft.AzureADEndpoint("consumers")
		s.endpoint = &endpoint
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOAuthProviders builds one OAuthService per configured provider.
func NewOAuthProviders(cfg *config.Config, httpClient *http.Client) map[models.AuthProvider]OAuthProvider {
	providers := make(map[models.AuthProvider]OAuthProvider, len(cfg.OAuth.Providers))
	for name, providerCfg := range cfg.OAuth.Providers {
		provider := models.AuthProvider(name)
		providers[provider] = NewOAuthService(provider, providerCfg, WithOAuthHTTPClient(httpClient))
	}
	return providers
}

func (s *OAuthService) Name() models.AuthProvider {
	return s.provider
}

// GetAuthCodeURL generates the provider login URL carrying the S256 challenge
// of codeVerifier.
func (s *OAuthService) GetAuthCodeURL(ctx context.Context, state, redirectURL, codeVerifier string) (string, error) {
	oauthCfg, err := s.oauthConfig(ctx, redirectURL)
	if err != nil {
		return "", err
	}
	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(codeVerifier)}
	if s.provider == models.AuthProviderApple {
		// Apple only returns the email scope with a form post.
		opts = append(opts, oauth2.SetAuthURLParam("response_mode", "form_post"))
	}
	return oauthCfg.AuthCodeURL(state, opts...), nil
}

// ExchangeCode exchanges the authorization code for an OAuth2 token
func (s *OAuthService) ExchangeCode(ctx context.Context, code, redirectURL, codeVerifier string) (*oauth2.Token, error) {
	oauthCfg, err := s.oauthConfig(ctx, redirectURL)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := oauthCfg.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		log.Error().Err(err).Str("provider", string(s.provider)).Msg("Error exchanging OAuth code for token")
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	if !token.Valid() {
		log.Warn().Str("provider", string(s.provider)).Msg("Received invalid OAuth token after exchange")
		return nil, errors.New("received invalid token")
	}
	log.Info().Str("provider", string(s.provider)).Int("accessTokenLength", len(token.AccessToken)).Msg("OAuth token obtained successfully")
	return token, nil
}

// VerifyIDToken checks the id_token returned with the OAuth2 token.
func (s *OAuthService) VerifyIDToken(ctx context.Context, token *oauth2.Token) (*models.VerifiedIDToken, error) {
	if token == nil {
		return nil, errors.New("oauth token is nil")
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		log.Warn().Str("provider", string(s.provider)).Msg("ID token missing from OAuth token response")
		return nil, errors.New("id_token missing from response")
	}

	verifier, err := s.idTokenVerifier(ctx)
	if err != nil {
		return nil, err
	}
	idToken, err := verifier.Verify(oidc.ClientContext(ctx, s.httpClient), rawIDToken)
	if err != nil {
		log.Warn().Err(err).Str("provider", string(s.provider)).Msg("Failed to verify ID token")
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified any    `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode ID token claims: %w", err)
	}

	log.Info().Str("issuer", idToken.Issuer).Str("subject", idToken.Subject).Msg("ID Token Verified Successfully")
	return &models.VerifiedIDToken{
		Provider:      s.provider,
		Raw:           rawIDToken,
		Issuer:        idToken.Issuer,
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified == true || claims.EmailVerified == "true",
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

func (s *OAuthService) oauthConfig(ctx context.Context, redirectURL string) (*oauth2.Config, error) {
	endpoint, err := s.resolveEndpoint(ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     endpoint,
		Scopes:       s.cfg.Scopes,
	}, nil
}

func (s *OAuthService) resolveEndpoint(ctx context.Context) (oauth2.Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endpoint != nil {
		return *s.endpoint, nil
	}
	provider, err := s.discover(ctx)
	if err != nil {
		return oauth2.Endpoint{}, err
	}
	endpoint := provider.Endpoint()
	s.endpoint = &endpoint
	if s.verifier == nil {
		s.verifier = provider.Verifier(&oidc.Config{ClientID: s.cfg.ClientID})
	}
	return endpoint, nil
}

func (s *OAuthService) idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verifier != nil {
		return s.verifier, nil
	}
	provider, err := s.discover(ctx)
	if err != nil {
		return nil, err
	}
	s.verifier = provider.Verifier(&oidc.Config{ClientID: s.cfg.ClientID})
	return s.verifier, nil
}

// discover must be called with s.mu held. The key set outlives the call, so
// discovery runs on a context that is not cancelled with ctx.
func (s *OAuthService) discover(ctx context.Context) (*oidc.Provider, error) {
	discoveryCtx := oidc.ClientContext(context.WithoutCancel(ctx), s.httpClient)
	provider, err := oidc.NewProvider(discoveryCtx, s.cfg.Issuer)
	if err != nil {
		log.Error().Err(err).Str("issuer", s.cfg.Issuer).Msg("Failed to create OIDC provider")
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return provider, nil
}
