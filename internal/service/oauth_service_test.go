package service

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/config"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
)

const (
	testClientID = "test-client-id"
	testIssuer   = "https://issuer.test"
)

// --- Test Setup ---

type oauthTestDeps struct {
	key      *rsa.PrivateKey
	verifier *oidc.IDTokenVerifier
	cfg      config.OAuthProviderConfig
}

func setupOAuthTest(t *testing.T) *oauthTestDeps {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	return &oauthTestDeps{
		key:      key,
		verifier: oidc.NewVerifier(testIssuer, keySet, &oidc.Config{ClientID: testClientID}),
		cfg: config.OAuthProviderConfig{
			ClientID:     testClientID,
			ClientSecret: "test-client-secret",
			Issuer:       testIssuer,
			AuthURL:      "https://issuer.test/authorize",
			TokenURL:     "https://issuer.test/token",
			Scopes:       []string{"openid", "profile", "email"},
		},
	}
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	base := jwt.MapClaims{
		"iss": testIssuer,
		"aud": testClientID,
		"sub": "provider-sub-1",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		base[k] = v
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, base).SignedString(key)
	require.NoError(t, err)
	return signed
}

// --- Test Cases ---

func TestNewOAuthService_MicrosoftDefaultsToConsumersEndpoint(t *testing.T) {
	service := NewOAuthService(models.AuthProviderMicrosoft, config.OAuthProviderConfig{ClientID: testClientID})

	require.NotNil(t, service.endpoint)
	assert.Contains(t, service.endpoint.AuthURL, "/consumers/oauth2/v2.0/authorize")
	assert.Equal(t, models.AuthProviderMicrosoft, service.Name())
}

func TestNewOAuthProviders(t *testing.T) {
	cfg := &config.Config{OAuth: config.OAuthConfig{Providers: map[string]config.OAuthProviderConfig{
		"GOOGLE": {ClientID: "g"},
		"APPLE":  {ClientID: "a"},
	}}}

	providers := NewOAuthProviders(cfg, http.DefaultClient)

	assert.Len(t, providers, 2)
	assert.Equal(t, models.AuthProviderGoogle, providers[models.AuthProviderGoogle].Name())
	assert.Nil(t, providers[models.AuthProviderMicrosoft])
}

func TestGetAuthCodeURL(t *testing.T) {
	deps := setupOAuthTest(t)
	service := NewOAuthService(models.AuthProviderGoogle, deps.cfg)
	verifier := oauth2.GenerateVerifier()

	authURL, err := service.GetAuthCodeURL(context.Background(), "test-state-123", "http://127.0.0.1:8765/oauth/callback", verifier)
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, "https://issuer.test/authorize", parsed.Scheme+"://"+parsed.Host+parsed.Path)
	assert.Equal(t, testClientID, query.Get("client_id"))
	assert.Equal(t, "http://127.0.0.1:8765/oauth/callback", query.Get("redirect_uri"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "openid profile email", query.Get("scope"))
	assert.Equal(t, "test-state-123", query.Get("state"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), query.Get("code_challenge"))
	assert.Empty(t, query.Get("response_mode"))
}

func TestGetAuthCodeURL_AppleUsesFormPost(t *testing.T) {
	deps := setupOAuthTest(t)
	service := NewOAuthService(models.AuthProviderApple, deps.cfg)

	authURL, err := service.GetAuthCodeURL(context.Background(), "s", "http://127.0.0.1/cb", "v")
	require.NoError(t, err)
	assert.Contains(t, authURL, "response_mode=form_post")
}

func TestGetAuthCodeURL_Discovery(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"issuer":%q,"authorization_endpoint":%q,"token_endpoint":%q,"jwks_uri":%q}`,
			server.URL, server.URL+"/auth", server.URL+"/token", server.URL+"/jwks")
	}))
	defer server.Close()

	service := NewOAuthService(models.AuthProviderGoogle, config.OAuthProviderConfig{
		ClientID: testClientID,
		Issuer:   server.URL,
	}, WithOAuthHTTPClient(server.Client()))

	authURL, err := service.GetAuthCodeURL(context.Background(), "state", "http://127.0.0.1/cb", "v")

	require.NoError(t, err)
	assert.Contains(t, authURL, server.URL+"/auth?")
	require.NotNil(t, service.endpoint)
	assert.Equal(t, server.URL+"/token", service.endpoint.TokenURL)
	assert.NotNil(t, service.verifier)
}

func TestGetAuthCodeURL_DiscoveryFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	service := NewOAuthService(models.AuthProviderGoogle, config.OAuthProviderConfig{
		ClientID: testClientID,
		Issuer:   server.URL,
	}, WithOAuthHTTPClient(server.Client()))

	authURL, err := service.GetAuthCodeURL(context.Background(), "state", "http://127.0.0.1/cb", "v")

	assert.Error(t, err)
	assert.Empty(t, authURL)
	assert.Contains(t, err.Error(), "failed to create OIDC provider")
}

func TestExchangeCode_Success(t *testing.T) {
	deps := setupOAuthTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "test-code", r.Form.Get("code"))
		assert.Equal(t, "test_verifier", r.Form.Get("code_verifier"))
		assert.Equal(t, "http://127.0.0.1/cb", r.Form.Get("redirect_uri"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"access_token":"test_access_token","token_type":"Bearer","expires_in":3600,"id_token":"mock_id_token"}`)
	}))
	defer server.Close()

	deps.cfg.TokenURL = server.URL
	service := NewOAuthService(models.AuthProviderGoogle, deps.cfg, WithOAuthHTTPClient(server.Client()))

	token, err := service.ExchangeCode(context.Background(), "test-code", "http://127.0.0.1/cb", "test_verifier")

	require.NoError(t, err)
	assert.Equal(t, "test_access_token", token.AccessToken)
	assert.Equal(t, "mock_id_token", token.Extra("id_token"))
	assert.True(t, token.Valid())
}

func TestExchangeCode_Failure(t *testing.T) {
	deps := setupOAuthTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(w, `{"error":"invalid_grant"}`)
	}))
	defer server.Close()

	deps.cfg.TokenURL = server.URL
	service := NewOAuthService(models.AuthProviderGoogle, deps.cfg, WithOAuthHTTPClient(server.Client()))

	token, err := service.ExchangeCode(context.Background(), "bad-code", "http://127.0.0.1/cb", "v")

	assert.Error(t, err)
	assert.Nil(t, token)
	assert.Contains(t, err.Error(), "failed to exchange code")
}

func TestVerifyIDToken(t *testing.T) {
	deps := setupOAuthTest(t)
	service := NewOAuthService(models.AuthProviderGoogle, deps.cfg, WithIDTokenVerifier(deps.verifier))

	tokenWithID := func(raw string) *oauth2.Token {
		return (&oauth2.Token{AccessToken: "at"}).WithExtra(map[string]any{"id_token": raw})
	}

	tests := []struct {
		name      string
		token     *oauth2.Token
		wantErr   string
		wantEmail string
		wantName  string
		verified  bool
	}{
		{
			name: "valid token",
			token: tokenWithID(signIDToken(t, deps.key, jwt.MapClaims{
				"email":          "a@x.com",
				"email_verified": true,
				"name":           "Ada Lovelace",
				"picture":        "https://img.test/a.png",
			})),
			wantEmail: "a@x.com",
			wantName:  "Ada Lovelace",
			verified:  true,
		},
		{
			name: "email_verified as string",
			token: tokenWithID(signIDToken(t, deps.key, jwt.MapClaims{
				"email":          "b@x.com",
				"email_verified": "true",
			})),
			wantEmail: "b@x.com",
			verified:  true,
		},
		{
			name:    "missing id_token",
			token:   &oauth2.Token{AccessToken: "at"},
			wantErr: "id_token missing from response",
		},
		{
			name:    "wrong audience",
			token:   tokenWithID(signIDToken(t, deps.key, jwt.MapClaims{"aud": "someone-else"})),
			wantErr: "failed to verify ID token",
		},
		{
			name:    "expired",
			token:   tokenWithID(signIDToken(t, deps.key, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})),
			wantErr: "failed to verify ID token",
		},
		{
			name:    "nil token",
			token:   nil,
			wantErr: "oauth token is nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verified, err := service.VerifyIDToken(context.Background(), tt.token)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, verified)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.AuthProviderGoogle, verified.Provider)
			assert.Equal(t, "provider-sub-1", verified.Subject)
			assert.Equal(t, testIssuer, verified.Issuer)
			assert.Equal(t, tt.wantEmail, verified.Email)
			assert.Equal(t, tt.wantName, verified.Name)
			assert.Equal(t, tt.verified, verified.EmailVerified)
			assert.NotEmpty(t, verified.Raw)
		})
	}
}
