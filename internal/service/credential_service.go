package service

import (
	"bytes"
	"context"
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/tadglines/go-pkgs/crypto/srp"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/config"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/logger"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
)

var _ CredentialProvider = (*CredentialClient)(nil)

const idempotencyHeader = "Idempotency-Key"

// CredentialClient talks to the identity service. Passwords never leave the
// client: sign-up sends an SRP verifier and sign-in runs the SRP handshake.
type CredentialClient struct {
	baseURL    string
	httpClient *http.Client
	srpGroup   string
	hash       crypto.Hash
	authorizer ProviderAuthorizer
	log        zerolog.Logger

	mu    sync.Mutex
	token string
}

// NewCredentialClient creates a client for the identity service. authorizer may
// be nil when no OAuth provider is configured.
func NewCredentialClient(cfg *config.Config, httpClient *http.Client, authorizer ProviderAuthorizer) *CredentialClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &CredentialClient{
		baseURL:    cfg.IdentityServiceURL,
		httpClient: httpClient,
		srpGroup:   cfg.SRP.Group,
		hash:       cfg.SRP.HashingAlgorithm,
		authorizer: authorizer,
		log:        logger.Component("credential_client"),
	}
}

// Token returns the identity session token of the current credential, if any.
func (c *CredentialClient) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// RestoreToken seeds the client with the token of a persisted session so a
// new process can still sign out.
func (c *CredentialClient) RestoreToken(token string) {
	c.setToken(token)
}

func (c *CredentialClient) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// CreateCredential registers email with a freshly computed salt and verifier.
func (c *CredentialClient) CreateCredential(ctx context.Context, email, password, idempotencyKey string) (*models.Credential, error) {
	srpInstance, err := srp.NewSRP(c.srpGroup, c.hash.New, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SRP instance: %w", err)
	}
	salt, verifier, err := srpInstance.ComputeVerifier([]byte(password))
	if err != nil {
		return nil, fmt.Errorf("failed to compute verifier: %w", err)
	}

	req := models.SRPRegisterRequest{
		AuthID:   email,
		Salt:     hex.EncodeToString(salt),
		Verifier: hex.EncodeToString(verifier),
	}
	var credential models.Credential
	if err := c.do(ctx, http.MethodPost, "/api/auth/srp/sign-up", "", idempotencyKey, req, &credential); err != nil {
		c.log.Warn().Err(err).Str("email", email).Msg("Credential creation rejected")
		return nil, err
	}
	if credential.SubjectID == "" {
		return nil, fmt.Errorf("%w: sign-up reply carried no subjectId", ErrCredentialRejected)
	}
	if credential.Email == "" {
		credential.Email = email
	}

	c.setToken(credential.Token)
	c.log.Info().Str("subjectId", credential.SubjectID).Msg("Credential created")
	return &credential, nil
}

// VerifyCredential runs the SRP handshake and checks the server proof before
// trusting the returned credential.
func (c *CredentialClient) VerifyCredential(ctx context.Context, email, password string) (*models.Credential, error) {
	srpInstance, err := srp.NewSRP(c.srpGroup, c.hash.New, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SRP instance: %w", err)
	}

	var step1 models.AuthStep1Response
	if err := c.do(ctx, http.MethodPost, "/api/auth/srp/login/email", "", "", models.AuthStep1Request{AuthID: email}, &step1); err != nil {
		return nil, err
	}
	salt, err := hex.DecodeString(step1.Salt)
	if err != nil {
		return nil, fmt.Errorf("invalid salt hex format: %w", err)
	}
	serverB, err := hex.DecodeString(step1.ServerB)
	if err != nil || len(serverB) == 0 {
		return nil, fmt.Errorf("invalid server B format: %w", err)
	}

	clientSession := srpInstance.NewClientSession([]byte(email), []byte(password))
	if _, err := clientSession.ComputeKey(salt, serverB); err != nil {
		return nil, fmt.Errorf("failed to compute key: %w", err)
	}
	clientM1 := clientSession.ComputeAuthenticator()

	step2 := models.AuthStep2Request{
		AuthID:        email,
		ClientA:       hex.EncodeToString(clientSession.GetA()),
		ClientProofM1: hex.EncodeToString(clientM1),
	}
	var step3 models.AuthStep3Response
	if err := c.do(ctx, http.MethodPost, "/api/auth/srp/login/proof", "", "", step2, &step3); err != nil {
		return nil, err
	}

	serverM2, err := hex.DecodeString(step3.ServerProofM2)
	if err != nil || !clientSession.VerifyServerAuthenticator(serverM2) {
		c.log.Error().Str("email", email).Msg("Server proof did not verify, discarding credential")
		return nil, ErrServerProofMismatch
	}

	credential := &models.Credential{
		SubjectID:   step3.SubjectID,
		Email:       step3.Email,
		DisplayName: step3.DisplayName,
		PhotoURL:    step3.PhotoURL,
		Token:       step3.SessionToken,
	}
	if credential.Email == "" {
		credential.Email = email
	}
	c.setToken(credential.Token)
	c.log.Info().Str("subjectId", credential.SubjectID).Msg("Credential verified")
	return credential, nil
}

// DeleteCredential removes the credential. A credential that is already gone
// counts as deleted.
func (c *CredentialClient) DeleteCredential(ctx context.Context, credential *models.Credential) error {
	if credential == nil || credential.SubjectID == "" {
		return fmt.Errorf("credential subjectId cannot be empty")
	}
	token := credential.Token
	if token == "" {
		token = c.Token()
	}

	path := "/api/auth/credentials/" + url.PathEscape(credential.SubjectID)
	err := c.do(ctx, http.MethodDelete, path, token, "", nil, nil)
	if err != nil {
		var statusErr *statusError
		if errors.As(err, &statusErr) && statusErr.status == http.StatusNotFound {
			c.log.Info().Str("subjectId", credential.SubjectID).Msg("Credential already deleted")
		} else {
			return err
		}
	}

	c.mu.Lock()
	if c.token != "" && c.token == token {
		c.token = ""
	}
	c.mu.Unlock()
	c.log.Info().Str("subjectId", credential.SubjectID).Msg("Credential deleted")
	return nil
}

// BeginProviderFlow authorizes with the provider and links the verified ID
// token to a credential.
func (c *CredentialClient) BeginProviderFlow(ctx context.Context, provider models.AuthProvider) (*models.ProviderIdentity, error) {
	if c.authorizer == nil {
		return nil, ErrProviderNotConfigured
	}
	verified, err := c.authorizer.Authorize(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("provider flow failed: %w", err)
	}

	var credential models.Credential
	path := "/api/auth/oauth/" + strings.ToLower(string(provider)) + "/link"
	if err := c.do(ctx, http.MethodPost, path, "", "", models.LinkProviderRequest{IDToken: verified.Raw}, &credential); err != nil {
		return nil, err
	}
	c.setToken(credential.Token)

	identity := &models.ProviderIdentity{
		Provider:    provider,
		Email:       verified.Email,
		SubjectID:   credential.SubjectID,
		DisplayName: verified.Name,
		PhotoURL:    verified.Picture,
	}
	if credential.SubjectID != "" {
		identity.Credential = &credential
	}
	if identity.Email == "" {
		identity.Email = credential.Email
	}
	if identity.DisplayName == "" {
		identity.DisplayName = credential.DisplayName
	}
	c.log.Info().Str("provider", string(provider)).Str("subjectId", credential.SubjectID).Msg("Provider identity linked")
	return identity, nil
}

// SendPasswordResetEmail asks the identity service to mail a reset link.
func (c *CredentialClient) SendPasswordResetEmail(ctx context.Context, email string) bool {
	if err := c.do(ctx, http.MethodPost, "/api/auth/password-reset", "", "", models.PasswordResetRequest{AuthID: email}, nil); err != nil {
		c.log.Warn().Err(err).Str("email", email).Msg("Password reset request failed")
		return false
	}
	return true
}

// SignOut ends the remote session. The local token is dropped even when the
// remote call fails.
func (c *CredentialClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.token = ""
	c.mu.Unlock()

	if token == "" {
		return nil
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/sign-out", token, "", nil, nil); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("identity service returned %d: %s", e.status, e.message)
}

func (e *statusError) Unwrap() error {
	return ErrCredentialRejected
}

func (c *CredentialClient) do(ctx context.Context, method, path, token, idempotencyKey string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCredentialRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp models.ErrorResponse
		bodyBytes, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(bodyBytes, &errResp) != nil || errResp.Error == "" {
			errResp.Error = strings.TrimSpace(string(bodyBytes))
		}
		return &statusError{status: resp.StatusCode, message: errResp.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode identity service reply: %w", err)
	}
	return nil
}
