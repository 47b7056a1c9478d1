package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/config"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/logger"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
)

var _ UserRegistry = (*RegistryClient)(nil)

// RegistryClient is the HTTP client of the application user registry.
type RegistryClient struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewRegistryClient(cfg *config.Config, httpClient *http.Client) *RegistryClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &RegistryClient{
		baseURL:    cfg.UserRegistryURL,
		httpClient: httpClient,
		log:        logger.Component("registry_client"),
	}
}

// CreateUser stores the profile. Anything but 201 is a rejection.
func (c *RegistryClient) CreateUser(ctx context.Context, input models.CreateUserInput) (*models.ApplicationUser, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/users", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		c.log.Warn().Int("statusCode", resp.StatusCode).Str("subjectId", input.SubjectID).Msg("User registry rejected user")
		return nil, fmt.Errorf("%w: status %d: %s", ErrUserRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var user models.ApplicationUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: failed to decode user: %v", ErrUserRejected, err)
	}
	if user.SubjectID == "" {
		return nil, fmt.Errorf("%w: reply carried no subjectId", ErrUserRejected)
	}
	return &user, nil
}

func (c *RegistryClient) DoesEmailExist(ctx context.Context, email string) (bool, error) {
	return c.exists(ctx, url.Values{"email": {email}})
}

func (c *RegistryClient) DoesUsernameExist(ctx context.Context, username string) (bool, error) {
	return c.exists(ctx, url.Values{"username": {username}})
}

// GetEmailForUsername returns ErrUserNotFound when the username is unknown.
func (c *RegistryClient) GetEmailForUsername(ctx context.Context, username string) (string, error) {
	var reply models.EmailResponse
	if err := c.get(ctx, "/api/users/email", url.Values{"username": {username}}, &reply); err != nil {
		return "", err
	}
	if reply.Email == "" {
		return "", ErrUserNotFound
	}
	return reply.Email, nil
}

// GetUserByEmail returns (nil, nil) when no user has that email.
func (c *RegistryClient) GetUserByEmail(ctx context.Context, email string) (*models.ApplicationUser, error) {
	var user models.ApplicationUser
	err := c.get(ctx, "/api/users/by-email", url.Values{"email": {email}}, &user)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *RegistryClient) exists(ctx context.Context, query url.Values) (bool, error) {
	var reply models.ExistsResponse
	if err := c.get(ctx, "/api/users/exists", query, &reply); err != nil {
		return false, err
	}
	return reply.Exists, nil
}

func (c *RegistryClient) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("user registry request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrUserNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("user registry returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode user registry reply: %w", err)
	}
	return nil
}
