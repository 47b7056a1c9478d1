package mocks

import (
	"context"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"
)

// MockOAuthProvider is a mock implementation of the OAuthProvider interface.
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) Name() models.AuthProvider {
	args := m.Called()
	return args.Get(0).(models.AuthProvider)
}

func (m *MockOAuthProvider) GetAuthCodeURL(ctx context.Context, state, redirectURL, codeVerifier string) (string, error) {
	args := m.Called(ctx, state, redirectURL, codeVerifier)
	return args.String(0), args.Error(1)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code, redirectURL, codeVerifier string) (*oauth2.Token, error) {
	args := m.Called(ctx, code, redirectURL, codeVerifier)
	token, _ := args.Get(0).(*oauth2.Token)
	return token, args.Error(1)
}

func (m *MockOAuthProvider) VerifyIDToken(ctx context.Context, token *oauth2.Token) (*models.VerifiedIDToken, error) {
	args := m.Called(ctx, token)
	verified, _ := args.Get(0).(*models.VerifiedIDToken)
	return verified, args.Error(1)
}

// MockProviderAuthorizer is a mock of the interactive provider flow.
type MockProviderAuthorizer struct {
	mock.Mock
}

func (m *MockProviderAuthorizer) Authorize(ctx context.Context, provider models.AuthProvider) (*models.VerifiedIDToken, error) {
	args := m.Called(ctx, provider)
	verified, _ := args.Get(0).(*models.VerifiedIDToken)
	return verified, args.Error(1)
}

// MockCallbackReceiver is a mock of the loopback redirect receiver.
type MockCallbackReceiver struct {
	mock.Mock
}

func (m *MockCallbackReceiver) RedirectURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCallbackReceiver) Expect(state string) error {
	args := m.Called(state)
	return args.Error(0)
}

func (m *MockCallbackReceiver) Forget(state string) {
	m.Called(state)
}

func (m *MockCallbackReceiver) WaitForCode(ctx context.Context, state string) (string, error) {
	args := m.Called(ctx, state)
	return args.String(0), args.Error(1)
}

// MockBrowserOpener is a mock of the browser launcher.
type MockBrowserOpener struct {
	mock.Mock
}

func (m *MockBrowserOpener) Open(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}
