package mocks

import (
	"context"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockAuthenticator is a mock of the login half of the orchestrator.
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) LoginWithEmail(ctx context.Context, email, password string) (*models.AuthResult, error) {
	args := m.Called(ctx, email, password)
	result, _ := args.Get(0).(*models.AuthResult)
	return result, args.Error(1)
}

func (m *MockAuthenticator) LoginWithUsername(ctx context.Context, username, password string) (*models.AuthResult, error) {
	args := m.Called(ctx, username, password)
	result, _ := args.Get(0).(*models.AuthResult)
	return result, args.Error(1)
}

// MockAccountCreator is a mock of the sign-up half of the orchestrator.
type MockAccountCreator struct {
	mock.Mock
}

func (m *MockAccountCreator) CreateAccount(ctx context.Context, profile models.Profile, credentials models.Credentials) (*models.AuthResult, error) {
	args := m.Called(ctx, profile, credentials)
	result, _ := args.Get(0).(*models.AuthResult)
	return result, args.Error(1)
}

func (m *MockAccountCreator) AuthenticateWithProvider(ctx context.Context, provider models.AuthProvider, hints *models.ProfileHints) (*models.AuthResult, error) {
	args := m.Called(ctx, provider, hints)
	result, _ := args.Get(0).(*models.AuthResult)
	return result, args.Error(1)
}

// MockSessionApplier is a mock of the session reducer.
type MockSessionApplier struct {
	mock.Mock
}

func (m *MockSessionApplier) Apply(ctx context.Context, transition *models.SessionTransition) (*models.Session, error) {
	args := m.Called(ctx, transition)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}
