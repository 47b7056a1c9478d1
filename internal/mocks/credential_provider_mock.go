package mocks

import (
	"context"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockCredentialProvider is a mock implementation of the CredentialProvider interface.
type MockCredentialProvider struct {
	mock.Mock
}

func (m *MockCredentialProvider) CreateCredential(ctx context.Context, email, password, idempotencyKey string) (*models.Credential, error) {
	args := m.Called(ctx, email, password, idempotencyKey)
	credential, _ := args.Get(0).(*models.Credential)
	return credential, args.Error(1)
}

func (m *MockCredentialProvider) VerifyCredential(ctx context.Context, email, password string) (*models.Credential, error) {
	args := m.Called(ctx, email, password)
	credential, _ := args.Get(0).(*models.Credential)
	return credential, args.Error(1)
}

func (m *MockCredentialProvider) DeleteCredential(ctx context.Context, credential *models.Credential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockCredentialProvider) BeginProviderFlow(ctx context.Context, provider models.AuthProvider) (*models.ProviderIdentity, error) {
	args := m.Called(ctx, provider)
	identity, _ := args.Get(0).(*models.ProviderIdentity)
	return identity, args.Error(1)
}

func (m *MockCredentialProvider) SendPasswordResetEmail(ctx context.Context, email string) bool {
	args := m.Called(ctx, email)
	return args.Bool(0)
}

func (m *MockCredentialProvider) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
