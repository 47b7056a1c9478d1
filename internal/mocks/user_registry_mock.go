package mocks

import (
	"context"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockUserRegistry is a mock implementation of the UserRegistry interface.
type MockUserRegistry struct {
	mock.Mock
}

func (m *MockUserRegistry) CreateUser(ctx context.Context, input models.CreateUserInput) (*models.ApplicationUser, error) {
	args := m.Called(ctx, input)
	user, _ := args.Get(0).(*models.ApplicationUser)
	return user, args.Error(1)
}

func (m *MockUserRegistry) DoesEmailExist(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRegistry) DoesUsernameExist(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRegistry) GetEmailForUsername(ctx context.Context, username string) (string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Error(1)
}

func (m *MockUserRegistry) GetUserByEmail(ctx context.Context, email string) (*models.ApplicationUser, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.ApplicationUser)
	return user, args.Error(1)
}
