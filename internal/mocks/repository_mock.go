package mocks

import (
	"context"
	"time"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockStateRepository is a mock implementation of the StateRepository interface.
type MockStateRepository struct {
	mock.Mock
}

func (m *MockStateRepository) StoreAuthState(ctx context.Context, state models.PendingAuthState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockStateRepository) GetAuthState(ctx context.Context, state string) (*models.PendingAuthState, error) {
	args := m.Called(ctx, state)
	pending, _ := args.Get(0).(*models.PendingAuthState)
	return pending, args.Error(1)
}

func (m *MockStateRepository) DeleteAuthState(ctx context.Context, state string) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

// MockSessionRepository is a mock implementation of the SessionRepository interface.
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) StoreSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetSession(ctx context.Context) (*models.Session, error) {
	args := m.Called(ctx)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func (m *MockSessionRepository) DeleteSession(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockCooldownRepository is a mock implementation of the CooldownRepository interface.
type MockCooldownRepository struct {
	mock.Mock
}

func (m *MockCooldownRepository) GetCooldown(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockCooldownRepository) SetCooldown(ctx context.Context, expiresAt time.Time) error {
	args := m.Called(ctx, expiresAt)
	return args.Error(0)
}

func (m *MockCooldownRepository) ClearCooldown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockOrphanRepository is a mock implementation of the OrphanRepository interface.
type MockOrphanRepository struct {
	mock.Mock
}

func (m *MockOrphanRepository) EnqueueOrphan(ctx context.Context, orphan *models.OrphanCredential) error {
	args := m.Called(ctx, orphan)
	return args.Error(0)
}

func (m *MockOrphanRepository) DequeueOrphan(ctx context.Context) (*models.OrphanCredential, error) {
	args := m.Called(ctx)
	orphan, _ := args.Get(0).(*models.OrphanCredential)
	return orphan, args.Error(1)
}

func (m *MockOrphanRepository) CountOrphans(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
