package mocks

import (
	"context"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockNotifier records notification intents.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, notification models.Notification) {
	m.Called(ctx, notification)
}

// MockAnalyticsSink records analytics calls.
type MockAnalyticsSink struct {
	mock.Mock
}

func (m *MockAnalyticsSink) Identify(ctx context.Context, subjectID string, traits map[string]any) {
	m.Called(ctx, subjectID, traits)
}

func (m *MockAnalyticsSink) Track(ctx context.Context, event string, subjectID string, properties map[string]any) {
	m.Called(ctx, event, subjectID, properties)
}
