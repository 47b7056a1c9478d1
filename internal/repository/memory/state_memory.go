package memory

import (
	"context"
	"sync"
	"time"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
)

// MemoryStateRepository implements StateRepository in memory
type MemoryStateRepository struct {
	states map[string]models.PendingAuthState
	mutex  sync.RWMutex
}

func NewMemoryStateRepository() repository.StateRepository {
	return &MemoryStateRepository{
		states: make(map[string]models.PendingAuthState),
	}
}

func (r *MemoryStateRepository) StoreAuthState(ctx context.Context, state models.PendingAuthState) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.states[state.State] = state
	return nil
}

func (r *MemoryStateRepository) GetAuthState(ctx context.Context, state string) (*models.PendingAuthState, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	pending, exists := r.states[state]
	if !exists {
		return nil, repository.ErrStateNotFound
	}
	if time.Now().After(pending.Expiry) {
		delete(r.states, state)
		return nil, repository.ErrStateNotFound
	}
	return &pending, nil
}

func (r *MemoryStateRepository) DeleteAuthState(ctx context.Context, state string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.states, state)
	return nil
}
