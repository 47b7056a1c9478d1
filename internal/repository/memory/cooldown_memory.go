package memory

import (
	"context"
	"sync"
	"time"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
)

// MemoryCooldownRepository keeps the cooldown slot in process memory. It is
// not durable and exists for tests and throwaway sessions.
type MemoryCooldownRepository struct {
	expiresAt time.Time
	set       bool
	mutex     sync.RWMutex
}

func NewMemoryCooldownRepository() repository.CooldownRepository {
	return &MemoryCooldownRepository{}
}

func (r *MemoryCooldownRepository) GetCooldown(ctx context.Context) (time.Time, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if !r.set {
		return time.Time{}, repository.ErrCooldownNotFound
	}
	return r.expiresAt, nil
}

func (r *MemoryCooldownRepository) SetCooldown(ctx context.Context, expiresAt time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.expiresAt = expiresAt.UTC()
	r.set = true
	return nil
}

func (r *MemoryCooldownRepository) ClearCooldown(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.expiresAt = time.Time{}
	r.set = false
	return nil
}
