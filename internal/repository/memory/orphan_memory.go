package memory

import (
	"context"
	"sync"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
)

// MemoryOrphanRepository is a FIFO of orphaned credentials held in memory.
type MemoryOrphanRepository struct {
	queue []models.OrphanCredential
	mutex sync.Mutex
}

func NewMemoryOrphanRepository() repository.OrphanRepository {
	return &MemoryOrphanRepository{}
}

func (r *MemoryOrphanRepository) EnqueueOrphan(ctx context.Context, orphan *models.OrphanCredential) error {
	if orphan == nil || orphan.SubjectID == "" {
		return repository.ErrInvalidOrphan
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.queue = append(r.queue, *orphan)
	return nil
}

func (r *MemoryOrphanRepository) DequeueOrphan(ctx context.Context) (*models.OrphanCredential, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if len(r.queue) == 0 {
		return nil, repository.ErrOrphanQueueEmpty
	}
	head := r.queue[0]
	r.queue = r.queue[1:]
	return &head, nil
}

func (r *MemoryOrphanRepository) CountOrphans(ctx context.Context) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return int64(len(r.queue)), nil
}
