package memory

import (
	"context"
	"sync"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
)

// MemorySessionRepository implements SessionRepository in memory. The snapshot
// does not survive a restart.
type MemorySessionRepository struct {
	session *models.Session
	mutex   sync.RWMutex
}

// NewMemorySessionRepository creates a new in-memory session repository.
func NewMemorySessionRepository() repository.SessionRepository {
	return &MemorySessionRepository{}
}

func (r *MemorySessionRepository) StoreSession(ctx context.Context, session *models.Session) error {
	if session == nil || session.SubjectID == "" {
		return repository.ErrInvalidSession
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	copied := *session
	r.session = &copied
	return nil
}

func (r *MemorySessionRepository) GetSession(ctx context.Context) (*models.Session, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.session == nil {
		return nil, repository.ErrSessionNotFound
	}
	copied := *r.session
	return &copied, nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.session = nil
	return nil
}
