package repository

import (
	"context"
	"errors"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
)

// ErrOrphanQueueEmpty is returned by DequeueOrphan when nothing is pending.
var ErrOrphanQueueEmpty = errors.New("orphan credential queue is empty")

// OrphanRepository queues credentials whose compensating delete failed so a
// reconciler can retry them later.
type OrphanRepository interface {
	EnqueueOrphan(ctx context.Context, orphan *models.OrphanCredential) error
	// DequeueOrphan pops the oldest entry or returns ErrOrphanQueueEmpty.
	DequeueOrphan(ctx context.Context) (*models.OrphanCredential, error)
	CountOrphans(ctx context.Context) (int64, error)
}

// ErrInvalidOrphan is returned when an entry without a subject is enqueued.
var ErrInvalidOrphan = errors.New("invalid orphan credential: subjectId must be set")
