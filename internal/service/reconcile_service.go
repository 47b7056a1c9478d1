package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/logger"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
)

// MaxOrphanAttempts bounds how often one orphan is retried before it is
// dropped and left for manual cleanup.
const MaxOrphanAttempts = 5

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Deleted  int
	Requeued int
	Dropped  int
}

// ReconcileService retries compensating deletes that failed during sign-up.
type ReconcileService struct {
	orphans     repository.OrphanRepository
	credentials CredentialDeleter
	analytics   AnalyticsSink
	log         zerolog.Logger
}

func NewReconcileService(orphans repository.OrphanRepository, credentials CredentialDeleter, analytics AnalyticsSink) *ReconcileService {
	return &ReconcileService{
		orphans:     orphans,
		credentials: credentials,
		analytics:   analytics,
		log:         logger.Component("reconciler"),
	}
}

// Run processes at most batch orphans. A batch of zero or less processes
// everything queued when the pass starts, so requeued entries are not
// retried twice in one pass.
func (s *ReconcileService) Run(ctx context.Context, batch int) (ReconcileReport, error) {
	var report ReconcileReport

	if batch <= 0 {
		n, err := s.orphans.CountOrphans(ctx)
		if err != nil {
			return report, fmt.Errorf("failed to count orphans: %w", err)
		}
		batch = int(n)
	}

	for i := 0; i < batch; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		orphan, err := s.orphans.DequeueOrphan(ctx)
		if errors.Is(err, repository.ErrOrphanQueueEmpty) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("failed to dequeue orphan: %w", err)
		}

		orphan.Attempts++
		deleteErr := s.credentials.DeleteCredential(ctx, orphan.Credential())
		if deleteErr == nil {
			report.Deleted++
			s.log.Info().Str("subjectId", orphan.SubjectID).Int("attempts", orphan.Attempts).Msg("Orphan credential deleted")
			s.analytics.Track(ctx, models.EventCredentialCompensated, orphan.SubjectID, map[string]any{
				"attempts": orphan.Attempts,
				"source":   "reconciler",
			})
			continue
		}
		orphan.Reason = deleteErr.Error()

		if orphan.Attempts >= MaxOrphanAttempts {
			report.Dropped++
			s.log.Error().Str("subjectId", orphan.SubjectID).Str("email", orphan.Email).Int("attempts", orphan.Attempts).
				Str("reason", orphan.Reason).Msg("Dropping orphan credential after repeated failures")
			continue
		}

		if err := s.orphans.EnqueueOrphan(ctx, orphan); err != nil {
			return report, fmt.Errorf("failed to requeue orphan %s: %w", orphan.SubjectID, err)
		}
		report.Requeued++
		s.log.Warn().Str("subjectId", orphan.SubjectID).Int("attempts", orphan.Attempts).Msg("Orphan credential requeued")
	}

	return report, nil
}
