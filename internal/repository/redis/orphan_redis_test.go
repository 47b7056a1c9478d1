package redis

import (
	"context"
	"testing"
	"time"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOrphanRepository(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	defer mr.Close()
	repo := NewRedisOrphanRepository(client, testNamespace)

	_, err := repo.DequeueOrphan(ctx)
	assert.ErrorIs(t, err, repository.ErrOrphanQueueEmpty)

	assert.ErrorIs(t, repo.EnqueueOrphan(ctx, &models.OrphanCredential{}), repository.ErrInvalidOrphan)

	first := &models.OrphanCredential{ID: "o1", SubjectID: "u1", Email: "a@x.com", Reason: "registry rejected", CreatedAt: time.Now().UTC()}
	second := &models.OrphanCredential{ID: "o2", SubjectID: "u2", Attempts: 2}
	require.NoError(t, repo.EnqueueOrphan(ctx, first))
	require.NoError(t, repo.EnqueueOrphan(ctx, second))

	items, err := mr.List(makeKey(testNamespace, orphanQueueKeyName))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	count, err := repo.CountOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	got, err := repo.DequeueOrphan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.SubjectID)
	assert.Equal(t, "a@x.com", got.Email)

	got, err = repo.DequeueOrphan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempts)

	count, err = repo.CountOrphans(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
