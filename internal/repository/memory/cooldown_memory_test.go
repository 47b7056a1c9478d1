package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCooldownRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMemoryCooldownRepository()

	_, err := repo.GetCooldown(ctx)
	assert.ErrorIs(t, err, repository.ErrCooldownNotFound)

	expiresAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.SetCooldown(ctx, expiresAt))

	got, err := repo.GetCooldown(ctx)
	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(got))

	require.NoError(t, repo.ClearCooldown(ctx))
	_, err = repo.GetCooldown(ctx)
	assert.ErrorIs(t, err, repository.ErrCooldownNotFound)

	// clearing twice is fine
	assert.NoError(t, repo.ClearCooldown(ctx))
}
