package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
	"github.com/redis/go-redis/v9"
)

const orphanQueueKeyName = "orphan_credentials"

// RedisOrphanRepository keeps orphaned credentials in a Redis list, oldest first.
type RedisOrphanRepository struct {
	client *redis.Client
	key    string
}

func NewRedisOrphanRepository(client *redis.Client, namespace string) repository.OrphanRepository {
	return &RedisOrphanRepository{
		client: client,
		key:    makeKey(namespace, orphanQueueKeyName),
	}
}

func (r *RedisOrphanRepository) EnqueueOrphan(ctx context.Context, orphan *models.OrphanCredential) error {
	if orphan == nil || orphan.SubjectID == "" {
		return repository.ErrInvalidOrphan
	}
	payload, err := json.Marshal(orphan)
	if err != nil {
		return fmt.Errorf("failed to marshal orphan credential: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue orphan credential: %w", err)
	}
	return nil
}

func (r *RedisOrphanRepository) DequeueOrphan(ctx context.Context) (*models.OrphanCredential, error) {
	payload, err := r.client.LPop(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrOrphanQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue orphan credential: %w", err)
	}

	var orphan models.OrphanCredential
	if err := json.Unmarshal(payload, &orphan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal orphan credential: %w", err)
	}
	return &orphan, nil
}

func (r *RedisOrphanRepository) CountOrphans(ctx context.Context) (int64, error) {
	n, err := r.client.LLen(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count orphan credentials: %w", err)
	}
	return n, nil
}
