package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
	"github.com/redis/go-redis/v9"
)

// RedisCooldownRepository implements CooldownRepository with a single Redis string.
type RedisCooldownRepository struct {
	client *redis.Client
	key    string
}

// NewRedisCooldownRepository creates a Redis-backed cooldown slot. The key is
// derived from namespace so several clients can share one Redis.
func NewRedisCooldownRepository(client *redis.Client, namespace string) repository.CooldownRepository {
	return &RedisCooldownRepository{
		client: client,
		key:    makeKey(namespace, repository.CooldownKey),
	}
}

func (r *RedisCooldownRepository) GetCooldown(ctx context.Context) (time.Time, error) {
	raw, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, repository.ErrCooldownNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read login cooldown from redis: %w", err)
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored login cooldown %q: %w: %w", raw, repository.ErrCooldownCorrupt, err)
	}
	return expiresAt, nil
}

func (r *RedisCooldownRepository) SetCooldown(ctx context.Context, expiresAt time.Time) error {
	if err := r.client.Set(ctx, r.key, expiresAt.UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("failed to store login cooldown in redis: %w", err)
	}
	return nil
}

func (r *RedisCooldownRepository) ClearCooldown(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to clear login cooldown in redis: %w", err)
	}
	return nil
}
