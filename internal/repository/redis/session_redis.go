package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
	"github.com/redis/go-redis/v9"
)

const sessionKeyName = "session"

// RedisSessionRepository implements SessionRepository using Redis.
type RedisSessionRepository struct {
	client *redis.Client
	key    string
}

func NewRedisSessionRepository(client *redis.Client, namespace string) repository.SessionRepository {
	return &RedisSessionRepository{
		client: client,
		key:    makeKey(namespace, sessionKeyName),
	}
}

// StoreSession saves the snapshot. A snapshot with an expiry gets a matching TTL.
func (r *RedisSessionRepository) StoreSession(ctx context.Context, session *models.Session) error {
	if session == nil || session.SubjectID == "" {
		return repository.ErrInvalidSession
	}

	var ttl time.Duration
	if !session.Expiry.IsZero() {
		ttl = time.Until(session.Expiry)
		if ttl <= 0 {
			return r.DeleteSession(ctx)
		}
	}

	jsonData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) GetSession(ctx context.Context) (*models.Session, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if session.IsExpired() {
		_ = r.DeleteSession(ctx)
		return nil, repository.ErrSessionNotFound
	}
	return &session, nil
}

func (r *RedisSessionRepository) DeleteSession(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}
