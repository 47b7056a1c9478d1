package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
)

// SQLiteCooldownRepository stores the cooldown slot as one row of the
// metadata table, so it survives process restarts.
type SQLiteCooldownRepository struct {
	db *sql.DB
}

func NewSQLiteCooldownRepository(db *sql.DB) repository.CooldownRepository {
	return &SQLiteCooldownRepository{db: db}
}

func (r *SQLiteCooldownRepository) GetCooldown(ctx context.Context) (time.Time, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, repository.CooldownKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, repository.ErrCooldownNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get metadata[%s]: %w", repository.CooldownKey, err)
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored login cooldown %q: %w: %w", raw, repository.ErrCooldownCorrupt, err)
	}
	return expiresAt, nil
}

func (r *SQLiteCooldownRepository) SetCooldown(ctx context.Context, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, repository.CooldownKey, expiresAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", repository.CooldownKey, err)
	}
	return nil
}

func (r *SQLiteCooldownRepository) ClearCooldown(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, repository.CooldownKey)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", repository.CooldownKey, err)
	}
	return nil
}
