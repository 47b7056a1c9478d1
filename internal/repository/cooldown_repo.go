package repository

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCooldownNotFound is returned when no cooldown expiration is stored.
	ErrCooldownNotFound = errors.New("login cooldown not set")
	// ErrCooldownCorrupt is returned when the stored value is not a timestamp.
	ErrCooldownCorrupt = errors.New("login cooldown value is corrupt")
)

// CooldownKey is the slot name used by key/value backed implementations.
const CooldownKey = "login_cooldown_expiration"

// CooldownRepository is a durable single-slot store for the login cooldown
// expiration. It never interprets the value; expiry is evaluated by the caller.
type CooldownRepository interface {
	// GetCooldown returns the stored expiration, ErrCooldownNotFound or
	// ErrCooldownCorrupt.
	GetCooldown(ctx context.Context) (time.Time, error)
	SetCooldown(ctx context.Context, expiresAt time.Time) error
	// ClearCooldown removes the slot. Clearing an empty slot is not an error.
	ClearCooldown(ctx context.Context) error
}
