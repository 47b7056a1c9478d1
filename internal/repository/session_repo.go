package repository

import (
	"context"
	"errors"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
)

// ErrSessionNotFound is returned when no session snapshot is stored.
var ErrSessionNotFound = errors.New("session not found or expired")

// SessionRepository persists the single client session snapshot so a restart
// keeps the user logged in.
type SessionRepository interface {
	// StoreSession saves the snapshot, replacing any previous one.
	StoreSession(ctx context.Context, session *models.Session) error
	// GetSession returns the snapshot or ErrSessionNotFound.
	GetSession(ctx context.Context) (*models.Session, error)
	// DeleteSession removes the snapshot. Deleting a missing snapshot is not an error.
	DeleteSession(ctx context.Context) error
}

// ErrInvalidSession is returned when a snapshot without a subject is stored.
var ErrInvalidSession = errors.New("invalid session data: subjectId must be set")
