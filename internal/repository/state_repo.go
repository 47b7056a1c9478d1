package repository

import (
	"context"
	"errors"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
)

// StateRepository holds the OAuth state and PKCE verifier between the
// authorization redirect and the callback.
type StateRepository interface {
	StoreAuthState(ctx context.Context, state models.PendingAuthState) error
	GetAuthState(ctx context.Context, state string) (*models.PendingAuthState, error)
	DeleteAuthState(ctx context.Context, state string) error
}

var ErrStateNotFound = errors.New("auth state not found or expired")
