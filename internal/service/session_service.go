package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/repository"
)

var _ SessionApplier = (*SessionService)(nil)

// SessionService is the only writer of the client session. Orchestrator
// results reach it as transitions.
type SessionService struct {
	sessionRepo repository.SessionRepository
	now         func() time.Time
}

// NewSessionService creates a SessionService
func NewSessionService(sessionRepo repository.SessionRepository) *SessionService {
	return &SessionService{sessionRepo: sessionRepo, now: time.Now}
}

// Apply reduces transition into the stored session and returns the new state.
// A SignedOut transition returns a nil session.
func (s *SessionService) Apply(ctx context.Context, transition *models.SessionTransition) (*models.Session, error) {
	if transition == nil {
		return nil, errors.New("session transition cannot be nil")
	}

	switch transition.Kind {
	case models.TransitionLoggedIn:
		return s.logIn(ctx, transition)
	case models.TransitionSignedOut:
		if err := s.sessionRepo.DeleteSession(ctx); err != nil {
			log.Printf("[SessionService.Apply] ERROR: Failed to clear session: %v", err)
			return nil, fmt.Errorf("failed to clear session: %w", err)
		}
		log.Printf("[SessionService.Apply] Session cleared")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown session transition %q", transition.Kind)
	}
}

func (s *SessionService) logIn(ctx context.Context, transition *models.SessionTransition) (*models.Session, error) {
	if transition.SubjectID == "" {
		return nil, errors.New("logged-in transition requires a subjectId")
	}

	session := &models.Session{
		SubjectID:    transition.SubjectID,
		AuthProvider: transition.AuthProvider,
		Token:        transition.Token,
		User:         transition.User,
		CreatedAt:    s.now().UTC(),
	}
	if transition.Token != "" {
		claims, err := ReadTokenClaims(transition.Token)
		if err != nil {
			log.Printf("[SessionService.Apply] Token for subject %s carries no readable expiry: %v", transition.SubjectID, err)
		} else {
			session.Expiry = claims.Expiry
		}
	}

	if err := s.sessionRepo.StoreSession(ctx, session); err != nil {
		log.Printf("[SessionService.Apply] ERROR: Failed to store session for subject %s: %v", transition.SubjectID, err)
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	log.Printf("[SessionService.Apply] SUCCESS: Subject %s logged in via %s", session.SubjectID, session.AuthProvider)
	return session, nil
}

// Current returns the active session or ErrNoActiveSession. A session whose
// token expired is dropped on read.
func (s *SessionService) Current(ctx context.Context) (*models.Session, error) {
	session, err := s.sessionRepo.GetSession(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.Expiry.IsZero() && !s.now().Before(session.Expiry) {
		log.Printf("[SessionService.Current] Session for subject %s expired at %s", session.SubjectID, session.Expiry)
		if err := s.sessionRepo.DeleteSession(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear expired session: %w", err)
		}
		return nil, ErrNoActiveSession
	}
	return session, nil
}
