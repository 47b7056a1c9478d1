package models

import (
	"time"
)

// TransitionKind is the session change an orchestrator result asks for.
type TransitionKind string

const (
	TransitionLoggedIn  TransitionKind = "LOGGED_IN"
	TransitionSignedOut TransitionKind = "SIGNED_OUT"
)

// SessionTransition is handed to the session reducer, which is the only writer
// of Session.
type SessionTransition struct {
	Kind         TransitionKind
	SubjectID    string
	AuthProvider AuthProvider
	Token        string
	User         *ApplicationUser
}

// LoggedIn builds a LoggedIn transition.
func LoggedIn(subjectID string, provider AuthProvider, token string, user *ApplicationUser) *SessionTransition {
	return &SessionTransition{
		Kind:         TransitionLoggedIn,
		SubjectID:    subjectID,
		AuthProvider: provider,
		Token:        token,
		User:         user,
	}
}

// SignedOut builds a SignedOut transition.
func SignedOut() *SessionTransition {
	return &SessionTransition{Kind: TransitionSignedOut}
}

// Session is the client's view of who is logged in.
type Session struct {
	SubjectID    string           `json:"subjectId"`
	AuthProvider AuthProvider     `json:"authProvider"`
	Token        string           `json:"token,omitempty"`
	User         *ApplicationUser `json:"user,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	// Expiry is zero when the token carries no readable exp claim.
	Expiry time.Time `json:"expiry"`
}

// IsExpired checks if the session token has expired.
func (s *Session) IsExpired() bool {
	return !s.Expiry.IsZero() && time.Now().UTC().After(s.Expiry)
}

// OrphanCredential is a credential whose compensating delete failed.
type OrphanCredential struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subjectId"`
	Email     string    `json:"email"`
	Token     string    `json:"token,omitempty"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"createdAt"`
}

// Credential rebuilds the record DeleteCredential expects.
func (o *OrphanCredential) Credential() *Credential {
	return &Credential{SubjectID: o.SubjectID, Email: o.Email, Token: o.Token}
}

// PendingAuthState holds the OAuth state between redirect and callback.
type PendingAuthState struct {
	State        string
	Provider     AuthProvider
	CodeVerifier string
	Expiry       time.Time
}
