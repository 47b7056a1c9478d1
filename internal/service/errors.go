package service

import "errors"

var (
	ErrCredentialRejected    = errors.New("identity service rejected the request")
	ErrUserRejected          = errors.New("user registry rejected the request")
	ErrUserNotFound          = errors.New("user not found")
	ErrCooldownActive        = errors.New("login is cooling down")
	ErrProviderNotConfigured = errors.New("oauth provider not configured")
	ErrInvalidState          = errors.New("invalid oauth state")
	ErrServerProofMismatch   = errors.New("server proof M2 verification failed")
	ErrNoActiveSession       = errors.New("no active identity session")
)
