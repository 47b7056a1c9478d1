package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenUnreadable is returned when a session token is not a parseable JWT.
var ErrTokenUnreadable = errors.New("session token is not a readable JWT")

// TokenClaims are the parts of an identity session token the client cares
// about. The client cannot check the signature; it only reads the claims.
type TokenClaims struct {
	Subject string
	Expiry  time.Time
}

// ReadTokenClaims parses token without verifying it and returns its sub and
// exp claims. A token without exp yields a zero Expiry.
func ReadTokenClaims(token string) (*TokenClaims, error) {
	if token == "" {
		return nil, ErrTokenUnreadable
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenUnreadable, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", ErrTokenUnreadable)
	}

	result := &TokenClaims{}
	if subject, err := claims.GetSubject(); err == nil {
		result.Subject = subject
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenUnreadable, err)
	}
	if exp != nil {
		result.Expiry = exp.Time.UTC()
	}
	return result, nil
}
