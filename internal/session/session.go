// Package session resolves the authenticated identity behind a request.
//
// Identity is never cached by callers: every collaborator receives a Source
// and asks it for the current session at the moment it needs one, so a token
// that expired between capture and submit is caught.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoSession means there is no session, or it has expired.
	ErrNoSession = errors.New("session: no active session")
	// ErrInvalidToken means a token was presented but failed verification.
	ErrInvalidToken = errors.New("session: invalid token")
)

// Session is an authenticated identity.
type Session struct {
	UserID    string    `json:"uid"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"exp"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Source returns the current session. Implementations return ErrNoSession
// when nobody is signed in.
type Source interface {
	Current(ctx context.Context) (Session, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Session, error)

func (f SourceFunc) Current(ctx context.Context) (Session, error) {
	return f(ctx)
}

// TokenSource verifies a token fetched on every call.
type TokenSource struct {
	signer *Signer
	token  func(ctx context.Context) (string, error)
}

// NewTokenSource returns a Source that reads a token through fetch and
// verifies it with signer each time Current is called.
func NewTokenSource(signer *Signer, fetch func(ctx context.Context) (string, error)) *TokenSource {
	return &TokenSource{signer: signer, token: fetch}
}

func (s *TokenSource) Current(ctx context.Context) (Session, error) {
	token, err := s.token(ctx)
	if err != nil {
		return Session{}, err
	}
	if token == "" {
		return Session{}, ErrNoSession
	}

	return s.signer.Verify(token)
}
