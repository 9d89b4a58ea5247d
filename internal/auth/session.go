package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials is returned when email and password do not match
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated is returned for missing, expired or revoked tokens
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Session is an authenticated admin session
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// User is the public part of a session returned to clients
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// User returns the identity carried by the session
func (s *Session) User() User {
	return User{ID: s.UserID, Email: s.Email}
}

// Provider signs admins in and verifies their session tokens
type Provider interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Verify(ctx context.Context, token string) (*Session, error)
	Logout(ctx context.Context, session *Session) error
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying session
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFrom returns the session stored in ctx, if any
func SessionFrom(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*Session)
	return session, ok && session != nil
}
