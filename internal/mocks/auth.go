package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/preschool-cms-api/internal/auth"
)

// MockAuthProvider accepts a single email/password pair and hands out
// opaque tokens
type MockAuthProvider struct {
	Email    string
	Password string
	LoginErr error

	mu       sync.Mutex
	sessions map[string]*auth.Session
	counter  int
	Logouts  int
}

// Verify interface compliance
var _ auth.Provider = (*MockAuthProvider)(nil)

func NewMockAuthProvider(email, password string) *MockAuthProvider {
	return &MockAuthProvider{
		Email:    email,
		Password: password,
		sessions: make(map[string]*auth.Session),
	}
}

func (m *MockAuthProvider) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	if m.LoginErr != nil {
		return nil, m.LoginErr
	}
	if email != m.Email || password != m.Password {
		return nil, auth.ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	now := time.Now()
	session := &auth.Session{
		Token:     fmt.Sprintf("token-%d", m.counter),
		UserID:    "admin",
		Email:     email,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	m.sessions[session.Token] = session
	return session, nil
}

func (m *MockAuthProvider) Verify(ctx context.Context, token string) (*auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[token]
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	return session, nil
}

func (m *MockAuthProvider) Logout(ctx context.Context, session *auth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, session.Token)
	m.Logouts++
	return nil
}
