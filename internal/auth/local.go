package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/preschool-cms-api/internal/config"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "preschool-cms"

// sessionClaims are the JWT claims of a local admin session
type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// LocalProvider authenticates the single admin configured through the
// environment and issues HS256 session tokens. Revocations live in memory
// and are lost on restart.
type LocalProvider struct {
	email  string
	hash   []byte
	secret []byte
	ttl    time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time // token id -> expiry
}

// NewLocalProvider creates a provider from the auth configuration. A
// plaintext ADMIN_PASSWORD is hashed once at startup.
func NewLocalProvider(cfg *config.AuthConfig) (*LocalProvider, error) {
	hash := []byte(cfg.AdminPasswordHash)
	if len(hash) == 0 {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid ADMIN_PASSWORD_HASH: %w", err)
	}

	return &LocalProvider{
		email:   strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
		hash:    hash,
		secret:  []byte(cfg.JWTSecret),
		ttl:     cfg.SessionTTL,
		revoked: make(map[string]time.Time),
	}, nil
}

// Login checks the credentials and issues a signed session token
func (p *LocalProvider) Login(ctx context.Context, email, password string) (*Session, error) {
	emailOK := strings.ToLower(strings.TrimSpace(email)) == p.email
	// the hash is always compared so both failure paths cost the same
	pwErr := bcrypt.CompareHashAndPassword(p.hash, []byte(password))
	if !emailOK || pwErr != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := sessionClaims{
		Email: p.email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    issuer,
			Subject:   p.email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &Session{
		Token:     token,
		UserID:    claims.Subject,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify parses a session token and rejects expired or revoked ones
func (p *LocalProvider) Verify(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthenticated
	}
	if claims.Issuer != issuer || claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrUnauthenticated
	}

	p.mu.Lock()
	_, revoked := p.revoked[claims.ID]
	p.mu.Unlock()
	if revoked {
		return nil, ErrUnauthenticated
	}

	return &Session{
		Token:     token,
		UserID:    claims.Subject,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the session token until it would have expired anyway
func (p *LocalProvider) Logout(ctx context.Context, session *Session) error {
	if session == nil {
		return ErrUnauthenticated
	}

	claims := &sessionClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(session.Token, claims)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, exp := range p.revoked {
		if now.After(exp) {
			delete(p.revoked, id)
		}
	}
	p.revoked[claims.ID] = session.ExpiresAt
	return nil
}

var _ Provider = (*LocalProvider)(nil)
