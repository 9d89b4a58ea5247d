package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/preschool-cms-api/internal/config"
	"github.com/rs/zerolog"
)

// TokenVerifier is the part of the Firebase Admin auth client the provider
// uses; *auth.Client satisfies it
type TokenVerifier interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*firebaseauth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseProvider signs admins in with Firebase email/password accounts.
// Sign-in goes through the Identity Toolkit REST endpoint; tokens are
// verified with the Admin SDK.
type FirebaseProvider struct {
	verifier TokenVerifier
	endpoint string
	apiKey   string
	allowed  map[string]bool
	client   *http.Client
	log      zerolog.Logger
}

// NewFirebaseProvider creates a provider. When cfg lists allowed emails only
// those accounts may use the admin surface.
func NewFirebaseProvider(verifier TokenVerifier, fbCfg *config.FirebaseConfig, authCfg *config.AuthConfig, log zerolog.Logger) *FirebaseProvider {
	allowed := make(map[string]bool, len(authCfg.AllowedEmails))
	for _, email := range authCfg.AllowedEmails {
		allowed[strings.ToLower(email)] = true
	}
	return &FirebaseProvider{
		verifier: verifier,
		endpoint: fbCfg.SignInEndpoint,
		apiKey:   fbCfg.APIKey,
		allowed:  allowed,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.With().Str("component", "firebase_auth").Logger(),
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken string `json:"idToken"`
	Email   string `json:"email"`
	LocalID string `json:"localId"`
}

type signInError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Login exchanges email and password for a Firebase ID token
func (p *FirebaseProvider) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, err
	}

	endpoint := p.endpoint + "?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign-in request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr signInError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if isCredentialError(apiErr.Error.Message) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign-in failed with status %d: %s", resp.StatusCode, apiErr.Error.Message)
	}

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode sign-in response: %w", err)
	}

	session, err := p.Verify(ctx, out.IDToken)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return session, nil
}

// Verify checks a Firebase ID token, including revocation
func (p *FirebaseProvider) Verify(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	tok, err := p.verifier.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		p.log.Debug().Err(err).Msg("ID token rejected")
		return nil, ErrUnauthenticated
	}

	email, _ := tok.Claims["email"].(string)
	if len(p.allowed) > 0 && !p.allowed[strings.ToLower(email)] {
		p.log.Warn().Str("email", email).Msg("Account is not an allowed admin")
		return nil, ErrUnauthenticated
	}

	return &Session{
		Token:     token,
		UserID:    tok.UID,
		Email:     email,
		IssuedAt:  time.Unix(tok.IssuedAt, 0).UTC(),
		ExpiresAt: time.Unix(tok.Expires, 0).UTC(),
	}, nil
}

// Logout revokes the user's refresh tokens, which also invalidates
// previously issued ID tokens on the next revocation check
func (p *FirebaseProvider) Logout(ctx context.Context, session *Session) error {
	if session == nil {
		return ErrUnauthenticated
	}
	if err := p.verifier.RevokeRefreshTokens(ctx, session.UserID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

func isCredentialError(message string) bool {
	code := strings.SplitN(message, " ", 2)[0]
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL", "USER_DISABLED", "MISSING_PASSWORD":
		return true
	}
	return false
}

var _ Provider = (*FirebaseProvider)(nil)
