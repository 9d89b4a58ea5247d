package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/preschool-cms-api/internal/config"
	"github.com/rs/zerolog"
)

type fakeVerifier struct {
	tokens  map[string]*firebaseauth.Token
	revoked []string
}

func (f *fakeVerifier) VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	tok, ok := f.tokens[idToken]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return tok, nil
}

func (f *fakeVerifier) RevokeRefreshTokens(ctx context.Context, uid string) error {
	f.revoked = append(f.revoked, uid)
	return nil
}

func newIdentityToolkit(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "api-key" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"API_KEY_INVALID"}}`))
			return
		}
		var req signInRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "director@example.com" || req.Password != "crayons" || !req.ReturnSecureToken {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"INVALID_LOGIN_CREDENTIALS"}}`))
			return
		}
		json.NewEncoder(w).Encode(signInResponse{IDToken: "id-token-1", Email: req.Email, LocalID: "uid-1"})
	}))
}

func newTestFirebaseProvider(t *testing.T, endpoint string, allowed []string) (*FirebaseProvider, *fakeVerifier) {
	now := time.Now()
	verifier := &fakeVerifier{tokens: map[string]*firebaseauth.Token{
		"id-token-1": {
			UID:      "uid-1",
			IssuedAt: now.Unix(),
			Expires:  now.Add(time.Hour).Unix(),
			Claims:   map[string]interface{}{"email": "director@example.com"},
		},
	}}
	p := NewFirebaseProvider(verifier,
		&config.FirebaseConfig{APIKey: "api-key", SignInEndpoint: endpoint},
		&config.AuthConfig{AllowedEmails: allowed},
		zerolog.Nop(),
	)
	return p, verifier
}

func TestFirebaseProvider_Login(t *testing.T) {
	srv := newIdentityToolkit(t)
	defer srv.Close()
	p, verifier := newTestFirebaseProvider(t, srv.URL, nil)
	ctx := context.Background()

	session, err := p.Login(ctx, "director@example.com", "crayons")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if session.UserID != "uid-1" || session.Email != "director@example.com" || session.Token != "id-token-1" {
		t.Errorf("Unexpected session: %+v", session)
	}

	if err := p.Logout(ctx, session); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if len(verifier.revoked) != 1 || verifier.revoked[0] != "uid-1" {
		t.Errorf("Expected uid-1 to be revoked, got %v", verifier.revoked)
	}
}

func TestFirebaseProvider_BadPassword(t *testing.T) {
	srv := newIdentityToolkit(t)
	defer srv.Close()
	p, _ := newTestFirebaseProvider(t, srv.URL, nil)

	if _, err := p.Login(context.Background(), "director@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
}

func TestFirebaseProvider_AllowList(t *testing.T) {
	srv := newIdentityToolkit(t)
	defer srv.Close()
	p, _ := newTestFirebaseProvider(t, srv.URL, []string{"office@example.com"})

	if _, err := p.Login(context.Background(), "director@example.com", "crayons"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected account outside the allow list to be refused, got %v", err)
	}
	if _, err := p.Verify(context.Background(), "id-token-1"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated, got %v", err)
	}
}

func TestFirebaseProvider_UnknownToken(t *testing.T) {
	p, _ := newTestFirebaseProvider(t, "http://127.0.0.1:0", nil)
	if _, err := p.Verify(context.Background(), "forged"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated, got %v", err)
	}
}
