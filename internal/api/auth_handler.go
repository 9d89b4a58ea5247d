package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/preschool-cms-api/internal/auth"
	"github.com/preschool-cms-api/internal/config"
	"github.com/rs/zerolog"
)

const (
	sessionCookie     = "admin_session"
	sessionContextKey = "session"
)

// AuthHandler handles admin sign-in and guards the admin routes
type AuthHandler struct {
	provider auth.Provider
	cfg      *config.Config
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(provider auth.Provider, cfg *config.Config, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		cfg:      cfg,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /admin/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.provider.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.log.Warn().Str("email", req.Email).Msg("Failed admin sign-in")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		h.log.Error().Err(err).Msg("Sign-in provider failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Sign-in is unavailable, please try again"})
		return
	}

	h.setCookie(c, session.Token, time.Until(session.ExpiresAt))
	h.log.Info().Str("email", session.Email).Msg("Admin signed in")

	c.JSON(http.StatusOK, gin.H{
		"token":      session.Token,
		"user":       session.User(),
		"expires_at": session.ExpiresAt,
	})
}

// Logout handles POST /admin/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessionFrom(c)
	if err := h.provider.Logout(c.Request.Context(), session); err != nil {
		h.log.Error().Err(err).Msg("Failed to revoke session")
	}
	h.setCookie(c, "", -time.Second)
	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

// Session handles GET /admin/session
func (h *AuthHandler) Session(c *gin.Context) {
	session := sessionFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"user":       session.User(),
		"expires_at": session.ExpiresAt,
	})
}

// RequireAdmin rejects requests without a valid session. The token is read
// from the Authorization bearer header or the session cookie.
func (h *AuthHandler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(sessionCookie)
		}

		session, err := h.provider.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		c.Set(sessionContextKey, session)
		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), session))
		c.Next()
	}
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, value, maxAge, "/", "", h.cfg.Auth.CookieSecure, true)
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// sessionFrom returns the session RequireAdmin stored on the context
func sessionFrom(c *gin.Context) *auth.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if session, ok := v.(*auth.Session); ok {
			return session
		}
	}
	if session, ok := auth.SessionFrom(c.Request.Context()); ok {
		return session
	}
	return &auth.Session{}
}
