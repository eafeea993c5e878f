// Package auth implements the authentication endpoints: register, login,
// refresh, and the Google OAuth flow. Token issuance itself lives in
// internal/auth; these handlers only translate HTTP to it.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/descubre-boyaca/descubre-backend/internal/api/respond"
	"github.com/descubre-boyaca/descubre-backend/internal/auth"
	"github.com/descubre-boyaca/descubre-backend/internal/auth/google"
	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
	"github.com/descubre-boyaca/descubre-backend/internal/domain"
	"github.com/descubre-boyaca/descubre-backend/internal/telemetry"
)

const (
	stateCookie = "oauth_state"
	stateMaxAge = 600 // seconds
)

// Handlers serves the /api/v1/auth endpoints
type Handlers struct {
	users  *repositories.UserRepository
	tokens *auth.TokenService
	google *google.Provider // nil when Google login is disabled
}

// NewHandlers creates the auth handlers. google may be nil, in which case the
// OAuth endpoints answer 404.
func NewHandlers(users *repositories.UserRepository, tokens *auth.TokenService, googleProvider *google.Provider) *Handlers {
	return &Handlers{users: users, tokens: tokens, google: googleProvider}
}

// @Summary      Register
// @Description  Create an account with email and password and return a token pair.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  object  true  "email, password, name"
// @Success      201  {object}  map[string]interface{}  "user, tokens"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Failure      422  {object}  map[string]interface{}  "Invalid input"
// @Router       /api/v1/auth/register [post]
func (h *Handlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
			Name     string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}
		if len(req.Password) < 8 {
			respond.Error(c, domain.Validation("weak_password", "password must be at least 8 characters"))
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respond.Error(c, err)
			return
		}

		user := &models.User{
			Email:        req.Email,
			Name:         req.Name,
			PasswordHash: &hash,
			Role:         models.RoleUser,
		}
		if err := h.users.Create(c.Request.Context(), user); err != nil {
			if repositories.IsUniqueViolation(err) {
				respond.Error(c, domain.AlreadyExists("duplicate_email", "email already registered"))
				return
			}
			respond.Error(c, err)
			return
		}

		pair, err := h.tokens.GeneratePair(user.ID, user.Email, user.Role)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"user": user, "tokens": pair})
	}
}

// @Summary      Login
// @Description  Exchange email and password for a token pair.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  object  true  "email, password"
// @Success      200  {object}  map[string]interface{}  "user, tokens"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Router       /api/v1/auth/login [post]
func (h *Handlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}

		user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
		if err != nil {
			respond.Error(c, err)
			return
		}
		// Same answer whether the account is missing, OAuth-only, or the
		// password is wrong.
		if user == nil || user.PasswordHash == nil || !auth.CheckPassword(req.Password, *user.PasswordHash) {
			telemetry.LoginAttemptsTotal.WithLabelValues("password", "failure").Inc()
			respond.Error(c, domain.Unauthorized("invalid_credentials", "invalid email or password"))
			return
		}

		pair, err := h.tokens.GeneratePair(user.ID, user.Email, user.Role)
		if err != nil {
			respond.Error(c, err)
			return
		}

		telemetry.LoginAttemptsTotal.WithLabelValues("password", "success").Inc()
		c.JSON(http.StatusOK, gin.H{"user": user, "tokens": pair})
	}
}

// @Summary      Refresh tokens
// @Description  Exchange a valid refresh token for a fresh token pair.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  object  true  "refresh_token"
// @Success      200  {object}  map[string]interface{}  "tokens"
// @Failure      401  {object}  map[string]interface{}  "Invalid or expired refresh token"
// @Router       /api/v1/auth/refresh [post]
func (h *Handlers) RefreshHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}

		claims, err := h.tokens.ValidateRefresh(req.RefreshToken)
		if err != nil {
			respond.Error(c, domain.Unauthorized("invalid_refresh_token", "invalid or expired refresh token"))
			return
		}

		// Re-read the account so a deleted user or changed role cannot keep
		// minting tokens off an old refresh token.
		user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if user == nil {
			respond.Error(c, domain.Unauthorized("invalid_refresh_token", "invalid or expired refresh token"))
			return
		}

		pair, err := h.tokens.GeneratePair(user.ID, user.Email, user.Role)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"tokens": pair})
	}
}

// @Summary      Google login
// @Description  Redirect to Google's OAuth consent screen.
// @Tags         Auth
// @Success      302  "Redirect to accounts.google.com"
// @Failure      404  {object}  map[string]interface{}  "Google login disabled"
// @Router       /api/v1/auth/google [get]
func (h *Handlers) GoogleRedirectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.google == nil {
			respond.Error(c, domain.NotFound("google_disabled", "google login is not enabled"))
			return
		}

		state, err := randomState()
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(stateCookie, state, stateMaxAge, "/", "", false, true)
		c.Redirect(http.StatusFound, h.google.AuthURL(state))
	}
}

// @Summary      Google callback
// @Description  Exchange the OAuth authorization code for a token pair. Accounts are matched by OIDC subject, then linked by email, else created.
// @Tags         Auth
// @Produce      json
// @Param        code   query  string  true  "Authorization code"
// @Param        state  query  string  true  "Anti-CSRF state"
// @Success      200  {object}  map[string]interface{}  "user, tokens"
// @Failure      401  {object}  map[string]interface{}  "State mismatch or code exchange failed"
// @Router       /api/v1/auth/google/callback [get]
func (h *Handlers) GoogleCallbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.google == nil {
			respond.Error(c, domain.NotFound("google_disabled", "google login is not enabled"))
			return
		}

		state := c.Query("state")
		cookie, err := c.Cookie(stateCookie)
		if err != nil || state == "" || state != cookie {
			telemetry.LoginAttemptsTotal.WithLabelValues("google", "failure").Inc()
			respond.Error(c, domain.Unauthorized("invalid_state", "oauth state mismatch"))
			return
		}
		c.SetCookie(stateCookie, "", -1, "/", "", false, true)

		profile, err := h.google.Exchange(c.Request.Context(), c.Query("code"))
		if err != nil {
			telemetry.LoginAttemptsTotal.WithLabelValues("google", "failure").Inc()
			respond.Error(c, domain.Unauthorized("code_exchange_failed", "authorization code exchange failed"))
			return
		}

		user, err := h.users.GetOrCreateFromOAuth(c.Request.Context(), profile.Subject, profile.Email, profile.Name)
		if err != nil {
			respond.Error(c, err)
			return
		}

		pair, err := h.tokens.GeneratePair(user.ID, user.Email, user.Role)
		if err != nil {
			respond.Error(c, err)
			return
		}

		telemetry.LoginAttemptsTotal.WithLabelValues("google", "success").Inc()
		c.JSON(http.StatusOK, gin.H{"user": user, "tokens": pair})
	}
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
