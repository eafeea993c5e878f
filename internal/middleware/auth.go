// Package middleware provides Gin HTTP middleware for authentication,
// authorization, rate limiting, security headers, and audit logging.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → Auth → RBAC → Audit → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB
// work. Auth populates the user identity; RBAC reads from that context. Audit
// logging runs after RBAC so only authorized mutations are recorded as
// successful actions.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/descubre-boyaca/descubre-backend/internal/auth"
	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
)

// Context keys set by the auth middleware.
const (
	UserContextKey   = "user"
	UserIDContextKey = "user_id"
)

// CurrentUser retrieves the authenticated user placed into the context by
// AuthMiddleware. Returns nil when the request is unauthenticated.
func CurrentUser(c *gin.Context) *models.User {
	val, exists := c.Get(UserContextKey)
	if !exists {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// bearerToken extracts the token from the Authorization header. Returns ""
// when the header is absent or malformed.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// AuthMiddleware validates the Bearer access token and loads the account into
// the request context. The user row is loaded on every request rather than
// trusting the role claim in the token, so demoting or deleting an account
// takes effect immediately instead of at token expiry.
func AuthMiddleware(tokens *auth.TokenService, users *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or malformed authorization header",
			})
			return
		}

		claims, err := tokens.ValidateAccess(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
			})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}

		c.Set(UserContextKey, user)
		c.Set(UserIDContextKey, user.ID)

		c.Next()
	}
}

// OptionalAuthMiddleware is the same as AuthMiddleware but lets
// unauthenticated requests through without user context. Used on public read
// endpoints that personalize output (e.g. is_favorite flags) when a token is
// present.
func OptionalAuthMiddleware(tokens *auth.TokenService, users *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := tokens.ValidateAccess(token)
		if err != nil {
			c.Next()
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err == nil && user != nil {
			c.Set(UserContextKey, user)
			c.Set(UserIDContextKey, user.ID)
		}

		c.Next()
	}
}
