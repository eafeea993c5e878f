// rbac.go implements role-based authorization middleware.
//
// Restaurant-scoped roles are checked at request time against the ownership
// table rather than being embedded in the JWT. When an owner's role changes
// or an ownership is revoked, the change takes effect on their next request
// without reissuing tokens.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/domain"
	"github.com/descubre-boyaca/descubre-backend/internal/ownership"
)

// RequireAdmin allows only users holding the global admin role.
// Must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			return
		}
		c.Next()
	}
}

// RequireRestaurantRole allows users holding at least the given scoped role on
// the restaurant named by the idParam path segment. Global admins always pass.
// Must run after AuthMiddleware.
//
// A request for a restaurant the user has no role on is answered 403 whether
// or not the restaurant exists, so the id space cannot be probed through
// owner endpoints.
func RequireRestaurantRole(svc *ownership.Service, min models.OwnershipRole, idParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		restaurantID := c.Param(idParam)
		if restaurantID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Missing restaurant id",
			})
			return
		}

		if err := svc.Authorize(c.Request.Context(), user, restaurantID, min); err != nil {
			if domain.IsForbidden(err) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "You do not have the required role on this restaurant",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check restaurant role",
			})
			return
		}

		c.Next()
	}
}
