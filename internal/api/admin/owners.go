// owners.go implements admin handlers for granting, changing, transferring,
// and revoking restaurant-scoped roles.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/descubre-boyaca/descubre-backend/internal/api/respond"
	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/domain"
	"github.com/descubre-boyaca/descubre-backend/internal/ownership"
)

// OwnerHandlers serves the restaurant ownership endpoints
type OwnerHandlers struct {
	ownerships *ownership.Service
}

// NewOwnerHandlers creates the ownership admin handlers
func NewOwnerHandlers(ownerships *ownership.Service) *OwnerHandlers {
	return &OwnerHandlers{ownerships: ownerships}
}

// @Summary      List owners
// @Tags         Ownership
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Restaurant id"
// @Success      200  {object}  map[string]interface{}  "owners"
// @Failure      404  {object}  map[string]interface{}  "Restaurant not found"
// @Router       /api/v1/admin/restaurants/{id}/owners [get]
func (h *OwnerHandlers) ListOwnersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		owners, err := h.ownerships.ListOwners(c.Request.Context(), c.Param("id"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"owners": owners})
	}
}

// @Summary      Assign owner
// @Description  Grants a user a role on a restaurant. Setting is_primary demotes any existing primary owner in the same transaction.
// @Tags         Ownership
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Restaurant id"
// @Param        body  body  object  true  "user_id, role (staff|manager|owner), is_primary"
// @Success      201  {object}  models.Ownership
// @Failure      404  {object}  map[string]interface{}  "Restaurant or user not found"
// @Failure      409  {object}  map[string]interface{}  "User already has a role here"
// @Failure      422  {object}  map[string]interface{}  "Unknown role"
// @Router       /api/v1/admin/restaurants/{id}/owners [post]
func (h *OwnerHandlers) AssignOwnerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID    string `json:"user_id" binding:"required"`
			Role      string `json:"role" binding:"required"`
			IsPrimary bool   `json:"is_primary"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}

		o, err := h.ownerships.AssignOwner(c.Request.Context(), c.Param("id"), req.UserID, models.OwnershipRole(req.Role), req.IsPrimary)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, o)
	}
}

// @Summary      Change owner role
// @Tags         Ownership
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string  true  "Restaurant id"
// @Param        user_id  path  string  true  "User id"
// @Param        body     body  object  true  "role (staff|manager|owner)"
// @Success      200  {object}  models.Ownership
// @Failure      404  {object}  map[string]interface{}  "No such ownership relation"
// @Failure      422  {object}  map[string]interface{}  "Unknown role"
// @Router       /api/v1/admin/restaurants/{id}/owners/{user_id}/role [patch]
func (h *OwnerHandlers) UpdateRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Role string `json:"role" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}

		o, err := h.ownerships.UpdateRole(c.Request.Context(), c.Param("id"), c.Param("user_id"), models.OwnershipRole(req.Role))
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, o)
	}
}

// @Summary      Transfer primary ownership
// @Description  Demotes the current primary owner and promotes the target in one transaction.
// @Tags         Ownership
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string  true  "Restaurant id"
// @Param        user_id  path  string  true  "Current primary owner's user id"
// @Param        body     body  object  true  "to_user_id"
// @Success      200  {object}  map[string]interface{}  "from: demoted relation, to: new primary relation"
// @Failure      403  {object}  map[string]interface{}  "Source is not the primary owner"
// @Failure      404  {object}  map[string]interface{}  "No such ownership relation"
// @Router       /api/v1/admin/restaurants/{id}/owners/{user_id}/transfer [post]
func (h *OwnerHandlers) TransferPrimaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ToUserID string `json:"to_user_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}

		from, to, err := h.ownerships.TransferPrimary(c.Request.Context(), c.Param("id"), c.Param("user_id"), req.ToUserID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"from": from, "to": to})
	}
}

// @Summary      Remove owner
// @Description  Revokes a user's role on a restaurant. Removing twice answers 404.
// @Tags         Ownership
// @Security     Bearer
// @Param        id       path  string  true  "Restaurant id"
// @Param        user_id  path  string  true  "User id"
// @Success      204  "Removed"
// @Failure      404  {object}  map[string]interface{}  "No such ownership relation"
// @Router       /api/v1/admin/restaurants/{id}/owners/{user_id} [delete]
func (h *OwnerHandlers) RemoveOwnerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.ownerships.RemoveOwner(c.Request.Context(), c.Param("id"), c.Param("user_id")); err != nil {
			respond.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
