// users.go implements admin handlers for account management. Account removal
// is a hard delete: credentials must not be resurrectable from a ledger
// snapshot, so users never pass through the archive.
package admin

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/descubre-boyaca/descubre-backend/internal/api/respond"
	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
	"github.com/descubre-boyaca/descubre-backend/internal/domain"
	"github.com/descubre-boyaca/descubre-backend/internal/middleware"
)

// UserHandlers serves the user administration endpoints
type UserHandlers struct {
	db    *sql.DB
	users *repositories.UserRepository
}

// NewUserHandlers creates the user admin handlers
func NewUserHandlers(db *sql.DB, users *repositories.UserRepository) *UserHandlers {
	return &UserHandlers{db: db, users: users}
}

// @Summary      List users
// @Tags         Users
// @Security     Bearer
// @Produce      json
// @Param        page      query  int  false  "Page number (default 1)"
// @Param        per_page  query  int  false  "Results per page (default 20, max 100)"
// @Success      200  {object}  map[string]interface{}  "users, pagination"
// @Router       /api/v1/admin/users [get]
func (h *UserHandlers) ListUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}

		users, total, err := h.users.List(c.Request.Context(), perPage, (page-1)*perPage)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"users": users,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Get user
// @Tags         Users
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "User id"
// @Success      200  {object}  models.User
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Router       /api/v1/admin/users/{id} [get]
func (h *UserHandlers) GetUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		if user == nil {
			respond.Error(c, domain.NotFound("user_not_found", "user not found"))
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// @Summary      Change global role
// @Description  Promote or demote an account between "user" and "admin". Admins cannot demote themselves.
// @Tags         Users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "User id"
// @Param        body  body  object  true  "role (admin|user)"
// @Success      200  {object}  models.User
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      422  {object}  map[string]interface{}  "Unknown role or self-demotion"
// @Router       /api/v1/admin/users/{id}/role [patch]
func (h *UserHandlers) UpdateRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Role string `json:"role" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}
		if req.Role != models.RoleAdmin && req.Role != models.RoleUser {
			respond.Error(c, domain.Validation("invalid_role", "role must be admin or user"))
			return
		}

		targetID := c.Param("id")
		if actor := middleware.CurrentUser(c); actor != nil && actor.ID == targetID && req.Role != models.RoleAdmin {
			respond.Error(c, domain.Validation("self_demotion", "you cannot demote your own account"))
			return
		}

		user, err := h.users.GetByID(c.Request.Context(), targetID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if user == nil {
			respond.Error(c, domain.NotFound("user_not_found", "user not found"))
			return
		}

		user.Role = req.Role
		if err := h.users.Update(c.Request.Context(), user); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// @Summary      Delete user
// @Description  Permanently removes the account. Their reviews and ownership rows go with it via foreign keys.
// @Tags         Users
// @Security     Bearer
// @Param        id  path  string  true  "User id"
// @Success      204  "Removed"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      422  {object}  map[string]interface{}  "Self-deletion"
// @Router       /api/v1/admin/users/{id} [delete]
func (h *UserHandlers) DeleteUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID := c.Param("id")
		if actor := middleware.CurrentUser(c); actor != nil && actor.ID == targetID {
			respond.Error(c, domain.Validation("self_deletion", "you cannot delete your own account"))
			return
		}

		user, err := h.users.GetByID(c.Request.Context(), targetID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if user == nil {
			respond.Error(c, domain.NotFound("user_not_found", "user not found"))
			return
		}

		if err := h.users.Delete(c.Request.Context(), h.db, targetID); err != nil {
			respond.Error(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}
