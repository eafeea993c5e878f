// Package dishes implements the public menu endpoints and the owner-scoped
// dish mutations. Mutation rights come from the parent restaurant's ownership
// set, so every write resolves the dish's restaurant before touching the row.
package dishes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/descubre-boyaca/descubre-backend/internal/api/respond"
	"github.com/descubre-boyaca/descubre-backend/internal/archive"
	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
	"github.com/descubre-boyaca/descubre-backend/internal/domain"
	"github.com/descubre-boyaca/descubre-backend/internal/middleware"
	"github.com/descubre-boyaca/descubre-backend/internal/ownership"
)

// Handlers serves dish endpoints
type Handlers struct {
	dishes      *repositories.DishRepository
	restaurants *repositories.RestaurantRepository
	ownerships  *ownership.Service
	archives    *archive.Service
}

// NewHandlers creates the dish handlers
func NewHandlers(
	dishes *repositories.DishRepository,
	restaurants *repositories.RestaurantRepository,
	ownerships *ownership.Service,
	archives *archive.Service,
) *Handlers {
	return &Handlers{dishes: dishes, restaurants: restaurants, ownerships: ownerships, archives: archives}
}

// @Summary      List dishes of a restaurant
// @Description  Public menu listing, paginated.
// @Tags         Dishes
// @Produce      json
// @Param        id        path   string  true   "Restaurant id"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        per_page  query  int     false  "Results per page (default 20, max 100)"
// @Success      200  {object}  map[string]interface{}  "dishes, pagination"
// @Failure      404  {object}  map[string]interface{}  "Restaurant not found"
// @Router       /api/v1/restaurants/{id}/dishes [get]
func (h *Handlers) ListByRestaurantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID := c.Param("id")
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}

		exists, err := h.restaurants.Exists(c.Request.Context(), restaurantID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if !exists {
			respond.Error(c, domain.NotFound("restaurant_not_found", "restaurant not found"))
			return
		}

		list, total, err := h.dishes.ListByRestaurant(c.Request.Context(), restaurantID, perPage, (page-1)*perPage)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"dishes": list,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Get dish
// @Tags         Dishes
// @Produce      json
// @Param        id  path  string  true  "Dish id"
// @Success      200  {object}  models.Dish
// @Failure      404  {object}  map[string]interface{}  "Dish not found"
// @Router       /api/v1/dishes/{id} [get]
func (h *Handlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		dish, err := h.dishes.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		if dish == nil {
			respond.Error(c, domain.NotFound("dish_not_found", "dish not found"))
			return
		}
		c.JSON(http.StatusOK, dish)
	}
}

// @Summary      Create dish
// @Description  Requires at least the manager role on the restaurant, or admin.
// @Tags         Dishes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Restaurant id"
// @Param        body  body  object  true  "name, price_cents, and optional fields"
// @Success      201  {object}  models.Dish
// @Failure      403  {object}  map[string]interface{}  "Insufficient role"
// @Failure      422  {object}  map[string]interface{}  "Invalid input"
// @Router       /api/v1/owner/restaurants/{id}/dishes [post]
func (h *Handlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name        string `json:"name" binding:"required"`
			Description string `json:"description"`
			PriceCents  int    `json:"price_cents" binding:"required"`
			Category    string `json:"category"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}
		if req.PriceCents < 0 {
			respond.Error(c, domain.Validation("invalid_price", "price_cents must not be negative"))
			return
		}

		dish := &models.Dish{
			RestaurantID: c.Param("id"),
			Name:         req.Name,
			Description:  req.Description,
			PriceCents:   req.PriceCents,
			Category:     req.Category,
			Available:    true,
		}
		if user := middleware.CurrentUser(c); user != nil {
			dish.CreatedBy = &user.ID
			dish.UpdatedBy = &user.ID
		}

		if err := h.dishes.Create(c.Request.Context(), dish); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, dish)
	}
}

// @Summary      Update dish
// @Description  Partial update. The caller needs at least the manager role on the dish's restaurant, or admin.
// @Tags         Dishes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Dish id"
// @Param        body  body  object  true  "Fields to change"
// @Success      200  {object}  models.Dish
// @Failure      403  {object}  map[string]interface{}  "Insufficient role"
// @Failure      404  {object}  map[string]interface{}  "Dish not found"
// @Router       /api/v1/owner/dishes/{id} [patch]
func (h *Handlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
			PriceCents  *int    `json:"price_cents"`
			Category    *string `json:"category"`
			Available   *bool   `json:"available"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}

		user := middleware.CurrentUser(c)
		if _, err := h.ownerships.AuthorizeDish(c.Request.Context(), user, c.Param("id"), models.OwnershipManager); err != nil {
			respond.Error(c, err)
			return
		}

		dish, err := h.dishes.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		if dish == nil {
			respond.Error(c, domain.NotFound("dish_not_found", "dish not found"))
			return
		}

		if req.Name != nil {
			if *req.Name == "" {
				respond.Error(c, domain.Validation("invalid_name", "name must not be empty"))
				return
			}
			dish.Name = *req.Name
		}
		if req.Description != nil {
			dish.Description = *req.Description
		}
		if req.PriceCents != nil {
			if *req.PriceCents < 0 {
				respond.Error(c, domain.Validation("invalid_price", "price_cents must not be negative"))
				return
			}
			dish.PriceCents = *req.PriceCents
		}
		if req.Category != nil {
			dish.Category = *req.Category
		}
		if req.Available != nil {
			dish.Available = *req.Available
		}
		if user != nil {
			dish.UpdatedBy = &user.ID
		}

		if err := h.dishes.Update(c.Request.Context(), dish); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, dish)
	}
}

// @Summary      Delete dish
// @Description  Archives the dish and removes the live row in one transaction. The caller needs at least the manager role on the dish's restaurant, or admin.
// @Tags         Dishes
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Dish id"
// @Success      200  {object}  map[string]interface{}  "archive"
// @Failure      403  {object}  map[string]interface{}  "Insufficient role"
// @Failure      404  {object}  map[string]interface{}  "Dish not found"
// @Router       /api/v1/owner/dishes/{id} [delete]
func (h *Handlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if _, err := h.ownerships.AuthorizeDish(c.Request.Context(), user, c.Param("id"), models.OwnershipManager); err != nil {
			respond.Error(c, err)
			return
		}

		var actorID *string
		if user != nil {
			actorID = &user.ID
		}
		var note *string
		if n := c.Query("note"); n != "" {
			note = &n
		}

		rec, err := h.archives.SoftDeleteDish(c.Request.Context(), c.Param("id"), note, actorID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"archive": rec})
	}
}
