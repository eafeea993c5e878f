// Package restaurants implements the public directory endpoints plus the
// owner and admin mutation surface for restaurants. Deleting a restaurant is
// always a soft delete through the archive ledger.
package restaurants

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/descubre-boyaca/descubre-backend/internal/api/respond"
	"github.com/descubre-boyaca/descubre-backend/internal/archive"
	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
	"github.com/descubre-boyaca/descubre-backend/internal/domain"
	"github.com/descubre-boyaca/descubre-backend/internal/middleware"
)

// Handlers serves restaurant endpoints
type Handlers struct {
	restaurants *repositories.RestaurantRepository
	favorites   *repositories.FavoriteRepository
	archives    *archive.Service
}

// NewHandlers creates the restaurant handlers
func NewHandlers(restaurants *repositories.RestaurantRepository, favorites *repositories.FavoriteRepository, archives *archive.Service) *Handlers {
	return &Handlers{restaurants: restaurants, favorites: favorites, archives: archives}
}

// Slugify turns a display name into a URL slug
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// @Summary      List restaurants
// @Description  Public listing of active restaurants with optional filters.
// @Tags         Restaurants
// @Produce      json
// @Param        municipality  query  string  false  "Filter by municipality"
// @Param        cuisine       query  string  false  "Filter by cuisine"
// @Param        price_range   query  int     false  "Filter by price range (1..4)"
// @Param        q             query  string  false  "Search in name and description"
// @Param        page          query  int     false  "Page number (default 1)"
// @Param        per_page      query  int     false  "Results per page (default 20, max 100)"
// @Success      200  {object}  map[string]interface{}  "restaurants, pagination"
// @Router       /api/v1/restaurants [get]
func (h *Handlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}
		priceRange, _ := strconv.Atoi(c.Query("price_range"))

		filter := models.RestaurantFilter{
			Municipality: c.Query("municipality"),
			Cuisine:      c.Query("cuisine"),
			PriceRange:   priceRange,
			Query:        c.Query("q"),
		}

		list, total, err := h.restaurants.List(c.Request.Context(), filter, perPage, (page-1)*perPage)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"restaurants": list,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Get restaurant
// @Description  Fetch a single restaurant by id or slug. When the request carries a valid bearer token, the response includes is_favorite for that user.
// @Tags         Restaurants
// @Produce      json
// @Param        id  path  string  true  "Restaurant id (ULID) or slug"
// @Success      200  {object}  models.Restaurant
// @Failure      404  {object}  map[string]interface{}  "Restaurant not found"
// @Router       /api/v1/restaurants/{id} [get]
func (h *Handlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("id")

		var (
			rest *models.Restaurant
			err  error
		)
		if models.IsValidID(key) {
			rest, err = h.restaurants.GetByID(c.Request.Context(), key)
		} else {
			rest, err = h.restaurants.GetBySlug(c.Request.Context(), key)
		}
		if err != nil {
			respond.Error(c, err)
			return
		}
		if rest == nil {
			respond.Error(c, domain.NotFound("restaurant_not_found", "restaurant not found"))
			return
		}

		if user := middleware.CurrentUser(c); user != nil {
			fav, err := h.favorites.Exists(c.Request.Context(), user.ID, models.EntityRestaurant, rest.ID)
			if err != nil {
				respond.Error(c, err)
				return
			}
			c.JSON(http.StatusOK, struct {
				*models.Restaurant
				IsFavorite bool `json:"is_favorite"`
			}{rest, fav})
			return
		}

		c.JSON(http.StatusOK, rest)
	}
}

// @Summary      List own restaurants
// @Description  Restaurants the authenticated user holds any role on.
// @Tags         Restaurants
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "restaurants"
// @Router       /api/v1/owner/restaurants [get]
func (h *Handlers) ListOwnedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			respond.Error(c, domain.Unauthorized("unauthenticated", "authentication required"))
			return
		}

		list, err := h.restaurants.ListOwnedBy(c.Request.Context(), user.ID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"restaurants": list})
	}
}

type updateRequest struct {
	Name         *string `json:"name"`
	Slug         *string `json:"slug"`
	Description  *string `json:"description"`
	Address      *string `json:"address"`
	Municipality *string `json:"municipality"`
	Phone        *string `json:"phone"`
	PriceRange   *int    `json:"price_range"`
	Cuisine      *string `json:"cuisine"`
	Active       *bool   `json:"active"`
}

func (req *updateRequest) apply(rest *models.Restaurant) error {
	if req.Name != nil {
		if *req.Name == "" {
			return domain.Validation("invalid_name", "name must not be empty")
		}
		rest.Name = *req.Name
	}
	if req.Slug != nil {
		rest.Slug = Slugify(*req.Slug)
	}
	if req.Description != nil {
		rest.Description = *req.Description
	}
	if req.Address != nil {
		rest.Address = *req.Address
	}
	if req.Municipality != nil {
		rest.Municipality = *req.Municipality
	}
	if req.Phone != nil {
		rest.Phone = *req.Phone
	}
	if req.PriceRange != nil {
		if *req.PriceRange < 1 || *req.PriceRange > 4 {
			return domain.Validation("invalid_price_range", "price_range must be between 1 and 4")
		}
		rest.PriceRange = *req.PriceRange
	}
	if req.Cuisine != nil {
		rest.Cuisine = *req.Cuisine
	}
	if req.Active != nil {
		rest.Active = *req.Active
	}
	return nil
}

// @Summary      Update restaurant
// @Description  Partial update. Requires at least the manager role on the restaurant, or admin.
// @Tags         Restaurants
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Restaurant id"
// @Param        body  body  object  true  "Fields to change"
// @Success      200  {object}  models.Restaurant
// @Failure      403  {object}  map[string]interface{}  "Insufficient role"
// @Failure      404  {object}  map[string]interface{}  "Restaurant not found"
// @Router       /api/v1/owner/restaurants/{id} [patch]
func (h *Handlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}

		rest, err := h.restaurants.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		if rest == nil {
			respond.Error(c, domain.NotFound("restaurant_not_found", "restaurant not found"))
			return
		}

		if err := req.apply(rest); err != nil {
			respond.Error(c, err)
			return
		}
		if user := middleware.CurrentUser(c); user != nil {
			rest.UpdatedBy = &user.ID
		}

		if err := h.restaurants.Update(c.Request.Context(), rest); err != nil {
			if repositories.IsUniqueViolation(err) {
				respond.Error(c, domain.AlreadyExists("duplicate_slug", "slug is already taken"))
				return
			}
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, rest)
	}
}

// @Summary      Create restaurant
// @Description  Admin only. The slug is derived from the name when omitted.
// @Tags         Restaurants
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  object  true  "name, municipality, and optional fields"
// @Success      201  {object}  models.Restaurant
// @Failure      409  {object}  map[string]interface{}  "Slug already taken"
// @Failure      422  {object}  map[string]interface{}  "Invalid input"
// @Router       /api/v1/admin/restaurants [post]
func (h *Handlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name         string `json:"name" binding:"required"`
			Slug         string `json:"slug"`
			Description  string `json:"description"`
			Address      string `json:"address"`
			Municipality string `json:"municipality" binding:"required"`
			Phone        string `json:"phone"`
			PriceRange   int    `json:"price_range"`
			Cuisine      string `json:"cuisine"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}
		if req.PriceRange == 0 {
			req.PriceRange = 1
		}
		if req.PriceRange < 1 || req.PriceRange > 4 {
			respond.Error(c, domain.Validation("invalid_price_range", "price_range must be between 1 and 4"))
			return
		}
		if req.Slug == "" {
			req.Slug = Slugify(req.Name)
		} else {
			req.Slug = Slugify(req.Slug)
		}

		rest := &models.Restaurant{
			Name:         req.Name,
			Slug:         req.Slug,
			Description:  req.Description,
			Address:      req.Address,
			Municipality: req.Municipality,
			Phone:        req.Phone,
			PriceRange:   req.PriceRange,
			Cuisine:      req.Cuisine,
			Active:       true,
		}
		if user := middleware.CurrentUser(c); user != nil {
			rest.CreatedBy = &user.ID
			rest.UpdatedBy = &user.ID
		}

		if err := h.restaurants.Create(c.Request.Context(), rest); err != nil {
			if repositories.IsUniqueViolation(err) {
				respond.Error(c, domain.AlreadyExists("duplicate_slug", "slug is already taken"))
				return
			}
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, rest)
	}
}

// @Summary      List all restaurants
// @Description  Admin view including inactive restaurants.
// @Tags         Restaurants
// @Security     Bearer
// @Produce      json
// @Param        page      query  int  false  "Page number (default 1)"
// @Param        per_page  query  int  false  "Results per page (default 20, max 100)"
// @Success      200  {object}  map[string]interface{}  "restaurants, pagination"
// @Router       /api/v1/admin/restaurants [get]
func (h *Handlers) ListAllHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}

		list, total, err := h.restaurants.ListAll(c.Request.Context(), perPage, (page-1)*perPage)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"restaurants": list,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Delete restaurant
// @Description  Admin only. Archives the restaurant together with its dishes and reviews in one transaction, then removes the live rows.
// @Tags         Restaurants
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "Restaurant id"
// @Param        note  query  string  false  "Reason recorded on the archive entry"
// @Success      200  {object}  map[string]interface{}  "archive"
// @Failure      404  {object}  map[string]interface{}  "Restaurant not found"
// @Router       /api/v1/admin/restaurants/{id} [delete]
func (h *Handlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var note *string
		if n := c.Query("note"); n != "" {
			note = &n
		}
		var actorID *string
		if user := middleware.CurrentUser(c); user != nil {
			actorID = &user.ID
		}

		rec, err := h.archives.SoftDeleteRestaurant(c.Request.Context(), c.Param("id"), note, actorID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"archive": rec})
	}
}
