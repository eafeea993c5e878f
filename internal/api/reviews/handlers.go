// Package reviews implements public review listings and the authenticated
// create/update/delete surface. A user holds at most one review per
// restaurant; only the author or an admin may change or remove it.
package reviews

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
)

// Handlers serves review endpoints
type Handlers struct {
	reviews     *repositories.ReviewRepository
	restaurants *repositories.RestaurantRepository
	archives    *archive.Service
}

// NewHandlers creates the review handlers
func NewHandlers(
	reviews *repositories.ReviewRepository,
	restaurants *repositories.RestaurantRepository,
	archives *archive.Service,
) *Handlers {
	return &Handlers{reviews: reviews, restaurants: restaurants, archives: archives}
}

// @Summary      List reviews of a restaurant
// @Description  Public listing with reviewer names, paginated.
// @Tags         Reviews
// @Produce      json
// @Param        id        path   string  true   "Restaurant id"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        per_page  query  int     false  "Results per page (default 20, max 100)"
// @Success      200  {object}  map[string]interface{}  "reviews, pagination"
// @Failure      404  {object}  map[string]interface{}  "Restaurant not found"
// @Router       /api/v1/restaurants/{id}/reviews [get]
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

		list, total, err := h.reviews.ListByRestaurant(c.Request.Context(), restaurantID, perPage, (page-1)*perPage)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"reviews": list,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Create review
// @Description  One review per user per restaurant. A second attempt answers 409; use PATCH to change an existing review.
// @Tags         Reviews
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Restaurant id"
// @Param        body  body  object  true  "rating (1..5), comment"
// @Success      201  {object}  models.Review
// @Failure      404  {object}  map[string]interface{}  "Restaurant not found"
// @Failure      409  {object}  map[string]interface{}  "Review already exists"
// @Failure      422  {object}  map[string]interface{}  "Invalid rating"
// @Router       /api/v1/restaurants/{id}/reviews [post]
func (h *Handlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			respond.Error(c, domain.Unauthorized("unauthenticated", "authentication required"))
			return
		}

		var req struct {
			Rating  int    `json:"rating" binding:"required"`
			Comment string `json:"comment"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}
		if req.Rating < 1 || req.Rating > 5 {
			respond.Error(c, domain.Validation("invalid_rating", "rating must be between 1 and 5"))
			return
		}

		restaurantID := c.Param("id")
		exists, err := h.restaurants.Exists(c.Request.Context(), restaurantID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if !exists {
			respond.Error(c, domain.NotFound("restaurant_not_found", "restaurant not found"))
			return
		}

		review := &models.Review{
			RestaurantID: restaurantID,
			UserID:       user.ID,
			Rating:       req.Rating,
			Comment:      req.Comment,
			CreatedBy:    &user.ID,
			UpdatedBy:    &user.ID,
		}
		if err := h.reviews.Create(c.Request.Context(), review); err != nil {
			if repositories.IsUniqueViolation(err) {
				respond.Error(c, domain.AlreadyExists("review_exists", "you already reviewed this restaurant"))
				return
			}
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, review)
	}
}

// loadOwn fetches the review and checks the caller may touch it. Only the
// author and admins pass.
func (h *Handlers) loadOwn(c *gin.Context) (*models.Review, *models.User, error) {
	user := middleware.CurrentUser(c)
	if user == nil {
		return nil, nil, domain.Unauthorized("unauthenticated", "authentication required")
	}

	review, err := h.reviews.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, nil, err
	}
	if review == nil {
		return nil, nil, domain.NotFound("review_not_found", "review not found")
	}
	if review.UserID != user.ID && !user.IsAdmin() {
		return nil, nil, domain.Forbidden("not_your_review", "you may only change your own review")
	}
	return review, user, nil
}

// @Summary      Update review
// @Description  Authors update their own review; admins may update any.
// @Tags         Reviews
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Review id"
// @Param        body  body  object  true  "rating and/or comment"
// @Success      200  {object}  models.Review
// @Failure      403  {object}  map[string]interface{}  "Not the author"
// @Failure      404  {object}  map[string]interface{}  "Review not found"
// @Router       /api/v1/reviews/{id} [patch]
func (h *Handlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Rating  *int    `json:"rating"`
			Comment *string `json:"comment"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}

		review, user, err := h.loadOwn(c)
		if err != nil {
			respond.Error(c, err)
			return
		}

		if req.Rating != nil {
			if *req.Rating < 1 || *req.Rating > 5 {
				respond.Error(c, domain.Validation("invalid_rating", "rating must be between 1 and 5"))
				return
			}
			review.Rating = *req.Rating
		}
		if req.Comment != nil {
			review.Comment = *req.Comment
		}
		review.UpdatedBy = &user.ID

		if err := h.reviews.Update(c.Request.Context(), review); err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, review)
	}
}

// @Summary      Delete review
// @Description  Archives the review and removes the live row in one transaction. Authors delete their own review; admins may delete any.
// @Tags         Reviews
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Review id"
// @Success      200  {object}  map[string]interface{}  "archive"
// @Failure      403  {object}  map[string]interface{}  "Not the author"
// @Failure      404  {object}  map[string]interface{}  "Review not found"
// @Router       /api/v1/reviews/{id} [delete]
func (h *Handlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		review, user, err := h.loadOwn(c)
		if err != nil {
			respond.Error(c, err)
			return
		}

		rec, err := h.archives.SoftDeleteReview(c.Request.Context(), review.ID, nil, &user.ID)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"archive": rec})
	}
}
