// stats.go implements the admin dashboard counters.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/descubre-boyaca/descubre-backend/internal/api/respond"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
)

// StatsHandlers serves the entity count endpoint
type StatsHandlers struct {
	restaurants *repositories.RestaurantRepository
	dishes      *repositories.DishRepository
	reviews     *repositories.ReviewRepository
	users       *repositories.UserRepository
	favorites   *repositories.FavoriteRepository
	archives    *repositories.ArchiveRepository
}

// NewStatsHandlers creates the stats handlers
func NewStatsHandlers(
	restaurants *repositories.RestaurantRepository,
	dishes *repositories.DishRepository,
	reviews *repositories.ReviewRepository,
	users *repositories.UserRepository,
	favorites *repositories.FavoriteRepository,
	archives *repositories.ArchiveRepository,
) *StatsHandlers {
	return &StatsHandlers{
		restaurants: restaurants,
		dishes:      dishes,
		reviews:     reviews,
		users:       users,
		favorites:   favorites,
		archives:    archives,
	}
}

// @Summary      Entity counts
// @Description  Live row counts per entity plus archive ledger counts per source table.
// @Tags         Stats
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "restaurants, dishes, reviews, users, favorites, archived"
// @Router       /api/v1/admin/stats [get]
func (h *StatsHandlers) StatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		restaurants, err := h.restaurants.Count(ctx)
		if err != nil {
			respond.Error(c, err)
			return
		}
		dishes, err := h.dishes.Count(ctx)
		if err != nil {
			respond.Error(c, err)
			return
		}
		reviews, err := h.reviews.Count(ctx)
		if err != nil {
			respond.Error(c, err)
			return
		}
		users, err := h.users.Count(ctx)
		if err != nil {
			respond.Error(c, err)
			return
		}
		favorites, err := h.favorites.Count(ctx)
		if err != nil {
			respond.Error(c, err)
			return
		}
		archived, err := h.archives.CountByTable(ctx)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"restaurants": restaurants,
			"dishes":      dishes,
			"reviews":     reviews,
			"users":       users,
			"favorites":   favorites,
			"archived":    archived,
		})
	}
}
