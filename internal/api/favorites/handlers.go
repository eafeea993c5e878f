// Package favorites implements the authenticated bookmark endpoints over the
// polymorphic favorites relation. Targets are validated through a per-type
// resolver table; adding a favoritable type means registering one resolver,
// no schema change.
package favorites

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/descubre-boyaca/descubre-backend/internal/api/respond"
	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
	"github.com/descubre-boyaca/descubre-backend/internal/domain"
	"github.com/descubre-boyaca/descubre-backend/internal/middleware"
)

// targetResolver looks up a favorite target and returns its display name.
// found is false when the entity does not exist.
type targetResolver func(ctx context.Context, id string) (name string, found bool, err error)

// Handlers serves favorite endpoints
type Handlers struct {
	favorites *repositories.FavoriteRepository
	resolvers map[models.EntityType]targetResolver
}

// NewHandlers creates the favorite handlers. Entity types without a resolver
// (event, place, activity have no backing table yet) are rejected at create
// time and skipped in enriched listings.
func NewHandlers(
	favorites *repositories.FavoriteRepository,
	restaurants *repositories.RestaurantRepository,
	dishes *repositories.DishRepository,
) *Handlers {
	return &Handlers{
		favorites: favorites,
		resolvers: map[models.EntityType]targetResolver{
			models.EntityRestaurant: func(ctx context.Context, id string) (string, bool, error) {
				rest, err := restaurants.GetByID(ctx, id)
				if err != nil || rest == nil {
					return "", false, err
				}
				return rest.Name, true, nil
			},
			models.EntityDish: func(ctx context.Context, id string) (string, bool, error) {
				dish, err := dishes.GetByID(ctx, id)
				if err != nil || dish == nil {
					return "", false, err
				}
				return dish.Name, true, nil
			},
		},
	}
}

func (h *Handlers) resolve(ctx context.Context, entityType models.EntityType, entityID string) (string, bool, error) {
	resolver, ok := h.resolvers[entityType]
	if !ok {
		return "", false, nil
	}
	return resolver(ctx, entityID)
}

// @Summary      Add favorite
// @Description  Bookmark an entity. The target must exist; favoriting it twice answers 409.
// @Tags         Favorites
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  object  true  "entity_type, entity_id"
// @Success      201  {object}  models.Favorite
// @Failure      409  {object}  map[string]interface{}  "Already favorited"
// @Failure      422  {object}  map[string]interface{}  "Unknown entity type or missing target"
// @Router       /api/v1/favorites [post]
func (h *Handlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			respond.Error(c, domain.Unauthorized("unauthenticated", "authentication required"))
			return
		}

		var req struct {
			EntityType models.EntityType `json:"entity_type" binding:"required"`
			EntityID   string            `json:"entity_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, domain.Validation("invalid_body", err.Error()))
			return
		}
		if !req.EntityType.Valid() {
			respond.Error(c, domain.Validation("invalid_entity_type", "unknown entity type").
				With("entity_type", string(req.EntityType)))
			return
		}

		name, found, err := h.resolve(c.Request.Context(), req.EntityType, req.EntityID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if !found {
			respond.Error(c, domain.Validation("target_not_found", "the referenced entity does not exist").
				With("entity_type", string(req.EntityType)).
				With("entity_id", req.EntityID))
			return
		}

		fav := &models.Favorite{
			UserID:     user.ID,
			EntityType: req.EntityType,
			EntityID:   req.EntityID,
		}
		if err := h.favorites.Create(c.Request.Context(), fav); err != nil {
			if repositories.IsUniqueViolation(err) {
				respond.Error(c, domain.AlreadyExists("favorite_exists", "entity is already in your favorites"))
				return
			}
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.FavoriteWithTarget{Favorite: *fav, TargetName: name})
	}
}

// @Summary      Remove favorite
// @Tags         Favorites
// @Security     Bearer
// @Param        entity_type  path  string  true  "Entity type"
// @Param        entity_id    path  string  true  "Entity id"
// @Success      204  "Removed"
// @Failure      404  {object}  map[string]interface{}  "Not in favorites"
// @Router       /api/v1/favorites/{entity_type}/{entity_id} [delete]
func (h *Handlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			respond.Error(c, domain.Unauthorized("unauthenticated", "authentication required"))
			return
		}

		entityType := models.EntityType(c.Param("entity_type"))
		if !entityType.Valid() {
			respond.Error(c, domain.Validation("invalid_entity_type", "unknown entity type"))
			return
		}

		deleted, err := h.favorites.Delete(c.Request.Context(), user.ID, entityType, c.Param("entity_id"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		if !deleted {
			respond.Error(c, domain.NotFound("favorite_not_found", "entity is not in your favorites"))
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// @Summary      List favorites
// @Description  Paginated listing enriched with target names. Favorites whose target was deleted are kept in the total but omitted from the page.
// @Tags         Favorites
// @Security     Bearer
// @Produce      json
// @Param        page      query  int  false  "Page number (default 1)"
// @Param        per_page  query  int  false  "Results per page (default 20, max 100)"
// @Success      200  {object}  map[string]interface{}  "favorites, pagination"
// @Router       /api/v1/favorites [get]
func (h *Handlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			respond.Error(c, domain.Unauthorized("unauthenticated", "authentication required"))
			return
		}

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}

		list, total, err := h.favorites.ListByUser(c.Request.Context(), user.ID, perPage, (page-1)*perPage)
		if err != nil {
			respond.Error(c, err)
			return
		}

		enriched := make([]models.FavoriteWithTarget, 0, len(list))
		for _, fav := range list {
			name, found, err := h.resolve(c.Request.Context(), fav.EntityType, fav.EntityID)
			if err != nil {
				respond.Error(c, err)
				return
			}
			if !found {
				// Dangling target; the record stays and keeps counting
				// towards the total.
				continue
			}
			enriched = append(enriched, models.FavoriteWithTarget{Favorite: *fav, TargetName: name})
		}

		c.JSON(http.StatusOK, gin.H{
			"favorites": enriched,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Is favorite
// @Description  Reports whether the entity is in the caller's favorites.
// @Tags         Favorites
// @Security     Bearer
// @Produce      json
// @Param        entity_type  path  string  true  "Entity type"
// @Param        entity_id    path  string  true  "Entity id"
// @Success      200  {object}  map[string]interface{}  "is_favorite"
// @Router       /api/v1/favorites/{entity_type}/{entity_id} [get]
func (h *Handlers) IsFavoriteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			respond.Error(c, domain.Unauthorized("unauthenticated", "authentication required"))
			return
		}

		entityType := models.EntityType(c.Param("entity_type"))
		if !entityType.Valid() {
			respond.Error(c, domain.Validation("invalid_entity_type", "unknown entity type"))
			return
		}

		exists, err := h.favorites.Exists(c.Request.Context(), user.ID, entityType, c.Param("entity_id"))
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"is_favorite": exists})
	}
}
