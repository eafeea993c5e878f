// Package admin implements the /api/v1/admin surface: archive ledger
// management, ownership grants, user administration, entity counts, and the
// audit trail. Every route here sits behind RequireAdmin.
package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/descubre-boyaca/descubre-backend/internal/api/respond"
	"github.com/descubre-boyaca/descubre-backend/internal/archive"
	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/domain"
)

// ArchiveHandlers serves the archive ledger endpoints
type ArchiveHandlers struct {
	archives *archive.Service
}

// NewArchiveHandlers creates the archive admin handlers
func NewArchiveHandlers(archives *archive.Service) *ArchiveHandlers {
	return &ArchiveHandlers{archives: archives}
}

// validArchiveTable admits only the soft-deleted tables. User deletion is a
// hard delete and writes no archive records.
func validArchiveTable(table string) bool {
	switch table {
	case models.TableRestaurants, models.TableDishes, models.TableReviews:
		return true
	}
	return false
}

// @Summary      List archive records
// @Description  Records of one source table, newest deletion first.
// @Tags         Archives
// @Security     Bearer
// @Produce      json
// @Param        table     query  string  true   "Source table (restaurants, dishes, reviews)"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        per_page  query  int     false  "Results per page (default 20, max 100)"
// @Success      200  {object}  map[string]interface{}  "archives, pagination"
// @Failure      422  {object}  map[string]interface{}  "Unknown table"
// @Router       /api/v1/admin/archives [get]
func (h *ArchiveHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		table := c.Query("table")
		if !validArchiveTable(table) {
			respond.Error(c, domain.Validation("invalid_table", "unknown archive source table").
				With("table", table))
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

		records, total, err := h.archives.ListByTable(c.Request.Context(), table, perPage, (page-1)*perPage)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"archives": records,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Get archive record by original
// @Description  Look up the snapshot of a deleted entity by its source table and original id.
// @Tags         Archives
// @Security     Bearer
// @Produce      json
// @Param        table  path  string  true  "Source table"
// @Param        id     path  string  true  "Original entity id"
// @Success      200  {object}  models.ArchiveRecord
// @Failure      404  {object}  map[string]interface{}  "No archive record"
// @Router       /api/v1/admin/archives/{table}/{id} [get]
func (h *ArchiveHandlers) GetByOriginalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		table := c.Param("table")
		if !validArchiveTable(table) {
			respond.Error(c, domain.Validation("invalid_table", "unknown archive source table").
				With("table", table))
			return
		}

		rec, err := h.archives.GetByOriginal(c.Request.Context(), table, c.Param("id"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		if rec == nil {
			respond.Error(c, domain.NotFound("archive_not_found", "no archive record for this entity"))
			return
		}

		c.JSON(http.StatusOK, rec)
	}
}

// @Summary      Restore archived entity
// @Description  Re-inserts the snapshot into its source table. Fails with 409 when the original id is live again.
// @Tags         Archives
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Archive record id"
// @Success      201  {object}  map[string]interface{}  "entity"
// @Failure      404  {object}  map[string]interface{}  "Archive record not found"
// @Failure      409  {object}  map[string]interface{}  "Id already in use or parent missing"
// @Router       /api/v1/admin/archives/{id}/restore [post]
func (h *ArchiveHandlers) RestoreHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entity, err := h.archives.Restore(c.Request.Context(), c.Param("id"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"entity": entity})
	}
}

// @Summary      Hard delete archive record
// @Description  Permanently removes the snapshot. Irreversible.
// @Tags         Archives
// @Security     Bearer
// @Param        id  path  string  true  "Archive record id"
// @Success      204  "Removed"
// @Failure      404  {object}  map[string]interface{}  "Archive record not found"
// @Router       /api/v1/admin/archives/{id} [delete]
func (h *ArchiveHandlers) HardDeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.archives.HardDelete(c.Request.Context(), c.Param("id")); err != nil {
			respond.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
