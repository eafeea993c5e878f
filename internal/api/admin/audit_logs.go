// audit_logs.go implements the audit trail listing.
package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/descubre-boyaca/descubre-backend/internal/api/respond"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
)

// AuditLogHandlers serves the audit trail endpoints
type AuditLogHandlers struct {
	audits *repositories.AuditRepository
}

// NewAuditLogHandlers creates the audit log handlers
func NewAuditLogHandlers(audits *repositories.AuditRepository) *AuditLogHandlers {
	return &AuditLogHandlers{audits: audits}
}

// @Summary      List audit logs
// @Description  Recorded mutating requests, newest first.
// @Tags         Audit
// @Security     Bearer
// @Produce      json
// @Param        page      query  int  false  "Page number (default 1)"
// @Param        per_page  query  int  false  "Results per page (default 20, max 100)"
// @Success      200  {object}  map[string]interface{}  "audit_logs, pagination"
// @Router       /api/v1/admin/audit-logs [get]
func (h *AuditLogHandlers) ListAuditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}

		logs, total, err := h.audits.List(c.Request.Context(), perPage, (page-1)*perPage)
		if err != nil {
			respond.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"audit_logs": logs,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}
