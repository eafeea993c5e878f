// audit.go provides Gin middleware that records authenticated write
// operations to the audit log table.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/descubre-boyaca/descubre-backend/internal/config"
	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
)

// resourceTypeFor maps a request path to the audited resource type
func resourceTypeFor(path string) string {
	switch {
	case strings.Contains(path, "/archives"):
		return "archive"
	case strings.Contains(path, "/owners"):
		return "ownership"
	case strings.Contains(path, "/restaurants"):
		return "restaurant"
	case strings.Contains(path, "/dishes"):
		return "dish"
	case strings.Contains(path, "/reviews"):
		return "review"
	case strings.Contains(path, "/favorites"):
		return "favorite"
	case strings.Contains(path, "/users"):
		return "user"
	default:
		return ""
	}
}

// AuditMiddleware records mutating requests to the audit log. Reads are never
// audited; failed requests only when audit.log_failed_requests is set.
//
// The write is asynchronous and best-effort: an audit insert failure is logged
// but never turns a successful mutation into an error response. The 5-second
// timeout prevents leaked goroutines if the DB is temporarily unreachable.
func AuditMiddleware(auditRepo *repositories.AuditRepository, auditCfg config.AuditConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if !auditCfg.Enabled {
			return
		}

		method := c.Request.Method
		if method == "OPTIONS" || method == "GET" || method == "HEAD" {
			return
		}
		if c.Writer.Status() >= 400 && !auditCfg.LogFailedRequests {
			return
		}

		entry := &models.AuditLog{
			Action:    fmt.Sprintf("%s %s", method, c.Request.URL.Path),
			CreatedAt: time.Now().UTC(),
		}

		ipAddress := c.ClientIP()
		if ipAddress != "" {
			entry.IPAddress = &ipAddress
		}

		if userID, exists := c.Get(UserIDContextKey); exists {
			if uid, ok := userID.(string); ok && uid != "" {
				entry.UserID = &uid
			}
		}

		if rt := resourceTypeFor(c.Request.URL.Path); rt != "" {
			entry.ResourceType = &rt
		}
		if resourceID := c.Param("id"); resourceID != "" {
			entry.ResourceID = &resourceID
		}

		metadata := map[string]any{
			"status_code": c.Writer.Status(),
		}
		if requestID, exists := c.Get(RequestIDKey); exists {
			metadata["request_id"] = requestID
		}
		entry.Metadata = metadata

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := auditRepo.Insert(ctx, entry); err != nil {
				slog.Error("failed to write audit log", "action", entry.Action, "error", err)
			}
		}()
	}
}
