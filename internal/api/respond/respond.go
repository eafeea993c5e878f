// Package respond maps domain errors onto the HTTP boundary. Handlers call
// Error with whatever a service returned and never reason about status codes
// themselves; the Kind-to-status table below is the single place where the
// taxonomy meets HTTP.
package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/descubre-boyaca/descubre-backend/internal/domain"
)

var statusByKind = map[domain.Kind]int{
	domain.KindAlreadyExists: http.StatusConflict,
	domain.KindNotFound:      http.StatusNotFound,
	domain.KindForbidden:     http.StatusForbidden,
	domain.KindUnauthorized:  http.StatusUnauthorized,
	domain.KindValidation:    http.StatusUnprocessableEntity,
	domain.KindDomain:        http.StatusConflict,
}

// Error writes the JSON error body for err. Domain errors keep their code and
// message; anything else is logged and collapsed to an opaque 500 so internal
// details never leak to clients.
func Error(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		slog.Error("unhandled error", "error", err, "path", c.FullPath(), "method", c.Request.Method)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "internal server error"})
		return
	}

	status, ok := statusByKind[de.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := gin.H{"error": de.Code, "message": de.Message}
	if len(de.Context) > 0 {
		body["details"] = de.Context
	}
	c.JSON(status, body)
}
