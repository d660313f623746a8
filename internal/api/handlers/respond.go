package handlers

import (
	"errors"
	"net/http"

	"github.com/frosty888/eProtokoll/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// writeError maps the service error taxonomy onto HTTP status codes. The
// taxonomy carries operation and entity context, so the message is usable
// as-is.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrPermission):
		status = http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrAllocation), errors.Is(err, apperrors.ErrPersistence):
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
