package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"foodbook/internal/apperr"
)

// respondError maps the error taxonomy onto HTTP statuses. Validation
// failures come back keyed by field; conflicts carry an indicator so
// clients can tell a duplicate toggle from a malformed payload.
func respondError(c *gin.Context, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind == apperr.KindInternal {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
		return
	}

	switch e.Kind {
	case apperr.KindValidation:
		field := e.Field
		if field == "" {
			field = "non_field_errors"
		}
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{field: e.Msg}})
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"detail": e.Msg})
	case apperr.KindConflict:
		c.JSON(http.StatusBadRequest, gin.H{"detail": e.Msg, "conflict": true})
	case apperr.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"detail": e.Msg})
	case apperr.KindEmpty:
		c.JSON(http.StatusBadRequest, gin.H{"detail": e.Msg})
	}
}
