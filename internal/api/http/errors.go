package http

import (
	"errors"
	"net/http"

	"github.com/GriffinCanCode/chatgate/internal/engine"
	"github.com/GriffinCanCode/chatgate/internal/media"
	"github.com/GriffinCanCode/chatgate/internal/shared/types"
	"github.com/GriffinCanCode/chatgate/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusOf maps an error to its HTTP status
func StatusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrIdentityViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrSessionNotFound), errors.Is(err, engine.ErrEngineNotFound),
		errors.Is(err, storage.ErrNotFound), errors.Is(err, media.ErrForeignKey):
		return http.StatusNotFound
	case errors.Is(err, types.ErrAlreadyStarted):
		return http.StatusConflict
	case errors.Is(err, types.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
}
