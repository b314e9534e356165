package api

import (
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service error kinds onto HTTP statuses. Unknown
// errors are logged and answered with the generic message.
func respondServiceError(c *gin.Context, log *logger.Logger, err error, message string) {
	var conflictErr *service.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":     err.Error(),
			"conflicts": conflictErr.Conflicts,
		})
	case errors.Is(err, service.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidRange):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConflict):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrExportUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		log.Error(message, "error", err, "path", c.FullPath())
		abortWithError(c, http.StatusInternalServerError, message)
	}
}
