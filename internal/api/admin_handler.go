package api

import (
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	scheduler service.GenerationScheduler
	log       *logger.Logger
}

func NewAdminHandler(scheduler service.GenerationScheduler, log *logger.Logger) *AdminHandler {
	return &AdminHandler{scheduler: scheduler, log: log}
}

// GenerateAll runs generation for every active plan. Per-owner failures are
// listed in the report; the call itself only fails if plans cannot be listed.
func (h *AdminHandler) GenerateAll(c *gin.Context) {
	report, err := h.scheduler.GenerateForAllActivePlans(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to run generation.")
		return
	}
	c.JSON(http.StatusOK, report)
}
