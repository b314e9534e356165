package api

import (
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CalendarHandler serves the resolved calendar and day-level operations.
type CalendarHandler struct {
	resolver  service.ScheduleResolver
	ordering  service.OrderingManager
	instances service.InstanceService
	exports   service.ExportService
	scheduler service.GenerationScheduler
	log       *logger.Logger
}

func NewCalendarHandler(
	resolver service.ScheduleResolver,
	ordering service.OrderingManager,
	instances service.InstanceService,
	exports service.ExportService,
	scheduler service.GenerationScheduler,
	log *logger.Logger,
) *CalendarHandler {
	return &CalendarHandler{
		resolver:  resolver,
		ordering:  ordering,
		instances: instances,
		exports:   exports,
		scheduler: scheduler,
		log:       log,
	}
}

// GetDay godoc
// @Summary Resolve one calendar day
// @Description Materialized instances win; untouched days fall back to a preview of the active template.
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} DayViewResponse
// @Router /calendar/{date} [get]
func (h *CalendarHandler) GetDay(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	date, ok := pathDate(c)
	if !ok {
		return
	}
	view, err := h.resolver.ResolveDay(c.Request.Context(), owner, date)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to resolve day.")
		return
	}
	c.JSON(http.StatusOK, MapDayViewToResponse(*view))
}

// GetRange resolves ?from=&to= inclusively.
func (h *CalendarHandler) GetRange(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "from and to query parameters are required")
		return
	}
	from, to, err := parseRange(req)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	views, err := h.resolver.ResolveRange(c.Request.Context(), owner, from, to)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to resolve calendar.")
		return
	}
	resp := make([]DayViewResponse, len(views))
	for i, v := range views {
		resp[i] = MapDayViewToResponse(v)
	}
	c.JSON(http.StatusOK, resp)
}

// ReorderDay assigns new order indices to the day's instances.
func (h *CalendarHandler) ReorderDay(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	date, ok := pathDate(c)
	if !ok {
		return
	}
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	ids := make([]primitive.ObjectID, len(req.InstanceIDs))
	for i, hex := range req.InstanceIDs {
		id, err := parseObjectID("instanceId", hex)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		ids[i] = id
	}

	ordered, err := h.ordering.Reorder(c.Request.Context(), owner, date, ids)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to reorder day.")
		return
	}
	c.JSON(http.StatusOK, MapInstancesToResponse(ordered))
}

// ClearDay deletes every instance stored for the date.
func (h *CalendarHandler) ClearDay(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	date, ok := pathDate(c)
	if !ok {
		return
	}
	deleted, err := h.instances.DeleteDay(c.Request.Context(), owner, date)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to clear day.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// ExportRange uploads the resolved range and returns a download link.
func (h *CalendarHandler) ExportRange(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req DateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	from, to, err := parseRange(req)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.exports.ExportRange(c.Request.Context(), owner, from, to)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to export calendar.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Generate tops up the caller's active plan to the lookahead horizon. Clients
// call it when the calendar is opened.
func (h *CalendarHandler) Generate(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	gen, err := h.scheduler.EnsureGenerated(c.Request.Context(), owner)
	if err != nil {
		if gen != nil && gen.Result != nil {
			h.log.Error("on-demand generation incomplete", "owner_id", owner.Hex(), "created", gen.Result.CreatedCount, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":        "Generation stopped before completion.",
				"createdCount": gen.Result.CreatedCount,
			})
			return
		}
		respondServiceError(c, h.log, err, "Failed to generate schedule.")
		return
	}
	c.JSON(http.StatusOK, gen)
}
