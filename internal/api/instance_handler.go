package api

import (
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InstanceHandler serves edits to single scheduled exercises and the
// hidden-occurrence ledger.
type InstanceHandler struct {
	instances service.InstanceService
	log       *logger.Logger
}

func NewInstanceHandler(instances service.InstanceService, log *logger.Logger) *InstanceHandler {
	return &InstanceHandler{instances: instances, log: log}
}

// AddManual godoc
// @Summary Add an exercise to a day by hand
// @Tags Instances
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param instance body ManualInstanceRequest true "Exercise details"
// @Success 201 {object} InstanceResponse
// @Router /instances [post]
func (h *InstanceHandler) AddManual(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req ManualInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	exerciseID, err := parseObjectID("exerciseId", req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	categoryID, err := parseOptionalObjectID("categoryId", req.CategoryID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	inst, err := h.instances.AddManual(c.Request.Context(), owner, service.ManualInstanceInput{
		Date:       date,
		ExerciseID: exerciseID,
		CategoryID: categoryID,
		Sets:       req.Sets,
		Reps:       req.Reps,
		Weight:     req.Weight,
		Plates:     req.Plates,
		Notes:      req.Notes,
	})
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to add exercise.")
		return
	}
	c.JSON(http.StatusCreated, MapInstanceToResponse(inst))
}

func (h *InstanceHandler) UpdateInstance(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	instanceID, ok := pathObjectID(c, "instanceId")
	if !ok {
		return
	}
	var req UpdateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	inst, err := h.instances.UpdateInstance(c.Request.Context(), owner, instanceID, service.InstanceUpdate{
		Sets:   req.Sets,
		Reps:   req.Reps,
		Weight: req.Weight,
		Plates: req.Plates,
		Notes:  req.Notes,
	})
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to update exercise.")
		return
	}
	c.JSON(http.StatusOK, MapInstanceToResponse(inst))
}

func (h *InstanceHandler) SetCompleted(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	instanceID, ok := pathObjectID(c, "instanceId")
	if !ok {
		return
	}
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	inst, err := h.instances.SetCompleted(c.Request.Context(), owner, instanceID, *req.Completed)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to update exercise.")
		return
	}
	c.JSON(http.StatusOK, MapInstanceToResponse(inst))
}

func (h *InstanceHandler) SetHidden(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	instanceID, ok := pathObjectID(c, "instanceId")
	if !ok {
		return
	}
	var req HideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	inst, err := h.instances.SetHidden(c.Request.Context(), owner, instanceID, *req.Hidden)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to update exercise.")
		return
	}
	c.JSON(http.StatusOK, MapInstanceToResponse(inst))
}

func (h *InstanceHandler) DeleteInstance(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	instanceID, ok := pathObjectID(c, "instanceId")
	if !ok {
		return
	}
	if err := h.instances.DeleteInstance(c.Request.Context(), owner, instanceID); err != nil {
		respondServiceError(c, h.log, err, "Failed to delete exercise.")
		return
	}
	c.Status(http.StatusNoContent)
}

// HideOccurrence hides one template occurrence, materialized or not.
func (h *InstanceHandler) HideOccurrence(c *gin.Context) {
	h.occurrence(c, true)
}

// UnhideOccurrence restores an occurrence hidden with HideOccurrence.
func (h *InstanceHandler) UnhideOccurrence(c *gin.Context) {
	h.occurrence(c, false)
}

func (h *InstanceHandler) occurrence(c *gin.Context, hide bool) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req OccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	planID, err := parseObjectID("planId", req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	exerciseID, err := parseObjectID("exerciseId", req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if hide {
		err = h.instances.HideOccurrence(c.Request.Context(), owner, planID, exerciseID, date)
	} else {
		err = h.instances.UnhideOccurrence(c.Request.Context(), owner, planID, exerciseID, date)
	}
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to update occurrence.")
		return
	}
	c.Status(http.StatusNoContent)
}
