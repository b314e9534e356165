package api

import (
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler serves plan management, activation and generation endpoints.
type PlanHandler struct {
	planService   service.PlanService
	conflicts     service.ConflictDetector
	activation    service.ActivationCoordinator
	tracker       service.GenerationTracker
	materializer  service.Materializer
	lookaheadDays int
	log           *logger.Logger
}

func NewPlanHandler(
	planService service.PlanService,
	conflicts service.ConflictDetector,
	activation service.ActivationCoordinator,
	tracker service.GenerationTracker,
	materializer service.Materializer,
	lookaheadDays int,
	log *logger.Logger,
) *PlanHandler {
	return &PlanHandler{
		planService:   planService,
		conflicts:     conflicts,
		activation:    activation,
		tracker:       tracker,
		materializer:  materializer,
		lookaheadDays: lookaheadDays,
		log:           log,
	}
}

type ConflictCheckRequest struct {
	StartDate     string `json:"startDate" binding:"required"`
	EndDate       string `json:"endDate" binding:"required"`
	ExcludePlanID string `json:"excludePlanId"`
}

// CreatePlan godoc
// @Summary Create a workout plan
// @Description Creates an inactive plan. Dated plans overlapping another dated plan are rejected.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body PlanRequest true "Plan details"
// @Success 201 {object} PlanResponse
// @Failure 400 {object} gin.H "Malformed input"
// @Failure 409 {object} gin.H "Overlapping dated plans"
// @Failure 422 {object} gin.H "Validation error"
// @Router /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	in, err := req.toPlanInput()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), owner, in)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to create plan.")
		return
	}
	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// ListPlans returns every plan of the caller, newest first.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	plans, err := h.planService.ListPlans(c.Request.Context(), owner)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to retrieve plans.")
		return
	}
	c.JSON(http.StatusOK, MapPlansToResponse(plans))
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	plan, err := h.planService.GetPlan(c.Request.Context(), owner, planID)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to retrieve plan.")
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// UpdatePlan godoc
// @Summary Replace a plan's fields and template
// @Description Existing instances are not rewritten; only later generation and previews change.
// @Tags Plans
// @Router /plans/{planId} [put]
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	in, err := req.toPlanInput()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), owner, planID, in)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to update plan.")
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

func (h *PlanHandler) DeletePlan(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	if err := h.planService.DeletePlan(c.Request.Context(), owner, planID); err != nil {
		respondServiceError(c, h.log, err, "Failed to delete plan.")
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckConflicts lists dated plans overlapping a candidate interval without
// rejecting anything.
func (h *PlanHandler) CheckConflicts(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	start, end, err := parseRange(DateRangeRequest{From: req.StartDate, To: req.EndDate})
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	var exclude *primitive.ObjectID
	if req.ExcludePlanID != "" {
		id, err := parseObjectID("excludePlanId", req.ExcludePlanID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		exclude = &id
	}

	conflicts, err := h.conflicts.FindConflicts(c.Request.Context(), owner, start, end, exclude)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to check conflicts.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts})
}

// ActivatePlan godoc
// @Summary Make a plan the caller's only active plan
// @Description Deactivates the current plan, activates this one and generates the lookahead window.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ActivationResult
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/{planId}/activate [post]
func (h *PlanHandler) ActivatePlan(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	result, err := h.activation.Activate(c.Request.Context(), owner, planID)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to activate plan.")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *PlanHandler) DeactivatePlan(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	if err := h.activation.Deactivate(c.Request.Context(), owner, planID); err != nil {
		respondServiceError(c, h.log, err, "Failed to deactivate plan.")
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerationStatus reports how far the plan is materialized. The optional
// lookahead query parameter overrides the configured horizon.
func (h *PlanHandler) GenerationStatus(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	lookahead := h.lookaheadDays
	if raw := c.Query("lookahead"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "lookahead must be an integer")
			return
		}
		lookahead = n
	}

	plan, err := h.planService.GetPlan(c.Request.Context(), owner, planID)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to retrieve plan.")
		return
	}
	status, err := h.tracker.CheckStatus(c.Request.Context(), plan, lookahead)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to compute generation status.")
		return
	}
	c.JSON(http.StatusOK, status)
}

// MaterializePlan expands the plan over an explicit range. A partial failure
// answers 500 with the number of instances that were created.
func (h *PlanHandler) MaterializePlan(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
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

	plan, err := h.planService.GetPlan(c.Request.Context(), owner, planID)
	if err != nil {
		respondServiceError(c, h.log, err, "Failed to retrieve plan.")
		return
	}
	result, err := h.materializer.Materialize(c.Request.Context(), plan, from, to)
	if err != nil {
		if result != nil {
			h.log.Error("materialization incomplete", "plan_id", planID.Hex(), "created", result.CreatedCount, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":        "Materialization stopped before completion.",
				"createdCount": result.CreatedCount,
				"batchId":      result.BatchID,
			})
			return
		}
		respondServiceError(c, h.log, err, "Failed to materialize plan.")
		return
	}
	c.JSON(http.StatusOK, result)
}
