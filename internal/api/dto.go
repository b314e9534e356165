package api

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Request DTOs ---

type ExerciseTemplateRequest struct {
	ExerciseID string             `json:"exerciseId" binding:"required"`
	CategoryID string             `json:"categoryId"`
	Sets       int                `json:"sets" binding:"min=0"`
	Reps       int                `json:"reps" binding:"min=0"`
	Weight     float64            `json:"weight" binding:"min=0"`
	Plates     []domain.PlateLoad `json:"plates"`
	Notes      string             `json:"notes"`
	Order      int                `json:"order" binding:"min=0"`
}

type DayTemplateRequest struct {
	Exercises []ExerciseTemplateRequest `json:"exercises" binding:"dive"`
}

// PlanRequest is used for both create and update. WeeklyTemplate is indexed
// Sunday (0) through Saturday (6).
type PlanRequest struct {
	Name           string               `json:"name" binding:"required"`
	Description    string               `json:"description"`
	Level          string               `json:"level"`
	DurationWeeks  *int                 `json:"durationWeeks"`
	Mode           string               `json:"mode" binding:"required,oneof=ongoing dated"`
	StartDate      *string              `json:"startDate"` // YYYY-MM-DD
	EndDate        *string              `json:"endDate"`   // YYYY-MM-DD
	WeeklyTemplate []DayTemplateRequest `json:"weeklyTemplate" binding:"required,len=7,dive"`
}

type DateRangeRequest struct {
	From string `json:"from" form:"from" binding:"required"`
	To   string `json:"to" form:"to" binding:"required"`
}

type ReorderRequest struct {
	InstanceIDs []string `json:"instanceIds" binding:"required"`
}

type ManualInstanceRequest struct {
	Date       string             `json:"date" binding:"required"`
	ExerciseID string             `json:"exerciseId" binding:"required"`
	CategoryID string             `json:"categoryId"`
	Sets       int                `json:"sets" binding:"min=0"`
	Reps       int                `json:"reps" binding:"min=0"`
	Weight     float64            `json:"weight" binding:"min=0"`
	Plates     []domain.PlateLoad `json:"plates"`
	Notes      string             `json:"notes"`
}

type UpdateInstanceRequest struct {
	Sets   *int                `json:"sets"`
	Reps   *int                `json:"reps"`
	Weight *float64            `json:"weight"`
	Plates *[]domain.PlateLoad `json:"plates"`
	Notes  *string             `json:"notes"`
}

type CompleteRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

type HideRequest struct {
	Hidden *bool `json:"hidden" binding:"required"`
}

type OccurrenceRequest struct {
	PlanID     string `json:"planId" binding:"required"`
	ExerciseID string `json:"exerciseId" binding:"required"`
	Date       string `json:"date" binding:"required"`
}

// --- Response DTOs ---

type PlanResponse struct {
	ID             string                `json:"id"`
	OwnerID        string                `json:"ownerId"`
	Name           string                `json:"name"`
	Description    string                `json:"description,omitempty"`
	Level          string                `json:"level,omitempty"`
	DurationWeeks  *int                  `json:"durationWeeks,omitempty"`
	Mode           string                `json:"mode"`
	StartDate      *string               `json:"startDate,omitempty"`
	EndDate        *string               `json:"endDate,omitempty"`
	WeeklyTemplate domain.WeeklyTemplate `json:"weeklyTemplate"`
	IsActive       bool                  `json:"isActive"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

type InstanceResponse struct {
	ID             string             `json:"id"`
	Date           string             `json:"date"`
	ExerciseID     string             `json:"exerciseId"`
	CategoryID     string             `json:"categoryId,omitempty"`
	Sets           int                `json:"sets"`
	Reps           int                `json:"reps"`
	Weight         float64            `json:"weight"`
	Plates         []domain.PlateLoad `json:"plates,omitempty"`
	Notes          string             `json:"notes,omitempty"`
	Order          int                `json:"order"`
	Completed      bool               `json:"completed"`
	CompletedAt    *time.Time         `json:"completedAt,omitempty"`
	SourcePlanID   *string            `json:"sourcePlanId,omitempty"`
	IsManual       bool               `json:"isManual"`
	IsHidden       bool               `json:"isHidden"`
	ModifiedByUser bool               `json:"modifiedByUser"`
}

type DayViewResponse struct {
	Date         string            `json:"date"`
	ActivePlanID *string           `json:"activePlanId,omitempty"`
	Items        []service.DayItem `json:"items"`
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := domain.FormatDate(*t)
	return &s
}

func hexPtr(id *primitive.ObjectID) *string {
	if id == nil {
		return nil
	}
	s := id.Hex()
	return &s
}

func optionalHex(id primitive.ObjectID) string {
	if id == primitive.NilObjectID {
		return ""
	}
	return id.Hex()
}

// MapPlanToResponse converts a domain.WorkoutPlan to PlanResponse DTO.
func MapPlanToResponse(p *domain.WorkoutPlan) PlanResponse {
	if p == nil {
		return PlanResponse{}
	}
	return PlanResponse{
		ID:             p.ID.Hex(),
		OwnerID:        p.OwnerID.Hex(),
		Name:           p.Name,
		Description:    p.Description,
		Level:          p.Level,
		DurationWeeks:  p.DurationWeeks,
		Mode:           string(p.Mode),
		StartDate:      formatDatePtr(p.StartDate),
		EndDate:        formatDatePtr(p.EndDate),
		WeeklyTemplate: p.Template,
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func MapPlansToResponse(plans []domain.WorkoutPlan) []PlanResponse {
	responses := make([]PlanResponse, len(plans))
	for i := range plans {
		responses[i] = MapPlanToResponse(&plans[i])
	}
	return responses
}

// MapInstanceToResponse converts a domain.ScheduledExerciseInstance to InstanceResponse DTO.
func MapInstanceToResponse(inst *domain.ScheduledExerciseInstance) InstanceResponse {
	if inst == nil {
		return InstanceResponse{}
	}
	return InstanceResponse{
		ID:             inst.ID.Hex(),
		Date:           domain.FormatDate(inst.Date),
		ExerciseID:     inst.ExerciseID.Hex(),
		CategoryID:     optionalHex(inst.CategoryID),
		Sets:           inst.Sets,
		Reps:           inst.Reps,
		Weight:         inst.Weight,
		Plates:         inst.Plates,
		Notes:          inst.Notes,
		Order:          inst.Order,
		Completed:      inst.Completed,
		CompletedAt:    inst.CompletedAt,
		SourcePlanID:   hexPtr(inst.SourcePlanID),
		IsManual:       inst.IsManual,
		IsHidden:       inst.IsHidden,
		ModifiedByUser: inst.ModifiedByUser,
	}
}

func MapInstancesToResponse(instances []domain.ScheduledExerciseInstance) []InstanceResponse {
	responses := make([]InstanceResponse, len(instances))
	for i := range instances {
		responses[i] = MapInstanceToResponse(&instances[i])
	}
	return responses
}

func MapDayViewToResponse(v service.DayView) DayViewResponse {
	return DayViewResponse{
		Date:         domain.FormatDate(v.Date),
		ActivePlanID: hexPtr(v.ActivePlanID),
		Items:        v.Items,
	}
}

// --- Request parsing helpers ---

func parseObjectID(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid %s format", field)
	}
	return id, nil
}

func parseOptionalObjectID(field, hex string) (primitive.ObjectID, error) {
	if hex == "" {
		return primitive.NilObjectID, nil
	}
	return parseObjectID(field, hex)
}

func parseDate(field, s string) (time.Time, error) {
	d, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s, expected YYYY-MM-DD", field)
	}
	return d, nil
}

func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := parseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// pathDate parses the :date path parameter or aborts with 400.
func pathDate(c *gin.Context) (time.Time, bool) {
	d, err := parseDate("date", c.Param("date"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return time.Time{}, false
	}
	return d, true
}

func parseRange(r DateRangeRequest) (from, to time.Time, err error) {
	if from, err = parseDate("from", r.From); err != nil {
		return
	}
	to, err = parseDate("to", r.To)
	return
}

// toPlanInput converts the request into service input.
func (r PlanRequest) toPlanInput() (service.PlanInput, error) {
	in := service.PlanInput{
		Name:          r.Name,
		Description:   r.Description,
		Level:         r.Level,
		DurationWeeks: r.DurationWeeks,
		Mode:          domain.ScheduleMode(r.Mode),
	}
	var err error
	if in.StartDate, err = parseOptionalDate("startDate", r.StartDate); err != nil {
		return in, err
	}
	if in.EndDate, err = parseOptionalDate("endDate", r.EndDate); err != nil {
		return in, err
	}
	if len(r.WeeklyTemplate) != len(in.Template) {
		return in, fmt.Errorf("weeklyTemplate must have exactly %d days", len(in.Template))
	}
	for wd, day := range r.WeeklyTemplate {
		exercises := make([]domain.ExerciseTemplate, 0, len(day.Exercises))
		for _, et := range day.Exercises {
			exerciseID, err := parseObjectID("exerciseId", et.ExerciseID)
			if err != nil {
				return in, err
			}
			categoryID, err := parseOptionalObjectID("categoryId", et.CategoryID)
			if err != nil {
				return in, err
			}
			exercises = append(exercises, domain.ExerciseTemplate{
				ExerciseID: exerciseID,
				CategoryID: categoryID,
				Sets:       et.Sets,
				Reps:       et.Reps,
				Weight:     et.Weight,
				Plates:     et.Plates,
				Notes:      et.Notes,
				Order:      et.Order,
			})
		}
		in.Template[wd] = domain.DayTemplate{Exercises: exercises}
	}
	return in, nil
}
