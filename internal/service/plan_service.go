package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/repository"
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanInput carries the user-editable fields of a plan.
type PlanInput struct {
	Name          string
	Description   string
	Level         string
	DurationWeeks *int
	Mode          domain.ScheduleMode
	StartDate     *time.Time
	EndDate       *time.Time
	Template      domain.WeeklyTemplate
}

// --- Service Interface ---
type PlanService interface {
	CreatePlan(ctx context.Context, ownerID primitive.ObjectID, in PlanInput) (*domain.WorkoutPlan, error)
	GetPlan(ctx context.Context, ownerID, planID primitive.ObjectID) (*domain.WorkoutPlan, error)
	ListPlans(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	UpdatePlan(ctx context.Context, ownerID, planID primitive.ObjectID, in PlanInput) (*domain.WorkoutPlan, error)
	DeletePlan(ctx context.Context, ownerID, planID primitive.ObjectID) error
}

// --- Service Implementation ---

type planService struct {
	planRepo  repository.PlanRepository
	conflicts ConflictDetector
	now       Clock
	log       *logger.Logger
}

// NewPlanService creates a new instance of planService.
func NewPlanService(planRepo repository.PlanRepository, conflicts ConflictDetector, now Clock, log *logger.Logger) PlanService {
	return &planService{
		planRepo:  planRepo,
		conflicts: conflicts,
		now:       now,
		log:       log.With("component", "plans"),
	}
}

// CreatePlan validates and stores a new, inactive plan. Dated plans that
// overlap another dated plan of the owner are rejected with a ConflictError.
func (s *planService) CreatePlan(ctx context.Context, ownerID primitive.ObjectID, in PlanInput) (*domain.WorkoutPlan, error) {
	if ownerID == primitive.NilObjectID {
		return nil, ErrNotFound
	}
	in, err := normalizePlanInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.rejectConflicts(ctx, ownerID, in, nil); err != nil {
		return nil, err
	}

	// An ongoing plan's window opens on its creation date.
	plan := &domain.WorkoutPlan{OwnerID: ownerID, IsActive: false, CreatedAt: s.now().UTC()}
	applyPlanInput(plan, in)

	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	s.log.Info("plan created", "owner_id", ownerID.Hex(), "plan_id", planID.Hex(), "mode", plan.Mode)
	return plan, nil
}

// GetPlan retrieves a plan owned by ownerID.
func (s *planService) GetPlan(ctx context.Context, ownerID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, ownerID, planID)
	if err != nil {
		return nil, fromRepo(err)
	}
	return plan, nil
}

// ListPlans retrieves all plans of an owner.
func (s *planService) ListPlans(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	return s.planRepo.ListByOwner(ctx, ownerID)
}

// UpdatePlan replaces the editable fields. Already materialized instances are
// left alone; only future generation and previews see the new template.
func (s *planService) UpdatePlan(ctx context.Context, ownerID, planID primitive.ObjectID, in PlanInput) (*domain.WorkoutPlan, error) {
	in, err := normalizePlanInput(in)
	if err != nil {
		return nil, err
	}
	plan, err := s.planRepo.GetByID(ctx, ownerID, planID)
	if err != nil {
		return nil, fromRepo(err)
	}
	if err := s.rejectConflicts(ctx, ownerID, in, &planID); err != nil {
		return nil, err
	}

	applyPlanInput(plan, in)
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, fromRepo(err)
	}
	return plan, nil
}

// DeletePlan removes the plan. Its instances stay as history.
func (s *planService) DeletePlan(ctx context.Context, ownerID, planID primitive.ObjectID) error {
	if err := s.planRepo.Delete(ctx, ownerID, planID); err != nil {
		return fromRepo(err)
	}
	s.log.Info("plan deleted", "owner_id", ownerID.Hex(), "plan_id", planID.Hex())
	return nil
}

func (s *planService) rejectConflicts(ctx context.Context, ownerID primitive.ObjectID, in PlanInput, exclude *primitive.ObjectID) error {
	if in.Mode != domain.ModeDated {
		return nil
	}
	conflicts, err := s.conflicts.FindConflicts(ctx, ownerID, *in.StartDate, *in.EndDate, exclude)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

func applyPlanInput(plan *domain.WorkoutPlan, in PlanInput) {
	plan.Name = in.Name
	plan.Description = in.Description
	plan.Level = in.Level
	plan.DurationWeeks = in.DurationWeeks
	plan.Mode = in.Mode
	plan.StartDate = in.StartDate
	plan.EndDate = in.EndDate
	plan.Template = in.Template
}

// normalizePlanInput validates the input and truncates its dates to days.
func normalizePlanInput(in PlanInput) (PlanInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, validationError("name is required")
	}
	if in.DurationWeeks != nil && *in.DurationWeeks <= 0 {
		return in, validationError("durationWeeks must be positive")
	}

	switch in.Mode {
	case domain.ModeOngoing:
		if in.StartDate != nil || in.EndDate != nil {
			return in, validationError("ongoing plans cannot have start or end dates")
		}
	case domain.ModeDated:
		if in.StartDate == nil || in.EndDate == nil {
			return in, validationError("dated plans require startDate and endDate")
		}
		start, end := domain.DateOf(*in.StartDate), domain.DateOf(*in.EndDate)
		if !end.After(start) {
			return in, validationError("endDate must be after startDate")
		}
		in.StartDate, in.EndDate = &start, &end
	default:
		return in, validationError("mode must be %q or %q", domain.ModeOngoing, domain.ModeDated)
	}

	if err := validateTemplate(&in.Template); err != nil {
		return in, err
	}
	return in, nil
}

func validateTemplate(t *domain.WeeklyTemplate) error {
	for wd, day := range t {
		orders := make(map[int]bool, len(day.Exercises))
		exercises := make(map[primitive.ObjectID]bool, len(day.Exercises))
		for _, et := range day.Exercises {
			weekday := time.Weekday(wd).String()
			if et.ExerciseID == primitive.NilObjectID {
				return validationError("%s: exerciseId is required", weekday)
			}
			if et.Sets < 0 || et.Reps < 0 || et.Weight < 0 {
				return validationError("%s: sets, reps and weight must not be negative", weekday)
			}
			if et.Order < 0 {
				return validationError("%s: order must not be negative", weekday)
			}
			if orders[et.Order] {
				return validationError("%s: duplicate order index %d", weekday, et.Order)
			}
			// The (plan, exercise, date) tuple is unique once materialized.
			if exercises[et.ExerciseID] {
				return validationError("%s: exercise %s listed twice", weekday, et.ExerciseID.Hex())
			}
			for _, p := range et.Plates {
				if p.Weight <= 0 || p.Count <= 0 {
					return validationError("%s: plate weight and count must be positive", weekday)
				}
			}
			orders[et.Order] = true
			exercises[et.ExerciseID] = true
		}
	}
	return nil
}
