package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ManualInstanceInput describes an exercise the user adds to a day by hand.
type ManualInstanceInput struct {
	Date       time.Time
	ExerciseID primitive.ObjectID
	CategoryID primitive.ObjectID
	Sets       int
	Reps       int
	Weight     float64
	Plates     []domain.PlateLoad
	Notes      string
}

// InstanceUpdate is a partial edit; nil fields are left unchanged.
type InstanceUpdate struct {
	Sets   *int
	Reps   *int
	Weight *float64
	Plates *[]domain.PlateLoad
	Notes  *string
}

// --- Service Interface ---
type InstanceService interface {
	AddManual(ctx context.Context, ownerID primitive.ObjectID, in ManualInstanceInput) (*domain.ScheduledExerciseInstance, error)
	UpdateInstance(ctx context.Context, ownerID, instanceID primitive.ObjectID, upd InstanceUpdate) (*domain.ScheduledExerciseInstance, error)
	SetCompleted(ctx context.Context, ownerID, instanceID primitive.ObjectID, completed bool) (*domain.ScheduledExerciseInstance, error)
	SetHidden(ctx context.Context, ownerID, instanceID primitive.ObjectID, hidden bool) (*domain.ScheduledExerciseInstance, error)
	HideOccurrence(ctx context.Context, ownerID, planID, exerciseID primitive.ObjectID, date time.Time) error
	UnhideOccurrence(ctx context.Context, ownerID, planID, exerciseID primitive.ObjectID, date time.Time) error
	DeleteInstance(ctx context.Context, ownerID, instanceID primitive.ObjectID) error
	DeleteDay(ctx context.Context, ownerID primitive.ObjectID, date time.Time) (int64, error)
}

// --- Service Implementation ---

type instanceService struct {
	planRepo     repository.PlanRepository
	instanceRepo repository.InstanceRepository
	overrideRepo repository.OverrideRepository
	now          Clock
	log          *logger.Logger
}

// NewInstanceService creates a new instance of instanceService.
func NewInstanceService(
	planRepo repository.PlanRepository,
	instanceRepo repository.InstanceRepository,
	overrideRepo repository.OverrideRepository,
	now Clock,
	log *logger.Logger,
) InstanceService {
	return &instanceService{
		planRepo:     planRepo,
		instanceRepo: instanceRepo,
		overrideRepo: overrideRepo,
		now:          now,
		log:          log.With("component", "instances"),
	}
}

// AddManual appends a manual instance after the day's last exercise.
func (s *instanceService) AddManual(ctx context.Context, ownerID primitive.ObjectID, in ManualInstanceInput) (*domain.ScheduledExerciseInstance, error) {
	if in.ExerciseID == primitive.NilObjectID {
		return nil, validationError("exerciseId is required")
	}
	if err := validateCounts(in.Sets, in.Reps, in.Weight); err != nil {
		return nil, err
	}
	date := domain.DateOf(in.Date)

	day, err := s.instanceRepo.ListByDate(ctx, ownerID, date)
	if err != nil {
		return nil, err
	}
	order := 0
	for _, inst := range day {
		if inst.Order >= order {
			order = inst.Order + 1
		}
	}

	inst := &domain.ScheduledExerciseInstance{
		OwnerID:    ownerID,
		Date:       date,
		ExerciseID: in.ExerciseID,
		CategoryID: in.CategoryID,
		Sets:       in.Sets,
		Reps:       in.Reps,
		Weight:     in.Weight,
		Plates:     in.Plates,
		Notes:      in.Notes,
		Order:      order,
		IsManual:   true,
	}
	id, err := s.instanceRepo.Create(ctx, inst)
	if err != nil {
		return nil, err
	}
	inst.ID = id
	return inst, nil
}

// UpdateInstance edits the numbers of an instance. A generated instance is
// flagged modifiedByUser and stays authoritative over later template edits.
func (s *instanceService) UpdateInstance(ctx context.Context, ownerID, instanceID primitive.ObjectID, upd InstanceUpdate) (*domain.ScheduledExerciseInstance, error) {
	inst, err := s.instanceRepo.GetByID(ctx, ownerID, instanceID)
	if err != nil {
		return nil, fromRepo(err)
	}
	if upd.Sets != nil {
		inst.Sets = *upd.Sets
	}
	if upd.Reps != nil {
		inst.Reps = *upd.Reps
	}
	if upd.Weight != nil {
		inst.Weight = *upd.Weight
	}
	if upd.Plates != nil {
		inst.Plates = *upd.Plates
	}
	if upd.Notes != nil {
		inst.Notes = *upd.Notes
	}
	if err := validateCounts(inst.Sets, inst.Reps, inst.Weight); err != nil {
		return nil, err
	}
	if inst.SourcePlanID != nil {
		inst.ModifiedByUser = true
	}

	if err := s.instanceRepo.Update(ctx, inst); err != nil {
		return nil, fromRepo(err)
	}
	return inst, nil
}

// SetCompleted marks an instance done (stamping the time) or not done.
func (s *instanceService) SetCompleted(ctx context.Context, ownerID, instanceID primitive.ObjectID, completed bool) (*domain.ScheduledExerciseInstance, error) {
	inst, err := s.instanceRepo.GetByID(ctx, ownerID, instanceID)
	if err != nil {
		return nil, fromRepo(err)
	}
	inst.Completed = completed
	inst.CompletedAt = nil
	if completed {
		at := s.now().UTC()
		inst.CompletedAt = &at
	}
	if err := s.instanceRepo.Update(ctx, inst); err != nil {
		return nil, fromRepo(err)
	}
	return inst, nil
}

// SetHidden suppresses or restores a materialized instance.
func (s *instanceService) SetHidden(ctx context.Context, ownerID, instanceID primitive.ObjectID, hidden bool) (*domain.ScheduledExerciseInstance, error) {
	inst, err := s.instanceRepo.GetByID(ctx, ownerID, instanceID)
	if err != nil {
		return nil, fromRepo(err)
	}
	inst.IsHidden = hidden
	if err := s.instanceRepo.Update(ctx, inst); err != nil {
		return nil, fromRepo(err)
	}
	return inst, nil
}

// HideOccurrence suppresses one occurrence of a template exercise. When the
// day is already materialized the instance itself is hidden; otherwise the
// hide goes to the override ledger and is honored by previews and by the
// materializer when it reaches that day.
func (s *instanceService) HideOccurrence(ctx context.Context, ownerID, planID, exerciseID primitive.ObjectID, date time.Time) error {
	date = domain.DateOf(date)
	plan, err := s.planRepo.GetByID(ctx, ownerID, planID)
	if err != nil {
		return fromRepo(err)
	}
	if !templateHasExercise(plan, date, exerciseID) {
		return validationError("exercise %s is not scheduled by this plan on %s", exerciseID.Hex(), domain.FormatDate(date))
	}

	inst, err := s.findGenerated(ctx, ownerID, planID, exerciseID, date)
	if err != nil {
		return err
	}
	if inst != nil {
		inst.IsHidden = true
		return fromRepo(s.instanceRepo.Update(ctx, inst))
	}

	return s.overrideRepo.Hide(ctx, &domain.HiddenOccurrence{
		OwnerID:    ownerID,
		PlanID:     planID,
		ExerciseID: exerciseID,
		Date:       date,
		CreatedAt:  s.now().UTC(),
	})
}

// UnhideOccurrence reverses HideOccurrence.
func (s *instanceService) UnhideOccurrence(ctx context.Context, ownerID, planID, exerciseID primitive.ObjectID, date time.Time) error {
	date = domain.DateOf(date)
	found := false

	err := s.overrideRepo.Unhide(ctx, ownerID, planID, exerciseID, date)
	switch {
	case err == nil:
		found = true
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	inst, err := s.findGenerated(ctx, ownerID, planID, exerciseID, date)
	if err != nil {
		return err
	}
	if inst != nil {
		found = true
		if inst.IsHidden {
			inst.IsHidden = false
			if err := s.instanceRepo.Update(ctx, inst); err != nil {
				return fromRepo(err)
			}
		}
	}

	if !found {
		return ErrNotFound
	}
	return nil
}

// DeleteInstance removes one instance.
func (s *instanceService) DeleteInstance(ctx context.Context, ownerID, instanceID primitive.ObjectID) error {
	return fromRepo(s.instanceRepo.Delete(ctx, ownerID, instanceID))
}

// DeleteDay removes every instance of the owner's day.
func (s *instanceService) DeleteDay(ctx context.Context, ownerID primitive.ObjectID, date time.Time) (int64, error) {
	deleted, err := s.instanceRepo.DeleteByDate(ctx, ownerID, domain.DateOf(date))
	if err != nil {
		return 0, err
	}
	s.log.Info("day cleared", "owner_id", ownerID.Hex(), "date", domain.FormatDate(date), "deleted", deleted)
	return deleted, nil
}

func (s *instanceService) findGenerated(ctx context.Context, ownerID, planID, exerciseID primitive.ObjectID, date time.Time) (*domain.ScheduledExerciseInstance, error) {
	day, err := s.instanceRepo.ListByDate(ctx, ownerID, date)
	if err != nil {
		return nil, err
	}
	for i := range day {
		if day[i].FromPlan(planID) && day[i].ExerciseID == exerciseID {
			return &day[i], nil
		}
	}
	return nil, nil
}

func templateHasExercise(plan *domain.WorkoutPlan, date time.Time, exerciseID primitive.ObjectID) bool {
	for _, et := range plan.Template.Day(date.Weekday()).Exercises {
		if et.ExerciseID == exerciseID {
			return true
		}
	}
	return false
}

func validateCounts(sets, reps int, weight float64) error {
	if sets < 0 || reps < 0 || weight < 0 {
		return validationError("sets, reps and weight must not be negative")
	}
	return nil
}
