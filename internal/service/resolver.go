package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/repository"
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxResolveRangeDays bounds ResolveRange and calendar exports.
const MaxResolveRangeDays = 62

// Placeholder labels for catalog entries that no longer exist.
const (
	UnknownExerciseLabel = "Unknown exercise"
	UnknownCategoryLabel = "Unknown category"
)

// ItemSource tells whether a calendar item is persisted or synthesized.
type ItemSource string

const (
	SourceMaterialized ItemSource = "materialized"
	SourcePreview      ItemSource = "preview"
)

// DayItem is one exercise as shown on the calendar.
type DayItem struct {
	Source         ItemSource          `json:"source"`
	InstanceID     *primitive.ObjectID `json:"instanceId,omitempty"` // Only for materialized items
	PlanID         *primitive.ObjectID `json:"planId,omitempty"`
	ExerciseID     primitive.ObjectID  `json:"exerciseId"`
	ExerciseName   string              `json:"exerciseName"`
	CategoryID     primitive.ObjectID  `json:"categoryId,omitempty"`
	CategoryName   string              `json:"categoryName,omitempty"`
	Sets           int                 `json:"sets"`
	Reps           int                 `json:"reps"`
	Weight         float64             `json:"weight"`
	Plates         []domain.PlateLoad  `json:"plates,omitempty"`
	Notes          string              `json:"notes,omitempty"`
	Order          int                 `json:"order"`
	Completed      bool                `json:"completed"`
	CompletedAt    *time.Time          `json:"completedAt,omitempty"`
	IsManual       bool                `json:"isManual"`
	ModifiedByUser bool                `json:"modifiedByUser"`
}

// DayView is the effective exercise list for one date.
type DayView struct {
	Date         time.Time           `json:"date"`
	ActivePlanID *primitive.ObjectID `json:"activePlanId,omitempty"`
	Items        []DayItem           `json:"items"`
}

// ScheduleResolver composes calendar days from instances and the active template.
type ScheduleResolver interface {
	ResolveDay(ctx context.Context, ownerID primitive.ObjectID, date time.Time) (*DayView, error)
	ResolveRange(ctx context.Context, ownerID primitive.ObjectID, from, to time.Time) ([]DayView, error)
}

type scheduleResolver struct {
	planRepo     repository.PlanRepository
	instanceRepo repository.InstanceRepository
	overrideRepo repository.OverrideRepository
	catalogRepo  repository.CatalogRepository
	log          *logger.Logger
}

// NewScheduleResolver creates a new instance of scheduleResolver.
func NewScheduleResolver(
	planRepo repository.PlanRepository,
	instanceRepo repository.InstanceRepository,
	overrideRepo repository.OverrideRepository,
	catalogRepo repository.CatalogRepository,
	log *logger.Logger,
) ScheduleResolver {
	return &scheduleResolver{
		planRepo:     planRepo,
		instanceRepo: instanceRepo,
		overrideRepo: overrideRepo,
		catalogRepo:  catalogRepo,
		log:          log.With("component", "resolver"),
	}
}

// ResolveDay returns the effective list for (owner, date).
func (r *scheduleResolver) ResolveDay(ctx context.Context, ownerID primitive.ObjectID, date time.Time) (*DayView, error) {
	views, err := r.ResolveRange(ctx, ownerID, date, date)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ResolveRange resolves every day of [from, to] with one instance query.
func (r *scheduleResolver) ResolveRange(ctx context.Context, ownerID primitive.ObjectID, from, to time.Time) ([]DayView, error) {
	from, to = domain.DateOf(from), domain.DateOf(to)
	if from.After(to) || domain.DaysBetween(from, to) >= MaxResolveRangeDays {
		return nil, ErrInvalidRange
	}

	active, err := r.planRepo.GetActive(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		active = nil
	}

	instances, err := r.instanceRepo.ListByRange(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[time.Time][]domain.ScheduledExerciseInstance)
	for _, inst := range instances {
		d := domain.DateOf(inst.Date)
		byDate[d] = append(byDate[d], inst)
	}

	views := make([]DayView, 0, domain.DaysBetween(from, to)+1)
	for day := from; !day.After(to); day = domain.AddDays(day, 1) {
		view, err := r.resolve(ctx, day, active, byDate[day])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	r.label(ctx, views)
	return views, nil
}

// resolve applies the two-tier rule to one day: once any active-plan instance
// exists for the date (hidden or not) the stored rows are the truth; only a
// day generation has not touched falls back to a template preview.
func (r *scheduleResolver) resolve(ctx context.Context, day time.Time, active *domain.WorkoutPlan, instances []domain.ScheduledExerciseInstance) (DayView, error) {
	view := DayView{Date: day, Items: []DayItem{}}
	if active != nil {
		id := active.ID
		view.ActivePlanID = &id
	}

	touched := false
	for _, inst := range instances {
		if active != nil && inst.FromPlan(active.ID) {
			touched = true
		}
		if inst.IsHidden {
			continue
		}
		view.Items = append(view.Items, materializedItem(inst))
	}

	if active != nil && !touched && active.Covers(day) {
		preview, err := r.preview(ctx, active, day)
		if err != nil {
			return view, err
		}
		view.Items = append(view.Items, preview...)
	}

	// Stable: materialized rows keep their stored order on ties and come
	// before preview rows with the same index.
	sort.SliceStable(view.Items, func(i, j int) bool {
		return view.Items[i].Order < view.Items[j].Order
	})
	return view, nil
}

func (r *scheduleResolver) preview(ctx context.Context, plan *domain.WorkoutPlan, day time.Time) ([]DayItem, error) {
	templates := plan.Template.Day(day.Weekday()).Exercises
	if len(templates) == 0 {
		return nil, nil
	}
	overrides, err := r.overrideRepo.ListForPlanOnDate(ctx, plan.OwnerID, plan.ID, day)
	if err != nil {
		return nil, err
	}
	hidden := make(map[primitive.ObjectID]bool, len(overrides))
	for _, o := range overrides {
		hidden[o.ExerciseID] = true
	}

	planID := plan.ID
	items := make([]DayItem, 0, len(templates))
	for _, et := range sortedTemplates(templates) {
		if hidden[et.ExerciseID] {
			continue
		}
		items = append(items, DayItem{
			Source:     SourcePreview,
			PlanID:     &planID,
			ExerciseID: et.ExerciseID,
			CategoryID: et.CategoryID,
			Sets:       et.Sets,
			Reps:       et.Reps,
			Weight:     et.Weight,
			Plates:     et.Plates,
			Notes:      et.Notes,
			Order:      et.Order,
		})
	}
	return items, nil
}

func materializedItem(inst domain.ScheduledExerciseInstance) DayItem {
	id := inst.ID
	return DayItem{
		Source:         SourceMaterialized,
		InstanceID:     &id,
		PlanID:         inst.SourcePlanID,
		ExerciseID:     inst.ExerciseID,
		CategoryID:     inst.CategoryID,
		Sets:           inst.Sets,
		Reps:           inst.Reps,
		Weight:         inst.Weight,
		Plates:         inst.Plates,
		Notes:          inst.Notes,
		Order:          inst.Order,
		Completed:      inst.Completed,
		CompletedAt:    inst.CompletedAt,
		IsManual:       inst.IsManual,
		ModifiedByUser: inst.ModifiedByUser,
	}
}

// label fills display names from the catalog. A lookup failure or a dangling
// reference degrades to placeholder labels; it never fails the resolution.
func (r *scheduleResolver) label(ctx context.Context, views []DayView) {
	var exerciseIDs, categoryIDs []primitive.ObjectID
	seenExercise := make(map[primitive.ObjectID]bool)
	seenCategory := make(map[primitive.ObjectID]bool)
	for _, v := range views {
		for _, item := range v.Items {
			if !seenExercise[item.ExerciseID] {
				seenExercise[item.ExerciseID] = true
				exerciseIDs = append(exerciseIDs, item.ExerciseID)
			}
			if item.CategoryID != primitive.NilObjectID && !seenCategory[item.CategoryID] {
				seenCategory[item.CategoryID] = true
				categoryIDs = append(categoryIDs, item.CategoryID)
			}
		}
	}

	exercises, err := r.catalogRepo.ExercisesByIDs(ctx, exerciseIDs)
	if err != nil {
		r.log.Warn("exercise lookup failed, using placeholders", "error", err)
		exercises = nil
	}
	categories, err := r.catalogRepo.CategoriesByIDs(ctx, categoryIDs)
	if err != nil {
		r.log.Warn("category lookup failed, using placeholders", "error", err)
		categories = nil
	}

	for vi := range views {
		for ii := range views[vi].Items {
			item := &views[vi].Items[ii]
			item.ExerciseName = UnknownExerciseLabel
			if ex, ok := exercises[item.ExerciseID]; ok && ex.Name != "" {
				item.ExerciseName = ex.Name
			}
			if item.CategoryID == primitive.NilObjectID {
				continue
			}
			item.CategoryName = UnknownCategoryLabel
			if c, ok := categories[item.CategoryID]; ok && c.Name != "" {
				item.CategoryName = c.Name
			}
		}
	}
}
