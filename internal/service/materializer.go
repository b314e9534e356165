package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/repository"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaterializeResult reports one materialization run. CreatedCount is valid
// even when the run failed part way.
type MaterializeResult struct {
	BatchID      string    `json:"batchId"`
	CreatedCount int       `json:"createdCount"`
	SkippedCount int       `json:"skippedCount"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
}

// Materializer expands a plan's weekly template into dated instances.
type Materializer interface {
	Materialize(ctx context.Context, plan *domain.WorkoutPlan, from, to time.Time) (*MaterializeResult, error)
}

type materializer struct {
	instanceRepo repository.InstanceRepository
	overrideRepo repository.OverrideRepository
	now          Clock
	log          *logger.Logger
}

// NewMaterializer creates a new instance of materializer.
func NewMaterializer(instanceRepo repository.InstanceRepository, overrideRepo repository.OverrideRepository, now Clock, log *logger.Logger) Materializer {
	return &materializer{
		instanceRepo: instanceRepo,
		overrideRepo: overrideRepo,
		now:          now,
		log:          log.With("component", "materializer"),
	}
}

// Materialize creates one instance per template exercise per day in
// [from, to], clipped to the plan window for dated plans. Existing
// (plan, exercise, date) instances are skipped, never rewritten, so the call
// is safe to repeat or to run concurrently. On a store failure the run stops
// and the instances created so far are kept; calling again fills the gaps.
func (m *materializer) Materialize(ctx context.Context, plan *domain.WorkoutPlan, from, to time.Time) (*MaterializeResult, error) {
	if plan == nil || plan.ID == primitive.NilObjectID {
		return nil, ErrNotFound
	}
	from, to = domain.DateOf(from), domain.DateOf(to)
	if from.After(to) {
		return nil, ErrInvalidRange
	}

	result := &MaterializeResult{BatchID: uuid.NewString()}
	start, end, ok := plan.Clip(from, to)
	if !ok {
		return result, nil
	}
	result.From, result.To = start, end
	generatedAt := m.now().UTC()

	for day := start; !day.After(end); day = domain.AddDays(day, 1) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		templates := plan.Template.Day(day.Weekday()).Exercises
		if len(templates) == 0 {
			continue
		}
		hidden, err := m.hiddenExercises(ctx, plan, day)
		if err != nil {
			return result, fmt.Errorf("load overrides for %s: %w", domain.FormatDate(day), err)
		}

		for _, et := range sortedTemplates(templates) {
			inst := instanceFromTemplate(plan, et, day, result.BatchID, generatedAt)
			inst.IsHidden = hidden[et.ExerciseID]

			created, err := m.instanceRepo.CreateIfAbsent(ctx, inst)
			if err != nil {
				m.log.Error("materialization stopped",
					"plan_id", plan.ID.Hex(), "batch_id", result.BatchID,
					"date", domain.FormatDate(day), "created", result.CreatedCount, "error", err)
				return result, fmt.Errorf("create instance for %s: %w", domain.FormatDate(day), err)
			}
			if created {
				result.CreatedCount++
			} else {
				result.SkippedCount++
			}
		}
	}

	m.log.Info("materialization finished",
		"plan_id", plan.ID.Hex(), "batch_id", result.BatchID,
		"from", domain.FormatDate(start), "to", domain.FormatDate(end),
		"created", result.CreatedCount, "skipped", result.SkippedCount)
	return result, nil
}

// hiddenExercises loads the future-hide ledger so an occurrence hidden before
// generation is created hidden.
func (m *materializer) hiddenExercises(ctx context.Context, plan *domain.WorkoutPlan, day time.Time) (map[primitive.ObjectID]bool, error) {
	overrides, err := m.overrideRepo.ListForPlanOnDate(ctx, plan.OwnerID, plan.ID, day)
	if err != nil {
		return nil, err
	}
	hidden := make(map[primitive.ObjectID]bool, len(overrides))
	for _, o := range overrides {
		hidden[o.ExerciseID] = true
	}
	return hidden, nil
}

func sortedTemplates(templates []domain.ExerciseTemplate) []domain.ExerciseTemplate {
	out := make([]domain.ExerciseTemplate, len(templates))
	copy(out, templates)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func instanceFromTemplate(plan *domain.WorkoutPlan, et domain.ExerciseTemplate, day time.Time, batchID string, generatedAt time.Time) *domain.ScheduledExerciseInstance {
	planID := plan.ID
	var plates []domain.PlateLoad
	if len(et.Plates) > 0 {
		plates = append(plates, et.Plates...)
	}
	return &domain.ScheduledExerciseInstance{
		OwnerID:           plan.OwnerID,
		Date:              day,
		ExerciseID:        et.ExerciseID,
		CategoryID:        et.CategoryID,
		Sets:              et.Sets,
		Reps:              et.Reps,
		Weight:            et.Weight,
		Plates:            plates,
		Notes:             et.Notes,
		Order:             et.Order,
		SourcePlanID:      &planID,
		IsManual:          false,
		GenerationBatchID: batchID,
		GeneratedAt:       &generatedAt,
	}
}
