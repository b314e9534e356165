package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository/memory"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ownerFailingInstances fails every write for one owner.
type ownerFailingInstances struct {
	*memory.InstanceRepository
	owner primitive.ObjectID
}

func (o *ownerFailingInstances) CreateIfAbsent(ctx context.Context, inst *domain.ScheduledExerciseInstance) (bool, error) {
	if inst.OwnerID == o.owner {
		return false, errors.New("shard unavailable")
	}
	return o.InstanceRepository.CreateIfAbsent(ctx, inst)
}

func newScheduler(f *fixture, m Materializer) GenerationScheduler {
	return NewGenerationScheduler(f.plans, NewGenerationTracker(f.instances, f.clock()), m,
		SchedulerOptions{LookaheadDays: 7, Workers: 2, Timeout: time.Second}, f.clock(), f.log)
}

func planForOwner(t *testing.T, f *fixture, owner primitive.ObjectID) *domain.WorkoutPlan {
	t.Helper()
	plan := &domain.WorkoutPlan{
		OwnerID:   owner,
		Name:      "Plan " + owner.Hex(),
		Mode:      domain.ModeOngoing,
		Template:  weekly(map[time.Weekday][]domain.ExerciseTemplate{time.Monday: exercises(1)}),
		IsActive:  true,
		CreatedAt: mustDate("2025-01-01"),
	}
	_, err := f.plans.Create(context.Background(), plan)
	require.NoError(t, err)
	return plan
}

func TestGenerateForAllActivePlans(t *testing.T) {
	f := newFixture("2025-01-13")
	owners := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}
	for _, o := range owners {
		planForOwner(t, f, o)
	}

	report, err := newScheduler(f, f.materializer()).GenerateForAllActivePlans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.PlansChecked)
	assert.Equal(t, 3, report.PlansGenerated)
	// Mondays 13 and 20 for each owner.
	assert.Equal(t, 6, report.InstancesCreated)
	assert.Empty(t, report.Failures)

	again, err := newScheduler(f, f.materializer()).GenerateForAllActivePlans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.InstancesCreated)
	assert.Equal(t, 0, again.PlansGenerated)
}

func TestGenerateForAllActivePlans_IsolatesFailingOwner(t *testing.T) {
	f := newFixture("2025-01-13")
	healthy, broken := primitive.NewObjectID(), primitive.NewObjectID()
	planForOwner(t, f, healthy)
	brokenPlan := planForOwner(t, f, broken)

	m := NewMaterializer(&ownerFailingInstances{InstanceRepository: f.instances, owner: broken}, f.overrides, f.clock(), f.log)
	report, err := newScheduler(f, m).GenerateForAllActivePlans(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.PlansChecked)
	assert.Equal(t, 1, report.PlansGenerated)
	assert.Equal(t, 2, report.InstancesCreated)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, broken, report.Failures[0].OwnerID)
	assert.Equal(t, brokenPlan.ID, report.Failures[0].PlanID)
	assert.Contains(t, report.Failures[0].Error, "shard unavailable")
}

func TestGenerateForAllActivePlans_DoesNotBackfillHistory(t *testing.T) {
	f := newFixture("2025-01-13")
	owner := primitive.NewObjectID()
	planForOwner(t, f, owner)

	_, err := newScheduler(f, f.materializer()).GenerateForAllActivePlans(context.Background())
	require.NoError(t, err)

	past, err := f.instances.ListByRange(context.Background(), owner, mustDate("2025-01-01"), mustDate("2025-01-12"))
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestEnsureGenerated(t *testing.T) {
	f := newFixture("2025-01-13")
	plan := f.ongoingPlan(t, "2025-01-01", true, weekly(map[time.Weekday][]domain.ExerciseTemplate{time.Monday: exercises(2)}))
	s := newScheduler(f, f.materializer())

	gen, err := s.EnsureGenerated(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, gen.PlanID)
	require.NotNil(t, gen.Result)
	assert.Equal(t, 4, gen.Result.CreatedCount)

	gen, err = s.EnsureGenerated(context.Background(), f.owner)
	require.NoError(t, err)
	assert.False(t, gen.Status.NeedsGeneration)
	assert.Nil(t, gen.Result)

	_, err = s.EnsureGenerated(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateForAllActivePlans_EmptyTargetDayCountsAsUpToDate(t *testing.T) {
	f := newFixture("2025-01-13")
	planForOwner(t, f, primitive.NewObjectID())
	// Today + 8 is Tuesday the 21st, which has no exercises.
	s := NewGenerationScheduler(f.plans, NewGenerationTracker(f.instances, f.clock()), f.materializer(),
		SchedulerOptions{LookaheadDays: 8, Workers: 1}, f.clock(), f.log)

	first, err := s.GenerateForAllActivePlans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.PlansGenerated)
	assert.Equal(t, 2, first.InstancesCreated)

	again, err := s.GenerateForAllActivePlans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, again.PlansChecked)
	assert.Equal(t, 0, again.PlansGenerated)
	assert.Equal(t, 1, again.PlansUpToDate)
	assert.Equal(t, 0, again.InstancesCreated)
	assert.Empty(t, again.Failures)
}
