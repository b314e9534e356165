package service

import (
	"alcyxob/workout-planner/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newInstanceService(f *fixture) InstanceService {
	return NewInstanceService(f.plans, f.instances, f.overrides, f.clock(), f.log)
}

func TestAddManual_AppendsAfterLastExercise(t *testing.T) {
	f := newFixture("2025-01-13")
	seedDay(t, f, "2025-01-13", 2)
	svc := newInstanceService(f)

	inst, err := svc.AddManual(context.Background(), f.owner, ManualInstanceInput{
		Date:       mustDate("2025-01-13").Add(15 * time.Hour),
		ExerciseID: primitive.NewObjectID(),
		Sets:       5,
		Reps:       5,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inst.Order)
	assert.True(t, inst.IsManual)
	assert.Nil(t, inst.SourcePlanID)
	assert.Equal(t, mustDate("2025-01-13"), inst.Date)

	_, err = svc.AddManual(context.Background(), f.owner, ManualInstanceInput{Date: f.today})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestUpdateInstance_MarksGeneratedInstancesModified(t *testing.T) {
	f := newFixture("2025-01-13")
	ids := seedDay(t, f, "2025-01-13", 1)
	svc := newInstanceService(f)
	sets, notes := 5, "felt heavy"

	inst, err := svc.UpdateInstance(context.Background(), f.owner, ids[0], InstanceUpdate{Sets: &sets, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, 5, inst.Sets)
	assert.Equal(t, 10, inst.Reps)
	assert.True(t, inst.ModifiedByUser)

	stored, err := f.instances.GetByID(context.Background(), f.owner, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "felt heavy", stored.Notes)
	assert.True(t, stored.ModifiedByUser)

	negative := -1
	_, err = svc.UpdateInstance(context.Background(), f.owner, ids[0], InstanceUpdate{Reps: &negative})
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = svc.UpdateInstance(context.Background(), primitive.NewObjectID(), ids[0], InstanceUpdate{Sets: &sets})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetCompleted(t *testing.T) {
	f := newFixture("2025-01-13")
	ids := seedDay(t, f, "2025-01-13", 1)
	svc := newInstanceService(f)

	inst, err := svc.SetCompleted(context.Background(), f.owner, ids[0], true)
	require.NoError(t, err)
	assert.True(t, inst.Completed)
	require.NotNil(t, inst.CompletedAt)
	assert.Equal(t, f.clock()(), *inst.CompletedAt)

	inst, err = svc.SetCompleted(context.Background(), f.owner, ids[0], false)
	require.NoError(t, err)
	assert.False(t, inst.Completed)
	assert.Nil(t, inst.CompletedAt)
}

func TestHideOccurrence_MaterializedAndFutureDays(t *testing.T) {
	f := newFixture("2025-01-13")
	monday := exercises(2)
	plan := f.ongoingPlan(t, "2025-01-01", true, weekly(map[time.Weekday][]domain.ExerciseTemplate{time.Monday: monday}))
	_, err := f.materializer().Materialize(context.Background(), plan, mustDate("2025-01-13"), mustDate("2025-01-13"))
	require.NoError(t, err)
	svc := newInstanceService(f)
	r := f.resolver()

	// Materialized day: the instance itself is hidden.
	require.NoError(t, svc.HideOccurrence(context.Background(), f.owner, plan.ID, monday[0].ExerciseID, mustDate("2025-01-13")))
	day := f.dayInstances(t, "2025-01-13")
	assert.True(t, day[0].IsHidden)

	// Future day: recorded in the ledger, honored by preview and generation.
	require.NoError(t, svc.HideOccurrence(context.Background(), f.owner, plan.ID, monday[1].ExerciseID, mustDate("2025-02-03")))
	view, err := r.ResolveDay(context.Background(), f.owner, mustDate("2025-02-03"))
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, monday[0].ExerciseID, view.Items[0].ExerciseID)

	require.NoError(t, svc.UnhideOccurrence(context.Background(), f.owner, plan.ID, monday[1].ExerciseID, mustDate("2025-02-03")))
	view, err = r.ResolveDay(context.Background(), f.owner, mustDate("2025-02-03"))
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)

	require.NoError(t, svc.UnhideOccurrence(context.Background(), f.owner, plan.ID, monday[0].ExerciseID, mustDate("2025-01-13")))
	assert.False(t, f.dayInstances(t, "2025-01-13")[0].IsHidden)
}

func TestHideOccurrence_RejectsExerciseNotInTemplate(t *testing.T) {
	f := newFixture("2025-01-13")
	plan := f.ongoingPlan(t, "2025-01-01", true, weekly(map[time.Weekday][]domain.ExerciseTemplate{time.Monday: exercises(1)}))
	svc := newInstanceService(f)

	err := svc.HideOccurrence(context.Background(), f.owner, plan.ID, primitive.NewObjectID(), mustDate("2025-01-20"))
	assert.ErrorIs(t, err, ErrValidationFailed)

	err = svc.UnhideOccurrence(context.Background(), f.owner, plan.ID, primitive.NewObjectID(), mustDate("2025-01-20"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteDay(t *testing.T) {
	f := newFixture("2025-01-13")
	seedDay(t, f, "2025-01-13", 3)
	svc := newInstanceService(f)

	deleted, err := svc.DeleteDay(context.Background(), f.owner, mustDate("2025-01-13"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.Empty(t, f.dayInstances(t, "2025-01-13"))
}
