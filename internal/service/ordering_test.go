package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository/memory"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedDay(t *testing.T, f *fixture, date string, n int) []primitive.ObjectID {
	t.Helper()
	plan := f.ongoingPlan(t, "2025-01-01", true, weekly(map[time.Weekday][]domain.ExerciseTemplate{
		mustDate(date).Weekday(): exercises(n),
	}))
	_, err := f.materializer().Materialize(context.Background(), plan, mustDate(date), mustDate(date))
	require.NoError(t, err)

	day := f.dayInstances(t, date)
	ids := make([]primitive.ObjectID, len(day))
	for i, inst := range day {
		ids[i] = inst.ID
	}
	return ids
}

func orderOf(list []domain.ScheduledExerciseInstance) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(list))
	for i, inst := range list {
		ids[i] = inst.ID
	}
	return ids
}

func TestReorder_FullList(t *testing.T) {
	f := newFixture("2025-01-13")
	ids := seedDay(t, f, "2025-01-13", 3)
	want := []primitive.ObjectID{ids[2], ids[0], ids[1]}

	result, err := NewOrderingManager(f.instances).Reorder(context.Background(), f.owner, mustDate("2025-01-13"), want)
	require.NoError(t, err)
	assert.Equal(t, want, orderOf(result))

	stored := f.dayInstances(t, "2025-01-13")
	assert.Equal(t, want, orderOf(stored))
	for i, inst := range stored {
		assert.Equal(t, i, inst.Order)
	}
}

func TestReorder_PartialListKeepsRemainingOrder(t *testing.T) {
	f := newFixture("2025-01-13")
	ids := seedDay(t, f, "2025-01-13", 4)

	_, err := NewOrderingManager(f.instances).Reorder(context.Background(), f.owner, mustDate("2025-01-13"), []primitive.ObjectID{ids[3]})
	require.NoError(t, err)

	assert.Equal(t, []primitive.ObjectID{ids[3], ids[0], ids[1], ids[2]}, orderOf(f.dayInstances(t, "2025-01-13")))
}

func TestReorder_UnknownIDWritesNothing(t *testing.T) {
	f := newFixture("2025-01-13")
	ids := seedDay(t, f, "2025-01-13", 3)

	_, err := NewOrderingManager(f.instances).Reorder(context.Background(), f.owner, mustDate("2025-01-13"),
		[]primitive.ObjectID{ids[2], primitive.NewObjectID()})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, ids, orderOf(f.dayInstances(t, "2025-01-13")))
}

func TestReorder_IDFromAnotherDayIsNotFound(t *testing.T) {
	f := newFixture("2025-01-13")
	ids := seedDay(t, f, "2025-01-13", 2)

	_, err := NewOrderingManager(f.instances).Reorder(context.Background(), f.owner, mustDate("2025-01-14"), ids)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReorder_DuplicateIDs(t *testing.T) {
	f := newFixture("2025-01-13")
	ids := seedDay(t, f, "2025-01-13", 2)

	_, err := NewOrderingManager(f.instances).Reorder(context.Background(), f.owner, mustDate("2025-01-13"),
		[]primitive.ObjectID{ids[1], ids[1]})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

// failingOrders rejects every order write.
type failingOrders struct {
	*memory.InstanceRepository
}

func (failingOrders) UpdateOrders(context.Context, primitive.ObjectID, map[primitive.ObjectID]int) error {
	return errStoreDown
}

func TestReorder_FailedWriteLeavesPriorOrder(t *testing.T) {
	f := newFixture("2025-01-13")
	ids := seedDay(t, f, "2025-01-13", 3)

	_, err := NewOrderingManager(failingOrders{f.instances}).Reorder(context.Background(), f.owner, mustDate("2025-01-13"),
		[]primitive.ObjectID{ids[2], ids[1], ids[0]})
	assert.ErrorIs(t, err, errStoreDown)

	stored := f.dayInstances(t, "2025-01-13")
	assert.Equal(t, ids, orderOf(stored))
	for i, inst := range stored {
		assert.Equal(t, i, inst.Order)
	}
}
