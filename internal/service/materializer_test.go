package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository/memory"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingInstances fails CreateIfAbsent after allow successful calls.
type failingInstances struct {
	*memory.InstanceRepository
	mu    sync.Mutex
	allow int
}

var errStoreDown = errors.New("store unavailable")

func (f *failingInstances) CreateIfAbsent(ctx context.Context, inst *domain.ScheduledExerciseInstance) (bool, error) {
	f.mu.Lock()
	if f.allow <= 0 {
		f.mu.Unlock()
		return false, errStoreDown
	}
	f.allow--
	f.mu.Unlock()
	return f.InstanceRepository.CreateIfAbsent(ctx, inst)
}

func TestMaterialize_CoversEveryTemplateDay(t *testing.T) {
	f := newFixture("2025-01-13")
	monday, wednesday := exercises(2), exercises(1)
	plan := f.ongoingPlan(t, "2025-01-01", true, weekly(map[time.Weekday][]domain.ExerciseTemplate{
		time.Monday:    monday,
		time.Wednesday: wednesday,
	}))

	result, err := f.materializer().Materialize(context.Background(), plan, mustDate("2025-01-13"), mustDate("2025-01-26"))
	require.NoError(t, err)
	assert.Equal(t, 6, result.CreatedCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.NotEmpty(t, result.BatchID)

	mon := f.dayInstances(t, "2025-01-20")
	require.Len(t, mon, 2)
	for i, inst := range mon {
		assert.Equal(t, monday[i].ExerciseID, inst.ExerciseID)
		assert.Equal(t, i, inst.Order)
		assert.True(t, inst.FromPlan(plan.ID))
		assert.False(t, inst.IsManual)
		assert.Equal(t, result.BatchID, inst.GenerationBatchID)
		require.NotNil(t, inst.GeneratedAt)
	}
	assert.Len(t, f.dayInstances(t, "2025-01-22"), 1)
	assert.Empty(t, f.dayInstances(t, "2025-01-21"))
}

func TestMaterialize_IsIdempotent(t *testing.T) {
	f := newFixture("2025-01-13")
	plan := f.ongoingPlan(t, "2025-01-01", true, weekly(map[time.Weekday][]domain.ExerciseTemplate{
		time.Monday: exercises(3),
	}))
	m := f.materializer()
	from, to := mustDate("2025-01-13"), mustDate("2025-01-27")

	first, err := m.Materialize(context.Background(), plan, from, to)
	require.NoError(t, err)
	require.Equal(t, 9, first.CreatedCount)

	second, err := m.Materialize(context.Background(), plan, from, to)
	require.NoError(t, err)
	assert.Equal(t, 0, second.CreatedCount)
	assert.Equal(t, 9, second.SkippedCount)
	assert.NotEqual(t, first.BatchID, second.BatchID)

	all, err := f.instances.ListByRange(context.Background(), f.owner, from, to)
	require.NoError(t, err)
	assert.Len(t, all, 9)
}

func TestMaterialize_ConcurrentRunsDoNotDuplicate(t *testing.T) {
	f := newFixture("2025-01-13")
	plan := f.ongoingPlan(t, "2025-01-01", true, weekly(map[time.Weekday][]domain.ExerciseTemplate{
		time.Monday:   exercises(2),
		time.Thursday: exercises(2),
	}))
	m := f.materializer()
	from, to := mustDate("2025-01-13"), mustDate("2025-02-09")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Materialize(context.Background(), plan, from, to)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := f.instances.ListByRange(context.Background(), f.owner, from, to)
	require.NoError(t, err)
	assert.Len(t, all, 16)
}

func TestMaterialize_ClipsDatedPlans(t *testing.T) {
	f := newFixture("2025-01-01")
	daily := map[time.Weekday][]domain.ExerciseTemplate{}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		daily[wd] = exercises(1)
	}
	plan := f.datedPlan(t, "January block", "2025-01-10", "2025-01-20", true, weekly(daily))
	m := f.materializer()

	result, err := m.Materialize(context.Background(), plan, mustDate("2025-01-01"), mustDate("2025-01-31"))
	require.NoError(t, err)
	assert.Equal(t, 11, result.CreatedCount)
	assert.Equal(t, mustDate("2025-01-10"), result.From)
	assert.Equal(t, mustDate("2025-01-20"), result.To)
	assert.Empty(t, f.dayInstances(t, "2025-01-09"))
	assert.Empty(t, f.dayInstances(t, "2025-01-21"))

	outside, err := m.Materialize(context.Background(), plan, mustDate("2025-02-01"), mustDate("2025-02-10"))
	require.NoError(t, err)
	assert.Equal(t, 0, outside.CreatedCount)
}

func TestMaterialize_RejectsInvertedRange(t *testing.T) {
	f := newFixture("2025-01-13")
	plan := f.ongoingPlan(t, "2025-01-01", true, weekly(nil))

	_, err := f.materializer().Materialize(context.Background(), plan, mustDate("2025-01-20"), mustDate("2025-01-13"))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestMaterialize_PartialFailureKeepsCreatedInstances(t *testing.T) {
	f := newFixture("2025-01-13")
	plan := f.ongoingPlan(t, "2025-01-01", true, weekly(map[time.Weekday][]domain.ExerciseTemplate{
		time.Monday: exercises(2),
	}))
	from, to := mustDate("2025-01-13"), mustDate("2025-01-26")
	flaky := &failingInstances{InstanceRepository: f.instances, allow: 3}

	result, err := NewMaterializer(flaky, f.overrides, f.clock(), f.log).Materialize(context.Background(), plan, from, to)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.CreatedCount)

	// Re-invoking against a healthy store fills the gap.
	retry, err := f.materializer().Materialize(context.Background(), plan, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, retry.CreatedCount)
	assert.Equal(t, 3, retry.SkippedCount)
}

func TestMaterialize_HonorsHiddenOccurrenceLedger(t *testing.T) {
	f := newFixture("2025-01-13")
	monday := exercises(2)
	plan := f.ongoingPlan(t, "2025-01-01", true, weekly(map[time.Weekday][]domain.ExerciseTemplate{
		time.Monday: monday,
	}))
	require.NoError(t, f.overrides.Hide(context.Background(), &domain.HiddenOccurrence{
		OwnerID:    f.owner,
		PlanID:     plan.ID,
		ExerciseID: monday[1].ExerciseID,
		Date:       mustDate("2025-01-20"),
	}))

	_, err := f.materializer().Materialize(context.Background(), plan, mustDate("2025-01-20"), mustDate("2025-01-20"))
	require.NoError(t, err)

	day := f.dayInstances(t, "2025-01-20")
	require.Len(t, day, 2)
	assert.False(t, day[0].IsHidden)
	assert.True(t, day[1].IsHidden)
}

func TestMaterialize_RerunKeepsUserEdits(t *testing.T) {
	f := newFixture("2025-01-13")
	plan := f.ongoingPlan(t, "2025-01-01", true, weekly(map[time.Weekday][]domain.ExerciseTemplate{
		time.Monday: exercises(2),
	}))
	m := f.materializer()
	from, to := mustDate("2025-01-13"), mustDate("2025-01-19")

	_, err := m.Materialize(context.Background(), plan, from, to)
	require.NoError(t, err)
	day := f.dayInstances(t, "2025-01-13")
	require.Len(t, day, 2)

	sets, weight := 5, 62.5
	_, err = newInstanceService(f).UpdateInstance(context.Background(), f.owner, day[0].ID, InstanceUpdate{Sets: &sets, Weight: &weight})
	require.NoError(t, err)

	again, err := m.Materialize(context.Background(), plan, from, to)
	require.NoError(t, err)
	assert.Equal(t, 0, again.CreatedCount)

	day = f.dayInstances(t, "2025-01-13")
	require.Len(t, day, 2)
	assert.True(t, day[0].ModifiedByUser)
	assert.Equal(t, 5, day[0].Sets)
	assert.Equal(t, 62.5, day[0].Weight)
	assert.False(t, day[1].ModifiedByUser)
	assert.Equal(t, 3, day[1].Sets)
}
