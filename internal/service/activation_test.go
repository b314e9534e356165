package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository"
	"alcyxob/workout-planner/internal/repository/memory"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// flakyPlans fails SetActive(_, target, true) a fixed number of times.
type flakyPlans struct {
	*memory.PlanRepository
	mu       sync.Mutex
	target   primitive.ObjectID
	failures int
	calls    int
}

func (p *flakyPlans) SetActive(ctx context.Context, ownerID, id primitive.ObjectID, active bool) error {
	p.mu.Lock()
	if active && id == p.target {
		p.calls++
		if p.failures > 0 {
			p.failures--
			p.mu.Unlock()
			return errors.New("write conflict")
		}
	}
	p.mu.Unlock()
	return p.PlanRepository.SetActive(ctx, ownerID, id, active)
}

// brokenMaterializer always fails.
type brokenMaterializer struct{}

func (brokenMaterializer) Materialize(context.Context, *domain.WorkoutPlan, time.Time, time.Time) (*MaterializeResult, error) {
	return &MaterializeResult{}, errors.New("store unavailable")
}

func newCoordinator(plans repository.PlanRepository, m Materializer, f *fixture) ActivationCoordinator {
	c := NewActivationCoordinator(plans, m, 14, f.clock(), f.log)
	c.(*activationCoordinator).backoff = 0
	return c
}

func activeIDs(t *testing.T, f *fixture) []primitive.ObjectID {
	t.Helper()
	all, err := f.plans.ListByOwner(context.Background(), f.owner)
	require.NoError(t, err)
	var ids []primitive.ObjectID
	for _, p := range all {
		if p.IsActive {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func TestActivate_SwitchesActivePlanAndGenerates(t *testing.T) {
	f := newFixture("2025-01-13")
	old := f.ongoingPlan(t, "2025-01-01", true, weekly(nil))
	next := f.ongoingPlan(t, "2025-01-02", false, weekly(map[time.Weekday][]domain.ExerciseTemplate{
		time.Monday: exercises(2),
	}))

	result, err := newCoordinator(f.plans, f.materializer(), f).Activate(context.Background(), f.owner, next.ID)
	require.NoError(t, err)
	require.NotNil(t, result.DeactivatedPlanID)
	assert.Equal(t, old.ID, *result.DeactivatedPlanID)
	assert.Equal(t, next.ID, result.ActivatedPlanID)
	assert.True(t, result.GenerationTriggered)
	assert.Empty(t, result.GenerationError)
	require.NotNil(t, result.Generation)
	// Mondays 13, 20 and 27 fall within today + 14 days.
	assert.Equal(t, 6, result.Generation.CreatedCount)

	assert.Equal(t, []primitive.ObjectID{next.ID}, activeIDs(t, f))
}

func TestActivate_AlreadyActiveIsIdempotent(t *testing.T) {
	f := newFixture("2025-01-13")
	plan := f.ongoingPlan(t, "2025-01-01", true, weekly(nil))

	result, err := newCoordinator(f.plans, f.materializer(), f).Activate(context.Background(), f.owner, plan.ID)
	require.NoError(t, err)
	assert.Nil(t, result.DeactivatedPlanID)
	assert.Equal(t, []primitive.ObjectID{plan.ID}, activeIDs(t, f))
}

func TestActivate_RetriesTransientFailure(t *testing.T) {
	f := newFixture("2025-01-13")
	f.ongoingPlan(t, "2025-01-01", true, weekly(nil))
	next := f.ongoingPlan(t, "2025-01-02", false, weekly(nil))
	plans := &flakyPlans{PlanRepository: f.plans, target: next.ID, failures: 2}

	_, err := newCoordinator(plans, f.materializer(), f).Activate(context.Background(), f.owner, next.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, plans.calls)
	assert.Equal(t, []primitive.ObjectID{next.ID}, activeIDs(t, f))
}

func TestActivate_RestoresPreviousPlanWhenActivationFails(t *testing.T) {
	f := newFixture("2025-01-13")
	old := f.ongoingPlan(t, "2025-01-01", true, weekly(nil))
	next := f.ongoingPlan(t, "2025-01-02", false, weekly(nil))
	plans := &flakyPlans{PlanRepository: f.plans, target: next.ID, failures: 10}

	_, err := newCoordinator(plans, f.materializer(), f).Activate(context.Background(), f.owner, next.ID)
	require.Error(t, err)
	assert.Equal(t, 3, plans.calls)
	assert.Equal(t, []primitive.ObjectID{old.ID}, activeIDs(t, f))
}

func TestActivate_GenerationFailureIsReported(t *testing.T) {
	f := newFixture("2025-01-13")
	next := f.ongoingPlan(t, "2025-01-02", false, weekly(nil))

	result, err := newCoordinator(f.plans, brokenMaterializer{}, f).Activate(context.Background(), f.owner, next.ID)
	require.NoError(t, err)
	assert.Equal(t, "store unavailable", result.GenerationError)
	assert.Equal(t, []primitive.ObjectID{next.ID}, activeIDs(t, f))
}

func TestActivate_ForeignPlanIsNotFound(t *testing.T) {
	f := newFixture("2025-01-13")
	plan := f.ongoingPlan(t, "2025-01-01", false, weekly(nil))

	_, err := newCoordinator(f.plans, f.materializer(), f).Activate(context.Background(), primitive.NewObjectID(), plan.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, activeIDs(t, f))
}

func TestActivate_ConcurrentSwitchesLeaveOneActivePlan(t *testing.T) {
	f := newFixture("2025-01-13")
	var ids []primitive.ObjectID
	for i := 0; i < 4; i++ {
		ids = append(ids, f.ongoingPlan(t, "2025-01-01", i == 0, weekly(nil)).ID)
	}
	c := newCoordinator(f.plans, f.materializer(), f)

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id primitive.ObjectID) {
			defer wg.Done()
			_, errs[i] = c.Activate(context.Background(), f.owner, id)
		}(i, id)
	}
	wg.Wait()

	assert.LessOrEqual(t, len(activeIDs(t, f)), 1)
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrConflict)
		}
	}
}

// staleActivePlans hides the active plan from GetActive, as when another
// activation commits between the read and the write.
type staleActivePlans struct {
	*memory.PlanRepository
	activations int
}

func (p *staleActivePlans) GetActive(context.Context, primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return nil, repository.ErrNotFound
}

func (p *staleActivePlans) SetActive(ctx context.Context, ownerID, id primitive.ObjectID, active bool) error {
	if active {
		p.activations++
	}
	return p.PlanRepository.SetActive(ctx, ownerID, id, active)
}

func TestActivate_LosingConcurrentActivationIsConflict(t *testing.T) {
	f := newFixture("2025-01-13")
	winner := f.ongoingPlan(t, "2025-01-01", true, weekly(nil))
	loser := f.ongoingPlan(t, "2025-01-02", false, weekly(nil))
	plans := &staleActivePlans{PlanRepository: f.plans}

	_, err := newCoordinator(plans, f.materializer(), f).Activate(context.Background(), f.owner, loser.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, plans.activations, "a unique-index violation is not retried")
	assert.Equal(t, []primitive.ObjectID{winner.ID}, activeIDs(t, f))
}

func TestDeactivate(t *testing.T) {
	f := newFixture("2025-01-13")
	plan := f.ongoingPlan(t, "2025-01-01", true, weekly(nil))
	c := newCoordinator(f.plans, f.materializer(), f)

	require.NoError(t, c.Deactivate(context.Background(), f.owner, plan.ID))
	assert.Empty(t, activeIDs(t, f))
	require.NoError(t, c.Deactivate(context.Background(), f.owner, plan.ID))
}
