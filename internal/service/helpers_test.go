package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/repository/memory"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fixture bundles in-memory stores and a fixed "today".
type fixture struct {
	plans     *memory.PlanRepository
	instances *memory.InstanceRepository
	overrides *memory.OverrideRepository
	catalog   *memory.CatalogRepository
	today     time.Time
	log       *logger.Logger
	owner     primitive.ObjectID
}

func newFixture(today string) *fixture {
	return &fixture{
		plans:     memory.NewPlanRepository(),
		instances: memory.NewInstanceRepository(),
		overrides: memory.NewOverrideRepository(),
		catalog:   memory.NewCatalogRepository(),
		today:     mustDate(today),
		log:       logger.Nop(),
		owner:     primitive.NewObjectID(),
	}
}

func (f *fixture) clock() Clock {
	// Mid-morning, so truncation to the day is exercised.
	now := f.today.Add(9*time.Hour + 30*time.Minute)
	return func() time.Time { return now }
}

func (f *fixture) materializer() Materializer {
	return NewMaterializer(f.instances, f.overrides, f.clock(), f.log)
}

func (f *fixture) resolver() ScheduleResolver {
	return NewScheduleResolver(f.plans, f.instances, f.overrides, f.catalog, f.log)
}

// ongoingPlan stores an ongoing plan created on createdOn.
func (f *fixture) ongoingPlan(t *testing.T, createdOn string, active bool, tmpl domain.WeeklyTemplate) *domain.WorkoutPlan {
	t.Helper()
	plan := &domain.WorkoutPlan{
		OwnerID:   f.owner,
		Name:      "Ongoing " + createdOn,
		Mode:      domain.ModeOngoing,
		Template:  tmpl,
		IsActive:  active,
		CreatedAt: mustDate(createdOn),
	}
	_, err := f.plans.Create(context.Background(), plan)
	require.NoError(t, err)
	return plan
}

// datedPlan stores a dated plan for [start, end].
func (f *fixture) datedPlan(t *testing.T, name, start, end string, active bool, tmpl domain.WeeklyTemplate) *domain.WorkoutPlan {
	t.Helper()
	s, e := mustDate(start), mustDate(end)
	plan := &domain.WorkoutPlan{
		OwnerID:   f.owner,
		Name:      name,
		Mode:      domain.ModeDated,
		StartDate: &s,
		EndDate:   &e,
		Template:  tmpl,
		IsActive:  active,
		CreatedAt: s,
	}
	_, err := f.plans.Create(context.Background(), plan)
	require.NoError(t, err)
	return plan
}

func (f *fixture) dayInstances(t *testing.T, date string) []domain.ScheduledExerciseInstance {
	t.Helper()
	list, err := f.instances.ListByDate(context.Background(), f.owner, mustDate(date))
	require.NoError(t, err)
	return list
}

func mustDate(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// exercises builds n template exercises with orders 0..n-1.
func exercises(n int) []domain.ExerciseTemplate {
	out := make([]domain.ExerciseTemplate, n)
	for i := range out {
		out[i] = domain.ExerciseTemplate{
			ExerciseID: primitive.NewObjectID(),
			Sets:       3,
			Reps:       10,
			Weight:     20,
			Order:      i,
		}
	}
	return out
}

// weekly places day templates on the given weekdays.
func weekly(days map[time.Weekday][]domain.ExerciseTemplate) domain.WeeklyTemplate {
	var w domain.WeeklyTemplate
	for wd, ex := range days {
		w[wd] = domain.DayTemplate{Exercises: ex}
	}
	return w
}
