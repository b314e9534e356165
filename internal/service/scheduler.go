package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/repository"
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// PlanGeneration is the outcome of one status check plus optional run.
type PlanGeneration struct {
	OwnerID primitive.ObjectID `json:"ownerId"`
	PlanID  primitive.ObjectID `json:"planId"`
	Status  *GenerationStatus  `json:"status"`
	Result  *MaterializeResult `json:"result,omitempty"`
}

// OwnerFailure records a per-owner error in a batch run.
type OwnerFailure struct {
	OwnerID      primitive.ObjectID `json:"ownerId"`
	PlanID       primitive.ObjectID `json:"planId"`
	CreatedCount int                `json:"createdCount"`
	Error        string             `json:"error"`
}

// GenerationReport aggregates a "generate for all active plans" run.
type GenerationReport struct {
	StartedAt        time.Time      `json:"startedAt"`
	FinishedAt       time.Time      `json:"finishedAt"`
	PlansChecked     int            `json:"plansChecked"`
	PlansGenerated   int            `json:"plansGenerated"` // Plans that received at least one new instance
	PlansUpToDate    int            `json:"plansUpToDate"`
	InstancesCreated int            `json:"instancesCreated"`
	Failures         []OwnerFailure `json:"failures"`
}

// SchedulerOptions tunes the batch entry point.
type SchedulerOptions struct {
	LookaheadDays int
	Workers       int
	// Timeout bounds the work for a single owner. Zero means no timeout.
	Timeout time.Duration
}

// GenerationScheduler is the entry point for periodic and on-demand
// generation triggers.
type GenerationScheduler interface {
	GenerateForAllActivePlans(ctx context.Context) (*GenerationReport, error)
	EnsureGenerated(ctx context.Context, ownerID primitive.ObjectID) (*PlanGeneration, error)
}

type generationScheduler struct {
	planRepo     repository.PlanRepository
	tracker      GenerationTracker
	materializer Materializer
	opts         SchedulerOptions
	now          Clock
	log          *logger.Logger
}

// NewGenerationScheduler creates a new instance of generationScheduler.
func NewGenerationScheduler(
	planRepo repository.PlanRepository,
	tracker GenerationTracker,
	materializer Materializer,
	opts SchedulerOptions,
	now Clock,
	log *logger.Logger,
) GenerationScheduler {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &generationScheduler{
		planRepo:     planRepo,
		tracker:      tracker,
		materializer: materializer,
		opts:         opts,
		now:          now,
		log:          log.With("component", "scheduler"),
	}
}

// GenerateForAllActivePlans tops up every active plan to the lookahead
// horizon. A failing owner is recorded in the report and never stops the
// others; the returned error is only for failing to list the plans.
func (s *generationScheduler) GenerateForAllActivePlans(ctx context.Context) (*GenerationReport, error) {
	report := &GenerationReport{StartedAt: s.now().UTC(), Failures: []OwnerFailure{}}

	plans, err := s.planRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)

	for i := range plans {
		plan := plans[i]
		g.Go(func() error {
			gen, err := s.generateWithTimeout(ctx, &plan)

			mu.Lock()
			defer mu.Unlock()
			report.PlansChecked++
			if gen != nil && gen.Result != nil {
				report.InstancesCreated += gen.Result.CreatedCount
			}
			if err == nil {
				// A target on an empty weekday keeps NeedsGeneration set, so
				// a run that creates nothing counts as up to date.
				if gen.Result != nil && gen.Result.CreatedCount > 0 {
					report.PlansGenerated++
				} else {
					report.PlansUpToDate++
				}
			}
			if err != nil {
				failure := OwnerFailure{OwnerID: plan.OwnerID, PlanID: plan.ID, Error: err.Error()}
				if gen != nil && gen.Result != nil {
					failure.CreatedCount = gen.Result.CreatedCount
				}
				report.Failures = append(report.Failures, failure)
				s.log.Warn("generation failed for owner", "owner_id", plan.OwnerID.Hex(), "plan_id", plan.ID.Hex(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = s.now().UTC()
	s.log.Info("generation batch finished",
		"checked", report.PlansChecked, "generated", report.PlansGenerated, "up_to_date", report.PlansUpToDate,
		"created", report.InstancesCreated, "failures", len(report.Failures))
	return report, nil
}

// EnsureGenerated tops up the owner's active plan. Used on page load.
func (s *generationScheduler) EnsureGenerated(ctx context.Context, ownerID primitive.ObjectID) (*PlanGeneration, error) {
	plan, err := s.planRepo.GetActive(ctx, ownerID)
	if err != nil {
		return nil, fromRepo(err)
	}
	return s.generateWithTimeout(ctx, plan)
}

func (s *generationScheduler) generateWithTimeout(ctx context.Context, plan *domain.WorkoutPlan) (*PlanGeneration, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	return s.generate(ctx, plan)
}

// generate materializes from the day after the latest instance (never before
// today) through the target date. History is not backfilled.
func (s *generationScheduler) generate(ctx context.Context, plan *domain.WorkoutPlan) (*PlanGeneration, error) {
	gen := &PlanGeneration{OwnerID: plan.OwnerID, PlanID: plan.ID}

	status, err := s.tracker.CheckStatus(ctx, plan, s.opts.LookaheadDays)
	if err != nil {
		return gen, err
	}
	gen.Status = status
	if !status.NeedsGeneration {
		return gen, nil
	}

	today := domain.DateOf(s.now())
	from := domain.MaxDate(domain.AddDays(status.LatestGeneratedDate, 1), today)
	if from.After(status.NextTargetDate) {
		return gen, nil
	}
	gen.Result, err = s.materializer.Materialize(ctx, plan, from, status.NextTargetDate)
	return gen, err
}
