package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultActivationAttempts = 3
	defaultActivationBackoff  = 100 * time.Millisecond
)

// ActivationResult reports a plan switch. Generation problems are reported
// here rather than failing the switch.
type ActivationResult struct {
	DeactivatedPlanID   *primitive.ObjectID `json:"deactivatedPlanId,omitempty"`
	ActivatedPlanID     primitive.ObjectID  `json:"activatedPlanId"`
	GenerationTriggered bool                `json:"generationTriggered"`
	Generation          *MaterializeResult  `json:"generation,omitempty"`
	GenerationError     string              `json:"generationError,omitempty"`
}

// ActivationCoordinator is the only component that changes which plan is
// active. States are inactive/active; the single transition is activate(other).
type ActivationCoordinator interface {
	Activate(ctx context.Context, ownerID, planID primitive.ObjectID) (*ActivationResult, error)
	Deactivate(ctx context.Context, ownerID, planID primitive.ObjectID) error
}

type activationCoordinator struct {
	planRepo      repository.PlanRepository
	materializer  Materializer
	lookaheadDays int
	now           Clock
	log           *logger.Logger

	attempts int
	backoff  time.Duration
}

// NewActivationCoordinator creates a new instance of activationCoordinator.
func NewActivationCoordinator(
	planRepo repository.PlanRepository,
	materializer Materializer,
	lookaheadDays int,
	now Clock,
	log *logger.Logger,
) ActivationCoordinator {
	return &activationCoordinator{
		planRepo:      planRepo,
		materializer:  materializer,
		lookaheadDays: lookaheadDays,
		now:           now,
		log:           log.With("component", "activation"),
		attempts:      defaultActivationAttempts,
		backoff:       defaultActivationBackoff,
	}
}

// Activate makes planID the owner's only active plan and materializes it from
// today through the lookahead horizon.
//
// The old plan is switched off before the new one is switched on, so two
// active plans never coexist. Marking the new plan active is retried; if it
// still fails the previous plan is restored so the owner is not left without
// a plan. Losing a race to a concurrent activation is reported as ErrConflict.
func (a *activationCoordinator) Activate(ctx context.Context, ownerID, planID primitive.ObjectID) (*ActivationResult, error) {
	target, err := a.planRepo.GetByID(ctx, ownerID, planID)
	if err != nil {
		return nil, fromRepo(err)
	}

	current, err := a.planRepo.GetActive(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		current = nil
	}

	result := &ActivationResult{ActivatedPlanID: target.ID}
	if current == nil || current.ID != target.ID {
		if current != nil {
			if err := a.planRepo.SetActive(ctx, ownerID, current.ID, false); err != nil {
				return nil, fmt.Errorf("deactivate plan %s: %w", current.ID.Hex(), fromRepo(err))
			}
			prev := current.ID
			result.DeactivatedPlanID = &prev
		}

		if err := a.retry(ctx, func() error {
			return a.planRepo.SetActive(ctx, ownerID, target.ID, true)
		}); err != nil {
			// A duplicate means a concurrent activation won; its plan stays.
			if !errors.Is(err, repository.ErrDuplicate) {
				a.restore(ownerID, current)
			}
			return nil, fmt.Errorf("activate plan %s: %w", target.ID.Hex(), fromRepo(err))
		}
	}
	target.IsActive = true

	a.log.Info("plan activated", "owner_id", ownerID.Hex(), "plan_id", target.ID.Hex())

	today := domain.DateOf(a.now())
	result.GenerationTriggered = true
	gen, err := a.materializer.Materialize(ctx, target, today, domain.AddDays(today, a.lookaheadDays))
	result.Generation = gen
	if err != nil {
		a.log.Error("generation after activation failed", "owner_id", ownerID.Hex(), "plan_id", target.ID.Hex(), "error", err)
		result.GenerationError = err.Error()
	}
	return result, nil
}

// Deactivate switches the plan off, leaving the owner with no active plan.
// Deactivating an inactive plan is a no-op.
func (a *activationCoordinator) Deactivate(ctx context.Context, ownerID, planID primitive.ObjectID) error {
	plan, err := a.planRepo.GetByID(ctx, ownerID, planID)
	if err != nil {
		return fromRepo(err)
	}
	if !plan.IsActive {
		return nil
	}
	if err := a.planRepo.SetActive(ctx, ownerID, planID, false); err != nil {
		return fromRepo(err)
	}
	a.log.Info("plan deactivated", "owner_id", ownerID.Hex(), "plan_id", planID.Hex())
	return nil
}

func (a *activationCoordinator) retry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= a.attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrDuplicate) || attempt == a.attempts {
			break
		}
		a.log.Warn("activation attempt failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.backoff * time.Duration(attempt)):
		}
	}
	return err
}

// restore re-activates the previous plan after a failed switch. It runs on a
// fresh context because the request context may be what failed.
func (a *activationCoordinator) restore(ownerID primitive.ObjectID, previous *domain.WorkoutPlan) {
	if previous == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.retry(ctx, func() error {
		return a.planRepo.SetActive(ctx, ownerID, previous.ID, true)
	}); err != nil {
		a.log.Error("could not restore previously active plan", "owner_id", ownerID.Hex(), "plan_id", previous.ID.Hex(), "error", err)
	}
}
