package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerationStatus tells a caller whether, and how far, a plan needs
// materializing to satisfy a lookahead horizon.
type GenerationStatus struct {
	PlanID              primitive.ObjectID `json:"planId"`
	NeedsGeneration     bool               `json:"needsGeneration"`
	LatestGeneratedDate time.Time          `json:"latestGeneratedDate"`
	NextTargetDate      time.Time          `json:"nextTargetDate"`
	DaysToGenerate      int                `json:"daysToGenerate"`
}

// GenerationTracker computes generation progress. It never writes.
type GenerationTracker interface {
	CheckStatus(ctx context.Context, plan *domain.WorkoutPlan, lookaheadDays int) (*GenerationStatus, error)
}

type generationTracker struct {
	instanceRepo repository.InstanceRepository
	now          Clock
}

// NewGenerationTracker creates a new instance of generationTracker.
func NewGenerationTracker(instanceRepo repository.InstanceRepository, now Clock) GenerationTracker {
	return &generationTracker{instanceRepo: instanceRepo, now: now}
}

// CheckStatus derives the status from the stored instances on every call.
//
// latest is the newest materialized date, or the day before the plan's
// effective start when nothing exists yet. target is max(today, start) plus
// the lookahead, clipped to the end of dated plans. Generation is needed
// while latest < target and the plan window has not closed.
func (t *generationTracker) CheckStatus(ctx context.Context, plan *domain.WorkoutPlan, lookaheadDays int) (*GenerationStatus, error) {
	if plan == nil || plan.ID == primitive.NilObjectID {
		return nil, ErrNotFound
	}
	if lookaheadDays < 0 {
		return nil, ErrInvalidRange
	}

	today := domain.DateOf(t.now())
	start := plan.EffectiveStart()

	latest := domain.AddDays(start, -1)
	stored, err := t.instanceRepo.LatestDateForPlan(ctx, plan.OwnerID, plan.ID)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		latest = domain.DateOf(*stored)
	}

	target := domain.AddDays(domain.MaxDate(today, start), lookaheadDays)
	open := true
	if end := plan.EffectiveEnd(); end != nil {
		target = domain.MinDate(target, *end)
		open = !today.After(*end)
	}

	days := domain.DaysBetween(latest, target)
	if days < 0 {
		days = 0
	}

	return &GenerationStatus{
		PlanID:              plan.ID,
		NeedsGeneration:     latest.Before(target) && open,
		LatestGeneratedDate: latest,
		NextTargetDate:      target,
		DaysToGenerate:      days,
	}, nil
}
