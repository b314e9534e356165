package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanConflict describes a dated plan overlapping a candidate interval.
type PlanConflict struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	StartDate time.Time          `json:"startDate"`
	EndDate   time.Time          `json:"endDate"`
}

// ConflictDetector finds overlapping dated plans. Results are advisory: the
// caller decides whether to reject.
type ConflictDetector interface {
	FindConflicts(ctx context.Context, ownerID primitive.ObjectID, start, end time.Time, excludePlanID *primitive.ObjectID) ([]PlanConflict, error)
}

type conflictDetector struct {
	planRepo repository.PlanRepository
}

// NewConflictDetector creates a new instance of conflictDetector.
func NewConflictDetector(planRepo repository.PlanRepository) ConflictDetector {
	return &conflictDetector{planRepo: planRepo}
}

// FindConflicts returns the owner's dated plans whose [start, end] overlaps the
// candidate interval. Bounds are inclusive on both ends, so a plan ending on
// the day another starts is a conflict. Ongoing plans never conflict.
func (d *conflictDetector) FindConflicts(ctx context.Context, ownerID primitive.ObjectID, start, end time.Time, excludePlanID *primitive.ObjectID) ([]PlanConflict, error) {
	if ownerID == primitive.NilObjectID {
		return nil, ErrNotFound
	}
	start, end = domain.DateOf(start), domain.DateOf(end)
	if start.After(end) {
		return nil, ErrInvalidRange
	}

	plans, err := d.planRepo.FindDatedOverlapping(ctx, ownerID, start, end, excludePlanID)
	if err != nil {
		return nil, err
	}

	conflicts := make([]PlanConflict, 0, len(plans))
	for _, p := range plans {
		if p.StartDate == nil || p.EndDate == nil {
			continue
		}
		conflicts = append(conflicts, PlanConflict{
			ID:        p.ID,
			Name:      p.Name,
			StartDate: domain.DateOf(*p.StartDate),
			EndDate:   domain.DateOf(*p.EndDate),
		})
	}
	return conflicts, nil
}
