package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderingManager maintains the user-chosen order of a day's instances.
type OrderingManager interface {
	Reorder(ctx context.Context, ownerID primitive.ObjectID, date time.Time, orderedIDs []primitive.ObjectID) ([]domain.ScheduledExerciseInstance, error)
}

type orderingManager struct {
	instanceRepo repository.InstanceRepository
}

// NewOrderingManager creates a new instance of orderingManager.
func NewOrderingManager(instanceRepo repository.InstanceRepository) OrderingManager {
	return &orderingManager{instanceRepo: instanceRepo}
}

// Reorder gives the listed instances indices 0..n-1 in the given order.
// Instances of the day missing from the list follow, keeping their prior
// relative order, so a client with a stale list never loses an exercise.
// Every id is validated before anything is written, and the new indices
// are stored in a single all-or-nothing write.
func (o *orderingManager) Reorder(ctx context.Context, ownerID primitive.ObjectID, date time.Time, orderedIDs []primitive.ObjectID) ([]domain.ScheduledExerciseInstance, error) {
	date = domain.DateOf(date)
	seen := make(map[primitive.ObjectID]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			return nil, validationError("instance %s listed twice", id.Hex())
		}
		seen[id] = true
	}

	day, err := o.instanceRepo.ListByDate(ctx, ownerID, date)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]domain.ScheduledExerciseInstance, len(day))
	for _, inst := range day {
		byID[inst.ID] = inst
	}

	target := make([]domain.ScheduledExerciseInstance, 0, len(day))
	for _, id := range orderedIDs {
		inst, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: instance %s on %s", ErrNotFound, id.Hex(), domain.FormatDate(date))
		}
		target = append(target, inst)
	}
	for _, inst := range day {
		if !seen[inst.ID] {
			target = append(target, inst)
		}
	}

	changed := make(map[primitive.ObjectID]int)
	for pos := range target {
		if target[pos].Order != pos {
			changed[target[pos].ID] = pos
		}
	}
	if len(changed) > 0 {
		if err := o.instanceRepo.UpdateOrders(ctx, ownerID, changed); err != nil {
			return nil, fromRepo(err)
		}
	}
	for pos := range target {
		target[pos].Order = pos
	}
	return target, nil
}
