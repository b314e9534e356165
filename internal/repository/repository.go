package repository

import (
	"alcyxob/workout-planner/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDuplicate    = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// PlanRepository stores workout plans. Every lookup is scoped by owner; a
// plan owned by someone else is reported as ErrNotFound.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	// GetActive returns ErrNotFound when the owner has no active plan.
	GetActive(ctx context.Context, ownerID primitive.ObjectID) (*domain.WorkoutPlan, error)
	ListActive(ctx context.Context) ([]domain.WorkoutPlan, error)
	// FindDatedOverlapping returns the owner's dated plans whose [start, end]
	// intersects [start, end] inclusively, excluding excludeID when set.
	FindDatedOverlapping(ctx context.Context, ownerID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) ([]domain.WorkoutPlan, error)
	// Update writes the editable fields. It never touches isActive.
	Update(ctx context.Context, plan *domain.WorkoutPlan) error
	SetActive(ctx context.Context, ownerID, id primitive.ObjectID, active bool) error
	Delete(ctx context.Context, ownerID, id primitive.ObjectID) error
}

// InstanceRepository stores scheduled exercise instances.
type InstanceRepository interface {
	// Create inserts an instance unconditionally (manual additions).
	Create(ctx context.Context, inst *domain.ScheduledExerciseInstance) (primitive.ObjectID, error)
	// CreateIfAbsent inserts a plan-generated instance unless one already exists
	// for (owner, sourcePlanId, exerciseId, date). created is false when skipped.
	CreateIfAbsent(ctx context.Context, inst *domain.ScheduledExerciseInstance) (created bool, err error)
	GetByID(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.ScheduledExerciseInstance, error)
	// ListByDate returns every instance of the day, hidden ones included,
	// sorted by order then insertion.
	ListByDate(ctx context.Context, ownerID primitive.ObjectID, date time.Time) ([]domain.ScheduledExerciseInstance, error)
	ListByRange(ctx context.Context, ownerID primitive.ObjectID, from, to time.Time) ([]domain.ScheduledExerciseInstance, error)
	// LatestDateForPlan returns nil when the plan has no instances.
	LatestDateForPlan(ctx context.Context, ownerID, planID primitive.ObjectID) (*time.Time, error)
	// Update writes user-editable fields; provenance is never changed.
	Update(ctx context.Context, inst *domain.ScheduledExerciseInstance) error
	// UpdateOrders sets the order index of several instances at once. Either
	// every index is written or none is; a missing id fails with ErrNotFound.
	UpdateOrders(ctx context.Context, ownerID primitive.ObjectID, orders map[primitive.ObjectID]int) error
	Delete(ctx context.Context, ownerID, id primitive.ObjectID) error
	DeleteByDate(ctx context.Context, ownerID primitive.ObjectID, date time.Time) (int64, error)
}

// OverrideRepository is the ledger of hidden, not-yet-materialized occurrences.
type OverrideRepository interface {
	// Hide records the override; hiding twice is not an error.
	Hide(ctx context.Context, o *domain.HiddenOccurrence) error
	Unhide(ctx context.Context, ownerID, planID, exerciseID primitive.ObjectID, date time.Time) error
	ListForPlanOnDate(ctx context.Context, ownerID, planID primitive.ObjectID, date time.Time) ([]domain.HiddenOccurrence, error)
}

// CatalogRepository is a read-only view of the exercise catalog. Missing ids
// are simply absent from the returned maps.
type CatalogRepository interface {
	ExercisesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Exercise, error)
	CategoriesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Category, error)
}
