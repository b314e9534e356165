// internal/repository/mongo/plan_repo.go
package mongo

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new WorkoutPlan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new workout plan.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	if plan.OwnerID == primitive.NilObjectID || plan.Name == "" {
		return primitive.NilObjectID, errors.New("plan requires ownerId and name")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single plan, scoped to its owner.
func (r *mongoPlanRepository) GetByID(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return r.findOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
}

// ListByOwner retrieves all plans of an owner, newest first.
func (r *mongoPlanRepository) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"ownerId": ownerID}, findOptions)
}

// GetActive retrieves the owner's active plan.
func (r *mongoPlanRepository) GetActive(ctx context.Context, ownerID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return r.findOne(ctx, bson.M{"ownerId": ownerID, "isActive": true})
}

// ListActive retrieves every active plan across owners.
func (r *mongoPlanRepository) ListActive(ctx context.Context) ([]domain.WorkoutPlan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "ownerId", Value: 1}})
	return r.find(ctx, bson.M{"isActive": true}, findOptions)
}

// FindDatedOverlapping finds the owner's dated plans intersecting [start, end].
func (r *mongoPlanRepository) FindDatedOverlapping(ctx context.Context, ownerID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	// s1 <= e2 AND s2 <= e1, both bounds inclusive
	filter := bson.M{
		"ownerId":   ownerID,
		"mode":      domain.ModeDated,
		"startDate": bson.M{"$lte": domain.DateOf(end)},
		"endDate":   bson.M{"$gte": domain.DateOf(start)},
	}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}})
	return r.find(ctx, filter, findOptions)
}

// Update writes the editable plan fields. isActive is owned by SetActive.
func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.WorkoutPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("workout plan ID is required for update")
	}
	plan.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": plan.ID, "ownerId": plan.OwnerID}
	updateDoc := bson.M{
		"$set": bson.M{
			"name":           plan.Name,
			"description":    plan.Description,
			"level":          plan.Level,
			"durationWeeks":  plan.DurationWeeks,
			"mode":           plan.Mode,
			"startDate":      plan.StartDate,
			"endDate":        plan.EndDate,
			"weeklyTemplate": plan.Template,
			"updatedAt":      plan.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetActive flips the isActive flag of one plan. Activating while another plan
// of the owner is active violates the partial unique index and returns
// repository.ErrDuplicate.
func (r *mongoPlanRepository) SetActive(ctx context.Context, ownerID, id primitive.ObjectID, active bool) error {
	filter := bson.M{"_id": id, "ownerId": ownerID}
	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a plan. Materialized instances are left in place.
func (r *mongoPlanRepository) Delete(ctx context.Context, ownerID, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		// Either missing or owned by someone else; both read as not found.
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoPlanRepository) findOne(ctx context.Context, filter bson.M) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *mongoPlanRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.WorkoutPlan, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []domain.WorkoutPlan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// EnsurePlanIndexes creates necessary indexes. Call during startup.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection, log *logger.Logger) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// At most one active plan per owner.
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isActive": true}),
		},
		{
			// Conflict detection over dated plans
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "mode", Value: 1}, {Key: "startDate", Value: 1}, {Key: "endDate", Value: 1}},
			Options: options.Index(),
		},
	}, log)
}
