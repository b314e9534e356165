package mongo

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoOverrideRepository implements repository.OverrideRepository
type mongoOverrideRepository struct {
	collection *mongo.Collection
}

// NewMongoOverrideRepository creates the hidden-occurrence ledger.
func NewMongoOverrideRepository(db *mongo.Database) repository.OverrideRepository {
	return &mongoOverrideRepository{
		collection: db.Collection(overrideCollectionName),
	}
}

func overrideKey(ownerID, planID, exerciseID primitive.ObjectID, date time.Time) bson.M {
	return bson.M{
		"ownerId":    ownerID,
		"planId":     planID,
		"exerciseId": exerciseID,
		"date":       domain.DateOf(date),
	}
}

// Hide upserts the override so repeated calls are harmless.
func (r *mongoOverrideRepository) Hide(ctx context.Context, o *domain.HiddenOccurrence) error {
	o.Date = domain.DateOf(o.Date)
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	filter := overrideKey(o.OwnerID, o.PlanID, o.ExerciseID, o.Date)
	update := bson.M{"$setOnInsert": bson.M{"createdAt": o.CreatedAt}}
	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}
	if id, ok := result.UpsertedID.(primitive.ObjectID); ok {
		o.ID = id
	}
	return nil
}

// Unhide removes the override.
func (r *mongoOverrideRepository) Unhide(ctx context.Context, ownerID, planID, exerciseID primitive.ObjectID, date time.Time) error {
	result, err := r.collection.DeleteOne(ctx, overrideKey(ownerID, planID, exerciseID, date))
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListForPlanOnDate retrieves the overrides of a plan for one day.
func (r *mongoOverrideRepository) ListForPlanOnDate(ctx context.Context, ownerID, planID primitive.ObjectID, date time.Time) ([]domain.HiddenOccurrence, error) {
	filter := bson.M{"ownerId": ownerID, "planId": planID, "date": domain.DateOf(date)}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	overrides := []domain.HiddenOccurrence{}
	if err = cursor.All(ctx, &overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}

// EnsureOverrideIndexes creates necessary indexes. Call during startup.
func EnsureOverrideIndexes(ctx context.Context, collection *mongo.Collection, log *logger.Logger) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "ownerId", Value: 1},
				{Key: "planId", Value: 1},
				{Key: "date", Value: 1},
				{Key: "exerciseId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}, log)
}
