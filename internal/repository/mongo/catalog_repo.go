package mongo

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoCatalogRepository implements repository.CatalogRepository on the
// catalog service's collections. It never writes.
type mongoCatalogRepository struct {
	exercises  *mongo.Collection
	categories *mongo.Collection
}

// NewMongoCatalogRepository creates a read-only catalog lookup backed by MongoDB.
func NewMongoCatalogRepository(db *mongo.Database) repository.CatalogRepository {
	return &mongoCatalogRepository{
		exercises:  db.Collection(exerciseCollectionName),
		categories: db.Collection(categoryCollectionName),
	}
}

// ExercisesByIDs fetches the exercises with the given ids. Missing ids are skipped.
func (r *mongoCatalogRepository) ExercisesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Exercise, error) {
	out := make(map[primitive.ObjectID]domain.Exercise, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := r.exercises.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []domain.Exercise
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	for _, ex := range exercises {
		out[ex.ID] = ex
	}
	return out, nil
}

// CategoriesByIDs fetches the categories with the given ids. Missing ids are skipped.
func (r *mongoCatalogRepository) CategoriesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Category, error) {
	out := make(map[primitive.ObjectID]domain.Category, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := r.categories.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var categories []domain.Category
	if err = cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	for _, c := range categories {
		out[c.ID] = c
	}
	return out, nil
}
