// internal/repository/mongo/instance_repo.go
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

// mongoInstanceRepository implements repository.InstanceRepository
type mongoInstanceRepository struct {
	collection *mongo.Collection
}

// NewMongoInstanceRepository creates a new ScheduledExerciseInstance repository.
func NewMongoInstanceRepository(db *mongo.Database) repository.InstanceRepository {
	return &mongoInstanceRepository{
		collection: db.Collection(instanceCollectionName),
	}
}

var dayOrderSort = bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

func prepareInstance(inst *domain.ScheduledExerciseInstance) {
	inst.ID = primitive.NewObjectID()
	inst.Date = domain.DateOf(inst.Date)
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now
}

// Create inserts an instance unconditionally.
func (r *mongoInstanceRepository) Create(ctx context.Context, inst *domain.ScheduledExerciseInstance) (primitive.ObjectID, error) {
	if inst.OwnerID == primitive.NilObjectID || inst.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("instance requires ownerId and exerciseId")
	}
	prepareInstance(inst)

	result, err := r.collection.InsertOne(ctx, inst)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted instance ID")
	}
	return insertedID, nil
}

// CreateIfAbsent inserts a plan-generated instance unless the
// (owner, plan, exercise, date) tuple already exists. The pre-check avoids
// most round trips; the unique index settles races between concurrent runs.
func (r *mongoInstanceRepository) CreateIfAbsent(ctx context.Context, inst *domain.ScheduledExerciseInstance) (bool, error) {
	if inst.SourcePlanID == nil {
		return false, errors.New("CreateIfAbsent requires sourcePlanId")
	}
	filter := bson.M{
		"ownerId":      inst.OwnerID,
		"sourcePlanId": *inst.SourcePlanID,
		"exerciseId":   inst.ExerciseID,
		"date":         domain.DateOf(inst.Date),
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	_, err = r.Create(ctx, inst)
	if errors.Is(err, repository.ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID retrieves a single instance, scoped to its owner.
func (r *mongoInstanceRepository) GetByID(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.ScheduledExerciseInstance, error) {
	var inst domain.ScheduledExerciseInstance
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "ownerId": ownerID}).Decode(&inst)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &inst, nil
}

// ListByDate retrieves every instance of a day, hidden ones included.
func (r *mongoInstanceRepository) ListByDate(ctx context.Context, ownerID primitive.ObjectID, date time.Time) ([]domain.ScheduledExerciseInstance, error) {
	filter := bson.M{"ownerId": ownerID, "date": domain.DateOf(date)}
	return r.find(ctx, filter, options.Find().SetSort(dayOrderSort))
}

// ListByRange retrieves instances with from <= date <= to, grouped by date.
func (r *mongoInstanceRepository) ListByRange(ctx context.Context, ownerID primitive.ObjectID, from, to time.Time) ([]domain.ScheduledExerciseInstance, error) {
	filter := bson.M{
		"ownerId": ownerID,
		"date":    bson.M{"$gte": domain.DateOf(from), "$lte": domain.DateOf(to)},
	}
	sort := append(bson.D{{Key: "date", Value: 1}}, dayOrderSort...)
	return r.find(ctx, filter, options.Find().SetSort(sort))
}

// LatestDateForPlan finds the most recent materialized date of a plan.
func (r *mongoInstanceRepository) LatestDateForPlan(ctx context.Context, ownerID, planID primitive.ObjectID) (*time.Time, error) {
	var latest struct {
		Date time.Time `bson:"date"`
	}
	findOptions := options.FindOne().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetProjection(bson.M{"date": 1})
	err := r.collection.FindOne(ctx, bson.M{"ownerId": ownerID, "sourcePlanId": planID}, findOptions).Decode(&latest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	d := domain.DateOf(latest.Date)
	return &d, nil
}

// Update writes user-editable fields. Provenance fields are never touched.
func (r *mongoInstanceRepository) Update(ctx context.Context, inst *domain.ScheduledExerciseInstance) error {
	if inst.ID == primitive.NilObjectID {
		return errors.New("instance ID is required for update")
	}
	inst.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": inst.ID, "ownerId": inst.OwnerID}
	updateDoc := bson.M{
		"$set": bson.M{
			"sets":           inst.Sets,
			"reps":           inst.Reps,
			"weight":         inst.Weight,
			"plates":         inst.Plates,
			"notes":          inst.Notes,
			"completed":      inst.Completed,
			"completedAt":    inst.CompletedAt,
			"isHidden":       inst.IsHidden,
			"modifiedByUser": inst.ModifiedByUser,
			"updatedAt":      inst.UpdatedAt,
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

// UpdateOrders writes a day's new order indices in one transaction, so a
// failure leaves the previous order untouched. Transactions need a replica set.
func (r *mongoInstanceRepository) UpdateOrders(ctx context.Context, ownerID primitive.ObjectID, orders map[primitive.ObjectID]int) error {
	if len(orders) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(orders))
	for id, order := range orders {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id, "ownerId": ownerID}).
			SetUpdate(bson.M{"$set": bson.M{"order": order, "updatedAt": now}}))
	}

	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		result, err := r.collection.BulkWrite(sc, models, options.BulkWrite().SetOrdered(true))
		if err != nil {
			return nil, err
		}
		if result.MatchedCount != int64(len(models)) {
			// Aborts the transaction.
			return nil, repository.ErrNotFound
		}
		return nil, nil
	})
	return err
}

// Delete removes a single instance.
func (r *mongoInstanceRepository) Delete(ctx context.Context, ownerID, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByDate removes every instance of an owner's day.
func (r *mongoInstanceRepository) DeleteByDate(ctx context.Context, ownerID primitive.ObjectID, date time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"ownerId": ownerID, "date": domain.DateOf(date)})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *mongoInstanceRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.ScheduledExerciseInstance, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	instances := []domain.ScheduledExerciseInstance{}
	if err = cursor.All(ctx, &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

// EnsureInstanceIndexes creates necessary indexes. Call during startup.
func EnsureInstanceIndexes(ctx context.Context, collection *mongo.Collection, log *logger.Logger) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// Never two instances for the same plan/exercise/day. Manual
			// instances carry no sourcePlanId and are excluded.
			Keys: bson.D{
				{Key: "ownerId", Value: 1},
				{Key: "sourcePlanId", Value: 1},
				{Key: "exerciseId", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"sourcePlanId": bson.M{"$exists": true}}),
		},
		{
			// Calendar day and range views
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "date", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index(),
		},
		{
			// Generation status lookups
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "sourcePlanId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index(),
		},
	}, log)
}
