package mongo

import (
	"alcyxob/workout-planner/internal/logger"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names
const (
	planCollectionName     = "workout_plans"
	instanceCollectionName = "scheduled_exercises"
	overrideCollectionName = "hidden_occurrences"
	exerciseCollectionName = "exercises"
	categoryCollectionName = "categories"
)

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary node to verify the connection.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection owned by this service.
// The unique instance index is what makes concurrent materialization safe, so
// failures are logged loudly.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *logger.Logger) {
	EnsurePlanIndexes(ctx, db.Collection(planCollectionName), log)
	EnsureInstanceIndexes(ctx, db.Collection(instanceCollectionName), log)
	EnsureOverrideIndexes(ctx, db.Collection(overrideCollectionName), log)
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel, log *logger.Logger) {
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warn("failed to create indexes", "collection", collection.Name(), "error", err)
		return
	}
	log.Debug("indexes ensured", "collection", collection.Name(), "count", len(indexes))
}
