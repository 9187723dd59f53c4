package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection  = "products"
	feedbacksCollection = "feedbacks"
)

// ConnectMongo dials uri, verifies the connection and returns the named database.
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(dbName), nil
}

// EnsureMongoIndexes creates the indexes the newest-first listings rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	byNewest := mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}

	for _, name := range []string{productsCollection, feedbacksCollection} {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, byNewest); err != nil {
			return fmt.Errorf("create %s index: %w", name, err)
		}
	}
	return nil
}
