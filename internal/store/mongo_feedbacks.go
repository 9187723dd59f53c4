package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type feedbackDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Message   string             `bson:"message"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type MongoFeedbackStore struct {
	collection *mongo.Collection
}

func (s *MongoFeedbackStore) Create(ctx context.Context, f *Feedback) error {
	doc := feedbackDocument{
		ID:        primitive.NewObjectID(),
		Name:      f.Name,
		Message:   f.Message,
		CreatedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	f.ID = doc.ID.Hex()
	f.CreatedAt = doc.CreatedAt
	return nil
}

func (s *MongoFeedbackStore) List(ctx context.Context, limit int) ([]Feedback, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedbacks: %w", err)
	}
	defer cursor.Close(ctx)

	feedbacks := []Feedback{}
	for cursor.Next(ctx) {
		var doc feedbackDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode feedback: %w", err)
		}
		feedbacks = append(feedbacks, Feedback{
			ID:        doc.ID.Hex(),
			Name:      doc.Name,
			Message:   doc.Message,
			CreatedAt: doc.CreatedAt,
		})
	}
	return feedbacks, cursor.Err()
}
