package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound          = errors.New("resource not found")
	QueryTimeoutDuration = time.Second * 5
)

type ProductStore interface {
	List(context.Context) ([]Product, error)
	GetByID(context.Context, string) (*Product, error)
	Create(context.Context, *Product) error
	Update(context.Context, *Product) error
	Delete(context.Context, string) error
}

type FeedbackStore interface {
	Create(context.Context, *Feedback) error
	List(ctx context.Context, limit int) ([]Feedback, error)
}

type Storage struct {
	Products  ProductStore
	Feedbacks FeedbackStore
}

func NewPostgresStorage(db *sql.DB) Storage {
	return Storage{
		Products:  &PostgresProductStore{db},
		Feedbacks: &PostgresFeedbackStore{db},
	}
}

func NewMongoStorage(db *mongo.Database) Storage {
	return Storage{
		Products:  &MongoProductStore{db.Collection(productsCollection)},
		Feedbacks: &MongoFeedbackStore{db.Collection(feedbacksCollection)},
	}
}
