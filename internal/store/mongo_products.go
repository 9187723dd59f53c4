package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Category     string             `bson:"category"`
	Price        float64            `bson:"price"`
	Description  string             `bson:"description,omitempty"`
	ImageURL     string             `bson:"image"`
	Stock        int                `bson:"stock"`
	IsOutOfStock bool               `bson:"isOutOfStock"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d productDocument) product() Product {
	return Product{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Category:     d.Category,
		Price:        d.Price,
		Description:  d.Description,
		ImageURL:     d.ImageURL,
		Stock:        d.Stock,
		IsOutOfStock: d.IsOutOfStock,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type MongoProductStore struct {
	collection *mongo.Collection
}

func (s *MongoProductStore) List(ctx context.Context) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.product())
	}
	return products, nil
}

func (s *MongoProductStore) GetByID(ctx context.Context, id string) (*Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var doc productDocument
	if err := s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	p := doc.product()
	return &p, nil
}

func (s *MongoProductStore) Create(ctx context.Context, p *Product) error {
	p.syncStock()
	now := time.Now().UTC()

	doc := productDocument{
		ID:           primitive.NewObjectID(),
		Name:         p.Name,
		Category:     p.Category,
		Price:        p.Price,
		Description:  p.Description,
		ImageURL:     p.ImageURL,
		Stock:        p.Stock,
		IsOutOfStock: p.IsOutOfStock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	p.ID = doc.ID.Hex()
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (s *MongoProductStore) Update(ctx context.Context, p *Product) error {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return ErrNotFound
	}
	p.syncStock()
	p.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"name":         p.Name,
			"category":     p.Category,
			"price":        p.Price,
			"description":  p.Description,
			"image":        p.ImageURL,
			"stock":        p.Stock,
			"isOutOfStock": p.IsOutOfStock,
			"updatedAt":    p.UpdatedAt,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoProductStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
