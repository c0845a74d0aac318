package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoHealthRepository pings the database
type MongoHealthRepository struct {
	db *mongo.Database
}

func NewMongoHealthRepository(db *mongo.Database) *MongoHealthRepository {
	return &MongoHealthRepository{db: db}
}

// Ping runs the admin ping command; any failure means the store is unavailable
func (r *MongoHealthRepository) Ping(ctx context.Context) error {
	if err := r.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return nil
}
