package config

import (
	"context"
	"fmt"
	"time"

	"communities/messages/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// NewMongoClient connects to MongoDB, retrying until the server answers a ping
func NewMongoClient(ctx context.Context, cfg *Config, log *logger.Logger) (*mongo.Client, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.Database.URI).
		SetAppName(ServiceName).
		SetConnectTimeout(cfg.Database.Timeout).
		SetServerSelectionTimeout(cfg.Database.Timeout)

	var client *mongo.Client
	var err error
	retries := cfg.Database.ConnectRetries
	delay := cfg.Database.RetryDelay

	for i := 0; i < retries; i++ {
		client, err = connect(ctx, clientOpts, cfg.Database.Timeout)
		if err == nil {
			break
		}

		log.Warn("Failed to connect to database, retrying",
			"attempt", i+1,
			"retries", retries,
			"delay", delay.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d retries: %w", retries, err)
	}

	return client, nil
}

func connect(ctx context.Context, opts *options.ClientOptions, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}
