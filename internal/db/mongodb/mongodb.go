package mongodb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/db/breaker"
)

// CircuitBreakerClient wraps a MongoDB client with circuit breaker functionality
type CircuitBreakerClient struct {
	client  *mongo.Client
	breaker *breaker.Breaker
	logger  *zap.SugaredLogger
}

// NewCircuitBreakerClient creates a new circuit breaker client
func NewCircuitBreakerClient(client *mongo.Client, b *breaker.Breaker, logger *zap.SugaredLogger) *CircuitBreakerClient {
	if b == nil {
		b = breaker.New(5, 10*time.Second)
	}
	return &CircuitBreakerClient{
		client:  client,
		breaker: b,
		logger:  logger,
	}
}

// Client exposes the underlying client
func (c *CircuitBreakerClient) Client() *mongo.Client {
	return c.client
}

// Database returns a database handle
func (c *CircuitBreakerClient) Database(name string) *mongo.Database {
	return c.client.Database(name)
}

// Execute runs a MongoDB operation through the circuit breaker. A missing
// document is an answer, not a backend failure.
func (c *CircuitBreakerClient) Execute(operation func() error) error {
	err := c.breaker.Execute(operation, func(err error) bool {
		return !errors.Is(err, mongo.ErrNoDocuments)
	})
	if errors.Is(err, breaker.ErrOpen) {
		c.logger.Warn("Circuit breaker is open, fast-failing MongoDB request")
	}
	return err
}

// Ping pings the MongoDB server with circuit breaker protection
func (c *CircuitBreakerClient) Ping(ctx context.Context) error {
	return c.Execute(func() error {
		return c.client.Ping(ctx, readpref.Primary())
	})
}

// Disconnect closes the connection pool
func (c *CircuitBreakerClient) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Connect establishes a connection to MongoDB with retry capabilities
func Connect(ctx context.Context, uri string, logger *zap.SugaredLogger) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetMinPoolSize(5).
		SetMaxPoolSize(100).
		SetMaxConnIdleTime(30 * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	var client *mongo.Client
	var err error

	// Retry configuration
	maxRetries := 5
	initialBackoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	// Exponential backoff with jitter for retries
	for attempt := 0; attempt < maxRetries; attempt++ {
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		client, err = mongo.Connect(connCtx, clientOptions)
		cancel()

		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			pingErr := client.Ping(pingCtx, readpref.Primary())
			pingCancel()

			if pingErr == nil {
				logger.Infow("Successfully connected to MongoDB", "attempt", attempt+1)
				return client, nil
			}

			err = pingErr
			_ = client.Disconnect(ctx)
		}

		backoff := float64(initialBackoff) * math.Pow(2, float64(attempt))
		if backoff > float64(maxBackoff) {
			backoff = float64(maxBackoff)
		}
		// Add jitter (±20%)
		jitter := 0.8 + 0.4*float64(time.Now().UnixNano()%1000)/1000.0
		backoffWithJitter := time.Duration(backoff * jitter)

		logger.Warnw("Failed to connect to MongoDB, retrying",
			"attempt", attempt+1,
			"maxRetries", maxRetries,
			"backoff", backoffWithJitter,
			"error", err)

		select {
		case <-time.After(backoffWithJitter):
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled while connecting to MongoDB: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("failed to connect to MongoDB after %d attempts: %w", maxRetries, err)
}

// CreateClient creates a MongoDB client with circuit breaker protection
func CreateClient(ctx context.Context, uri string, logger *zap.SugaredLogger) (*CircuitBreakerClient, error) {
	client, err := Connect(ctx, uri, logger)
	if err != nil {
		return nil, err
	}

	// 5 failures open the circuit for 10 seconds
	return NewCircuitBreakerClient(client, breaker.New(5, 10*time.Second), logger), nil
}

// CreateIndexes creates the unique indexes of the save and user collections
func CreateIndexes(ctx context.Context, db *mongo.Database, savesColl, usersColl string) error {
	_, err := db.Collection(savesColl).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slotId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "savedAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create save indexes: %w", err)
	}

	_, err = db.Collection(usersColl).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}
