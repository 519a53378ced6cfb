package redis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/db/breaker"
)

// Options holds the connection settings
type Options struct {
	Addr     string
	Password string
	DB       int
}

// CircuitBreakerClient wraps a Redis client with circuit breaker functionality
type CircuitBreakerClient struct {
	client  *redis.Client
	breaker *breaker.Breaker
	logger  *zap.SugaredLogger
}

// NewCircuitBreakerClient creates a new circuit breaker client
func NewCircuitBreakerClient(client *redis.Client, b *breaker.Breaker, logger *zap.SugaredLogger) *CircuitBreakerClient {
	if b == nil {
		b = breaker.New(5, 10*time.Second)
	}
	return &CircuitBreakerClient{
		client:  client,
		breaker: b,
		logger:  logger,
	}
}

// Connect establishes a connection to Redis with retry capabilities
func Connect(ctx context.Context, opts Options, logger *zap.SugaredLogger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3, // Redis client has built-in retries for operations
	})

	// Retry configuration
	maxRetries := 5
	initialBackoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	// Exponential backoff with jitter for retries
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			logger.Infow("Successfully connected to Redis", "addr", opts.Addr, "attempt", attempt+1)
			return client, nil
		}

		backoff := float64(initialBackoff) * math.Pow(2, float64(attempt))
		if backoff > float64(maxBackoff) {
			backoff = float64(maxBackoff)
		}
		// Add jitter (±20%)
		jitter := 0.8 + 0.4*float64(time.Now().UnixNano()%1000)/1000.0
		backoffWithJitter := time.Duration(backoff * jitter)

		logger.Warnw("Failed to connect to Redis, retrying",
			"attempt", attempt+1,
			"maxRetries", maxRetries,
			"backoff", backoffWithJitter,
			"error", err)

		select {
		case <-time.After(backoffWithJitter):
		case <-ctx.Done():
			_ = client.Close()
			return nil, fmt.Errorf("context cancelled while connecting to Redis: %w", ctx.Err())
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", maxRetries, err)
}

// CreateClient creates a Redis client with circuit breaker protection
func CreateClient(ctx context.Context, opts Options, logger *zap.SugaredLogger) (*CircuitBreakerClient, error) {
	client, err := Connect(ctx, opts, logger)
	if err != nil {
		return nil, err
	}

	// 5 failures open the circuit for 10 seconds
	return NewCircuitBreakerClient(client, breaker.New(5, 10*time.Second), logger), nil
}

// Client exposes the underlying client, for the queue and health checks
func (c *CircuitBreakerClient) Client() *redis.Client {
	return c.client
}

// Close closes the underlying client
func (c *CircuitBreakerClient) Close() error {
	return c.client.Close()
}

// ExecuteWithCircuitBreaker executes a Redis command with circuit breaker
// protection. A missing key is an answer, not a backend failure.
func (c *CircuitBreakerClient) ExecuteWithCircuitBreaker(operation func() error) error {
	err := c.breaker.Execute(operation, func(err error) bool {
		return !errors.Is(err, redis.Nil)
	})
	if errors.Is(err, breaker.ErrOpen) {
		c.logger.Warn("Circuit breaker is open, fast-failing Redis request")
	}
	return err
}

// Ping checks the connection through the circuit breaker
func (c *CircuitBreakerClient) Ping(ctx context.Context) error {
	return c.ExecuteWithCircuitBreaker(func() error {
		return c.client.Ping(ctx).Err()
	})
}

// SetWithTTL sets a key with a value and TTL using the circuit breaker
func (c *CircuitBreakerClient) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.ExecuteWithCircuitBreaker(func() error {
		return c.client.Set(ctx, key, value, ttl).Err()
	})
}

// Get retrieves a value by key using the circuit breaker
func (c *CircuitBreakerClient) Get(ctx context.Context, key string) (string, error) {
	var result string
	err := c.ExecuteWithCircuitBreaker(func() error {
		var err error
		result, err = c.client.Get(ctx, key).Result()
		return err
	})
	return result, err
}
