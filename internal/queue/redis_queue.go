package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/game/economy"
	"github.com/kekopoly/dentetsu/internal/game/models"
)

// MessageType defines the type of message in the queue
type MessageType string

const (
	// TurnCompleted is enqueued after every played turn
	TurnCompleted MessageType = "turn_completed"
	// GameOver is enqueued once when the last month of the last year ends
	GameOver MessageType = "game_over"
)

// ErrQueueEmpty is returned by DequeueMessage when nothing is waiting
var ErrQueueEmpty = errors.New("queue is empty")

// ErrResultNotFound is returned by Result when no standings are recorded
var ErrResultNotFound = errors.New("result not found")

// QueueMessage represents a message in the queue
type QueueMessage struct {
	Type      MessageType        `json:"type"`
	GameID    string             `json:"gameId"`
	PlayerID  string             `json:"playerId,omitempty"`
	Turn      int                `json:"turn"`
	State     *models.GameState  `json:"state,omitempty"`
	Standings []economy.Standing `json:"standings,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Attempts  int                `json:"attempts"`
}

// QueueName is the list holding the messages of a game
func QueueName(gameID string) string {
	return fmt.Sprintf("game:%s:queue", gameID)
}

// DeadLetterQueueName is the list holding the failed messages of a queue
func DeadLetterQueueName(queueName string) string {
	return queueName + ":dead"
}

// RedisQueue implements a Redis-based message queue
type RedisQueue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisQueue creates a queue on an existing client
func NewRedisQueue(client *redis.Client, logger *zap.Logger) *RedisQueue {
	return &RedisQueue{
		client: client,
		logger: logger,
	}
}

// Dial connects to Redis and creates a queue on the new client
func Dial(ctx context.Context, redisAddr, password string, db int, logger *zap.Logger) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisQueue(client, logger), nil
}

// Close closes the Redis connection
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// EnqueueTurnCompleted records that playerID finished a turn leaving state
func (q *RedisQueue) EnqueueTurnCompleted(ctx context.Context, playerID string, state models.GameState) error {
	msg := QueueMessage{
		Type:      TurnCompleted,
		GameID:    state.ID,
		PlayerID:  playerID,
		Turn:      state.Turn,
		State:     &state,
		Timestamp: time.Now().UTC(),
	}
	return q.enqueueMessage(ctx, QueueName(state.ID), msg)
}

// EnqueueGameOver records the final state and standings of a game
func (q *RedisQueue) EnqueueGameOver(ctx context.Context, state models.GameState, standings []economy.Standing) error {
	msg := QueueMessage{
		Type:      GameOver,
		GameID:    state.ID,
		Turn:      state.Turn,
		State:     &state,
		Standings: standings,
		Timestamp: time.Now().UTC(),
	}
	return q.enqueueMessage(ctx, QueueName(state.ID), msg)
}

// enqueueMessage adds a message to the specified queue
func (q *RedisQueue) enqueueMessage(ctx context.Context, queueName string, msg QueueMessage) error {
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := q.client.RPush(ctx, queueName, msgJSON).Err(); err != nil {
		return fmt.Errorf("failed to push message to queue: %w", err)
	}

	q.logger.Debug("Message enqueued",
		zap.String("queue", queueName),
		zap.String("type", string(msg.Type)),
		zap.String("gameId", msg.GameID),
		zap.Int("turn", msg.Turn))

	return nil
}

// DequeueMessage retrieves and removes the oldest message of the queue
func (q *RedisQueue) DequeueMessage(ctx context.Context, queueName string) (*QueueMessage, error) {
	// LPOP rather than BLPOP so the worker loop never blocks on one queue
	result, err := q.client.LPop(ctx, queueName).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop message from queue: %w", err)
	}

	var msg QueueMessage
	if err := json.Unmarshal([]byte(result), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	q.logger.Debug("Message dequeued",
		zap.String("queue", queueName),
		zap.String("type", string(msg.Type)),
		zap.String("gameId", msg.GameID))

	return &msg, nil
}

// PeekMessage retrieves but does not remove the oldest message
func (q *RedisQueue) PeekMessage(ctx context.Context, queueName string) (*QueueMessage, error) {
	result, err := q.client.LRange(ctx, queueName, 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to peek message from queue: %w", err)
	}
	if len(result) == 0 {
		return nil, nil
	}

	var msg QueueMessage
	if err := json.Unmarshal([]byte(result[0]), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &msg, nil
}

// MoveToDeadLetterQueue moves a failed message to a dead letter queue
func (q *RedisQueue) MoveToDeadLetterQueue(ctx context.Context, queueName string, msg *QueueMessage) error {
	msg.Attempts++

	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	deadLetterQueue := DeadLetterQueueName(queueName)
	if err := q.client.RPush(ctx, deadLetterQueue, msgJSON).Err(); err != nil {
		return fmt.Errorf("failed to push message to dead letter queue: %w", err)
	}

	q.logger.Warn("Message moved to dead letter queue",
		zap.String("queue", queueName),
		zap.String("deadLetterQueue", deadLetterQueue),
		zap.String("type", string(msg.Type)),
		zap.String("gameId", msg.GameID),
		zap.Int("attempts", msg.Attempts))

	return nil
}

// RetryMessage puts a message back at the end of the queue
func (q *RedisQueue) RetryMessage(ctx context.Context, queueName string, msg *QueueMessage) error {
	msg.Attempts++

	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := q.client.RPush(ctx, queueName, msgJSON).Err(); err != nil {
		return fmt.Errorf("failed to push message to queue for retry: %w", err)
	}

	q.logger.Info("Message requeued for retry",
		zap.String("queue", queueName),
		zap.String("type", string(msg.Type)),
		zap.String("gameId", msg.GameID),
		zap.Int("attempts", msg.Attempts))

	return nil
}

// GetQueueLength returns the number of messages in the specified queue
func (q *RedisQueue) GetQueueLength(ctx context.Context, queueName string) (int64, error) {
	return q.client.LLen(ctx, queueName).Result()
}

// ClearQueue removes all messages from the specified queue
func (q *RedisQueue) ClearQueue(ctx context.Context, queueName string) error {
	return q.client.Del(ctx, queueName).Err()
}

// QueueNames lists the live game queues
func (q *RedisQueue) QueueNames(ctx context.Context) ([]string, error) {
	keys, err := q.client.Keys(ctx, "game:*:queue").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get queue keys: %w", err)
	}
	return keys, nil
}

// ClearDeadLetterQueues removes all dead letter queues from Redis
func (q *RedisQueue) ClearDeadLetterQueues(ctx context.Context) (int64, error) {
	keys, err := q.client.Keys(ctx, "game:*:queue:dead").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get dead letter queue keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	count, err := q.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete dead letter queues: %w", err)
	}

	q.logger.Info("Cleared all dead letter queues", zap.Int64("count", count))
	return count, nil
}

// ResultKey is where the final standings of a game are kept
func ResultKey(gameID string) string {
	return fmt.Sprintf("game:%s:result", gameID)
}

// SaveResult stores the final standings of a game for ttl
func (q *RedisQueue) SaveResult(ctx context.Context, gameID string, standings []economy.Standing, ttl time.Duration) error {
	data, err := json.Marshal(standings)
	if err != nil {
		return fmt.Errorf("failed to marshal standings: %w", err)
	}
	if err := q.client.Set(ctx, ResultKey(gameID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store result of game %s: %w", gameID, err)
	}
	return nil
}

// Result reads the final standings of a finished game
func (q *RedisQueue) Result(ctx context.Context, gameID string) ([]economy.Standing, error) {
	data, err := q.client.Get(ctx, ResultKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read result of game %s: %w", gameID, err)
	}
	var standings []economy.Standing
	if err := json.Unmarshal(data, &standings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal standings: %w", err)
	}
	return standings, nil
}
