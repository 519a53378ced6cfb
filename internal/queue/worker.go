package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/game/persistence"
)

// MessageHandler is a function that processes a queue message
type MessageHandler func(ctx context.Context, msg *QueueMessage) error

// GameLookup reports whether a game session is still registered
type GameLookup interface {
	HasGame(gameID string) bool
}

// ErrGameGone marks messages whose game no longer exists; they are not retried
var ErrGameGone = errors.New("game no longer exists")

// ResultTTL is how long final standings stay readable after a game ends
const ResultTTL = 7 * 24 * time.Hour

// Worker processes messages from the game queues
type Worker struct {
	queue        *RedisQueue
	store        persistence.Store
	games        GameLookup
	logger       *zap.Logger
	handlers     map[MessageType]MessageHandler
	maxAttempts  int
	retryDelay   time.Duration
	pollInterval time.Duration
	shutdownChan chan struct{}
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewWorker creates a new queue worker. games may be nil, in which case
// every queue is treated as live.
func NewWorker(queue *RedisQueue, store persistence.Store, games GameLookup, logger *zap.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	worker := &Worker{
		queue:        queue,
		store:        store,
		games:        games,
		logger:       logger,
		handlers:     make(map[MessageType]MessageHandler),
		maxAttempts:  3,
		retryDelay:   time.Second,
		pollInterval: time.Second,
		shutdownChan: make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}

	worker.registerDefaultHandlers()

	return worker
}

// registerDefaultHandlers sets up the autosave and result handlers
func (w *Worker) registerDefaultHandlers() {
	w.RegisterHandler(TurnCompleted, func(ctx context.Context, msg *QueueMessage) error {
		if msg.State == nil {
			return fmt.Errorf("turn message for game %s carries no state", msg.GameID)
		}
		if !w.gameExists(msg.GameID) {
			return ErrGameGone
		}
		if err := w.store.Save(ctx, persistence.AutosaveSlot(msg.GameID), *msg.State); err != nil {
			return fmt.Errorf("failed to autosave game: %w", err)
		}

		w.logger.Debug("Game autosaved",
			zap.String("gameId", msg.GameID),
			zap.String("playerId", msg.PlayerID),
			zap.Int("turn", msg.Turn))
		return nil
	})

	// The final save and standings are kept even if the session was
	// already dropped from memory.
	w.RegisterHandler(GameOver, func(ctx context.Context, msg *QueueMessage) error {
		if msg.State != nil {
			if err := w.store.Save(ctx, persistence.AutosaveSlot(msg.GameID), *msg.State); err != nil {
				return fmt.Errorf("failed to save final state: %w", err)
			}
		}
		if err := w.queue.SaveResult(ctx, msg.GameID, msg.Standings, ResultTTL); err != nil {
			return err
		}

		fields := []zap.Field{zap.String("gameId", msg.GameID), zap.Int("turn", msg.Turn)}
		if len(msg.Standings) > 0 {
			fields = append(fields,
				zap.String("winner", msg.Standings[0].PlayerID),
				zap.Int("winnerAssets", msg.Standings[0].TotalAssets))
		}
		w.logger.Info("Game result recorded", fields...)
		return nil
	})
}

// RegisterHandler registers a handler for a specific message type
func (w *Worker) RegisterHandler(msgType MessageType, handler MessageHandler) {
	w.handlers[msgType] = handler
}

// SetMaxAttempts sets the maximum number of retry attempts
func (w *Worker) SetMaxAttempts(maxAttempts int) {
	w.maxAttempts = maxAttempts
}

// SetRetryDelay sets the base delay before a failed message is requeued
func (w *Worker) SetRetryDelay(d time.Duration) {
	w.retryDelay = d
}

// Start begins processing messages from the queue
func (w *Worker) Start() {
	go w.processMessages()
	go w.runPeriodicCleanup()
}

// Stop stops the worker
func (w *Worker) Stop() {
	w.cancel()
	close(w.shutdownChan)
}

// processMessages drains every game queue, then waits for the next poll
func (w *Worker) processMessages() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.ProcessOnce(w.ctx)

		select {
		case <-w.shutdownChan:
			w.logger.Info("Worker shutting down")
			return
		case <-ticker.C:
		}
	}
}

// ProcessOnce processes the messages currently waiting in every game queue
// and returns how many were handled successfully
func (w *Worker) ProcessOnce(ctx context.Context) int {
	queues, err := w.queue.QueueNames(ctx)
	if err != nil {
		w.logger.Error("Failed to list queues", zap.Error(err))
		return 0
	}

	processed := 0
	for _, queueName := range queues {
		if ctx.Err() != nil {
			return processed
		}
		processed += w.processQueue(ctx, queueName)
	}
	return processed
}

// processQueue handles the messages present when it starts. Requeued
// retries wait for the next pass.
func (w *Worker) processQueue(ctx context.Context, queueName string) int {
	length, err := w.queue.GetQueueLength(ctx, queueName)
	if err != nil {
		w.logger.Error("Failed to get queue length",
			zap.String("queue", queueName),
			zap.Error(err))
		return 0
	}

	processed := 0
	for i := int64(0); i < length; i++ {
		select {
		case <-w.shutdownChan:
			w.logger.Info("Worker shutting down during message processing")
			return processed
		default:
		}

		msg, err := w.queue.DequeueMessage(ctx, queueName)
		if errors.Is(err, ErrQueueEmpty) {
			break
		}
		if err != nil {
			w.logger.Error("Failed to dequeue message",
				zap.String("queue", queueName),
				zap.Error(err))
			break
		}

		if err := w.processMessage(ctx, queueName, msg); err != nil {
			w.handleFailure(ctx, queueName, msg, err)
			continue
		}
		processed++
	}
	return processed
}

// processMessage processes a single message from the queue
func (w *Worker) processMessage(ctx context.Context, queueName string, msg *QueueMessage) error {
	handler, ok := w.handlers[msg.Type]
	if !ok {
		return fmt.Errorf("no handler registered for message type: %s", msg.Type)
	}

	if err := handler(ctx, msg); err != nil {
		return err
	}

	w.logger.Debug("Successfully processed message",
		zap.String("queue", queueName),
		zap.String("type", string(msg.Type)),
		zap.String("gameId", msg.GameID))
	return nil
}

func (w *Worker) handleFailure(ctx context.Context, queueName string, msg *QueueMessage, cause error) {
	w.logger.Error("Failed to process message",
		zap.String("queue", queueName),
		zap.String("type", string(msg.Type)),
		zap.String("gameId", msg.GameID),
		zap.Int("attempts", msg.Attempts),
		zap.Error(cause))

	var err error
	switch {
	case errors.Is(cause, ErrGameGone):
		err = w.queue.MoveToDeadLetterQueue(ctx, queueName, msg)
	case msg.Attempts < w.maxAttempts:
		if w.retryDelay > 0 {
			time.Sleep(time.Duration(msg.Attempts+1) * w.retryDelay)
		}
		err = w.queue.RetryMessage(ctx, queueName, msg)
	default:
		w.logger.Warn("Moving message to dead letter queue after max attempts",
			zap.String("queue", queueName),
			zap.String("type", string(msg.Type)),
			zap.Int("maxAttempts", w.maxAttempts))
		err = w.queue.MoveToDeadLetterQueue(ctx, queueName, msg)
	}
	if err != nil {
		w.logger.Error("Failed to requeue failed message",
			zap.String("queue", queueName),
			zap.Error(err))
	}
}

// runPeriodicCleanup periodically cleans up stale queues
func (w *Worker) runPeriodicCleanup() {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdownChan:
			w.logger.Info("Cleanup task shutting down")
			return
		case <-ticker.C:
			w.CleanupStaleQueues(w.ctx)
		}
	}
}

// CleanupStaleQueues moves the messages of games that no longer exist to
// their dead letter queues and returns how many queues were stale
func (w *Worker) CleanupStaleQueues(ctx context.Context) int {
	queues, err := w.queue.QueueNames(ctx)
	if err != nil {
		w.logger.Error("Failed to get queue keys for cleanup", zap.Error(err))
		return 0
	}

	stale := 0
	for _, queueName := range queues {
		gameID, ok := gameIDFromQueue(queueName)
		if !ok || w.gameExists(gameID) {
			continue
		}
		stale++
		w.logger.Info("Found stale queue for non-existent game",
			zap.String("queue", queueName),
			zap.String("gameId", gameID))
		w.moveAllMessagesToDeadLetterQueue(ctx, queueName)
	}

	w.logger.Info("Stale queue cleanup complete",
		zap.Int("totalQueues", len(queues)),
		zap.Int("staleQueues", stale))
	return stale
}

func (w *Worker) moveAllMessagesToDeadLetterQueue(ctx context.Context, queueName string) {
	for {
		msg, err := w.queue.DequeueMessage(ctx, queueName)
		if errors.Is(err, ErrQueueEmpty) {
			return
		}
		if err != nil {
			w.logger.Error("Failed to dequeue message during cleanup",
				zap.String("queue", queueName),
				zap.Error(err))
			return
		}
		if err := w.queue.MoveToDeadLetterQueue(ctx, queueName, msg); err != nil {
			w.logger.Error("Failed to move message to dead letter queue during cleanup",
				zap.String("queue", queueName),
				zap.Error(err))
		}
	}
}

func (w *Worker) gameExists(gameID string) bool {
	if w.games == nil {
		return true
	}
	return w.games.HasGame(gameID)
}

// gameIDFromQueue extracts the id from "game:<id>:queue"
func gameIDFromQueue(queueName string) (string, bool) {
	parts := strings.Split(queueName, ":")
	if len(parts) != 3 || parts[0] != "game" || parts[2] != "queue" {
		return "", false
	}
	return parts[1], true
}
