package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/game/economy"
	"github.com/kekopoly/dentetsu/internal/game/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Save(ctx context.Context, slotID string, state models.GameState) error {
	return m.Called(ctx, slotID, state).Error(0)
}

func (m *mockStore) Load(ctx context.Context, slotID string) (*models.SaveEnvelope, error) {
	args := m.Called(ctx, slotID)
	env, _ := args.Get(0).(*models.SaveEnvelope)
	return env, args.Error(1)
}

func (m *mockStore) ListSlots(ctx context.Context) ([]models.SlotMeta, error) {
	args := m.Called(ctx)
	metas, _ := args.Get(0).([]models.SlotMeta)
	return metas, args.Error(1)
}

func (m *mockStore) DeleteSlot(ctx context.Context, slotID string) error {
	return m.Called(ctx, slotID).Error(0)
}

type liveGames map[string]bool

func (l liveGames) HasGame(gameID string) bool { return l[gameID] }

func newTestQueue(t *testing.T) *RedisQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := NewRedisQueue(client, zap.NewNop())
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func newTestWorker(q *RedisQueue, store *mockStore, games GameLookup) *Worker {
	w := NewWorker(q, store, games, zap.NewNop())
	w.SetRetryDelay(0)
	return w
}

func state(id string, turn int) models.GameState {
	return models.GameState{
		ID: id, Year: 1, Month: 2, TotalYears: 3, Turn: turn,
		Players: []models.Player{{ID: "p1", Name: "Alice", Money: 10000, TotalAssets: 10000, Hand: []string{}}},
	}
}

func TestEnqueueDequeueOrder(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueTurnCompleted(ctx, "p1", state("g1", 1)))
	require.NoError(t, q.EnqueueTurnCompleted(ctx, "p2", state("g1", 2)))

	n, err := q.GetQueueLength(ctx, QueueName("g1"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	peek, err := q.PeekMessage(ctx, QueueName("g1"))
	require.NoError(t, err)
	assert.Equal(t, 1, peek.Turn)

	msg, err := q.DequeueMessage(ctx, QueueName("g1"))
	require.NoError(t, err)
	assert.Equal(t, TurnCompleted, msg.Type)
	assert.Equal(t, "p1", msg.PlayerID)
	require.NotNil(t, msg.State)
	assert.Equal(t, "g1", msg.State.ID)

	_, err = q.DequeueMessage(ctx, QueueName("g1"))
	require.NoError(t, err)
	_, err = q.DequeueMessage(ctx, QueueName("g1"))
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestWorkerAutosavesTurns(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	store := &mockStore{}
	store.On("Save", mock.Anything, "auto-g1", mock.MatchedBy(func(s models.GameState) bool {
		return s.ID == "g1" && s.Turn == 4
	})).Return(nil).Once()

	require.NoError(t, q.EnqueueTurnCompleted(ctx, "p1", state("g1", 4)))
	w := newTestWorker(q, store, liveGames{"g1": true})

	assert.Equal(t, 1, w.ProcessOnce(ctx))
	store.AssertExpectations(t)
	n, _ := q.GetQueueLength(ctx, QueueName("g1"))
	assert.Zero(t, n)
}

func TestWorkerRecordsResult(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	store := &mockStore{}
	store.On("Save", mock.Anything, "auto-g2", mock.Anything).Return(nil).Once()

	standings := []economy.Standing{
		{Rank: 1, PlayerID: "p2", Name: "Bot", TotalAssets: 30000, Money: 5000},
		{Rank: 2, PlayerID: "p1", Name: "Alice", TotalAssets: 12000, Money: 12000},
	}
	require.NoError(t, q.EnqueueGameOver(ctx, state("g2", 96), standings))

	// finished games are recorded even after the session is gone
	w := newTestWorker(q, store, liveGames{})
	assert.Equal(t, 1, w.ProcessOnce(ctx))

	got, err := q.Result(ctx, "g2")
	require.NoError(t, err)
	assert.Equal(t, standings, got)
	store.AssertExpectations(t)
}

func TestWorkerRetriesThenDeadLetters(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	store := &mockStore{}
	store.On("Save", mock.Anything, "auto-g1", mock.Anything).Return(errors.New("backend down"))

	require.NoError(t, q.EnqueueTurnCompleted(ctx, "p1", state("g1", 1)))
	w := newTestWorker(q, store, liveGames{"g1": true})
	w.SetMaxAttempts(1)

	assert.Equal(t, 0, w.ProcessOnce(ctx))
	msg, err := q.PeekMessage(ctx, QueueName("g1"))
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, 1, msg.Attempts)

	assert.Equal(t, 0, w.ProcessOnce(ctx))
	n, _ := q.GetQueueLength(ctx, QueueName("g1"))
	assert.Zero(t, n)
	dead, _ := q.GetQueueLength(ctx, DeadLetterQueueName(QueueName("g1")))
	assert.Equal(t, int64(1), dead)
	store.AssertNumberOfCalls(t, "Save", 2)
}

func TestWorkerDeadLettersGoneGames(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	store := &mockStore{}

	require.NoError(t, q.EnqueueTurnCompleted(ctx, "p1", state("gone", 1)))
	w := newTestWorker(q, store, liveGames{})

	assert.Equal(t, 0, w.ProcessOnce(ctx))
	dead, _ := q.GetQueueLength(ctx, DeadLetterQueueName(QueueName("gone")))
	assert.Equal(t, int64(1), dead)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCleanupStaleQueues(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueTurnCompleted(ctx, "p1", state("live", 1)))
	require.NoError(t, q.EnqueueTurnCompleted(ctx, "p1", state("old", 1)))
	require.NoError(t, q.EnqueueTurnCompleted(ctx, "p1", state("old", 2)))

	w := newTestWorker(q, &mockStore{}, liveGames{"live": true})
	assert.Equal(t, 1, w.CleanupStaleQueues(ctx))

	live, _ := q.GetQueueLength(ctx, QueueName("live"))
	assert.Equal(t, int64(1), live)
	dead, _ := q.GetQueueLength(ctx, DeadLetterQueueName(QueueName("old")))
	assert.Equal(t, int64(2), dead)

	cleared, err := q.ClearDeadLetterQueues(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
}

func TestGameIDFromQueue(t *testing.T) {
	id, ok := gameIDFromQueue("game:abc:queue")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = gameIDFromQueue("game:abc:queue:dead")
	assert.False(t, ok)
}
