package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/db/breaker"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/persistence"
)

// newTestStore connects to MONGODB_TEST_URI and skips when no server answers
func newTestStore(t *testing.T) *SaveStore {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("mongodb unavailable: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("mongodb unavailable: %v", err)
	}

	dbName := fmt.Sprintf("dentetsu_test_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_ = client.Database(dbName).Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	cb := NewCircuitBreakerClient(client, breaker.New(5, time.Second), zap.NewNop().Sugar())
	require.NoError(t, CreateIndexes(ctx, cb.Database(dbName), "saves", "users"))
	return NewSaveStore(cb, dbName, "saves")
}

func testState(id string, year int) models.GameState {
	s := models.GameState{
		ID: id, Year: year, Month: 7, TotalYears: 10,
		Phase:             models.PhaseCardUse,
		DestinationCityID: "sendai",
		Players: []models.Player{
			{ID: "p1", Name: "Alice", Kind: models.ControlHuman, Money: 4000, Position: "tokyo", Hand: []string{"express"}, Debuff: models.DebuffNone, IncomeMultiplier: 1, DiceMultiplier: 1, Status: models.PlayerStatusActive},
		},
		Properties: []models.Property{},
	}
	s.RecomputeAssets()
	return s
}

func TestMongoSaveStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Save(ctx, "first", testState("g1", 2)))
	clock = clock.Add(time.Hour)
	require.NoError(t, store.Save(ctx, "second", testState("g2", 4)))

	env, err := store.Load(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, persistence.Version, env.Version)
	assert.Equal(t, "g1", env.State.ID)
	assert.Equal(t, 4000, env.State.Players[0].Money)

	metas, err := store.ListSlots(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "second", metas[0].SlotID)

	// overwrite keeps a single document per slot
	clock = clock.Add(time.Hour)
	require.NoError(t, store.Save(ctx, "first", testState("g1", 3)))
	metas, err = store.ListSlots(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "first", metas[0].SlotID)
	assert.Equal(t, 3, metas[0].Year)

	require.NoError(t, store.DeleteSlot(ctx, "first"))
	assert.ErrorIs(t, store.DeleteSlot(ctx, "first"), persistence.ErrSlotNotFound)
	_, err = store.Load(ctx, "first")
	assert.ErrorIs(t, err, persistence.ErrSlotNotFound)
	assert.Equal(t, breaker.Closed, store.client.breaker.State())
}
