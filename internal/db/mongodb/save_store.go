package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/persistence"
)

// SaveStore keeps one document per save slot
type SaveStore struct {
	client *CircuitBreakerClient
	saves  *mongo.Collection
	now    func() time.Time
}

// NewSaveStore creates a MongoDB backed save store
func NewSaveStore(client *CircuitBreakerClient, dbName, collName string) *SaveStore {
	return &SaveStore{
		client: client,
		saves:  client.Database(dbName).Collection(collName),
		now:    time.Now,
	}
}

var _ persistence.Store = (*SaveStore)(nil)

// Save upserts the slot document
func (s *SaveStore) Save(ctx context.Context, slotID string, state models.GameState) error {
	if err := persistence.ValidateSlot(slotID); err != nil {
		return err
	}
	env := persistence.NewEnvelope(slotID, state, s.now())
	err := s.client.Execute(func() error {
		_, err := s.saves.ReplaceOne(ctx, bson.M{"slotId": slotID}, env, options.Replace().SetUpsert(true))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save slot %s: %w", slotID, err)
	}
	return nil
}

// Load reads the envelope of the slot
func (s *SaveStore) Load(ctx context.Context, slotID string) (*models.SaveEnvelope, error) {
	if err := persistence.ValidateSlot(slotID); err != nil {
		return nil, err
	}
	var env models.SaveEnvelope
	err := s.client.Execute(func() error {
		return s.saves.FindOne(ctx, bson.M{"slotId": slotID}).Decode(&env)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, persistence.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot %s: %w", slotID, err)
	}
	return &env, nil
}

// ListSlots lists the saves, most recent first
func (s *SaveStore) ListSlots(ctx context.Context) ([]models.SlotMeta, error) {
	var envs []models.SaveEnvelope
	err := s.client.Execute(func() error {
		cursor, err := s.saves.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "savedAt", Value: -1}}))
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &envs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}

	metas := make([]models.SlotMeta, 0, len(envs))
	for _, env := range envs {
		metas = append(metas, env.Meta())
	}
	return metas, nil
}

// DeleteSlot removes the slot document
func (s *SaveStore) DeleteSlot(ctx context.Context, slotID string) error {
	if err := persistence.ValidateSlot(slotID); err != nil {
		return err
	}
	var deleted int64
	err := s.client.Execute(func() error {
		res, err := s.saves.DeleteOne(ctx, bson.M{"slotId": slotID})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", slotID, err)
	}
	if deleted == 0 {
		return persistence.ErrSlotNotFound
	}
	return nil
}
