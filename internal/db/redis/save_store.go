package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/persistence"
)

const (
	saveKeyPrefix = "save:"
	saveIndexKey  = "saves:index"
)

// SaveStore keeps save envelopes as JSON strings, indexed by save time in a
// sorted set
type SaveStore struct {
	client *CircuitBreakerClient
	now    func() time.Time
}

// NewSaveStore creates a Redis backed save store
func NewSaveStore(client *CircuitBreakerClient) *SaveStore {
	return &SaveStore{client: client, now: time.Now}
}

var _ persistence.Store = (*SaveStore)(nil)

func saveKey(slotID string) string {
	return saveKeyPrefix + slotID
}

// Save writes the state into the slot, replacing any previous save
func (s *SaveStore) Save(ctx context.Context, slotID string, state models.GameState) error {
	if err := persistence.ValidateSlot(slotID); err != nil {
		return err
	}
	env := persistence.NewEnvelope(slotID, state, s.now())
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode save %s: %w", slotID, err)
	}

	return s.client.ExecuteWithCircuitBreaker(func() error {
		_, err := s.client.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, saveKey(slotID), data, 0)
			pipe.ZAdd(ctx, saveIndexKey, &redis.Z{Score: float64(env.SavedAt.UnixNano()), Member: slotID})
			return nil
		})
		return err
	})
}

// Load reads the envelope stored in the slot
func (s *SaveStore) Load(ctx context.Context, slotID string) (*models.SaveEnvelope, error) {
	if err := persistence.ValidateSlot(slotID); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, saveKey(slotID))
	if errors.Is(err, redis.Nil) {
		return nil, persistence.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load save %s: %w", slotID, err)
	}

	var env models.SaveEnvelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return nil, fmt.Errorf("failed to decode save %s: %w", slotID, err)
	}
	return &env, nil
}

// ListSlots lists the saves, most recent first
func (s *SaveStore) ListSlots(ctx context.Context) ([]models.SlotMeta, error) {
	var slots []string
	err := s.client.ExecuteWithCircuitBreaker(func() error {
		var err error
		slots, err = s.client.client.ZRevRange(ctx, saveIndexKey, 0, -1).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}

	metas := make([]models.SlotMeta, 0, len(slots))
	for _, slotID := range slots {
		env, err := s.Load(ctx, slotID)
		if errors.Is(err, persistence.ErrSlotNotFound) {
			// index entry outlived its save
			continue
		}
		if err != nil {
			return nil, err
		}
		metas = append(metas, env.Meta())
	}
	return metas, nil
}

// DeleteSlot removes the save and its index entry
func (s *SaveStore) DeleteSlot(ctx context.Context, slotID string) error {
	if err := persistence.ValidateSlot(slotID); err != nil {
		return err
	}
	var deleted int64
	err := s.client.ExecuteWithCircuitBreaker(func() error {
		var del *redis.IntCmd
		_, err := s.client.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			del = pipe.Del(ctx, saveKey(slotID))
			pipe.ZRem(ctx, saveIndexKey, slotID)
			return nil
		})
		if err != nil {
			return err
		}
		deleted = del.Val()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete save %s: %w", slotID, err)
	}
	if deleted == 0 {
		return persistence.ErrSlotNotFound
	}
	return nil
}
