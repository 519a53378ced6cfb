package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/persistence"
	"github.com/kekopoly/dentetsu/internal/game/rng"
	"github.com/kekopoly/dentetsu/internal/game/turn"
)

// ErrNoStore is returned by save operations when no store is configured
var ErrNoStore = errors.New("no save store configured")

// ErrVersionMismatch is returned when a save was written by another version
var ErrVersionMismatch = errors.New("save version mismatch")

// SaveGame writes the current state of a game into a slot
func (gm *GameManager) SaveGame(ctx context.Context, gameID, slotID string) error {
	if gm.store == nil {
		return ErrNoStore
	}
	session, err := gm.session(gameID)
	if err != nil {
		return err
	}

	session.mutex.Lock()
	state := session.State.Clone()
	session.mutex.Unlock()

	if err := gm.store.Save(ctx, slotID, state); err != nil {
		return err
	}
	gm.logger.Infof("Saved game %s to slot %s", gameID, slotID)
	return nil
}

// LoadGame hosts the state saved in a slot. A game still hosted under the
// same id has its state replaced; otherwise a new session is created with
// every human seat owned by hostUserID. Randomness restarts from a new seed.
func (gm *GameManager) LoadGame(ctx context.Context, slotID, hostUserID string) (*GameInfo, error) {
	if gm.store == nil {
		return nil, ErrNoStore
	}
	env, err := gm.store.Load(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if env.Version != persistence.Version {
		return nil, fmt.Errorf("%w: slot %s has version %q", ErrVersionMismatch, slotID, env.Version)
	}

	seed, err := gm.newSeed(0)
	if err != nil {
		return nil, err
	}
	state := env.State
	state.RecomputeAssets()
	status := models.GameStatusActive
	if state.Phase == models.PhaseGameOver {
		status = models.GameStatusCompleted
	}
	now := gm.now()

	gm.activeGamesMutex.Lock()
	session, exists := gm.activeGames[state.ID]
	if !exists {
		code, err := gm.uniqueRoomCode()
		if err != nil {
			gm.activeGamesMutex.Unlock()
			return nil, err
		}
		owners := make(map[string]string)
		seats := make([]turn.Seat, len(state.Players))
		for i, p := range state.Players {
			seats[i] = turn.Seat{ID: p.ID, Name: p.Name, Kind: p.Kind, Difficulty: p.Difficulty}
			if !p.IsCPU() {
				owners[p.ID] = hostUserID
			}
		}
		session = &GameSession{
			ID:        state.ID,
			Code:      code,
			Name:      "Game " + code,
			HostID:    hostUserID,
			Owners:    owners,
			Setup:     turn.Setup{GameID: state.ID, Seats: seats, InitialMoney: gm.opts.InitialMoney, TotalYears: state.TotalYears},
			CreatedAt: now,
		}
		session.publish()
		gm.activeGames[state.ID] = session
	}
	gm.activeGamesMutex.Unlock()

	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.State = state
	session.Status = status
	session.Seed = seed
	session.LastActivity = now
	session.orchestrator = gm.newOrchestrator(rng.New(seed))

	if gm.wsHub != nil {
		gm.wsHub.BroadcastState(state)
	}

	gm.logger.Infof("Loaded slot %s into game %s (year %d, month %d)", slotID, state.ID, state.Year, state.Month)
	info := session.publish()
	return &info, nil
}

// ListSaves lists the save slots, most recent first
func (gm *GameManager) ListSaves(ctx context.Context) ([]models.SlotMeta, error) {
	if gm.store == nil {
		return nil, ErrNoStore
	}
	return gm.store.ListSlots(ctx)
}

// DeleteSave removes a save slot
func (gm *GameManager) DeleteSave(ctx context.Context, slotID string) error {
	if gm.store == nil {
		return ErrNoStore
	}
	if err := gm.store.DeleteSlot(ctx, slotID); err != nil {
		return err
	}
	gm.logger.Infof("Deleted save slot %s", slotID)
	return nil
}
