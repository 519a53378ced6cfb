// Package persistence defines the save slot store the game manager writes
// game states to. The MongoDB and Redis packages implement it.
package persistence

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/kekopoly/dentetsu/internal/game/models"
)

// Version is written into every envelope. Saves are never migrated.
const Version = "1"

// AutosavePrefix prefixes the slot the worker autosaves a game to
const AutosavePrefix = "auto-"

var (
	// ErrSlotNotFound is returned when a slot holds no save
	ErrSlotNotFound = errors.New("save slot not found")
	// ErrInvalidSlot is returned for slot ids outside [A-Za-z0-9_-]{1,64}
	ErrInvalidSlot = errors.New("invalid save slot id")
)

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Store keeps game states in named slots
type Store interface {
	Save(ctx context.Context, slotID string, state models.GameState) error
	Load(ctx context.Context, slotID string) (*models.SaveEnvelope, error)
	ListSlots(ctx context.Context) ([]models.SlotMeta, error)
	DeleteSlot(ctx context.Context, slotID string) error
}

// ValidateSlot checks a slot id
func ValidateSlot(slotID string) error {
	if !slotPattern.MatchString(slotID) {
		return ErrInvalidSlot
	}
	return nil
}

// NewEnvelope wraps state for slotID at the current version
func NewEnvelope(slotID string, state models.GameState, now time.Time) models.SaveEnvelope {
	return models.SaveEnvelope{
		SlotID:  slotID,
		Version: Version,
		SavedAt: now.UTC(),
		State:   state,
	}
}

// AutosaveSlot names the autosave slot of a game
func AutosaveSlot(gameID string) string {
	return AutosavePrefix + gameID
}
