package persistence

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kekopoly/dentetsu/internal/game/models"
)

func TestValidateSlot(t *testing.T) {
	for _, ok := range []string{"a", "slot_1", "auto-3f2c", strings.Repeat("x", 64)} {
		assert.NoError(t, ValidateSlot(ok), ok)
	}
	for _, bad := range []string{"", "has space", "../etc", "dot.slot", strings.Repeat("x", 65)} {
		assert.ErrorIs(t, ValidateSlot(bad), ErrInvalidSlot, bad)
	}
}

func TestAutosaveSlotIsValid(t *testing.T) {
	slot := AutosaveSlot("3f2c9a1e-0d4b-4f7e-9c1a-2b3c4d5e6f70")
	assert.True(t, strings.HasPrefix(slot, AutosavePrefix))
	require.NoError(t, ValidateSlot(slot))
}

func TestNewEnvelope(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("JST", 9*3600))
	env := NewEnvelope("manual", models.GameState{ID: "g1"}, now)

	assert.Equal(t, "manual", env.SlotID)
	assert.Equal(t, Version, env.Version)
	assert.Equal(t, time.UTC, env.SavedAt.Location())
	assert.True(t, env.SavedAt.Equal(now))
	assert.Equal(t, "g1", env.State.ID)
}
