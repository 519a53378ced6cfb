package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/models"
)

func TestSimulateIsReproducible(t *testing.T) {
	content, err := catalog.Default()
	require.NoError(t, err)
	p := params{Seed: 42, Players: 3, Years: 1, Difficulty: models.DifficultyHard}

	var first, second bytes.Buffer
	a, err := simulate(context.Background(), content, p, zap.NewNop().Sugar(), &first)
	require.NoError(t, err)
	b, err := simulate(context.Background(), content, p, zap.NewNop().Sugar(), &second)
	require.NoError(t, err)

	require.Len(t, a, 3)
	assert.Equal(t, a, b)
	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, 1, a[0].Rank)
	assert.Contains(t, first.String(), "Seed 42, 3 players, 1 years")
	assert.Contains(t, first.String(), "RANK")
}

func TestSimulateNeedsPlayers(t *testing.T) {
	content, err := catalog.Default()
	require.NoError(t, err)
	_, err = simulate(context.Background(), content, params{Seed: 1}, zap.NewNop().Sugar(), &bytes.Buffer{})
	assert.Error(t, err)
}
