package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, BackendMongoDB, cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Autosave)
	assert.Equal(t, 10000, cfg.Game.InitialMoney)
	assert.Equal(t, 10, cfg.Game.TotalYears)
	assert.Equal(t, int64(0), cfg.Game.Seed)
	assert.Equal(t, 4, cfg.Game.ShopOfferSize)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)
	assert.Equal(t, 24, cfg.Game.IdleGameExpiryDuration)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("GAME_TOTAL_YEARS", "3")
	t.Setenv("STORAGE_BACKEND", BackendRedis)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Game.TotalYears)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
}

func TestNewLogger(t *testing.T) {
	logger, err := LogConfig{Level: "warn"}.NewLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = LogConfig{Level: "chatty"}.NewLogger()
	assert.Error(t, err)
}
