package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthServer(components map[string]Pinger) *echo.Echo {
	h := NewHealthHandler(components, "test", func() int { return 2 }, zap.NewNop().Sugar())
	e := echo.New()
	e.GET("/health", h.Check)
	e.GET("/health/detailed", h.DetailedCheck)
	return e
}

func TestHealthAllUp(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	e := healthServer(map[string]Pinger{"mongodb": up, "redis": up, "unused": nil})

	rec := do(e, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health SystemHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Environment)
	assert.Len(t, health.Components, 3)
	assert.Contains(t, health.Components, "api")
	assert.NotContains(t, health.Components, "unused")
	assert.Nil(t, health.Runtime)
}

func TestHealthDegraded(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	e := healthServer(map[string]Pinger{"mongodb": up, "redis": down})

	rec := do(e, http.MethodGet, "/health/detailed", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var health SystemHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "unhealthy", health.Components["redis"].Status)
	assert.Equal(t, "connection refused", health.Components["redis"].Error)
	assert.Equal(t, "healthy", health.Components["mongodb"].Status)
	require.NotNil(t, health.Runtime)
	assert.Equal(t, 2, health.Runtime.ActiveGames)
	assert.Positive(t, health.Runtime.Goroutines)
}
