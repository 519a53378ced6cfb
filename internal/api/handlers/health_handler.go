package handlers

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

// Pinger is a backend whose reachability is part of the service health.
// Both circuit-breaker clients implement it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	components  map[string]Pinger
	environment string
	activeGames func() int
	logger      *zap.SugaredLogger
}

// HealthStatus represents the health status of a component
type HealthStatus struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"responseTimeMs"`
	Error        string `json:"error,omitempty"`
}

// SystemHealth represents the health of the entire system
type SystemHealth struct {
	Status      string                  `json:"status"`
	Timestamp   string                  `json:"timestamp"`
	Version     string                  `json:"version"`
	Environment string                  `json:"environment"`
	Components  map[string]HealthStatus `json:"components"`
	Runtime     *RuntimeStats           `json:"runtime,omitempty"`
}

// RuntimeStats is the process section of the detailed check
type RuntimeStats struct {
	Goroutines  int    `json:"goroutines"`
	HeapAlloc   uint64 `json:"heapAllocBytes"`
	NumGC       uint32 `json:"numGC"`
	ActiveGames int    `json:"activeGames"`
}

// NewHealthHandler creates a new health handler. Nil components are skipped,
// so a server running without Redis reports only MongoDB and vice versa.
func NewHealthHandler(components map[string]Pinger, environment string, activeGames func() int, logger *zap.SugaredLogger) *HealthHandler {
	live := make(map[string]Pinger, len(components))
	for name, p := range components {
		if p != nil {
			live[name] = p
		}
	}
	return &HealthHandler{
		components:  live,
		environment: environment,
		activeGames: activeGames,
		logger:      logger,
	}
}

// Check performs a health check of all system components
func (h *HealthHandler) Check(c echo.Context) error {
	health := h.check(3 * time.Second)
	return c.JSON(statusCodeFor(health), health)
}

// DetailedCheck adds process statistics to the component checks
func (h *HealthHandler) DetailedCheck(c echo.Context) error {
	health := h.check(5 * time.Second)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	stats := &RuntimeStats{
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		NumGC:      mem.NumGC,
	}
	if h.activeGames != nil {
		stats.ActiveGames = h.activeGames()
	}
	health.Runtime = stats

	return c.JSON(statusCodeFor(health), health)
}

func statusCodeFor(health SystemHealth) int {
	if health.Status != "healthy" {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// check pings every component in parallel
func (h *HealthHandler) check(timeout time.Duration) SystemHealth {
	health := SystemHealth{
		Status:      "healthy",
		Timestamp:   time.Now().Format(time.RFC3339),
		Version:     Version,
		Environment: h.environment,
		Components:  map[string]HealthStatus{"api": {Status: "healthy"}},
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, p := range h.components {
		wg.Add(1)
		go func(name string, p Pinger) {
			defer wg.Done()
			status := h.ping(name, p, timeout)
			mu.Lock()
			health.Components[name] = status
			if status.Status != "healthy" {
				health.Status = "degraded"
			}
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()

	return health
}

func (h *HealthHandler) ping(name string, p Pinger, timeout time.Duration) HealthStatus {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := p.Ping(ctx)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		h.logger.Errorw("Health check failed", "component", name, "error", err)
		return HealthStatus{
			Status:       "unhealthy",
			ResponseTime: elapsed,
			Error:        err.Error(),
		}
	}

	return HealthStatus{
		Status:       "healthy",
		ResponseTime: elapsed,
	}
}
