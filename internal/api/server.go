package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/api/handlers"
	"github.com/kekopoly/dentetsu/internal/api/middleware/auth"
	"github.com/kekopoly/dentetsu/internal/config"
	"github.com/kekopoly/dentetsu/internal/game/manager"
	"github.com/kekopoly/dentetsu/internal/game/websocket"
)

// CustomValidator is the request validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates the validator used for request bodies
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate validates the request
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// RequestMetrics tracks metrics for API requests
type RequestMetrics struct {
	RequestCount map[string]int     `json:"requestCount"`
	DurationSum  map[string]float64 `json:"durationSum"`
	GameActions  map[string]int     `json:"gameActions"`
	mutex        sync.RWMutex
}

// Dependencies are the collaborators the routes are wired to. Users,
// Results and the health components may be nil when the backing service
// is not configured.
type Dependencies struct {
	GameManager *manager.GameManager
	Hub         *websocket.Hub
	Users       handlers.UserStore
	Results     handlers.ResultReader
	Health      map[string]handlers.Pinger
}

// Server represents the API server
type Server struct {
	echo    *echo.Echo
	cfg     *config.Config
	deps    Dependencies
	logger  *zap.SugaredLogger
	metrics *RequestMetrics
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, deps Dependencies, logger *zap.SugaredLogger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.Server.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second

	server := &Server{
		echo:   e,
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		metrics: &RequestMetrics{
			RequestCount: make(map[string]int),
			DurationSum:  make(map[string]float64),
			GameActions:  make(map[string]int),
		},
	}

	server.configureMiddleware()
	server.configureRoutes()
	return server
}

// Echo exposes the router, mainly for tests
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// configureMiddleware sets up Echo middleware
func (s *Server) configureMiddleware() {
	s.echo.Use(middleware.Logger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(s.metricsMiddleware)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			c.Set("requestID", requestID)
			c.Set("logger", s.logger.With(
				"requestID", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"clientIP", c.RealIP(),
			))
			return next(c)
		}
	})
}

// metricsMiddleware records metrics for each request, keyed by route
// pattern so game ids do not grow the maps
func (s *Server) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		duration := time.Since(start).Seconds()

		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		route := c.Path()
		key := c.Request().Method + ":" + route + ":" + strconv.Itoa(status)

		s.metrics.mutex.Lock()
		s.metrics.RequestCount[key]++
		s.metrics.DurationSum[key] += duration
		if action, ok := gameAction(route); ok && status < http.StatusBadRequest {
			s.metrics.GameActions[action]++
		}
		s.metrics.mutex.Unlock()

		return err
	}
}

// gameAction names the per-game routes that change a game
func gameAction(route string) (string, bool) {
	const prefix = "/api/v1/games/:gameId/"
	if !strings.HasPrefix(route, prefix) {
		return "", false
	}
	switch action := strings.TrimPrefix(route, prefix); action {
	case "turn", "cpu", "reset", "save":
		return action, true
	}
	return "", false
}

// configureRoutes sets up API routes
func (s *Server) configureRoutes() {
	tokens := handlers.TokenConfig{Secret: s.cfg.JWT.Secret, Expiration: s.cfg.JWT.Expiration}
	environment := "production"
	if s.cfg.Log.Development {
		environment = "development"
	}

	gameHandler := handlers.NewGameHandler(s.deps.GameManager, s.deps.Results, s.logger)
	authHandler := handlers.NewAuthHandler(tokens, s.deps.Users, s.logger)
	userHandler := handlers.NewUserHandler(s.deps.Users, s.logger)
	wsHandler := handlers.NewWebSocketHandler(s.deps.Hub, s.deps.GameManager.HasGame, s.cfg.JWT.Secret, s.logger)
	healthHandler := handlers.NewHealthHandler(s.deps.Health, environment, func() int {
		return len(s.deps.GameManager.ListGames())
	}, s.logger)

	jwtMiddleware := auth.JWTMiddleware(s.cfg.JWT.Secret)
	apiV1 := s.echo.Group("/api/v1")

	authGroup := apiV1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/refresh-token", authHandler.RefreshToken, jwtMiddleware)
	authGroup.POST("/logout", authHandler.Logout)

	userGroup := apiV1.Group("/user", jwtMiddleware)
	userGroup.GET("/profile", userHandler.GetProfile)

	gameGroup := apiV1.Group("/games", jwtMiddleware)
	gameGroup.POST("", gameHandler.CreateGame)
	gameGroup.GET("", gameHandler.ListGames)
	gameGroup.POST("/cleanup", gameHandler.CleanupStaleGames)
	gameGroup.GET("/code/:code", gameHandler.GetGameByCode)
	gameGroup.GET("/:gameId", gameHandler.GetGame)
	gameGroup.POST("/:gameId/turn", gameHandler.PlayTurn)
	gameGroup.POST("/:gameId/cpu", gameHandler.RunCPUTurns)
	gameGroup.POST("/:gameId/reset", gameHandler.ResetGame)
	gameGroup.POST("/:gameId/save", gameHandler.SaveGame)
	gameGroup.GET("/:gameId/result", gameHandler.GetResult)

	saveGroup := apiV1.Group("/saves", jwtMiddleware)
	saveGroup.GET("", gameHandler.ListSaves)
	saveGroup.POST("/:slot/load", gameHandler.LoadSave)
	saveGroup.DELETE("/:slot", gameHandler.DeleteSave)

	// browsers cannot set headers on the upgrade, so the handler reads ?token=
	s.echo.GET("/ws/:gameId", wsHandler.HandleConnection)

	s.echo.GET("/health", healthHandler.Check)
	s.echo.GET("/health/detailed", healthHandler.DetailedCheck)

	s.echo.GET("/metrics", func(c echo.Context) error {
		s.metrics.mutex.RLock()
		defer s.metrics.mutex.RUnlock()
		return c.JSON(http.StatusOK, s.metrics)
	})
}

// Start starts the API server
func (s *Server) Start() error {
	address := s.cfg.Server.Host + ":" + strconv.Itoa(s.cfg.Server.Port)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
