package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/api/middleware/auth"
	"github.com/kekopoly/dentetsu/internal/game/economy"
	"github.com/kekopoly/dentetsu/internal/game/manager"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/persistence"
	"github.com/kekopoly/dentetsu/internal/game/turn"
	"github.com/kekopoly/dentetsu/internal/queue"
)

// GameService is the part of the game manager the HTTP layer drives
type GameService interface {
	CreateGame(hostUserID string, req manager.CreateRequest) (*manager.GameInfo, error)
	GetGame(gameID string) (*manager.GameInfo, error)
	GetGameByRoomCode(code string) (*manager.GameInfo, error)
	ListGames() []manager.GameInfo
	PlayTurn(ctx context.Context, gameID, userID string, driver turn.Driver) (models.GameState, *turn.Report, error)
	RunCPUTurns(ctx context.Context, gameID string) ([]*turn.Report, error)
	ResetGame(gameID, userID string) (*manager.GameInfo, error)
	SaveGame(ctx context.Context, gameID, slotID string) error
	LoadGame(ctx context.Context, slotID, hostUserID string) (*manager.GameInfo, error)
	ListSaves(ctx context.Context) ([]models.SlotMeta, error)
	DeleteSave(ctx context.Context, slotID string) error
	CleanupStaleGames() []string
}

// ResultReader reads the final standings recorded by the queue worker
type ResultReader interface {
	Result(ctx context.Context, gameID string) ([]economy.Standing, error)
}

// GameHandler handles game-related requests
type GameHandler struct {
	games   GameService
	results ResultReader
	logger  *zap.SugaredLogger
}

// NewGameHandler creates a new GameHandler. results may be nil when no
// queue is running.
func NewGameHandler(games GameService, results ResultReader, logger *zap.SugaredLogger) *GameHandler {
	return &GameHandler{
		games:   games,
		results: results,
		logger:  logger,
	}
}

// TurnRequest optionally scripts every decision of the turn. Without a plan
// the decisions are asked over the player's WebSocket.
type TurnRequest struct {
	Plan *turn.Plan `json:"plan,omitempty"`
}

// TurnResponse is the state after a turn and what happened during it
type TurnResponse struct {
	State  models.GameState `json:"state"`
	Report *turn.Report     `json:"report"`
}

// CPUResponse lists the reports of the CPU turns that were played
type CPUResponse struct {
	State   models.GameState `json:"state"`
	Reports []*turn.Report   `json:"reports"`
}

// SaveRequest names the slot to write; empty uses the game's autosave slot
type SaveRequest struct {
	SlotID string `json:"slotId,omitempty"`
}

// CreateGame hosts a new game owned by the authenticated user
func (h *GameHandler) CreateGame(c echo.Context) error {
	var req manager.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	info, err := h.games.CreateGame(auth.UserID(c), req)
	if err != nil {
		return gameError(h.logger, "create game", err)
	}
	return c.JSON(http.StatusCreated, info)
}

// ListGames lists the hosted games
func (h *GameHandler) ListGames(c echo.Context) error {
	return c.JSON(http.StatusOK, h.games.ListGames())
}

// GetGame returns one hosted game
func (h *GameHandler) GetGame(c echo.Context) error {
	info, err := h.games.GetGame(c.Param("gameId"))
	if err != nil {
		return gameError(h.logger, "get game", err)
	}
	return c.JSON(http.StatusOK, info)
}

// GetGameByCode resolves a room code
func (h *GameHandler) GetGameByCode(c echo.Context) error {
	info, err := h.games.GetGameByRoomCode(c.Param("code"))
	if err != nil {
		return gameError(h.logger, "find game", err)
	}
	return c.JSON(http.StatusOK, info)
}

// PlayTurn plays the authenticated user's turn
func (h *GameHandler) PlayTurn(c echo.Context) error {
	var req TurnRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
		}
	}

	var driver turn.Driver
	if req.Plan != nil {
		driver = turn.NewPlanDriver(*req.Plan)
	}

	state, report, err := h.games.PlayTurn(c.Request().Context(), c.Param("gameId"), auth.UserID(c), driver)
	if err != nil {
		return gameError(h.logger, "play turn", err)
	}
	return c.JSON(http.StatusOK, TurnResponse{State: state, Report: report})
}

// RunCPUTurns plays the CPU seats up to the next human seat
func (h *GameHandler) RunCPUTurns(c echo.Context) error {
	gameID := c.Param("gameId")
	reports, err := h.games.RunCPUTurns(c.Request().Context(), gameID)
	if err != nil {
		return gameError(h.logger, "run CPU turns", err)
	}
	info, err := h.games.GetGame(gameID)
	if err != nil {
		return gameError(h.logger, "get game", err)
	}
	if reports == nil {
		reports = []*turn.Report{}
	}
	return c.JSON(http.StatusOK, CPUResponse{State: info.State, Reports: reports})
}

// ResetGame restarts a game from its original setup
func (h *GameHandler) ResetGame(c echo.Context) error {
	info, err := h.games.ResetGame(c.Param("gameId"), auth.UserID(c))
	if err != nil {
		return gameError(h.logger, "reset game", err)
	}
	return c.JSON(http.StatusOK, info)
}

// GetResult returns the final standings of a finished game
func (h *GameHandler) GetResult(c echo.Context) error {
	if h.results == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Results are not available")
	}
	standings, err := h.results.Result(c.Request().Context(), c.Param("gameId"))
	if errors.Is(err, queue.ErrResultNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "No result recorded for this game")
	}
	if err != nil {
		h.logger.Errorf("Failed to read result: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read result")
	}
	return c.JSON(http.StatusOK, standings)
}

// SaveGame writes the game into a save slot
func (h *GameHandler) SaveGame(c echo.Context) error {
	gameID := c.Param("gameId")
	var req SaveRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
		}
	}
	if req.SlotID == "" {
		req.SlotID = persistence.AutosaveSlot(gameID)
	}

	if err := h.games.SaveGame(c.Request().Context(), gameID, req.SlotID); err != nil {
		return gameError(h.logger, "save game", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"slotId": req.SlotID})
}

// ListSaves lists the save slots
func (h *GameHandler) ListSaves(c echo.Context) error {
	metas, err := h.games.ListSaves(c.Request().Context())
	if err != nil {
		return gameError(h.logger, "list saves", err)
	}
	return c.JSON(http.StatusOK, metas)
}

// LoadSave hosts the game stored in a slot
func (h *GameHandler) LoadSave(c echo.Context) error {
	info, err := h.games.LoadGame(c.Request().Context(), c.Param("slot"), auth.UserID(c))
	if err != nil {
		return gameError(h.logger, "load save", err)
	}
	return c.JSON(http.StatusOK, info)
}

// DeleteSave removes a save slot
func (h *GameHandler) DeleteSave(c echo.Context) error {
	if err := h.games.DeleteSave(c.Request().Context(), c.Param("slot")); err != nil {
		return gameError(h.logger, "delete save", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CleanupStaleGames removes idle games on demand
func (h *GameHandler) CleanupStaleGames(c echo.Context) error {
	removed := h.games.CleanupStaleGames()
	if removed == nil {
		removed = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"removed": removed,
		"count":   len(removed),
	})
}
