package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/api/middleware/auth"
)

// ConnectionHub takes ownership of upgraded connections
type ConnectionHub interface {
	HandleWebSocketConnection(conn *websocket.Conn, gameID, userID, sessionID string)
}

// GameExists reports whether a game is hosted
type GameExists func(gameID string) bool

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub       ConnectionHub
	hasGame   GameExists
	jwtSecret string
	logger    *zap.SugaredLogger
	upgrader  websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub ConnectionHub, hasGame GameExists, jwtSecret string, logger *zap.SugaredLogger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		hasGame:   hasGame,
		jwtSecret: jwtSecret,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection authenticates the user from the token query parameter,
// upgrades the connection and hands it to the hub
func (h *WebSocketHandler) HandleConnection(c echo.Context) error {
	gameID := c.Param("gameId")
	if gameID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing game ID")
	}

	userID := auth.UserID(c)
	if userID == "" {
		claims, err := auth.ParseToken(auth.TokenFromRequest(c), h.jwtSecret)
		if err != nil {
			h.logger.Warnf("WebSocket connection rejected: %v", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Invalid token")
		}
		userID = claims.UserID
	}

	if h.hasGame != nil && !h.hasGame(gameID) {
		return echo.NewHTTPError(http.StatusNotFound, "Game not found")
	}

	// reconnecting clients resend their session id
	sessionID := c.QueryParam("sessionId")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Errorf("Failed to upgrade connection: %v", err)
		return nil
	}

	h.logger.Infof("WebSocket connected - game %s, user %s, session %s", gameID, userID, sessionID)
	h.hub.HandleWebSocketConnection(conn, gameID, userID, sessionID)
	return nil
}
