package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/turn"
)

// DefaultDecisionTimeout is how long a human has to answer a decision
// request before the default answer is used
const DefaultDecisionTimeout = 60 * time.Second

// Message priority levels
const (
	PriorityHigh   = "high"   // decision requests, turn reports
	PriorityNormal = "normal" // turn narration, player status changes
	PriorityLow    = "low"    // cosmetic updates
)

// Hub maintains the set of active WebSocket connections and broadcasts messages
type Hub struct {
	// Registered clients by gameID -> userID -> client
	clients      map[string]map[string]*Client
	clientsMutex sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	ctx    context.Context
	logger *zap.SugaredLogger

	// Session history tracking by gameID -> userID -> sessionHistory
	sessionHistory      map[string]map[string][]SessionInfo
	sessionHistoryMutex sync.RWMutex

	// Decision requests waiting for an answer, by request id
	pending         map[string]*pendingDecision
	pendingMutex    sync.Mutex
	decisionTimeout time.Duration
}

// SessionInfo stores information about a player's session
type SessionInfo struct {
	SessionID      string    `json:"sessionId"`
	ConnectedAt    time.Time `json:"connectedAt"`
	DisconnectedAt time.Time `json:"disconnectedAt,omitempty"`
	Status         string    `json:"status"` // "CONNECTED", "DISCONNECTED"
}

// BroadcastMessage represents a message to be broadcast to clients
type BroadcastMessage struct {
	gameID          string
	data            []byte
	priority        string
	excludePlayerID string
}

// NewHub creates a new WebSocket hub. A zero decisionTimeout uses
// DefaultDecisionTimeout.
func NewHub(ctx context.Context, logger *zap.SugaredLogger, decisionTimeout time.Duration) *Hub {
	if decisionTimeout <= 0 {
		decisionTimeout = DefaultDecisionTimeout
	}
	return &Hub{
		clients:         make(map[string]map[string]*Client),
		register:        make(chan *Client, 128),
		unregister:      make(chan *Client, 128),
		broadcast:       make(chan *BroadcastMessage, 1024),
		ctx:             ctx,
		logger:          logger,
		sessionHistory:  make(map[string]map[string][]SessionInfo),
		pending:         make(map[string]*pendingDecision),
		decisionTimeout: decisionTimeout,
	}
}

// Run serves registrations and broadcasts until the hub context ends
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.clientsMutex.Lock()
	gameClients, ok := h.clients[client.gameID]
	if !ok {
		gameClients = make(map[string]*Client)
		h.clients[client.gameID] = gameClients
	}
	// A new session replaces the old connection of the same user
	if old, exists := gameClients[client.playerID]; exists && old != client {
		old.close()
	}
	gameClients[client.playerID] = client
	h.clientsMutex.Unlock()

	h.recordPlayerSession(client.gameID, client.playerID, client.sessionID)
	h.logger.Infof("Client registered for game %s, player %s, session %s", client.gameID, client.playerID, client.sessionID)
}

func (h *Hub) removeClient(client *Client) {
	h.clientsMutex.Lock()
	gameClients, ok := h.clients[client.gameID]
	if !ok || gameClients[client.playerID] != client {
		h.clientsMutex.Unlock()
		return
	}
	delete(gameClients, client.playerID)
	if len(gameClients) == 0 {
		delete(h.clients, client.gameID)
	}
	h.clientsMutex.Unlock()

	client.close()
	h.updateSessionStatus(client.gameID, client.playerID, client.sessionID, "DISCONNECTED")
	h.logger.Infof("Player %s disconnected from game %s with session %s", client.playerID, client.gameID, client.sessionID)

	msg, err := json.Marshal(map[string]interface{}{
		"type":      "player_disconnected",
		"playerId":  client.playerID,
		"gameId":    client.gameID,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	if err == nil {
		h.deliver(&BroadcastMessage{gameID: client.gameID, data: msg, priority: PriorityNormal})
	}
}

func (h *Hub) closeAll() {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()
	for _, gameClients := range h.clients {
		for _, client := range gameClients {
			client.close()
		}
	}
	h.clients = make(map[string]map[string]*Client)
}

func (h *Hub) deliver(msg *BroadcastMessage) {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	for playerID, client := range h.clients[msg.gameID] {
		if playerID == msg.excludePlayerID {
			continue
		}
		if !client.enqueue(msg.data, msg.priority) {
			h.logger.Warnf("Failed to send %s priority message to player %s (buffer full)", msg.priority, playerID)
		}
	}
}

// IsConnected reports whether the user has a live connection to the game
func (h *Hub) IsConnected(gameID, userID string) bool {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	_, ok := h.clients[gameID][userID]
	return ok
}

// ConnectedPlayers lists the users connected to a game
func (h *Hub) ConnectedPlayers(gameID string) []string {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	ids := make([]string, 0, len(h.clients[gameID]))
	for id := range h.clients[gameID] {
		ids = append(ids, id)
	}
	return ids
}

// BroadcastToGame sends a message to all clients in a game
func (h *Hub) BroadcastToGame(gameID string, data []byte) {
	h.BroadcastToGameWithPriority(gameID, data, PriorityNormal)
}

// BroadcastToGameWithPriority sends a message to all clients in a game with specified priority
func (h *Hub) BroadcastToGameWithPriority(gameID string, message []byte, priority string) {
	select {
	case h.broadcast <- &BroadcastMessage{gameID: gameID, data: message, priority: priority}:
	case <-h.ctx.Done():
	}
}

// BroadcastToGameExcept sends a message to all clients in a game except one
func (h *Hub) BroadcastToGameExcept(gameID string, message []byte, excludePlayerID string) {
	select {
	case h.broadcast <- &BroadcastMessage{gameID: gameID, data: message, priority: PriorityNormal, excludePlayerID: excludePlayerID}:
	case <-h.ctx.Done():
	}
}

// SendToPlayerWithPriority sends a message to a specific player in a game with priority
func (h *Hub) SendToPlayerWithPriority(gameID, playerID string, message []byte, priority string) bool {
	h.clientsMutex.RLock()
	client, ok := h.clients[gameID][playerID]
	h.clientsMutex.RUnlock()
	if !ok {
		return false
	}
	if !client.enqueue(message, priority) {
		h.logger.Warnf("All queues full, message dropped: Game ID: %s, Priority: %s", gameID, priority)
		return false
	}
	return true
}

// SendToPlayer sends a message to a specific player with normal priority
func (h *Hub) SendToPlayer(gameID, playerID string, message []byte) bool {
	return h.SendToPlayerWithPriority(gameID, playerID, message, PriorityNormal)
}

// BroadcastReport sends the report of a finished turn and the state it left
// to every client of the game
func (h *Hub) BroadcastReport(report *turn.Report, state models.GameState) {
	if report == nil {
		return
	}
	msgType := "turn_report"
	if report.GameOver {
		msgType = "game_over"
	}
	data, err := json.Marshal(map[string]interface{}{
		"type":      msgType,
		"gameId":    report.GameID,
		"report":    report,
		"state":     state,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Errorf("Failed to marshal turn report for game %s: %v", report.GameID, err)
		return
	}
	h.BroadcastToGameWithPriority(report.GameID, data, PriorityHigh)
}

// BroadcastState sends a full state sync to every client of the game
func (h *Hub) BroadcastState(state models.GameState) {
	data, err := json.Marshal(map[string]interface{}{
		"type":      "complete_state_sync",
		"gameId":    state.ID,
		"state":     state,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Errorf("Failed to marshal complete state: %v", err)
		return
	}
	h.BroadcastToGameWithPriority(state.ID, data, PriorityHigh)
}

// HandleWebSocketConnection registers the connection and starts its pumps
func (h *Hub) HandleWebSocketConnection(conn *websocket.Conn, gameID, playerID, sessionID string) {
	isReconnection := false
	if previous := h.getLatestSession(gameID, playerID); previous != nil && previous.SessionID != sessionID {
		isReconnection = true
		h.logger.Infof("Player %s reconnecting to game %s with new session %s (previous: %s)",
			playerID, gameID, sessionID, previous.SessionID)
	}

	client := newClient(h, conn, gameID, playerID, sessionID)

	select {
	case h.register <- client:
	case <-h.ctx.Done():
		_ = conn.Close()
		return
	}

	if isReconnection {
		msg, err := json.Marshal(map[string]interface{}{
			"type":      "player_reconnected",
			"playerId":  playerID,
			"gameId":    gameID,
			"timestamp": time.Now().Format(time.RFC3339),
		})
		if err == nil {
			h.BroadcastToGameExcept(gameID, msg, playerID)
		}
	}

	go client.readPump()
	go client.writePump()
}

func (h *Hub) recordPlayerSession(gameID, playerID, sessionID string) {
	h.sessionHistoryMutex.Lock()
	defer h.sessionHistoryMutex.Unlock()

	if _, ok := h.sessionHistory[gameID]; !ok {
		h.sessionHistory[gameID] = make(map[string][]SessionInfo)
	}
	h.sessionHistory[gameID][playerID] = append(h.sessionHistory[gameID][playerID], SessionInfo{
		SessionID:   sessionID,
		ConnectedAt: time.Now(),
		Status:      "CONNECTED",
	})
}

func (h *Hub) updateSessionStatus(gameID, playerID, sessionID, status string) {
	h.sessionHistoryMutex.Lock()
	defer h.sessionHistoryMutex.Unlock()

	sessions := h.sessionHistory[gameID][playerID]
	for i := len(sessions) - 1; i >= 0; i-- {
		if sessions[i].SessionID == sessionID {
			sessions[i].Status = status
			if status == "DISCONNECTED" {
				sessions[i].DisconnectedAt = time.Now()
			}
			return
		}
	}
}

func (h *Hub) getLatestSession(gameID, playerID string) *SessionInfo {
	h.sessionHistoryMutex.RLock()
	defer h.sessionHistoryMutex.RUnlock()

	sessions := h.sessionHistory[gameID][playerID]
	if len(sessions) == 0 {
		return nil
	}
	latest := sessions[len(sessions)-1]
	return &latest
}

// ForgetGame drops the session history of a finished or removed game
func (h *Hub) ForgetGame(gameID string) {
	h.sessionHistoryMutex.Lock()
	delete(h.sessionHistory, gameID)
	h.sessionHistoryMutex.Unlock()
}
