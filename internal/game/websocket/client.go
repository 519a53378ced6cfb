package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

// Client represents a WebSocket client connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Priority queues for outbound messages
	highPriorityQueue   chan []byte
	normalPriorityQueue chan []byte
	lowPriorityQueue    chan []byte

	playerID  string
	gameID    string
	sessionID string

	lastPongTime time.Time
	pongMutex    sync.RWMutex

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, gameID, playerID, sessionID string) *Client {
	return &Client{
		hub:                 h,
		conn:                conn,
		highPriorityQueue:   make(chan []byte, 256),
		normalPriorityQueue: make(chan []byte, 256),
		lowPriorityQueue:    make(chan []byte, 64),
		playerID:            playerID,
		gameID:              gameID,
		sessionID:           sessionID,
		lastPongTime:        time.Now(),
		done:                make(chan struct{}),
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// isActive checks if the client has been active within the given duration
func (c *Client) isActive(duration time.Duration) bool {
	c.pongMutex.RLock()
	defer c.pongMutex.RUnlock()
	return time.Since(c.lastPongTime) <= duration
}

// enqueue places message on the queue of its priority. Normal messages
// fall back to the high queue and low ones to normal then high. A full high
// queue drops its oldest message.
func (c *Client) enqueue(message []byte, priority string) bool {
	var queues []chan []byte
	switch priority {
	case PriorityHigh:
		queues = []chan []byte{c.highPriorityQueue}
	case PriorityLow:
		queues = []chan []byte{c.lowPriorityQueue, c.normalPriorityQueue, c.highPriorityQueue}
	default:
		queues = []chan []byte{c.normalPriorityQueue, c.highPriorityQueue}
	}

	for _, q := range queues {
		select {
		case q <- message:
			return true
		default:
		}
	}

	if priority == PriorityHigh {
		select {
		case <-c.highPriorityQueue:
		default:
		}
		select {
		case c.highPriorityQueue <- message:
			return true
		default:
		}
	}
	return false
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.pongMutex.Lock()
		c.lastPongTime = time.Now()
		c.pongMutex.Unlock()
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warnf("WebSocket read error for Game: %s, Player: %s, Session: %s - Error: %v",
					c.gameID, c.playerID, c.sessionID, err)
			}
			return
		}
		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	send := func(message []byte) bool {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.hub.logger.Errorf("Error writing message to WebSocket for Game: %s, Player: %s, Session: %s - Error: %v",
				c.gameID, c.playerID, c.sessionID, err)
			return false
		}
		return true
	}

	for {
		// High priority messages always go out first
		select {
		case message := <-c.highPriorityQueue:
			if !send(message) {
				return
			}
			continue
		default:
		}

		select {
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.highPriorityQueue:
			if !send(message) {
				return
			}
		case message := <-c.normalPriorityQueue:
			if !send(message) {
				return
			}
		case message := <-c.lowPriorityQueue:
			if !send(message) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.logger.Warnf("Error sending ping to WebSocket for Game: %s, Player: %s, Session: %s - Error: %v",
					c.gameID, c.playerID, c.sessionID, err)
				return
			}
		}
	}
}

// inbound is a frame sent by a browser
type inbound struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
}

// handleMessage processes incoming WebSocket messages
func (c *Client) handleMessage(message []byte) {
	var msg inbound
	if err := json.Unmarshal(message, &msg); err != nil || msg.Type == "" {
		c.sendError("invalid message format")
		return
	}

	switch msg.Type {
	case "decision_response":
		if !c.hub.resolveDecision(c.gameID, c.playerID, msg.RequestID, msg.Answer) {
			c.sendError("unknown or expired decision request")
		}
	case "get_active_players":
		c.handleGetActivePlayers()
	case "ping":
		c.send(map[string]interface{}{"type": "pong", "timestamp": time.Now().Format(time.RFC3339)})
	default:
		c.sendError("unknown message type: " + msg.Type)
	}
}

// handleGetActivePlayers sends the connection status of everyone in the game
func (c *Client) handleGetActivePlayers() {
	c.hub.clientsMutex.RLock()
	players := make([]map[string]interface{}, 0, len(c.hub.clients[c.gameID]))
	for playerID, client := range c.hub.clients[c.gameID] {
		players = append(players, map[string]interface{}{
			"id":          playerID,
			"isConnected": true,
			"isActive":    client.isActive(90 * time.Second),
		})
	}
	c.hub.clientsMutex.RUnlock()

	c.send(map[string]interface{}{
		"type":          "active_players",
		"activePlayers": players,
		"gameId":        c.gameID,
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

func (c *Client) send(payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.hub.logger.Errorf("Failed to marshal %v message: %v", payload["type"], err)
		return
	}
	c.enqueue(data, PriorityHigh)
}

func (c *Client) sendError(message string) {
	c.send(map[string]interface{}{"type": "error", "message": message})
}
