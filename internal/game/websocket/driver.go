package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/turn"
)

// Decision kinds sent in decision_request frames
const (
	DecisionCard     = "card"
	DecisionRoute    = "route"
	DecisionPurchase = "purchase"
	DecisionUpgrade  = "upgrade"
	DecisionShop     = "shop"
	DecisionDebt     = "debt"
)

type pendingDecision struct {
	gameID string
	userID string
	answer chan json.RawMessage
}

// DecisionRequest is the frame asking a player for a decision
type DecisionRequest struct {
	Type       string           `json:"type"`
	RequestID  string           `json:"requestId"`
	Decision   string           `json:"decision"`
	GameID     string           `json:"gameId"`
	PlayerID   string           `json:"playerId"`
	Options    []string         `json:"options,omitempty"`
	Offer      []models.Card    `json:"offer,omitempty"`
	PropertyID string           `json:"propertyId,omitempty"`
	Owed       int              `json:"owed,omitempty"`
	Hand       []string         `json:"hand,omitempty"`
	Timeout    int              `json:"timeoutSeconds"`
	State      models.GameState `json:"state"`
}

// ask sends a decision request to the user and waits for the raw answer.
// It returns nil when the user is not connected or lets the request time
// out, in which case the caller uses its default.
func (h *Hub) ask(ctx context.Context, gameID, userID string, req DecisionRequest) (json.RawMessage, error) {
	if !h.IsConnected(gameID, userID) {
		return nil, nil
	}

	req.Type = "decision_request"
	req.RequestID = uuid.NewString()
	req.GameID = gameID
	req.Timeout = int(h.decisionTimeout / time.Second)

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	p := &pendingDecision{gameID: gameID, userID: userID, answer: make(chan json.RawMessage, 1)}
	h.pendingMutex.Lock()
	h.pending[req.RequestID] = p
	h.pendingMutex.Unlock()
	defer func() {
		h.pendingMutex.Lock()
		delete(h.pending, req.RequestID)
		h.pendingMutex.Unlock()
	}()

	if !h.SendToPlayerWithPriority(gameID, userID, data, PriorityHigh) {
		return nil, nil
	}

	timer := time.NewTimer(h.decisionTimeout)
	defer timer.Stop()

	select {
	case answer := <-p.answer:
		return answer, nil
	case <-timer.C:
		h.logger.Infof("Decision %s for player %s in game %s timed out, using default", req.Decision, req.PlayerID, gameID)
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolveDecision hands an answer to the waiting request. Answers from
// another game or user are refused.
func (h *Hub) resolveDecision(gameID, userID, requestID string, answer json.RawMessage) bool {
	h.pendingMutex.Lock()
	p, ok := h.pending[requestID]
	if ok && (p.gameID != gameID || p.userID != userID) {
		ok = false
	}
	if ok {
		delete(h.pending, requestID)
	}
	h.pendingMutex.Unlock()

	if !ok {
		return false
	}
	p.answer <- answer
	return true
}

// Driver returns a turn.Driver that asks userID over its WebSocket
// connection to gameID. Unanswered decisions fall back to: no card, the
// first route, no purchase, no upgrade, no shopping, no sale.
func (h *Hub) Driver(gameID, userID string) turn.Driver {
	return &wsDriver{hub: h, gameID: gameID, userID: userID}
}

type wsDriver struct {
	hub    *Hub
	gameID string
	userID string
}

var _ turn.Driver = (*wsDriver)(nil)

func (d *wsDriver) decode(ctx context.Context, req DecisionRequest, out interface{}) (bool, error) {
	raw, err := d.hub.ask(ctx, d.gameID, d.userID, req)
	if err != nil || len(raw) == 0 || string(raw) == "null" {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		d.hub.logger.Warnf("Malformed %s answer from player %s: %v", req.Decision, req.PlayerID, err)
		return false, nil
	}
	return true, nil
}

func (d *wsDriver) ChooseCard(ctx context.Context, state models.GameState, playerID string) (turn.CardChoice, bool, error) {
	hand := []string{}
	if p := state.Player(playerID); p != nil {
		hand = p.Hand
	}
	var choice turn.CardChoice
	ok, err := d.decode(ctx, DecisionRequest{Decision: DecisionCard, PlayerID: playerID, Hand: hand, State: state}, &choice)
	if err != nil || !ok || choice.CardID == "" {
		return turn.CardChoice{}, false, err
	}
	return choice, true, nil
}

func (d *wsDriver) ChooseRoute(ctx context.Context, state models.GameState, playerID string, options []string) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	var city string
	ok, err := d.decode(ctx, DecisionRequest{Decision: DecisionRoute, PlayerID: playerID, Options: options, State: state}, &city)
	if err != nil {
		return "", err
	}
	if ok {
		for _, opt := range options {
			if opt == city {
				return city, nil
			}
		}
	}
	return options[0], nil
}

func (d *wsDriver) ConfirmPurchase(ctx context.Context, state models.GameState, playerID, propertyID string) (bool, error) {
	var yes bool
	_, err := d.decode(ctx, DecisionRequest{Decision: DecisionPurchase, PlayerID: playerID, PropertyID: propertyID, State: state}, &yes)
	return yes, err
}

func (d *wsDriver) ConfirmUpgrade(ctx context.Context, state models.GameState, playerID, propertyID string) (bool, error) {
	var yes bool
	_, err := d.decode(ctx, DecisionRequest{Decision: DecisionUpgrade, PlayerID: playerID, PropertyID: propertyID, State: state}, &yes)
	return yes, err
}

func (d *wsDriver) ChooseShopCards(ctx context.Context, state models.GameState, playerID string, offer []models.Card) ([]string, error) {
	var picks []string
	_, err := d.decode(ctx, DecisionRequest{Decision: DecisionShop, PlayerID: playerID, Offer: offer, State: state}, &picks)
	return picks, err
}

func (d *wsDriver) ResolveDebt(ctx context.Context, state models.GameState, playerID string, owed int) ([]string, error) {
	var sell []string
	_, err := d.decode(ctx, DecisionRequest{Decision: DecisionDebt, PlayerID: playerID, Owed: owed, State: state}, &sell)
	return sell, err
}

// Notify narrates a turn event to every client of the game
func (d *wsDriver) Notify(_ context.Context, ev turn.Event) {
	data, err := json.Marshal(map[string]interface{}{
		"type":   "turn_event",
		"gameId": d.gameID,
		"event":  ev,
	})
	if err != nil {
		d.hub.logger.Errorf("Failed to marshal turn event %s: %v", ev.Type, err)
		return
	}
	d.hub.BroadcastToGame(d.gameID, data)
}
