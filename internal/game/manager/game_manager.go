package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/economy"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/outcome"
	"github.com/kekopoly/dentetsu/internal/game/persistence"
	"github.com/kekopoly/dentetsu/internal/game/rng"
	"github.com/kekopoly/dentetsu/internal/game/turn"
	"github.com/kekopoly/dentetsu/internal/game/roomcode"
)

// ErrTooManyPlayers is returned when a game is created with more seats than allowed
var ErrTooManyPlayers = errors.New("too many players")

// WebSocketHub defines the interface for broadcasting messages to clients
type WebSocketHub interface {
	BroadcastToGame(gameID string, message []byte)
	BroadcastReport(report *turn.Report, state models.GameState)
	BroadcastState(state models.GameState)
	Driver(gameID, userID string) turn.Driver
}

// MessageQueue defines the interface for the message queue
type MessageQueue interface {
	EnqueueTurnCompleted(ctx context.Context, playerID string, state models.GameState) error
	EnqueueGameOver(ctx context.Context, state models.GameState, standings []economy.Standing) error
}

// Options tune the games the manager hosts
type Options struct {
	InitialMoney  int
	TotalYears    int
	Seed          int64 // 0 picks a random seed per game
	MaxPlayers    int
	ShopOfferSize int
	TurnTimeout   time.Duration
	IdleExpiry    time.Duration
}

// SeatRequest is a seat of a new game and the user playing it. Human seats
// without a user belong to the host.
type SeatRequest struct {
	turn.Seat
	UserID string `json:"userId,omitempty"`
}

// CreateRequest describes a game to host
type CreateRequest struct {
	Name         string        `json:"name" validate:"max=64"`
	Seats        []SeatRequest `json:"seats" validate:"required,min=1,dive"`
	InitialMoney int           `json:"initialMoney" validate:"gte=0"`
	TotalYears   int           `json:"totalYears" validate:"gte=0,lte=100"`
	StartCity    string        `json:"startCity,omitempty"`
	Seed         int64         `json:"seed,omitempty"`
}

// GameSession represents a hosted game
type GameSession struct {
	ID           string
	Code         string
	Name         string
	HostID       string
	Status       models.GameStatus
	Seed         int64
	State        models.GameState
	Owners       map[string]string // playerID -> userID
	Setup        turn.Setup
	CreatedAt    time.Time
	LastActivity time.Time

	orchestrator *turn.Orchestrator
	mutex        sync.Mutex

	// snapshot is what readers see; a turn in progress holds mutex, not snapshotMutex
	snapshot      GameInfo
	snapshotMutex sync.RWMutex
}

// GameInfo is the public summary of a session
type GameInfo struct {
	ID           string            `json:"gameId"`
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	HostID       string            `json:"hostId"`
	Status       models.GameStatus `json:"status"`
	Seed         int64             `json:"seed"`
	Owners       map[string]string `json:"owners"`
	State        models.GameState  `json:"state"`
	CreatedAt    time.Time         `json:"createdAt"`
	LastActivity time.Time         `json:"lastActivity"`
}

// GameManager is responsible for managing game sessions
type GameManager struct {
	ctx              context.Context
	content          *catalog.Content
	store            persistence.Store
	logger           *zap.SugaredLogger
	opts             Options
	activeGames      map[string]*GameSession
	activeGamesMutex sync.RWMutex
	wsHub            WebSocketHub
	messageQueue     MessageQueue
	now              func() time.Time
}

// NewGameManager creates a new game manager instance and starts its cleanup task
func NewGameManager(ctx context.Context, content *catalog.Content, store persistence.Store, logger *zap.SugaredLogger, opts Options) *GameManager {
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = 4
	}
	if opts.IdleExpiry <= 0 {
		opts.IdleExpiry = 24 * time.Hour
	}
	manager := &GameManager{
		ctx:         ctx,
		content:     content,
		store:       store,
		logger:      logger,
		opts:        opts,
		activeGames: make(map[string]*GameSession),
		now:         time.Now,
	}

	go manager.runCleanupTask()

	return manager
}

// SetWebSocketHub sets the WebSocket hub for the game manager
func (gm *GameManager) SetWebSocketHub(hub WebSocketHub) {
	gm.wsHub = hub
	gm.logger.Info("WebSocket hub set for game manager")
}

// SetMessageQueue sets the message queue for the game manager
func (gm *GameManager) SetMessageQueue(queue MessageQueue) {
	gm.messageQueue = queue
	gm.logger.Info("Message queue set for game manager")
}

// runCleanupTask periodically removes idle and finished sessions
func (gm *GameManager) runCleanupTask() {
	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			return
		case <-ticker.C:
			gm.CleanupStaleGames()
		}
	}
}

func (gm *GameManager) newSeed(requested int64) (int64, error) {
	if requested != 0 {
		return requested, nil
	}
	if gm.opts.Seed != 0 {
		return gm.opts.Seed, nil
	}
	return rng.NewSeed()
}

func (gm *GameManager) newOrchestrator(src rng.Source) *turn.Orchestrator {
	return turn.New(gm.content, src, gm.logger, turn.Options{ShopOfferSize: gm.opts.ShopOfferSize})
}

// uniqueRoomCode draws a room code not used by a hosted game. The caller
// holds the write lock.
func (gm *GameManager) uniqueRoomCode() (string, error) {
	return roomcode.Unique(func(code string) bool {
		for _, s := range gm.activeGames {
			if s.Code == code {
				return true
			}
		}
		return false
	})
}

// CreateGame sets up a new game hosted by hostUserID
func (gm *GameManager) CreateGame(hostUserID string, req CreateRequest) (*GameInfo, error) {
	if len(req.Seats) == 0 {
		return nil, turn.ErrNoSeats
	}
	if len(req.Seats) > gm.opts.MaxPlayers {
		return nil, fmt.Errorf("%w: %d seats, at most %d", ErrTooManyPlayers, len(req.Seats), gm.opts.MaxPlayers)
	}

	seed, err := gm.newSeed(req.Seed)
	if err != nil {
		return nil, err
	}

	setup := turn.Setup{
		GameID:       uuid.NewString(),
		Seats:        make([]turn.Seat, len(req.Seats)),
		InitialMoney: req.InitialMoney,
		TotalYears:   req.TotalYears,
		StartCity:    req.StartCity,
	}
	if setup.InitialMoney == 0 {
		setup.InitialMoney = gm.opts.InitialMoney
	}
	if setup.TotalYears == 0 {
		setup.TotalYears = gm.opts.TotalYears
	}
	for i, seat := range req.Seats {
		setup.Seats[i] = seat.Seat
	}

	// One source per game drives setup and every turn after it
	src := rng.New(seed)
	state, err := turn.NewGame(gm.content, setup, src)
	if err != nil {
		return nil, err
	}

	owners := make(map[string]string)
	for i, p := range state.Players {
		if p.IsCPU() {
			continue
		}
		owner := req.Seats[i].UserID
		if owner == "" {
			owner = hostUserID
		}
		owners[p.ID] = owner
	}

	now := gm.now()
	name := req.Name
	session := &GameSession{
		ID:           state.ID,
		HostID:       hostUserID,
		Status:       models.GameStatusActive,
		Seed:         seed,
		State:        state,
		Owners:       owners,
		Setup:        setup,
		CreatedAt:    now,
		LastActivity: now,
		orchestrator: gm.newOrchestrator(src),
	}

	gm.activeGamesMutex.Lock()
	session.Code, err = gm.uniqueRoomCode()
	if err != nil {
		gm.activeGamesMutex.Unlock()
		return nil, err
	}
	if name == "" {
		name = "Game " + session.Code
	}
	session.Name = name
	gm.activeGames[session.ID] = session
	info := session.publish()
	gm.activeGamesMutex.Unlock()

	gm.logger.Infof("Created new game %s with code %s, host %s, %d seats, seed %d",
		session.ID, session.Code, hostUserID, len(state.Players), seed)

	return &info, nil
}

func (gm *GameManager) session(gameID string) (*GameSession, error) {
	gm.activeGamesMutex.RLock()
	session, ok := gm.activeGames[gameID]
	gm.activeGamesMutex.RUnlock()
	if !ok {
		return nil, outcome.New(outcome.CodeNotFound, "game %s", gameID)
	}
	return session, nil
}

func (s *GameSession) info() GameInfo {
	owners := make(map[string]string, len(s.Owners))
	for k, v := range s.Owners {
		owners[k] = v
	}
	return GameInfo{
		ID:           s.ID,
		Code:         s.Code,
		Name:         s.Name,
		HostID:       s.HostID,
		Status:       s.Status,
		Seed:         s.Seed,
		Owners:       owners,
		State:        s.State.Clone(),
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
	}
}

// publish refreshes the snapshot readers see. The caller holds s.mutex.
func (s *GameSession) publish() GameInfo {
	info := s.info()
	s.snapshotMutex.Lock()
	s.snapshot = info
	s.snapshotMutex.Unlock()
	return info
}

// published returns the last snapshot without waiting for a turn in progress
func (s *GameSession) published() GameInfo {
	s.snapshotMutex.RLock()
	defer s.snapshotMutex.RUnlock()
	return s.snapshot
}

// GetGame retrieves a game by ID. A turn in progress is not waited for: the
// state is the one at the end of the previous turn.
func (gm *GameManager) GetGame(gameID string) (*GameInfo, error) {
	session, err := gm.session(gameID)
	if err != nil {
		return nil, err
	}
	info := session.published()
	return &info, nil
}

// PlayTurn plays the turn of the current seat, which must be a human seat
// owned by userID. A nil driver asks the user over the WebSocket hub.
func (gm *GameManager) PlayTurn(ctx context.Context, gameID, userID string, driver turn.Driver) (models.GameState, *turn.Report, error) {
	session, err := gm.session(gameID)
	if err != nil {
		return models.GameState{}, nil, err
	}

	session.mutex.Lock()
	defer session.mutex.Unlock()

	state := session.State
	if state.Phase == models.PhaseGameOver {
		return state, nil, outcome.ErrGameOver
	}
	current := state.CurrentPlayer()
	if current == nil {
		return state, nil, outcome.New(outcome.CodeNotFound, "no current player")
	}
	if current.IsCPU() || session.Owners[current.ID] != userID {
		return state, nil, outcome.New(outcome.CodeNotOwner, "it is %s's turn", current.Name)
	}

	if driver == nil && gm.wsHub != nil {
		driver = gm.wsHub.Driver(gameID, userID)
	}
	return gm.playLocked(ctx, session, driver)
}

// RunCPUTurns plays turns while the current seat is a CPU, stopping at the
// first human seat or at game over
func (gm *GameManager) RunCPUTurns(ctx context.Context, gameID string) ([]*turn.Report, error) {
	session, err := gm.session(gameID)
	if err != nil {
		return nil, err
	}

	session.mutex.Lock()
	defer session.mutex.Unlock()

	var narrator turn.Driver
	if gm.wsHub != nil {
		narrator = gm.wsHub.Driver(gameID, "")
	}

	var reports []*turn.Report
	for {
		state := session.State
		current := state.CurrentPlayer()
		if state.Phase == models.PhaseGameOver || current == nil || !current.IsCPU() {
			return reports, nil
		}
		_, report, err := gm.playLocked(ctx, session, narrator)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
}

// playLocked runs one turn on a session whose mutex is held
func (gm *GameManager) playLocked(ctx context.Context, session *GameSession, driver turn.Driver) (models.GameState, *turn.Report, error) {
	if gm.opts.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gm.opts.TurnTimeout)
		defer cancel()
	}

	next, report, err := session.orchestrator.PlayTurn(ctx, session.State, driver)
	if err != nil {
		return session.State, nil, err
	}

	session.State = next
	session.LastActivity = gm.now()
	if next.Phase == models.PhaseGameOver {
		session.Status = models.GameStatusCompleted
		gm.logger.Infof("Game %s finished after %d turns", session.ID, next.Turn)
	}
	session.publish()

	gm.afterTurn(report, next)
	return next, report, nil
}

// afterTurn broadcasts the report and queues the autosave. Neither can
// undo a played turn, so failures are only logged.
func (gm *GameManager) afterTurn(report *turn.Report, state models.GameState) {
	if gm.wsHub != nil {
		gm.wsHub.BroadcastReport(report, state)
	}
	if gm.messageQueue == nil {
		return
	}

	var err error
	if report.GameOver {
		err = gm.messageQueue.EnqueueGameOver(gm.ctx, state, report.Standings)
	} else {
		err = gm.messageQueue.EnqueueTurnCompleted(gm.ctx, report.PlayerID, state)
	}
	if err != nil {
		gm.logger.Errorf("Failed to enqueue turn %d of game %s: %v", report.Turn, state.ID, err)
	}
}

// CleanupStaleGames removes sessions idle for longer than the idle expiry
// and finished games idle for an hour, and returns their ids
func (gm *GameManager) CleanupStaleGames() []string {
	now := gm.now()
	idleThreshold := now.Add(-gm.opts.IdleExpiry)
	finishedThreshold := now.Add(-time.Hour)

	gm.activeGamesMutex.RLock()
	sessions := make([]*GameSession, 0, len(gm.activeGames))
	for _, session := range gm.activeGames {
		sessions = append(sessions, session)
	}
	gm.activeGamesMutex.RUnlock()

	// a session whose mutex is held is mid-turn and therefore not idle
	var stale []*GameSession
	for _, session := range sessions {
		if !session.mutex.TryLock() {
			continue
		}
		if session.LastActivity.Before(idleThreshold) ||
			(session.Status == models.GameStatusCompleted && session.LastActivity.Before(finishedThreshold)) {
			if session.Status == models.GameStatusActive {
				session.Status = models.GameStatusAbandoned
				session.publish()
			}
			stale = append(stale, session)
		}
		session.mutex.Unlock()
	}

	var removed []string
	if len(stale) > 0 {
		gm.activeGamesMutex.Lock()
		for _, session := range stale {
			if gm.activeGames[session.ID] == session {
				delete(gm.activeGames, session.ID)
				removed = append(removed, session.ID)
			}
		}
		gm.activeGamesMutex.Unlock()
	}

	for _, gameID := range removed {
		gm.logger.Infof("Removed stale game %s", gameID)
		if gm.wsHub == nil {
			continue
		}
		msg, err := json.Marshal(map[string]interface{}{
			"type":    "game_deleted",
			"gameId":  gameID,
			"reason":  "inactive",
			"message": "Game has been removed due to inactivity",
		})
		if err == nil {
			gm.wsHub.BroadcastToGame(gameID, msg)
		}
	}

	if len(removed) > 0 {
		gm.logger.Infof("Cleaned up %d stale games", len(removed))
	}
	return removed
}
