package manager

import (
	"sort"

	"github.com/kekopoly/dentetsu/internal/game/outcome"
	"github.com/kekopoly/dentetsu/internal/game/roomcode"
)

// ListGames returns a summary of every hosted game, oldest first
func (gm *GameManager) ListGames() []GameInfo {
	gm.activeGamesMutex.RLock()
	sessions := make([]*GameSession, 0, len(gm.activeGames))
	for _, session := range gm.activeGames {
		sessions = append(sessions, session)
	}
	gm.activeGamesMutex.RUnlock()

	games := make([]GameInfo, 0, len(sessions))
	for _, session := range sessions {
		games = append(games, session.published())
	}
	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})
	return games
}

// HasGame reports whether a session is still hosted
func (gm *GameManager) HasGame(gameID string) bool {
	gm.activeGamesMutex.RLock()
	defer gm.activeGamesMutex.RUnlock()
	_, ok := gm.activeGames[gameID]
	return ok
}

// GetGameByRoomCode retrieves a game by its room code, case-insensitively
func (gm *GameManager) GetGameByRoomCode(roomCode string) (*GameInfo, error) {
	code := roomcode.Normalize(roomCode)

	gm.activeGamesMutex.RLock()
	var found *GameSession
	for _, session := range gm.activeGames {
		if session.Code == code {
			found = session
			break
		}
	}
	gm.activeGamesMutex.RUnlock()

	if found == nil {
		return nil, outcome.New(outcome.CodeNotFound, "room code %s", code)
	}
	info := found.published()
	return &info, nil
}
