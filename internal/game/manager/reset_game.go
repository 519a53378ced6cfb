package manager

import (
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/outcome"
	"github.com/kekopoly/dentetsu/internal/game/rng"
	"github.com/kekopoly/dentetsu/internal/game/turn"
)

// ResetGame restarts a game from its original setup and seed. Only the host
// may reset, and the replay draws the same dice as the first run.
func (gm *GameManager) ResetGame(gameID, requestingUserID string) (*GameInfo, error) {
	session, err := gm.session(gameID)
	if err != nil {
		return nil, err
	}

	session.mutex.Lock()
	defer session.mutex.Unlock()

	if session.HostID != requestingUserID {
		return nil, outcome.New(outcome.CodeNotOwner, "only the host can reset game %s", gameID)
	}

	src := rng.New(session.Seed)
	state, err := turn.NewGame(gm.content, session.Setup, src)
	if err != nil {
		return nil, err
	}

	session.State = state
	session.orchestrator = gm.newOrchestrator(src)
	session.Status = models.GameStatusActive
	session.LastActivity = gm.now()

	if gm.wsHub != nil {
		gm.wsHub.BroadcastState(state)
	}

	gm.logger.Infof("Game %s reset by host %s", gameID, requestingUserID)
	info := session.publish()
	return &info, nil
}
