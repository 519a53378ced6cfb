// Package destination pays the arrival bonus and rotates the destination city.
package destination

import (
	"math"

	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/outcome"
	"github.com/kekopoly/dentetsu/internal/game/rng"
)

const (
	minimumBonus = 1000
	bonusRate    = 0.1
)

// Arrival reports a destination arrival
type Arrival struct {
	PlayerID       string `json:"playerId"`
	CityID         string `json:"cityId"`
	Bonus          int    `json:"bonus"`
	NewDestination string `json:"newDestination"`
}

// Bonus is the reward for reaching the destination: a tenth of the other
// players' average total assets times the player count, never below 1000.
func Bonus(state models.GameState, playerID string) int {
	others, sum := 0, 0
	for _, p := range state.Players {
		if p.ID == playerID {
			continue
		}
		others++
		sum += p.TotalAssets
	}
	if others == 0 {
		return minimumBonus
	}
	avg := float64(sum) / float64(others)
	bonus := int(math.Floor(avg * float64(len(state.Players)) * bonusRate))
	if bonus < minimumBonus {
		return minimumBonus
	}
	return bonus
}

// Pick chooses a destination uniformly among cityIDs other than exclude.
func Pick(cityIDs []string, exclude string, src rng.Source) string {
	candidates := make([]string, 0, len(cityIDs))
	for _, id := range cityIDs {
		if id != exclude {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return exclude
	}
	return candidates[src.Intn(len(candidates))]
}

// Arrive pays the arrival bonus and draws the next destination.
func Arrive(state models.GameState, playerID string, cityIDs []string, src rng.Source) (models.GameState, Arrival, error) {
	if state.Player(playerID) == nil {
		return state, Arrival{}, outcome.New(outcome.CodeNotFound, "player %s", playerID)
	}
	next := state.Clone()
	p := next.Player(playerID)
	bonus := Bonus(state, playerID)
	p.Money += bonus
	reached := next.DestinationCityID
	next.DestinationCityID = Pick(cityIDs, reached, src)
	next.RecomputeAssets()
	return next, Arrival{PlayerID: playerID, CityID: reached, Bonus: bonus, NewDestination: next.DestinationCityID}, nil
}
