package turn

import (
	"errors"
	"fmt"

	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/destination"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/rng"
)

// Defaults for a new game
const (
	DefaultInitialMoney = 10000
	DefaultTotalYears   = 10
)

// ErrNoSeats is returned when a game is set up without players
var ErrNoSeats = errors.New("a game needs at least one seat")

// Seat describes a player joining a new game
type Seat struct {
	ID         string             `json:"playerId,omitempty"`
	Name       string             `json:"name" validate:"required,max=32"`
	Kind       models.ControlKind `json:"kind" validate:"required,oneof=HUMAN CPU"`
	Difficulty models.Difficulty  `json:"difficulty,omitempty" validate:"omitempty,oneof=EASY NORMAL HARD"`
}

// Setup holds the parameters of a new game
type Setup struct {
	GameID       string
	Seats        []Seat
	InitialMoney int
	TotalYears   int
	StartCity    string
}

// NewGame builds the initial state: every seat at the start city with the
// initial money, every property on the market and a random destination.
func NewGame(content *catalog.Content, setup Setup, src rng.Source) (models.GameState, error) {
	if len(setup.Seats) == 0 {
		return models.GameState{}, ErrNoSeats
	}
	if setup.InitialMoney <= 0 {
		setup.InitialMoney = DefaultInitialMoney
	}
	if setup.TotalYears <= 0 {
		setup.TotalYears = DefaultTotalYears
	}
	cityIDs := content.Board.CityIDs()
	if len(cityIDs) == 0 {
		return models.GameState{}, errors.New("catalog has no cities")
	}
	if setup.StartCity == "" {
		setup.StartCity = cityIDs[0]
	}
	if !content.Board.HasCity(setup.StartCity) {
		return models.GameState{}, fmt.Errorf("unknown start city %q", setup.StartCity)
	}

	state := models.GameState{
		ID:                setup.GameID,
		Year:              1,
		Month:             1,
		TotalYears:        setup.TotalYears,
		Phase:             models.PhaseCardUse,
		DestinationCityID: destination.Pick(cityIDs, setup.StartCity, src),
		Properties:        content.NewProperties(),
	}

	seen := map[string]bool{}
	for i, seat := range setup.Seats {
		id := seat.ID
		if id == "" {
			id = fmt.Sprintf("p%d", i+1)
		}
		if seen[id] {
			return models.GameState{}, fmt.Errorf("duplicate player id %q", id)
		}
		seen[id] = true

		kind := seat.Kind
		if kind == "" {
			kind = models.ControlHuman
		}
		difficulty := seat.Difficulty
		if kind == models.ControlCPU && difficulty == "" {
			difficulty = models.DifficultyNormal
		}
		state.Players = append(state.Players, models.Player{
			ID:               id,
			Name:             seat.Name,
			Kind:             kind,
			Difficulty:       difficulty,
			Money:            setup.InitialMoney,
			Position:         setup.StartCity,
			Hand:             []string{},
			Debuff:           models.DebuffNone,
			IncomeMultiplier: 1,
			DiceMultiplier:   1,
			Status:           models.PlayerStatusActive,
		})
	}
	state.RecomputeAssets()
	return state, nil
}
