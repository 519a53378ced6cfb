// Package cpu holds the difficulty-tiered heuristics CPU players use. The
// functions only read the state; the turn orchestrator executes whatever they
// decide.
package cpu

import (
	"github.com/kekopoly/dentetsu/internal/game/board"
	"github.com/kekopoly/dentetsu/internal/game/cards"
	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/economy"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/rng"
)

const (
	easyBuyChance     = 0.5
	easyBuyMoneyShare = 0.5
	easyCardChance    = 0.3

	normalPaybackFactor = 0.8
	hardYieldThreshold  = 0.15
	hardRouteIncome     = 0.01

	lateGameYears  = 3
	hardPlayScore  = 50
	maxShopBuys    = 2
	shopMoneyRatio = 3
)

// Play is a card the CPU decided to use
type Play struct {
	CardID string
	Target cards.TargetContext
}

// Engine takes decisions for CPU players
type Engine struct {
	content *catalog.Content
	src     rng.Source
}

// New creates a decision engine
func New(content *catalog.Content, src rng.Source) *Engine {
	return &Engine{content: content, src: src}
}

func difficultyOf(state models.GameState, playerID string) models.Difficulty {
	if p := state.Player(playerID); p != nil && p.Difficulty != "" {
		return p.Difficulty
	}
	return models.DifficultyNormal
}

// ChooseRoute picks the next city at a junction.
func (e *Engine) ChooseRoute(state models.GameState, playerID string, options []string) string {
	if len(options) == 0 {
		return ""
	}
	b := e.content.Board
	switch difficultyOf(state, playerID) {
	case models.DifficultyEasy:
		return options[e.src.Intn(len(options))]
	case models.DifficultyHard:
		best, bestScore := options[0], 0.0
		for i, opt := range options {
			score := -float64(b.Distance(opt, state.DestinationCityID, board.MaxSearchDepth))
			for _, prop := range economy.PropertiesInCity(state, opt) {
				if prop.OwnerID == "" || prop.OwnerID == playerID {
					score += hardRouteIncome * float64(economy.CurrentIncome(prop))
				}
			}
			if i == 0 || score > bestScore {
				best, bestScore = opt, score
			}
		}
		return best
	default:
		best, bestDist := options[0], board.Unreachable+1
		for _, opt := range options {
			if d := b.Distance(opt, state.DestinationCityID, board.MaxSearchDepth); d < bestDist {
				best, bestDist = opt, d
			}
		}
		return best
	}
}

// ShouldBuy decides whether to buy an unowned, affordable property.
func (e *Engine) ShouldBuy(state models.GameState, playerID, propertyID string) bool {
	p := state.Player(playerID)
	prop := state.Property(propertyID)
	if p == nil || prop == nil || prop.OwnerID != "" || p.Money < prop.Price {
		return false
	}

	price := float64(prop.Price)
	income := float64(economy.CurrentIncome(*prop))
	years := float64(state.YearsRemaining())
	completes := economy.CompletesMonopoly(state, playerID, propertyID)

	switch difficultyOf(state, playerID) {
	case models.DifficultyEasy:
		return price <= easyBuyMoneyShare*float64(p.Money) && rng.Chance(e.src, easyBuyChance)
	case models.DifficultyHard:
		if completes {
			return true
		}
		return income > 0 && (income/price >= hardYieldThreshold || price/income <= years)
	default:
		if completes {
			return true
		}
		return income > 0 && price/income <= normalPaybackFactor*years
	}
}

// ShouldUpgrade decides whether to pay for the next level of an owned
// property.
func (e *Engine) ShouldUpgrade(state models.GameState, playerID, propertyID string) bool {
	p := state.Player(playerID)
	prop := state.Property(propertyID)
	if p == nil || prop == nil || prop.OwnerID != playerID {
		return false
	}
	cost, ok := economy.NextUpgradeCost(*prop)
	if !ok || p.Money < cost {
		return false
	}
	gain := prop.UpgradeIncomes[prop.Level] - economy.CurrentIncome(*prop)

	switch difficultyOf(state, playerID) {
	case models.DifficultyEasy:
		return cost*2 <= p.Money && rng.Chance(e.src, easyBuyChance)
	case models.DifficultyHard:
		return cost*2 <= p.Money || (gain*state.YearsRemaining() >= cost && cost*5 <= p.Money*4)
	default:
		return cost*2 <= p.Money && gain > 0
	}
}

// ChooseCard picks the card to play at the start of the turn, if any.
func (e *Engine) ChooseCard(state models.GameState, playerID string) (Play, bool) {
	p := state.Player(playerID)
	if p == nil || len(p.Hand) == 0 {
		return Play{}, false
	}

	switch difficultyOf(state, playerID) {
	case models.DifficultyEasy:
		if !rng.Chance(e.src, easyCardChance) {
			return Play{}, false
		}
		id := p.Hand[e.src.Intn(len(p.Hand))]
		return e.play(state, playerID, id), true
	case models.DifficultyHard:
		bestID, bestScore := "", -1
		for _, id := range p.Hand {
			card, ok := e.content.Card(id)
			if !ok {
				continue
			}
			if s := e.score(state, p, card); s > bestScore {
				bestID, bestScore = id, s
			}
		}
		if bestID == "" || bestScore < hardPlayScore {
			return Play{}, false
		}
		return e.play(state, playerID, bestID), true
	default:
		if state.YearsRemaining() <= lateGameYears {
			if id, ok := e.firstOfType(p, models.CardTypeDestinationMove); ok {
				return e.play(state, playerID, id), true
			}
		}
		if p.HasDebuff() {
			if id, ok := e.firstOfType(p, models.CardTypeDebuffRemove); ok {
				return e.play(state, playerID, id), true
			}
		}
		return Play{}, false
	}
}

func (e *Engine) score(state models.GameState, p *models.Player, card models.Card) int {
	switch card.Type {
	case models.CardTypeDestinationMove:
		return e.content.Board.Distance(p.Position, state.DestinationCityID, board.MaxSearchDepth) * 10
	case models.CardTypeDebuffRemove:
		if p.HasDebuff() {
			return 100
		}
		return 0
	case models.CardTypeDebuffTransfer:
		if p.HasDebuff() {
			return 80
		}
		return 0
	case models.CardTypeMoneyGain:
		return 40
	case models.CardTypePropertySteal:
		return 60
	default:
		return 20
	}
}

func (e *Engine) firstOfType(p *models.Player, typ models.CardType) (string, bool) {
	for _, id := range p.Hand {
		if card, ok := e.content.Card(id); ok && card.Type == typ {
			return id, true
		}
	}
	return "", false
}

func (e *Engine) play(state models.GameState, playerID, cardID string) Play {
	card, _ := e.content.Card(cardID)
	return Play{CardID: cardID, Target: Target(state, playerID, card)}
}

// Target builds the automatic target for a CPU card: the opponent with the
// highest total assets, and the destination for free travel.
func Target(state models.GameState, playerID string, card models.Card) cards.TargetContext {
	var tc cards.TargetContext
	if card.Effect.Kind == catalog.KindLastToSecond {
		return tc
	}
	if i := state.RichestOpponent(playerID); i >= 0 {
		tc.PlayerID = state.Players[i].ID
	}
	if card.Effect.Kind == catalog.KindTeleport {
		tc.CityID = state.DestinationCityID
	}
	return tc
}

// ChooseShopCards returns the ids of up to two offered cards the CPU can
// afford with three times their price in hand.
func (e *Engine) ChooseShopCards(state models.GameState, playerID string, offer []models.Card) []string {
	p := state.Player(playerID)
	if p == nil {
		return nil
	}
	money, room := p.Money, models.MaxHandSize-len(p.Hand)
	var picks []string
	for _, card := range offer {
		if len(picks) >= maxShopBuys || room <= 0 {
			break
		}
		if card.Price > 0 && money >= shopMoneyRatio*card.Price {
			picks = append(picks, card.ID)
			money -= card.Price
			room--
		}
	}
	return picks
}
