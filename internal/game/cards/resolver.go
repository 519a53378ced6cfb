// Package cards resolves card effects against a game state.
//
// UseCard removes the card from the player's hand and then applies its
// effect. Unknown ids and cards the player does not hold are errors that
// leave the state untouched; an effect that finds nothing to act on still
// consumes the card and is reported on the Result.
package cards

import (
	"math"

	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/outcome"
	"github.com/kekopoly/dentetsu/internal/game/rng"
)

// TargetContext carries the caller's choices for targeted effects
type TargetContext struct {
	PlayerID   string `json:"playerId,omitempty"`
	CityID     string `json:"cityId,omitempty"`
	PropertyID string `json:"propertyId,omitempty"`
	CardID     string `json:"cardId,omitempty"`
}

// Result describes what a card did
type Result struct {
	CardID         string          `json:"cardId"`
	Type           models.CardType `json:"type"`
	Kind           string          `json:"kind"`
	Applied        bool            `json:"applied"`
	Reason         outcome.Code    `json:"reason,omitempty"`
	MoneyDelta     int             `json:"moneyDelta"`
	DiceBonus      int             `json:"diceBonus,omitempty"`
	Moved          bool            `json:"moved"`
	Path           []string        `json:"path,omitempty"`
	TargetPlayerID string          `json:"targetPlayerId,omitempty"`
	PropertyIDs    []string        `json:"propertyIds,omitempty"`
	StolenCardID   string          `json:"stolenCardId,omitempty"`
}

// Resolver applies card effects using the session's content and randomness
type Resolver struct {
	content *catalog.Content
	src     rng.Source
}

// NewResolver creates a resolver
func NewResolver(content *catalog.Content, src rng.Source) *Resolver {
	return &Resolver{content: content, src: src}
}

// effect is the mutable view an effect function works on
type effect struct {
	r      *Resolver
	state  *models.GameState
	actor  int
	card   models.Card
	target TargetContext
	res    *Result
}

func (e *effect) player() *models.Player {
	return &e.state.Players[e.actor]
}

func (e *effect) fail(code outcome.Code) {
	e.res.Applied = false
	e.res.Reason = code
}

// UseCard plays cardID from the player's hand.
func (r *Resolver) UseCard(state models.GameState, playerID, cardID string, target TargetContext) (models.GameState, Result, error) {
	if state.Player(playerID) == nil {
		return state, Result{}, outcome.New(outcome.CodeNotFound, "player %s", playerID)
	}
	card, ok := r.content.Card(cardID)
	if !ok {
		return state, Result{}, outcome.New(outcome.CodeNotFound, "card %s", cardID)
	}
	if !state.Player(playerID).HasCard(cardID) {
		return state, Result{}, outcome.New(outcome.CodeNotOwner, "card %s not in hand of %s", cardID, playerID)
	}

	next := state.Clone()
	res := Result{CardID: card.ID, Type: card.Type, Kind: card.Effect.Kind, Applied: true}
	e := &effect{r: r, state: &next, actor: next.PlayerIndex(playerID), card: card, target: target, res: &res}
	moneyBefore := e.player().Money
	e.player().RemoveCard(cardID)

	switch card.Type {
	case models.CardTypeDestinationMove, models.CardTypeCityMove, models.CardTypeStepMove:
		e.move()
	case models.CardTypeExtraDice:
		res.DiceBonus = card.Effect.Value
	case models.CardTypeMoneyGain:
		e.gain()
	case models.CardTypeMoneyPay:
		e.pay()
	case models.CardTypePropertySell:
		e.sell()
	case models.CardTypePropertySteal:
		e.steal()
	case models.CardTypePropertyBuy:
		e.buy()
	case models.CardTypeMonopolyBreak:
		e.breakMonopoly()
	case models.CardTypeDebuffRemove:
		e.removeDebuff()
	case models.CardTypeDebuffTransfer:
		e.transferDebuff()
	case models.CardTypeCardSteal:
		e.stealCard()
	case models.CardTypeIncomeDouble:
		e.incomeDouble()
	default:
		e.fail(outcome.CodeNoTarget)
	}

	next.RecomputeAssets()
	res.MoneyDelta = e.player().Money - moneyBefore
	return next, res, nil
}

// opponent resolves the targeted opponent: the explicit choice when given,
// otherwise the richest opponent. -1 when there is none.
func (e *effect) opponent() int {
	if e.target.PlayerID != "" {
		i := e.state.PlayerIndex(e.target.PlayerID)
		if i == e.actor {
			return -1
		}
		return i
	}
	return e.state.RichestOpponent(e.player().ID)
}

// percentOf floors pct percent of amount
func percentOf(amount, pct int) int {
	return int(math.Floor(float64(amount) * float64(pct) / 100))
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
