package cards

import (
	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/economy"
	"github.com/kekopoly/dentetsu/internal/game/outcome"
)

func (e *effect) gain() {
	p := e.player()
	v := e.card.Effect.Value
	switch e.card.Effect.Kind {
	case catalog.KindFlat:
		p.Money += v
	case catalog.KindPercentProperty:
		p.Money += percentOf(economy.OwnedPriceTotal(*e.state, p.ID), v)
	case catalog.KindFromEachOpponent:
		opps := e.state.Opponents(p.ID)
		if len(opps) == 0 {
			e.fail(outcome.CodeNoTarget)
			return
		}
		for _, i := range opps {
			opp := &e.state.Players[i]
			amount := capAt(v, opp.Money)
			opp.Money -= amount
			p.Money += amount
		}
	default:
		e.fail(outcome.CodeNoTarget)
	}
}

func (e *effect) pay() {
	p := e.player()
	v := e.card.Effect.Value
	switch e.card.Effect.Kind {
	case catalog.KindFlat:
		p.Money -= capAt(v, p.Money)
	case catalog.KindPercentProperty:
		p.Money -= capAt(percentOf(economy.OwnedPriceTotal(*e.state, p.ID), v), p.Money)
	case catalog.KindPercentAssets:
		p.Money -= capAt(percentOf(p.TotalAssets, v), p.Money)
	case catalog.KindToEachOpponent:
		opps := e.state.Opponents(p.ID)
		if len(opps) == 0 {
			e.fail(outcome.CodeNoTarget)
			return
		}
		for _, i := range opps {
			amount := capAt(v, p.Money)
			p.Money -= amount
			e.state.Players[i].Money += amount
		}
	default:
		e.fail(outcome.CodeNoTarget)
	}
}

func (e *effect) incomeDouble() {
	p := e.player()
	mult := orDefault(e.card.Effect.Value, 2)
	switch e.card.Effect.Kind {
	case catalog.KindUntilSettlement:
		p.IncomeMultiplier = float64(mult)
	case catalog.KindMonthNow:
		annual := economy.PlayerAnnualIncome(*e.state, p.ID).TotalIncome
		amount := annual * mult / 12
		if amount == 0 {
			e.fail(outcome.CodeNoTarget)
			return
		}
		p.Money += amount
	default:
		e.fail(outcome.CodeNoTarget)
	}
}

// capAt limits a requested amount to what is available, never below zero
func capAt(requested, available int) int {
	if available < 0 {
		available = 0
	}
	if requested > available {
		return available
	}
	if requested < 0 {
		return 0
	}
	return requested
}
