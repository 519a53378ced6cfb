package cards

import (
	"sort"

	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/outcome"
	"github.com/kekopoly/dentetsu/internal/game/rng"
)

func (e *effect) removeDebuff() {
	p := e.player()
	if !p.HasDebuff() {
		e.fail(outcome.CodeNoTarget)
		return
	}
	p.ClearDebuff()
	if e.card.Effect.Value > p.ImmunityYears {
		p.ImmunityYears = e.card.Effect.Value
	}
}

func (e *effect) transferDebuff() {
	switch e.card.Effect.Kind {
	case catalog.KindLastToSecond:
		if len(e.state.Players) < 2 {
			e.fail(outcome.CodeNoTarget)
			return
		}
		order := make([]int, len(e.state.Players))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return e.state.Players[order[a]].TotalAssets < e.state.Players[order[b]].TotalAssets
		})
		last, second := &e.state.Players[order[0]], &e.state.Players[order[1]]
		if !last.HasDebuff() {
			e.fail(outcome.CodeNoTarget)
			return
		}
		handOver(last, second)
		e.res.TargetPlayerID = second.ID
	case catalog.KindToOpponent:
		p := e.player()
		if !p.HasDebuff() {
			e.fail(outcome.CodeNoTarget)
			return
		}
		opp := e.opponent()
		if opp < 0 {
			e.fail(outcome.CodeNoTarget)
			return
		}
		handOver(p, &e.state.Players[opp])
		e.res.TargetPlayerID = e.state.Players[opp].ID
	default:
		e.fail(outcome.CodeNoTarget)
	}
}

// handOver moves the debuff between players keeping its tier
func handOver(from, to *models.Player) {
	to.Debuff = from.Debuff
	to.DebuffTurns = 0
	from.ClearDebuff()
}

func (e *effect) stealCard() {
	p := e.player()
	opp := e.opponent()
	if opp < 0 || len(e.state.Players[opp].Hand) == 0 {
		e.fail(outcome.CodeNoTarget)
		return
	}
	if p.HandFull() {
		e.fail(outcome.CodeHandFull)
		return
	}
	victim := &e.state.Players[opp]
	cardID := ""
	if e.target.CardID != "" && victim.HasCard(e.target.CardID) {
		cardID = e.target.CardID
	} else {
		cardID = victim.Hand[rng.Pick(e.r.src, len(victim.Hand))]
	}
	victim.RemoveCard(cardID)
	p.Hand = append(p.Hand, cardID)
	e.res.TargetPlayerID = victim.ID
	e.res.StolenCardID = cardID
}
