// Package events fires the calendar and random events of the event catalog
// when the month advances.
package events

import (
	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/rng"
)

// Fired reports one event that took effect and the money each player gained
// or lost through it
type Fired struct {
	EventID string         `json:"eventId"`
	Name    string         `json:"name"`
	Deltas  map[string]int `json:"deltas"`
}

// Due returns the events that trigger for the new month in catalog order.
// Yearly events trigger on the first month of a year; random events roll
// their probability once per month.
func Due(list []models.GameEvent, month int, yearStart bool, src rng.Source) []models.GameEvent {
	var due []models.GameEvent
	for _, ev := range list {
		switch ev.Category {
		case models.EventCategoryYearly:
			if yearStart {
				due = append(due, ev)
			}
		case models.EventCategoryMonthly:
			if ev.Month == month {
				due = append(due, ev)
			}
		case models.EventCategoryRandom:
			if rng.Chance(src, ev.Probability) {
				due = append(due, ev)
			}
		}
	}
	return due
}

// Apply applies one event to the players it targets.
func Apply(state models.GameState, ev models.GameEvent) (models.GameState, Fired) {
	next := state.Clone()
	fired := Fired{EventID: ev.ID, Name: ev.Name, Deltas: map[string]int{}}
	for _, i := range targets(next, ev.Effect.Target) {
		p := &next.Players[i]
		delta := amount(p.Money, ev.Effect)
		if delta < 0 && -delta > p.Money {
			delta = -p.Money
			if delta > 0 {
				delta = 0
			}
		}
		p.Money += delta
		fired.Deltas[p.ID] = delta
	}
	next.RecomputeAssets()
	return next, fired
}

// Fire applies every event due for the month.
func Fire(state models.GameState, list []models.GameEvent, yearStart bool, src rng.Source) (models.GameState, []Fired) {
	var out []Fired
	for _, ev := range Due(list, state.Month, yearStart, src) {
		var f Fired
		state, f = Apply(state, ev)
		out = append(out, f)
	}
	return state, out
}

func amount(money int, eff models.Effect) int {
	switch eff.Kind {
	case catalog.EventMoneyGain:
		return eff.Value
	case catalog.EventMoneyPay:
		return -eff.Value
	case catalog.EventMoneyPercent:
		if money <= 0 {
			return 0
		}
		if eff.Value < 0 {
			return -(money * -eff.Value / 100)
		}
		return money * eff.Value / 100
	}
	return 0
}

// targets resolves richest and poorest by total assets, seat order breaking
// ties; anything else targets every player.
func targets(state models.GameState, target string) []int {
	if len(state.Players) == 0 {
		return nil
	}
	switch target {
	case catalog.TargetRichest, catalog.TargetPoorest:
		best := 0
		for i, p := range state.Players[1:] {
			b := state.Players[best].TotalAssets
			if (target == catalog.TargetRichest && p.TotalAssets > b) ||
				(target == catalog.TargetPoorest && p.TotalAssets < b) {
				best = i + 1
			}
		}
		return []int{best}
	default:
		all := make([]int, len(state.Players))
		for i := range all {
			all[i] = i
		}
		return all
	}
}
