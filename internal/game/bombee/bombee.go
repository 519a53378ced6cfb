// Package bombee implements the roaming debuff. Exactly one player carries it
// at a time; it grows from mini to normal to king the longer it stays, takes
// money or property every debuff step, and drifts toward last place.
package bombee

import (
	"math"
	"sort"

	"github.com/kekopoly/dentetsu/internal/game/economy"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/rng"
)

const (
	normalAfter = 5
	kingAfter   = 10

	normalSellChance = 0.5
	migrateChance    = 0.75
	kingBranches     = 3

	distressSaleRate = 0.7
	kingLossRate     = 0.3
	kingMaxSales     = 3
	kingTaxRate      = 0.1
	kingTaxMinimum   = 100
)

type stealRule struct {
	minimum int
	lo, hi  float64
}

var (
	miniSteal   = stealRule{minimum: 100, lo: 0.05, hi: 0.15}
	normalSteal = stealRule{minimum: 500, lo: 0.2, hi: 0.4}
	kingSteal   = stealRule{minimum: 2000, lo: 0.4, hi: 0.6}
)

// Action names the effect applied in a debuff step
type Action string

const (
	ActionAttach    Action = "attach"
	ActionSteal     Action = "steal"
	ActionForceSell Action = "force_sell"
	ActionMassSell  Action = "mass_sell"
	ActionTaxAll    Action = "tax_all"
	ActionNoCarrier Action = "none"
)

// Result reports one debuff step
type Result struct {
	Action      Action            `json:"action"`
	PlayerID    string            `json:"playerId,omitempty"`
	Kind        models.DebuffKind `json:"kind"`
	Evolved     bool              `json:"evolved"`
	Amount      int               `json:"amount"`
	PropertyIDs []string          `json:"propertyIds,omitempty"`
	Taxed       map[string]int    `json:"taxed,omitempty"`
	MigratedTo  string            `json:"migratedTo,omitempty"`
}

// LastPlace returns the index of the player with the lowest total assets,
// seat order breaking ties. With skipImmune, immune players are passed over
// unless every player is immune. -1 for an empty game.
func LastPlace(state models.GameState, skipImmune bool) int {
	order := ranking(state)
	if len(order) == 0 {
		return -1
	}
	if skipImmune {
		for _, i := range order {
			if state.Players[i].ImmunityYears <= 0 {
				return i
			}
		}
	}
	return order[0]
}

// ranking lists player indexes by ascending total assets
func ranking(state models.GameState) []int {
	order := make([]int, len(state.Players))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return state.Players[order[a]].TotalAssets < state.Players[order[b]].TotalAssets
	})
	return order
}

// Attach gives the debuff to the poorest non-immune player when there are at
// least two players and nobody carries it yet.
func Attach(state models.GameState) (models.GameState, string) {
	if len(state.Players) < 2 || state.DebuffCarrier() >= 0 {
		return state, ""
	}
	next := state.Clone()
	i := LastPlace(next, true)
	next.Players[i].Debuff = models.DebuffMini
	next.Players[i].DebuffTurns = 0
	return next, next.Players[i].ID
}

// DecrementImmunity counts down every player's remaining immune years.
func DecrementImmunity(state models.GameState) models.GameState {
	next := state.Clone()
	for i := range next.Players {
		if next.Players[i].ImmunityYears > 0 {
			next.Players[i].ImmunityYears--
		}
	}
	return next
}

// Act runs one debuff step: attach when nobody carries it, otherwise evolve,
// apply the tier's effect and maybe migrate to last place.
func Act(state models.GameState, src rng.Source) (models.GameState, Result) {
	carrier := state.DebuffCarrier()
	if carrier < 0 {
		next, id := Attach(state)
		if id == "" {
			return state, Result{Action: ActionNoCarrier, Kind: models.DebuffNone}
		}
		return next, Result{Action: ActionAttach, PlayerID: id, Kind: models.DebuffMini}
	}

	next := state.Clone()
	p := &next.Players[carrier]
	res := Result{PlayerID: p.ID}

	p.DebuffTurns++
	switch {
	case p.Debuff == models.DebuffMini && p.DebuffTurns >= normalAfter:
		p.Debuff = models.DebuffNormal
		res.Evolved = true
	case p.Debuff == models.DebuffNormal && p.DebuffTurns >= kingAfter:
		p.Debuff = models.DebuffKing
		res.Evolved = true
	}
	res.Kind = p.Debuff

	switch p.Debuff {
	case models.DebuffMini:
		steal(&next, carrier, miniSteal, src, &res)
	case models.DebuffNormal:
		if rng.Chance(src, normalSellChance) && distressSale(&next, carrier, src, &res) {
			break
		}
		steal(&next, carrier, normalSteal, src, &res)
	case models.DebuffKing:
		applied := false
		switch src.Intn(kingBranches) {
		case 0:
			applied = massSale(&next, carrier, src, &res)
		case 1:
			applied = taxAll(&next, &res)
		}
		if !applied {
			steal(&next, carrier, kingSteal, src, &res)
		}
	}
	next.RecomputeAssets()

	last := LastPlace(next, true)
	if last >= 0 && last != carrier && next.Players[last].ImmunityYears <= 0 && rng.Chance(src, migrateChance) {
		next.Players[last].Debuff = next.Players[carrier].Debuff
		next.Players[last].DebuffTurns = 0
		next.Players[carrier].ClearDebuff()
		res.MigratedTo = next.Players[last].ID
	}
	return next, res
}

func steal(state *models.GameState, i int, rule stealRule, src rng.Source, res *Result) {
	p := &state.Players[i]
	amount := int(math.Floor(float64(p.Money) * rng.Range(src, rule.lo, rule.hi)))
	if amount < rule.minimum {
		amount = rule.minimum
	}
	if amount > p.Money {
		amount = p.Money
	}
	if amount < 0 {
		amount = 0
	}
	p.Money -= amount
	res.Action = ActionSteal
	res.Amount = amount
}

// distressSale sells one random property of the carrier at 70% of its price
func distressSale(state *models.GameState, i int, src rng.Source, res *Result) bool {
	p := &state.Players[i]
	owned := economy.OwnedBy(*state, p.ID)
	if len(owned) == 0 {
		return false
	}
	prop := state.Property(owned[src.Intn(len(owned))].ID)
	proceeds := int(math.Floor(float64(prop.Price) * distressSaleRate))
	p.Money += proceeds
	prop.OwnerID = ""
	prop.Level = 0
	res.Action = ActionForceSell
	res.Amount = prop.Price - proceeds
	res.PropertyIDs = append(res.PropertyIDs, prop.ID)
	return true
}

// massSale sells up to three random properties at 70% and charges the 30%
// loss again from cash, so total assets drop by twice the loss.
func massSale(state *models.GameState, i int, src rng.Source, res *Result) bool {
	p := &state.Players[i]
	owned := economy.OwnedBy(*state, p.ID)
	if len(owned) == 0 {
		return false
	}
	totalLoss := 0
	for n := 0; n < kingMaxSales && len(owned) > 0; n++ {
		k := src.Intn(len(owned))
		prop := state.Property(owned[k].ID)
		owned = append(owned[:k], owned[k+1:]...)

		loss := int(math.Floor(float64(prop.Price) * kingLossRate))
		p.Money += prop.Price - loss
		penalty := loss
		if penalty > p.Money {
			penalty = p.Money
		}
		if penalty > 0 {
			p.Money -= penalty
		}
		prop.OwnerID = ""
		prop.Level = 0
		totalLoss += loss + penalty
		res.PropertyIDs = append(res.PropertyIDs, prop.ID)
	}
	res.Action = ActionMassSell
	res.Amount = totalLoss
	return true
}

// taxAll charges every player 10% of their money, at least 100, capped at
// what they hold.
func taxAll(state *models.GameState, res *Result) bool {
	anyMoney := false
	for _, p := range state.Players {
		if p.Money > 0 {
			anyMoney = true
			break
		}
	}
	if !anyMoney {
		return false
	}
	res.Taxed = make(map[string]int, len(state.Players))
	for i := range state.Players {
		p := &state.Players[i]
		tax := int(math.Floor(float64(p.Money) * kingTaxRate))
		if tax < kingTaxMinimum {
			tax = kingTaxMinimum
		}
		if tax > p.Money {
			tax = p.Money
		}
		if tax < 0 {
			tax = 0
		}
		p.Money -= tax
		res.Taxed[p.ID] = tax
		res.Amount += tax
	}
	res.Action = ActionTaxAll
	return true
}
