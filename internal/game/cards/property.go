package cards

import (
	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/economy"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/outcome"
)

const monopolyBreakRefund = 80

func (e *effect) sell() {
	p := e.player()
	pct := orDefault(e.card.Effect.Value, 100)
	switch e.card.Effect.Kind {
	case catalog.KindSellOne:
		owned := economy.OwnedBy(*e.state, p.ID)
		if len(owned) == 0 {
			e.fail(outcome.CodeNoTarget)
			return
		}
		id := owned[0].ID
		if e.target.PropertyID != "" {
			prop := e.state.Property(e.target.PropertyID)
			if prop == nil || prop.OwnerID != p.ID {
				e.fail(outcome.CodeNotOwner)
				return
			}
			id = prop.ID
		}
		e.release(id, p, pct)
	case catalog.KindSellAllInCity:
		var ids []string
		for _, prop := range economy.PropertiesInCity(*e.state, p.Position) {
			if prop.OwnerID == p.ID {
				ids = append(ids, prop.ID)
			}
		}
		if len(ids) == 0 {
			e.fail(outcome.CodeNoTarget)
			return
		}
		for _, id := range ids {
			e.release(id, p, pct)
		}
	case catalog.KindForceSellOpponent:
		opp := e.propertyHolder()
		if opp < 0 {
			e.fail(outcome.CodeNoTarget)
			return
		}
		victim := &e.state.Players[opp]
		cheapest := economy.Cheapest(economy.OwnedBy(*e.state, victim.ID))
		e.res.TargetPlayerID = victim.ID
		e.release(cheapest.ID, victim, pct)
	default:
		e.fail(outcome.CodeNoTarget)
	}
}

func (e *effect) steal() {
	p := e.player()
	var target models.Property
	switch e.card.Effect.Kind {
	case catalog.KindRichestCheapest:
		opp := e.propertyHolder()
		if opp < 0 {
			e.fail(outcome.CodeNoTarget)
			return
		}
		target = economy.Cheapest(economy.OwnedBy(*e.state, e.state.Players[opp].ID))
	case catalog.KindCityCheapest:
		var pool []models.Property
		for _, prop := range economy.PropertiesInCity(*e.state, p.Position) {
			if prop.OwnerID != "" && prop.OwnerID != p.ID {
				pool = append(pool, prop)
			}
		}
		if len(pool) == 0 {
			e.fail(outcome.CodeNoTarget)
			return
		}
		target = economy.Cheapest(pool)
	default:
		e.fail(outcome.CodeNoTarget)
		return
	}
	e.res.TargetPlayerID = target.OwnerID
	e.res.PropertyIDs = append(e.res.PropertyIDs, target.ID)
	e.state.Property(target.ID).OwnerID = p.ID
}

func (e *effect) buy() {
	p := e.player()
	var candidates []models.Property
	switch e.card.Effect.Kind {
	case catalog.KindFreePick, catalog.KindDiscountInCity:
		for _, prop := range economy.PropertiesInCity(*e.state, p.Position) {
			if prop.OwnerID == "" {
				candidates = append(candidates, prop)
			}
		}
	case catalog.KindCheapestNationwide:
		for _, prop := range e.state.Properties {
			if prop.OwnerID == "" {
				candidates = append(candidates, prop)
			}
		}
	default:
		e.fail(outcome.CodeNoTarget)
		return
	}
	if len(candidates) == 0 {
		e.fail(outcome.CodeNoTarget)
		return
	}

	pick := economy.Cheapest(candidates)
	if e.card.Effect.Kind == catalog.KindFreePick && e.target.PropertyID != "" {
		found := false
		for _, c := range candidates {
			if c.ID == e.target.PropertyID {
				pick, found = c, true
				break
			}
		}
		if !found {
			e.fail(outcome.CodeNoTarget)
			return
		}
	}

	cost := pick.Price
	if e.card.Effect.Kind == catalog.KindDiscountInCity {
		cost -= percentOf(pick.Price, e.card.Effect.Value)
	}
	if p.Money < cost {
		e.fail(outcome.CodeNotEnoughMoney)
		return
	}
	p.Money -= cost
	e.state.Property(pick.ID).OwnerID = p.ID
	e.res.PropertyIDs = append(e.res.PropertyIDs, pick.ID)
}

// breakMonopoly returns the cheapest property of the first monopolised
// opponent city to the market. Without a monopoly it picks the city where one
// opponent holds the highest share short of all of it.
func (e *effect) breakMonopoly() {
	actorID := e.player().ID
	ownerID, cityID := "", ""

	for _, city := range e.r.content.Board.CityIDs() {
		for _, i := range e.state.Opponents(actorID) {
			if economy.HasMonopoly(*e.state, city, e.state.Players[i].ID) {
				ownerID, cityID = e.state.Players[i].ID, city
				break
			}
		}
		if ownerID != "" {
			break
		}
	}

	if ownerID == "" {
		best := 0.0
		for _, city := range e.r.content.Board.CityIDs() {
			props := economy.PropertiesInCity(*e.state, city)
			if len(props) == 0 {
				continue
			}
			for _, i := range e.state.Opponents(actorID) {
				id := e.state.Players[i].ID
				held := 0
				for _, prop := range props {
					if prop.OwnerID == id {
						held++
					}
				}
				ratio := float64(held) / float64(len(props))
				if held > 0 && ratio < 1 && ratio > best {
					best, ownerID, cityID = ratio, id, city
				}
			}
		}
	}

	if ownerID == "" {
		e.fail(outcome.CodeNoTarget)
		return
	}
	var theirs []models.Property
	for _, prop := range economy.PropertiesInCity(*e.state, cityID) {
		if prop.OwnerID == ownerID {
			theirs = append(theirs, prop)
		}
	}
	e.res.TargetPlayerID = ownerID
	e.release(economy.Cheapest(theirs).ID, e.state.Player(ownerID), monopolyBreakRefund)
}

// release returns a property to the market and pays its holder pct percent
// of the price.
func (e *effect) release(propertyID string, holder *models.Player, pct int) {
	prop := e.state.Property(propertyID)
	holder.Money += percentOf(prop.Price, pct)
	prop.OwnerID = ""
	prop.Level = 0
	e.res.PropertyIDs = append(e.res.PropertyIDs, propertyID)
}

// propertyHolder resolves the targeted opponent for property effects. An
// explicit target must own something; otherwise the richest opponent that
// owns property is chosen.
func (e *effect) propertyHolder() int {
	if e.target.PlayerID != "" {
		i := e.opponent()
		if i < 0 || len(economy.OwnedBy(*e.state, e.state.Players[i].ID)) == 0 {
			return -1
		}
		return i
	}
	best := -1
	for _, i := range e.state.Opponents(e.player().ID) {
		if len(economy.OwnedBy(*e.state, e.state.Players[i].ID)) == 0 {
			continue
		}
		if best < 0 || e.state.Players[i].TotalAssets > e.state.Players[best].TotalAssets {
			best = i
		}
	}
	return best
}
