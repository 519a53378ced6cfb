// Package economy implements property ownership, rent, upgrades, annual
// income and forced sales. Every exported operation returns a new state and
// leaves its input untouched.
package economy

import (
	"math"
	"sort"

	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/outcome"
)

const (
	landFeeRate    = 0.5
	forcedSaleRate = 0.5
)

// UpgradeResult reports an upgrade attempt
type UpgradeResult struct {
	Success bool `json:"success"`
	Level   int  `json:"level"`
	Cost    int  `json:"cost"`
}

// FeeResult reports a land fee payment
type FeeResult struct {
	OwnerID string `json:"ownerId,omitempty"`
	Fee     int    `json:"fee"`
	Paid    int    `json:"paid"`
}

// IncomeReport is the annual income breakdown of one player
type IncomeReport struct {
	PlayerID       string         `json:"playerId"`
	PropertyIncome int            `json:"propertyIncome"`
	MonopolyBonus  int            `json:"monopolyBonus"`
	TotalIncome    int            `json:"totalIncome"`
	ByCity         map[string]int `json:"byCity"`
	Credited       int            `json:"credited"`
}

// Standing is one line of the final ranking
type Standing struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"playerId"`
	Name        string `json:"name"`
	TotalAssets int    `json:"totalAssets"`
	Money       int    `json:"money"`
}

// PropertiesInCity returns the properties of a city in catalog order
func PropertiesInCity(state models.GameState, cityID string) []models.Property {
	var out []models.Property
	for _, p := range state.Properties {
		if p.CityID == cityID {
			out = append(out, p)
		}
	}
	return out
}

// OwnedBy returns the properties owned by a player in catalog order
func OwnedBy(state models.GameState, playerID string) []models.Property {
	var out []models.Property
	for _, p := range state.Properties {
		if p.OwnerID == playerID && playerID != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasMonopoly reports whether the player owns every property of the city.
// A city without properties is never a monopoly.
func HasMonopoly(state models.GameState, cityID, playerID string) bool {
	props := PropertiesInCity(state, cityID)
	if len(props) == 0 || playerID == "" {
		return false
	}
	for _, p := range props {
		if p.OwnerID != playerID {
			return false
		}
	}
	return true
}

// CompletesMonopoly reports whether buying propertyID would give the player
// the whole city.
func CompletesMonopoly(state models.GameState, playerID, propertyID string) bool {
	target := state.Property(propertyID)
	if target == nil || target.OwnerID != "" {
		return false
	}
	for _, p := range PropertiesInCity(state, target.CityID) {
		if p.ID != propertyID && p.OwnerID != playerID {
			return false
		}
	}
	return true
}

// CurrentIncome is the income of a property at its current level
func CurrentIncome(p models.Property) int {
	if p.Level > 0 && p.Level <= len(p.UpgradeIncomes) {
		return p.UpgradeIncomes[p.Level-1]
	}
	return p.Income
}

// CurrentPrice is the resale base of a property; upgrades never change it
func CurrentPrice(p models.Property) int {
	return p.Price
}

// LandFee is the rent due when landing on someone else's property
func LandFee(p models.Property) int {
	return int(math.Floor(float64(CurrentIncome(p)) * landFeeRate))
}

// NextUpgradeCost returns the price of the next level, false at max level
func NextUpgradeCost(p models.Property) (int, bool) {
	if p.Level >= len(p.UpgradePrices) || p.Level >= len(p.UpgradeIncomes) {
		return 0, false
	}
	return p.UpgradePrices[p.Level], true
}

// BuyProperty transfers an unowned property to the player at its price.
func BuyProperty(state models.GameState, playerID, propertyID string) (models.GameState, error) {
	next := state.Clone()
	player := next.Player(playerID)
	if player == nil {
		return state, outcome.New(outcome.CodeNotFound, "player %s", playerID)
	}
	prop := next.Property(propertyID)
	if prop == nil {
		return state, outcome.New(outcome.CodeNotFound, "property %s", propertyID)
	}
	if prop.OwnerID != "" {
		return state, outcome.New(outcome.CodeAlreadyOwned, "property %s owned by %s", propertyID, prop.OwnerID)
	}
	if player.Money < prop.Price {
		return state, outcome.New(outcome.CodeNotEnoughMoney, "price %d, money %d", prop.Price, player.Money)
	}

	player.Money -= prop.Price
	prop.OwnerID = playerID
	next.RecomputeAssets()
	return next, nil
}

// UpgradeProperty raises the level of an owned property. A non-owner or a
// property at max level yields Success=false without error.
func UpgradeProperty(state models.GameState, playerID, propertyID string) (models.GameState, UpgradeResult, error) {
	next := state.Clone()
	player := next.Player(playerID)
	prop := next.Property(propertyID)
	if player == nil || prop == nil {
		return state, UpgradeResult{}, outcome.New(outcome.CodeNotFound, "player %s / property %s", playerID, propertyID)
	}
	if prop.OwnerID != playerID {
		return state, UpgradeResult{Level: prop.Level}, nil
	}
	cost, ok := NextUpgradeCost(*prop)
	if !ok {
		return state, UpgradeResult{Level: prop.Level}, nil
	}
	if player.Money < cost {
		return state, UpgradeResult{Level: prop.Level, Cost: cost}, outcome.New(outcome.CodeNotEnoughMoney, "upgrade %d, money %d", cost, player.Money)
	}

	player.Money -= cost
	prop.Level++
	next.RecomputeAssets()
	return next, UpgradeResult{Success: true, Level: prop.Level, Cost: cost}, nil
}

// PayLandFee charges the payer the land fee of someone else's property. The
// payer pays what they can and the owner receives exactly that.
func PayLandFee(state models.GameState, payerID, propertyID string) (models.GameState, FeeResult, error) {
	next := state.Clone()
	payer := next.Player(payerID)
	prop := next.Property(propertyID)
	if payer == nil || prop == nil {
		return state, FeeResult{}, outcome.New(outcome.CodeNotFound, "player %s / property %s", payerID, propertyID)
	}
	if prop.OwnerID == "" || prop.OwnerID == payerID {
		return state, FeeResult{}, nil
	}
	owner := next.Player(prop.OwnerID)
	if owner == nil {
		return state, FeeResult{}, outcome.New(outcome.CodeNotFound, "owner %s", prop.OwnerID)
	}

	fee := LandFee(*prop)
	paid := fee
	if payer.Money < paid {
		paid = payer.Money
	}
	if paid < 0 {
		paid = 0
	}
	payer.Money -= paid
	owner.Money += paid
	next.RecomputeAssets()
	return next, FeeResult{OwnerID: owner.ID, Fee: fee, Paid: paid}, nil
}

// PlayerAnnualIncome sums the current income of the player's properties per
// city; a monopolised city adds a bonus equal to its subtotal.
func PlayerAnnualIncome(state models.GameState, playerID string) IncomeReport {
	report := IncomeReport{PlayerID: playerID, ByCity: map[string]int{}}
	for _, p := range OwnedBy(state, playerID) {
		report.ByCity[p.CityID] += CurrentIncome(p)
	}
	for city, subtotal := range report.ByCity {
		report.PropertyIncome += subtotal
		if HasMonopoly(state, city, playerID) {
			report.MonopolyBonus += subtotal
		}
	}
	report.TotalIncome = report.PropertyIncome + report.MonopolyBonus
	return report
}

// YearEndIncome credits every player's annual income times their income
// multiplier, then resets the multiplier.
func YearEndIncome(state models.GameState) (models.GameState, []IncomeReport) {
	next := state.Clone()
	reports := make([]IncomeReport, 0, len(next.Players))
	for i := range next.Players {
		p := &next.Players[i]
		report := PlayerAnnualIncome(state, p.ID)
		report.Credited = int(math.Floor(float64(report.TotalIncome) * p.EffectiveIncomeMultiplier()))
		p.Money += report.Credited
		p.IncomeMultiplier = 1
		reports = append(reports, report)
	}
	next.RecomputeAssets()
	return next, reports
}

// SellPropertyForcibly returns an owned property to the market for half its
// original price, whatever its level. Selling someone else's property is a
// no-op.
func SellPropertyForcibly(state models.GameState, playerID, propertyID string) (models.GameState, int) {
	next := state.Clone()
	prop := next.Property(propertyID)
	player := next.Player(playerID)
	if prop == nil || player == nil || prop.OwnerID != playerID {
		return state, 0
	}
	refund := int(math.Floor(float64(prop.Price) * forcedSaleRate))
	player.Money += refund
	prop.OwnerID = ""
	prop.Level = 0
	next.RecomputeAssets()
	return next, refund
}

// Liquidate sells the player's properties cheapest first until their money
// reaches target or nothing is left. It returns the ids sold in order.
func Liquidate(state models.GameState, playerID string, target int) (models.GameState, []string) {
	next := state
	var sold []string
	for {
		player := next.Player(playerID)
		if player == nil || player.Money >= target {
			return next, sold
		}
		owned := OwnedBy(next, playerID)
		if len(owned) == 0 {
			return next, sold
		}
		cheapest := Cheapest(owned)
		next, _ = SellPropertyForcibly(next, playerID, cheapest.ID)
		sold = append(sold, cheapest.ID)
	}
}

// Cheapest returns the lowest priced property, first in order on ties
func Cheapest(props []models.Property) models.Property {
	best := props[0]
	for _, p := range props[1:] {
		if p.Price < best.Price {
			best = p
		}
	}
	return best
}

// OwnedPriceTotal sums the price of every property the player owns
func OwnedPriceTotal(state models.GameState, playerID string) int {
	total := 0
	for _, p := range OwnedBy(state, playerID) {
		total += p.Price
	}
	return total
}

// Standings ranks players by total assets, seat order breaking ties
func Standings(state models.GameState) []Standing {
	out := make([]Standing, len(state.Players))
	for i, p := range state.Players {
		out[i] = Standing{PlayerID: p.ID, Name: p.Name, TotalAssets: p.TotalAssets, Money: p.Money}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalAssets > out[j].TotalAssets
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
