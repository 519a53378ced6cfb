package economy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/outcome"
)

func newState() models.GameState {
	s := models.GameState{
		Year:       1,
		Month:      1,
		TotalYears: 5,
		Players: []models.Player{
			{ID: "a", Name: "Alice", Money: 10000},
			{ID: "b", Name: "Bob", Money: 10000},
		},
		Properties: []models.Property{
			{ID: "p1", CityID: "osaka", Price: 1000, Income: 200, UpgradePrices: []int{500, 800}, UpgradeIncomes: []int{300, 450}},
			{ID: "p2", CityID: "osaka", Price: 3000, Income: 400},
			{ID: "p3", CityID: "kyoto", Price: 500, Income: 60},
		},
	}
	s.RecomputeAssets()
	return s
}

func assertAssetsInvariant(t *testing.T, s models.GameState) {
	t.Helper()
	for _, p := range s.Players {
		assert.Equal(t, p.Money+OwnedPriceTotal(s, p.ID), p.TotalAssets, "player %s", p.ID)
	}
}

func TestBuyProperty(t *testing.T) {
	s := newState()

	next, err := BuyProperty(s, "a", "p1")
	require.NoError(t, err)
	assert.Equal(t, 9000, next.Players[0].Money)
	assert.Equal(t, "a", next.Properties[0].OwnerID)
	assert.Equal(t, 10000, next.Players[0].TotalAssets)
	assertAssetsInvariant(t, next)

	// input untouched
	assert.Equal(t, "", s.Properties[0].OwnerID)

	again, err := BuyProperty(next, "b", "p1")
	assert.True(t, errors.Is(err, outcome.ErrAlreadyOwned))
	assert.Equal(t, next, again)
}

func TestBuyPropertyNotEnoughMoney(t *testing.T) {
	s := newState()
	s.Players[0].Money = 500
	s.RecomputeAssets()

	next, err := BuyProperty(s, "a", "p2")
	assert.Equal(t, outcome.CodeNotEnoughMoney, outcome.CodeOf(err))
	assert.Equal(t, s, next)

	_, err = BuyProperty(s, "a", "nope")
	assert.True(t, errors.Is(err, outcome.ErrNotFound))
}

func TestLandFee(t *testing.T) {
	assert.Equal(t, 100, LandFee(models.Property{Income: 200}))
	assert.Equal(t, 30, LandFee(models.Property{Income: 61}))
	assert.Equal(t, 150, LandFee(models.Property{Income: 200, Level: 1, UpgradeIncomes: []int{300}}))
}

func TestPayLandFee(t *testing.T) {
	s := newState()
	s, err := BuyProperty(s, "a", "p1")
	require.NoError(t, err)

	next, res, err := PayLandFee(s, "b", "p1")
	require.NoError(t, err)
	assert.Equal(t, 100, res.Fee)
	assert.Equal(t, 100, res.Paid)
	assert.Equal(t, 9900, next.Players[1].Money)
	assert.Equal(t, 9100, next.Players[0].Money)
	assertAssetsInvariant(t, next)

	// owner landing on own property
	same, res, err := PayLandFee(s, "a", "p1")
	require.NoError(t, err)
	assert.Zero(t, res.Paid)
	assert.Equal(t, s, same)
}

func TestPayLandFeePartial(t *testing.T) {
	s := newState()
	s, _ = BuyProperty(s, "a", "p1")
	s.Players[1].Money = 40
	s.RecomputeAssets()

	next, res, err := PayLandFee(s, "b", "p1")
	require.NoError(t, err)
	assert.Equal(t, 100, res.Fee)
	assert.Equal(t, 40, res.Paid)
	assert.Equal(t, 0, next.Players[1].Money)
	assert.Equal(t, 9040, next.Players[0].Money)
}

func TestUpgradeProperty(t *testing.T) {
	s := newState()
	s, _ = BuyProperty(s, "a", "p1")

	// not the owner
	same, res, err := UpgradeProperty(s, "b", "p1")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, s, same)

	s, res, err = UpgradeProperty(s, "a", "p1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Level)
	assert.Equal(t, 8500, s.Players[0].Money)
	assert.Equal(t, 300, CurrentIncome(s.Properties[0]))
	assert.Equal(t, 1000, CurrentPrice(s.Properties[0]))
	assertAssetsInvariant(t, s)

	s, _, err = UpgradeProperty(s, "a", "p1")
	require.NoError(t, err)
	_, res, err = UpgradeProperty(s, "a", "p1")
	require.NoError(t, err)
	assert.False(t, res.Success, "max level")

	poor := newState()
	poor, _ = BuyProperty(poor, "a", "p1")
	poor.Players[0].Money = 100
	poor.RecomputeAssets()
	_, _, err = UpgradeProperty(poor, "a", "p1")
	assert.True(t, errors.Is(err, outcome.ErrNotEnoughMoney))
}

func TestMonopolyIncome(t *testing.T) {
	s := newState()
	s, _ = BuyProperty(s, "a", "p1")
	assert.False(t, HasMonopoly(s, "osaka", "a"))
	assert.True(t, CompletesMonopoly(s, "a", "p2"))
	s, _ = BuyProperty(s, "a", "p2")
	assert.True(t, HasMonopoly(s, "osaka", "a"))
	assert.False(t, HasMonopoly(s, "nowhere", "a"))

	report := PlayerAnnualIncome(s, "a")
	assert.Equal(t, 600, report.PropertyIncome)
	assert.Equal(t, 600, report.MonopolyBonus)
	assert.Equal(t, 1200, report.TotalIncome)
}

func TestYearEndIncome(t *testing.T) {
	s := newState()
	s, _ = BuyProperty(s, "a", "p1")
	s.Players[1].IncomeMultiplier = 2
	s, _ = BuyProperty(s, "b", "p3")

	next, reports := YearEndIncome(s)
	require.Len(t, reports, 2)
	assert.Equal(t, 9200, next.Players[0].Money)
	assert.Equal(t, 9500+240, next.Players[1].Money, "kyoto monopoly doubled, then x2")
	assert.Equal(t, 1.0, next.Players[1].IncomeMultiplier)
	assertAssetsInvariant(t, next)
}

func TestSellPropertyForcibly(t *testing.T) {
	s := newState()
	s, _ = BuyProperty(s, "a", "p1")
	s, _, _ = UpgradeProperty(s, "a", "p1")

	next, refund := SellPropertyForcibly(s, "a", "p1")
	assert.Equal(t, 500, refund)
	assert.Equal(t, "", next.Properties[0].OwnerID)
	assert.Equal(t, 0, next.Properties[0].Level)
	assertAssetsInvariant(t, next)

	same, refund := SellPropertyForcibly(s, "b", "p1")
	assert.Zero(t, refund)
	assert.Equal(t, s, same)
}

func TestLiquidateCheapestFirst(t *testing.T) {
	s := newState()
	s, _ = BuyProperty(s, "a", "p1")
	s, _ = BuyProperty(s, "a", "p3")
	s.Players[0].Money = 0
	s.RecomputeAssets()

	next, sold := Liquidate(s, "a", 600)
	assert.Equal(t, []string{"p3", "p1"}, sold)
	assert.Equal(t, 750, next.Players[0].Money)

	next, sold = Liquidate(s, "a", 100)
	assert.Equal(t, []string{"p3"}, sold)
	assert.Equal(t, 250, next.Players[0].Money)
}

func TestStandings(t *testing.T) {
	s := newState()
	s.Players[1].Money = 20000
	s.RecomputeAssets()

	st := Standings(s)
	assert.Equal(t, "b", st[0].PlayerID)
	assert.Equal(t, 1, st[0].Rank)
	assert.Equal(t, 2, st[1].Rank)
}

func TestEndToEndYearEnd(t *testing.T) {
	s := models.GameState{
		Players: []models.Player{{ID: "A", Money: 10000}, {ID: "B", Money: 10000}},
		Properties: []models.Property{
			{ID: "x", CityID: "c1", Price: 1000, Income: 200},
			{ID: "y", CityID: "c1", Price: 800, Income: 100},
		},
	}
	s.RecomputeAssets()

	s, err := BuyProperty(s, "A", "x")
	require.NoError(t, err)
	assert.Equal(t, 9000, s.Players[0].Money)
	assert.Equal(t, 10000, s.Players[0].TotalAssets)

	s, _ = YearEndIncome(s)
	assert.Equal(t, 9200, s.Players[0].Money)
	assert.Equal(t, 10000, s.Players[1].Money)
}
