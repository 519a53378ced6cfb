package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/rng"
)

type stubSource struct{ f float64 }

func (s stubSource) Intn(n int) int   { return 0 }
func (s stubSource) Float64() float64 { return s.f }

func state(money ...int) models.GameState {
	s := models.GameState{Month: 1}
	for i, m := range money {
		s.Players = append(s.Players, models.Player{ID: string(rune('a' + i)), Money: m})
	}
	s.RecomputeAssets()
	return s
}

var catalogue = []models.GameEvent{
	{ID: "gift", Category: models.EventCategoryYearly, Effect: models.Effect{Kind: catalog.EventMoneyGain, Value: 500, Target: catalog.TargetAll}},
	{ID: "typhoon", Category: models.EventCategoryMonthly, Month: 9, Effect: models.Effect{Kind: catalog.EventMoneyPay, Value: 300, Target: catalog.TargetAll}},
	{ID: "lottery", Category: models.EventCategoryRandom, Probability: 0.05, Effect: models.Effect{Kind: catalog.EventMoneyGain, Value: 3000, Target: catalog.TargetPoorest}},
}

func ids(list []models.GameEvent) []string {
	var out []string
	for _, ev := range list {
		out = append(out, ev.ID)
	}
	return out
}

func TestDue(t *testing.T) {
	never := stubSource{f: 0.99}
	always := stubSource{f: 0.0}

	assert.Equal(t, []string{"gift"}, ids(Due(catalogue, 1, true, never)))
	assert.Empty(t, Due(catalogue, 1, false, never))
	assert.Equal(t, []string{"typhoon"}, ids(Due(catalogue, 9, false, never)))
	assert.Equal(t, []string{"gift", "lottery"}, ids(Due(catalogue, 1, true, always)))
}

func TestApplyTargets(t *testing.T) {
	s := state(1000, 200, 5000)

	next, fired := Apply(s, catalogue[0])
	assert.Equal(t, []int{1500, 700, 5500}, []int{next.Players[0].Money, next.Players[1].Money, next.Players[2].Money})
	assert.Len(t, fired.Deltas, 3)

	next, fired = Apply(s, catalogue[2])
	assert.Equal(t, 3200, next.Players[1].Money)
	assert.Equal(t, map[string]int{"b": 3000}, fired.Deltas)

	audit := models.GameEvent{ID: "audit", Effect: models.Effect{Kind: catalog.EventMoneyPercent, Value: -10, Target: catalog.TargetRichest}}
	next, fired = Apply(s, audit)
	assert.Equal(t, 4500, next.Players[2].Money)
	assert.Equal(t, -500, fired.Deltas["c"])
	assert.Equal(t, 5000, s.Players[2].Money, "input untouched")
}

func TestPayNeverBelowZero(t *testing.T) {
	s := state(100, 1000)
	next, fired := Apply(s, catalogue[1])
	assert.Equal(t, 0, next.Players[0].Money)
	assert.Equal(t, -100, fired.Deltas["a"])
	assert.Equal(t, 700, next.Players[1].Money)
	for _, p := range next.Players {
		assert.Equal(t, p.Money, p.TotalAssets)
	}
}

func TestPercentFloors(t *testing.T) {
	s := state(1234)
	bonus := models.GameEvent{Effect: models.Effect{Kind: catalog.EventMoneyPercent, Value: 5, Target: catalog.TargetAll}}
	next, _ := Apply(s, bonus)
	assert.Equal(t, 1234+61, next.Players[0].Money)
}

func TestFireOnDefaultCatalog(t *testing.T) {
	content, err := catalog.Default()
	require.NoError(t, err)

	s := state(10000, 10000)
	s.Month = 9
	next, fired := Fire(s, content.Events, false, stubSource{f: 0.99})
	require.Len(t, fired, 1)
	assert.Equal(t, "typhoon", fired[0].EventID)
	assert.Equal(t, 9700, next.Players[0].Money)

	// deterministic with a seeded source
	a, fa := Fire(s, content.Events, true, rng.New(5))
	b, fb := Fire(s, content.Events, true, rng.New(5))
	assert.Equal(t, a, b)
	assert.Equal(t, fa, fb)
}
