package bombee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kekopoly/dentetsu/internal/game/economy"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/rng"
)

// fixedSource replays scripted values; Intn returns its values modulo n
type fixedSource struct {
	ints   []int
	floats []float64
}

func (f *fixedSource) Intn(n int) int {
	if len(f.ints) == 0 {
		return 0
	}
	v := f.ints[0]
	f.ints = f.ints[1:]
	return v % n
}

func (f *fixedSource) Float64() float64 {
	if len(f.floats) == 0 {
		return 0
	}
	v := f.floats[0]
	f.floats = f.floats[1:]
	return v
}

func players(money ...int) models.GameState {
	s := models.GameState{}
	for i, m := range money {
		s.Players = append(s.Players, models.Player{ID: string(rune('a' + i)), Money: m, Debuff: models.DebuffNone})
	}
	s.RecomputeAssets()
	return s
}

func assertSingleCarrier(t *testing.T, s models.GameState) {
	t.Helper()
	n := 0
	for _, p := range s.Players {
		if p.HasDebuff() {
			n++
		}
	}
	assert.LessOrEqual(t, n, 1)
}

func TestAttachToPoorest(t *testing.T) {
	s := players(50000, 1000)
	next, id := Attach(s)
	assert.Equal(t, "b", id)
	assert.Equal(t, models.DebuffMini, next.Players[1].Debuff)
	assert.Equal(t, models.DebuffNone, s.Players[1].Debuff, "input untouched")

	again, id := Attach(next)
	assert.Empty(t, id)
	assert.Equal(t, next, again)
}

func TestAttachSinglePlayer(t *testing.T) {
	s := players(1000)
	next, id := Attach(s)
	assert.Empty(t, id)
	assert.False(t, next.Players[0].HasDebuff())

	_, res := Act(s, rng.New(1))
	assert.Equal(t, ActionNoCarrier, res.Action)
}

func TestAttachSkipsImmune(t *testing.T) {
	s := players(50000, 1000, 3000)
	s.Players[1].ImmunityYears = 2
	next, id := Attach(s)
	assert.Equal(t, "c", id)
	assert.False(t, next.Players[1].HasDebuff())

	// everyone immune: nominal last place
	s.Players[0].ImmunityYears = 1
	s.Players[2].ImmunityYears = 1
	_, id = Attach(s)
	assert.Equal(t, "b", id)
}

func TestDecrementImmunity(t *testing.T) {
	s := players(100, 100)
	s.Players[0].ImmunityYears = 3
	next := DecrementImmunity(s)
	assert.Equal(t, 2, next.Players[0].ImmunityYears)
	assert.Equal(t, 0, next.Players[1].ImmunityYears)
	assert.Equal(t, 3, s.Players[0].ImmunityYears)
}

func TestActAttachesFirst(t *testing.T) {
	s := players(5000, 4000)
	next, res := Act(s, rng.New(1))
	assert.Equal(t, ActionAttach, res.Action)
	assert.Equal(t, "b", res.PlayerID)
	assert.Equal(t, 4000, next.Players[1].Money, "attaching takes nothing")
}

func TestMiniStealAndEvolution(t *testing.T) {
	s := players(1000, 5000)
	s.Players[0].Debuff = models.DebuffMini
	s.Players[0].DebuffTurns = 3

	// r = 0.05 + 0.5*0.1 = 0.10 -> 100, migration roll 0.9 stays
	src := &fixedSource{floats: []float64{0.5, 0.9}}
	next, res := Act(s, src)
	assert.Equal(t, ActionSteal, res.Action)
	assert.Equal(t, 100, res.Amount)
	assert.Equal(t, 900, next.Players[0].Money)
	assert.Equal(t, 4, next.Players[0].DebuffTurns)
	assert.False(t, res.Evolved)

	// fifth step evolves to normal and keeps counting; 50% roll fails -> steal
	src = &fixedSource{floats: []float64{0.9, 0.0, 0.9}}
	next, res = Act(next, src)
	assert.True(t, res.Evolved)
	assert.Equal(t, models.DebuffNormal, next.Players[0].Debuff)
	assert.Equal(t, 5, next.Players[0].DebuffTurns)
	assert.Equal(t, 500, res.Amount, "minimum of the normal tier")
}

func TestStealCappedAtMoney(t *testing.T) {
	s := players(40, 5000)
	s.Players[0].Debuff = models.DebuffMini
	next, res := Act(s, &fixedSource{floats: []float64{0.1, 0.9}})
	assert.Equal(t, 40, res.Amount)
	assert.Equal(t, 0, next.Players[0].Money)
}

func TestNormalForceSell(t *testing.T) {
	s := players(1000, 50000)
	s.Properties = []models.Property{{ID: "p", CityID: "x", Price: 1000, OwnerID: "a", Level: 1, UpgradeIncomes: []int{10}}}
	s.RecomputeAssets()
	s.Players[0].Debuff = models.DebuffNormal
	s.Players[0].DebuffTurns = 6

	next, res := Act(s, &fixedSource{floats: []float64{0.1, 0.9}})
	assert.Equal(t, ActionForceSell, res.Action)
	assert.Equal(t, 300, res.Amount)
	assert.Equal(t, 1700, next.Players[0].Money)
	assert.Equal(t, "", next.Properties[0].OwnerID)
	assert.Equal(t, 0, next.Properties[0].Level)
	assert.Equal(t, 1700, next.Players[0].TotalAssets)

	// no property: falls through to the steal
	bare := players(10000, 50000)
	bare.Players[0].Debuff = models.DebuffNormal
	_, res = Act(bare, &fixedSource{floats: []float64{0.1, 0.5, 0.9}})
	assert.Equal(t, ActionSteal, res.Action)
	assert.InDelta(t, 3000, res.Amount, 1)
}

func TestKingBranches(t *testing.T) {
	base := players(10000, 50000)
	base.Properties = []models.Property{
		{ID: "p1", CityID: "x", Price: 1000, OwnerID: "a"},
		{ID: "p2", CityID: "x", Price: 2000, OwnerID: "a"},
	}
	base.Players[0].Debuff = models.DebuffKing
	base.Players[0].DebuffTurns = 12
	base.RecomputeAssets()
	before := base.Players[0].TotalAssets

	// mass sale: both sold, assets fall by twice the 30% loss
	next, res := Act(base, &fixedSource{ints: []int{0, 0, 0}, floats: []float64{0.9}})
	require.Equal(t, ActionMassSell, res.Action)
	assert.ElementsMatch(t, []string{"p1", "p2"}, res.PropertyIDs)
	assert.Equal(t, before-2*900, next.Players[0].TotalAssets)
	assert.Empty(t, economy.OwnedBy(next, "a"))

	// tax everyone
	next, res = Act(base, &fixedSource{ints: []int{1}, floats: []float64{0.9}})
	require.Equal(t, ActionTaxAll, res.Action)
	assert.Equal(t, 1000, res.Taxed["a"])
	assert.Equal(t, 5000, res.Taxed["b"])
	assert.Equal(t, 9000, next.Players[0].Money)

	// steal: r = 0.4 + 0.5*0.2 = 0.5
	next, res = Act(base, &fixedSource{ints: []int{2}, floats: []float64{0.5, 0.9}})
	require.Equal(t, ActionSteal, res.Action)
	assert.InDelta(t, 5000, res.Amount, 1)
	assert.Equal(t, 10000-res.Amount, next.Players[0].Money)

	// mass sale without property falls through to the steal minimum
	bare := players(3000, 50000)
	bare.Players[0].Debuff = models.DebuffKing
	next, res = Act(bare, &fixedSource{ints: []int{0}, floats: []float64{0.0, 0.9}})
	assert.Equal(t, ActionSteal, res.Action)
	assert.Equal(t, 2000, res.Amount)
	assert.Equal(t, 1000, next.Players[0].Money)
}

func TestMigrationToLastPlace(t *testing.T) {
	s := players(20000, 500, 9000)
	s.Players[0].Debuff = models.DebuffNormal
	s.Players[0].DebuffTurns = 7

	// steal then migrate (roll 0.1 < 0.75)
	next, res := Act(s, &fixedSource{floats: []float64{0.9, 0.0, 0.1}})
	assert.Equal(t, "b", res.MigratedTo)
	assert.Equal(t, models.DebuffNormal, next.Players[1].Debuff)
	assert.Equal(t, 0, next.Players[1].DebuffTurns)
	assert.False(t, next.Players[0].HasDebuff())
	assertSingleCarrier(t, next)

	// immune last place is skipped for the next poorest
	s.Players[1].ImmunityYears = 1
	next, res = Act(s, &fixedSource{floats: []float64{0.9, 0.0, 0.1}})
	assert.Equal(t, "c", res.MigratedTo)
	assertSingleCarrier(t, next)

	// roll above 0.75 stays
	s.Players[1].ImmunityYears = 0
	_, res = Act(s, &fixedSource{floats: []float64{0.9, 0.0, 0.8}})
	assert.Empty(t, res.MigratedTo)
}

func TestActKeepsInvariantsOverManySteps(t *testing.T) {
	s := players(10000, 10000, 10000)
	s.Properties = []models.Property{
		{ID: "p1", CityID: "x", Price: 1000, OwnerID: "a"},
		{ID: "p2", CityID: "y", Price: 3000, OwnerID: "b"},
		{ID: "p3", CityID: "y", Price: 2000, OwnerID: "c"},
	}
	s.RecomputeAssets()
	src := rng.New(99)
	for i := 0; i < 200; i++ {
		s, _ = Act(s, src)
		assertSingleCarrier(t, s)
		for _, p := range s.Players {
			assert.GreaterOrEqual(t, p.Money, 0)
			assert.Equal(t, p.Money+economy.OwnedPriceTotal(s, p.ID), p.TotalAssets)
		}
	}
}
