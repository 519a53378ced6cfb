// Package turn drives a game one turn at a time.
//
// A turn runs card use, dice roll, movement with junction choices, the
// landing square, the debuff step and, when the round closes, the calendar.
// Every decision of a human player is asked from a Driver; CPU players decide
// through the cpu engine. The caller's state is never modified: PlayTurn
// returns the state after the turn, or the input state with an error.
//
// The calendar moves once per round, not per turn: the month advances (and
// year end settles) only after the last seat has played.
package turn

import (
	"context"

	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/game/bombee"
	"github.com/kekopoly/dentetsu/internal/game/cards"
	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/cpu"
	"github.com/kekopoly/dentetsu/internal/game/destination"
	"github.com/kekopoly/dentetsu/internal/game/economy"
	"github.com/kekopoly/dentetsu/internal/game/events"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/outcome"
	"github.com/kekopoly/dentetsu/internal/game/rng"
)

// DefaultShopOfferSize is the number of cards a shop offers
const DefaultShopOfferSize = 4

// Options tunes the orchestrator
type Options struct {
	ShopOfferSize int
}

// Orchestrator plays turns against one content catalog and one source of
// randomness
type Orchestrator struct {
	content  *catalog.Content
	resolver *cards.Resolver
	cpu      *cpu.Engine
	src      rng.Source
	logger   *zap.SugaredLogger
	opts     Options
}

// New creates an orchestrator. Every random draw of the games it plays comes
// from src.
func New(content *catalog.Content, src rng.Source, logger *zap.SugaredLogger, opts Options) *Orchestrator {
	if opts.ShopOfferSize <= 0 {
		opts.ShopOfferSize = DefaultShopOfferSize
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		content:  content,
		resolver: cards.NewResolver(content, src),
		cpu:      cpu.New(content, src),
		src:      src,
		logger:   logger,
		opts:     opts,
	}
}

// Content returns the catalog the orchestrator plays with
func (o *Orchestrator) Content() *catalog.Content {
	return o.content
}

// play is one turn in progress
type play struct {
	o      *Orchestrator
	ctx    context.Context
	driver Driver
	state  models.GameState
	idx    int
	tc     Context
	report *Report
}

// PlayTurn plays the turn of the current player.
func (o *Orchestrator) PlayTurn(ctx context.Context, state models.GameState, driver Driver) (models.GameState, *Report, error) {
	if state.Phase == models.PhaseGameOver {
		return state, nil, outcome.ErrGameOver
	}
	current := state.CurrentPlayer()
	if current == nil {
		return state, nil, outcome.New(outcome.CodeNotFound, "no player at seat %d", state.CurrentPlayerIndex)
	}
	if err := ctx.Err(); err != nil {
		return state, nil, err
	}
	if driver == nil {
		driver = NewPlanDriver(Plan{})
	}

	pl := &play{
		o:      o,
		ctx:    ctx,
		driver: driver,
		state:  state.Clone(),
		idx:    state.CurrentPlayerIndex,
		report: &Report{
			GameID:   state.ID,
			PlayerID: current.ID,
			Turn:     state.Turn,
			Year:     state.Year,
			Month:    state.Month,
		},
	}

	moved, err := pl.useCard()
	if err != nil {
		return state, nil, err
	}
	if !moved {
		if err := pl.rollAndMove(); err != nil {
			return state, nil, err
		}
	}
	if err := pl.land(); err != nil {
		return state, nil, err
	}
	pl.debuff()
	pl.endTurn()

	for _, ev := range pl.report.Events {
		driver.Notify(ctx, ev)
	}
	return pl.state, pl.report, nil
}

func (pl *play) player() *models.Player {
	return &pl.state.Players[pl.idx]
}

func (pl *play) enter(phase models.Phase) {
	pl.state.Phase = phase
	pl.o.logger.Debugw("Turn phase",
		"gameId", pl.state.ID,
		"playerId", pl.player().ID,
		"turn", pl.state.Turn,
		"phase", phase,
	)
}

func (pl *play) emit(typ EventType, data interface{}) {
	pl.report.Events = append(pl.report.Events, Event{
		Type:     typ,
		Phase:    pl.state.Phase,
		PlayerID: pl.player().ID,
		Data:     data,
	})
}

// useCard plays the chosen card. It reports whether the card moved the
// player, in which case the dice are not rolled.
func (pl *play) useCard() (bool, error) {
	pl.enter(models.PhaseCardUse)
	id := pl.player().ID
	if len(pl.player().Hand) == 0 {
		return false, nil
	}

	var choice CardChoice
	var ok bool
	if pl.player().IsCPU() {
		var decided cpu.Play
		decided, ok = pl.o.cpu.ChooseCard(pl.state, id)
		choice = CardChoice{CardID: decided.CardID, Target: decided.Target}
	} else {
		var err error
		choice, ok, err = pl.driver.ChooseCard(pl.ctx, pl.state, id)
		if err != nil {
			return false, err
		}
	}
	if !ok {
		return false, nil
	}

	next, res, err := pl.o.resolver.UseCard(pl.state, id, choice.CardID, choice.Target)
	if err != nil {
		if pl.player().IsCPU() {
			pl.emit(EventCardRejected, outcome.CodeOf(err))
			return false, nil
		}
		return false, err
	}
	pl.state = next
	pl.emit(EventCardUsed, res)
	pl.tc.PendingDiceBonus += res.DiceBonus
	if res.Moved {
		pl.report.Path = append(pl.report.Path, res.Path...)
		pl.emit(EventMoved, res.Path)
	}
	return res.Moved, nil
}

func (pl *play) rollAndMove() error {
	pl.enter(models.PhaseDiceRoll)
	p := pl.player()
	roll := RollData{
		Die:        rng.RollD6(pl.o.src),
		Bonus:      pl.tc.PendingDiceBonus,
		Multiplier: p.EffectiveDiceMultiplier(),
	}
	roll.Total = (roll.Die + roll.Bonus) * roll.Multiplier
	pl.tc.PendingDiceBonus = 0
	p.DiceMultiplier = 1
	pl.report.Roll = roll.Total
	pl.emit(EventDiceRolled, roll)

	pl.enter(models.PhaseMoving)
	pl.tc.CardDrawnThisMove = false
	b := pl.o.content.Board
	cameFrom := ""
	var path []string
	for step := 0; step < roll.Total; step++ {
		pos := pl.player().Position
		options := b.ForwardOptions(pos, cameFrom)
		if len(options) == 0 {
			break
		}
		next := options[0]
		if len(options) > 1 {
			pl.enter(models.PhaseJunction)
			choice, err := pl.chooseRoute(options)
			if err != nil {
				return err
			}
			next = choice
			pl.enter(models.PhaseMoving)
		}

		route, _ := b.RouteBetween(pos, next)
		p := pl.player()
		p.PreviousCity, p.Position = pos, next
		cameFrom = pos
		path = append(path, next)
		if b.HasCardSquare(route.ID) {
			pl.drawCard()
		}
	}
	pl.report.Path = append(pl.report.Path, path...)
	pl.emit(EventMoved, path)
	return nil
}

func (pl *play) chooseRoute(options []string) (string, error) {
	id := pl.player().ID
	var choice string
	if pl.player().IsCPU() {
		choice = pl.o.cpu.ChooseRoute(pl.state, id, options)
	} else {
		var err error
		choice, err = pl.driver.ChooseRoute(pl.ctx, pl.state, id, options)
		if err != nil {
			return "", err
		}
	}
	for _, opt := range options {
		if opt == choice {
			return opt, nil
		}
	}
	return options[0], nil
}

// drawCard grants the single draw of a move. A full hand is reported once
// per turn and the draw is not retried.
func (pl *play) drawCard() {
	if pl.tc.CardDrawnThisMove {
		return
	}
	if pl.player().HandFull() {
		if !pl.tc.HandFullReported {
			pl.tc.HandFullReported = true
			pl.emit(EventHandFull, nil)
		}
		return
	}
	next, card, err := cards.DrawInto(pl.state, pl.o.content, pl.o.src, pl.player().ID)
	if err != nil {
		return
	}
	pl.state = next
	pl.tc.CardDrawnThisMove = true
	pl.emit(EventCardDrawn, card.ID)
}

// land resolves the square the player stopped on: destination first, then
// the shop, then every property of the city in catalog order.
func (pl *play) land() error {
	pl.enter(models.PhaseSquareAction)
	id := pl.player().ID
	city := pl.player().Position

	if city == pl.state.DestinationCityID {
		next, arrival, err := destination.Arrive(pl.state, id, pl.o.content.Board.CityIDs(), pl.o.src)
		if err == nil {
			pl.state = next
			pl.emit(EventArrival, arrival)
		}
	}

	if pl.o.content.Board.IsShopCity(city) {
		if err := pl.shop(); err != nil {
			return err
		}
	}

	for _, prop := range economy.PropertiesInCity(pl.state, city) {
		if err := pl.resolveProperty(prop.ID); err != nil {
			return err
		}
	}
	return nil
}

func (pl *play) shop() error {
	offer := cards.ShopOffer(pl.o.content, pl.o.src, pl.o.opts.ShopOfferSize)
	if len(offer) == 0 {
		return nil
	}
	id := pl.player().ID
	var picks []string
	if pl.player().IsCPU() {
		picks = pl.o.cpu.ChooseShopCards(pl.state, id, offer)
	} else {
		var err error
		picks, err = pl.driver.ChooseShopCards(pl.ctx, pl.state, id, offer)
		if err != nil {
			return err
		}
	}

	bought := map[string]bool{}
	for _, pick := range picks {
		if bought[pick] {
			continue
		}
		for _, card := range offer {
			if card.ID != pick {
				continue
			}
			next, err := cards.BuyCard(pl.state, id, card)
			if err != nil {
				break
			}
			pl.state = next
			bought[pick] = true
			pl.emit(EventCardBought, card.ID)
			break
		}
	}
	return nil
}

func (pl *play) resolveProperty(propertyID string) error {
	prop := pl.state.Property(propertyID)
	p := pl.player()
	id := p.ID

	switch prop.OwnerID {
	case "":
		if p.Money < prop.Price {
			return nil
		}
		buy, err := pl.decide(pl.o.cpu.ShouldBuy, pl.driver.ConfirmPurchase, propertyID)
		if err != nil || !buy {
			return err
		}
		next, err := economy.BuyProperty(pl.state, id, propertyID)
		if err != nil {
			return nil
		}
		pl.state = next
		pl.emit(EventPropertyBought, PropertyData{PropertyID: propertyID, OwnerID: id, Amount: prop.Price})
	case id:
		cost, ok := economy.NextUpgradeCost(*prop)
		if !ok || p.Money < cost {
			return nil
		}
		upgrade, err := pl.decide(pl.o.cpu.ShouldUpgrade, pl.driver.ConfirmUpgrade, propertyID)
		if err != nil || !upgrade {
			return err
		}
		next, res, err := economy.UpgradeProperty(pl.state, id, propertyID)
		if err != nil || !res.Success {
			return nil
		}
		pl.state = next
		pl.emit(EventPropertyUpgraded, PropertyData{PropertyID: propertyID, OwnerID: id, Amount: res.Cost, Level: res.Level})
	default:
		return pl.payRent(*prop)
	}
	return nil
}

func (pl *play) decide(
	cpuFn func(models.GameState, string, string) bool,
	humanFn func(context.Context, models.GameState, string, string) (bool, error),
	propertyID string,
) (bool, error) {
	id := pl.player().ID
	if pl.player().IsCPU() {
		return cpuFn(pl.state, id, propertyID), nil
	}
	return humanFn(pl.ctx, pl.state, id, propertyID)
}

// payRent charges the land fee. A player short of money sells first: CPU
// players cheapest first until solvent, humans what their driver picks.
func (pl *play) payRent(prop models.Property) error {
	id := pl.player().ID
	fee := economy.LandFee(prop)

	if pl.player().Money < fee {
		var sell []string
		if pl.player().IsCPU() {
			var next models.GameState
			next, sell = economy.Liquidate(pl.state, id, fee)
			for _, sold := range sell {
				pl.emit(EventPropertySold, PropertyData{PropertyID: sold, Amount: pl.state.Property(sold).Price / 2})
			}
			pl.state = next
		} else {
			var err error
			sell, err = pl.driver.ResolveDebt(pl.ctx, pl.state, id, fee)
			if err != nil {
				return err
			}
			for _, propertyID := range sell {
				next, refund := economy.SellPropertyForcibly(pl.state, id, propertyID)
				if refund == 0 {
					continue
				}
				pl.state = next
				pl.emit(EventPropertySold, PropertyData{PropertyID: propertyID, Amount: refund})
			}
		}
	}

	next, res, err := economy.PayLandFee(pl.state, id, prop.ID)
	if err != nil {
		return err
	}
	pl.state = next
	if res.OwnerID != "" {
		pl.emit(EventRentPaid, PropertyData{PropertyID: prop.ID, OwnerID: res.OwnerID, Amount: res.Paid})
	}
	return nil
}

func (pl *play) debuff() {
	pl.enter(models.PhaseDebuffAction)
	next, res := bombee.Act(pl.state, pl.o.src)
	pl.state = next
	if res.Action != bombee.ActionNoCarrier {
		pl.emit(EventDebuff, res)
	}
}

// endTurn passes the turn on; the calendar moves once every seat has played.
func (pl *play) endTurn() {
	s := &pl.state
	s.Turn++
	s.CurrentPlayerIndex = (pl.idx + 1) % len(s.Players)
	if s.CurrentPlayerIndex == 0 {
		pl.advanceMonth()
	}
	if s.Phase != models.PhaseGameOver {
		s.Phase = models.PhaseCardUse
	}
}

func (pl *play) advanceMonth() {
	yearStart := false
	if pl.state.Month >= 12 {
		pl.enter(models.PhaseYearEnd)
		next, income := economy.YearEndIncome(pl.state)
		pl.state = bombee.DecrementImmunity(next)
		pl.emit(EventYearEnd, CalendarData{Year: pl.state.Year, Month: pl.state.Month, Income: income})

		if pl.state.Year+1 > pl.state.TotalYears {
			pl.state.Phase = models.PhaseGameOver
			pl.report.GameOver = true
			pl.report.Standings = economy.Standings(pl.state)
			pl.emit(EventGameOver, pl.report.Standings)
			pl.o.logger.Infow("Game over",
				"gameId", pl.state.ID,
				"winner", pl.report.Standings[0].PlayerID,
				"turns", pl.state.Turn,
			)
			return
		}
		pl.state.Year++
		pl.state.Month = 1
		yearStart = true
	} else {
		pl.state.Month++
	}
	pl.emit(EventMonthAdvanced, CalendarData{Year: pl.state.Year, Month: pl.state.Month})

	next, fired := events.Fire(pl.state, pl.o.content.Events, yearStart, pl.o.src)
	pl.state = next
	for _, f := range fired {
		pl.emit(EventGameEvent, f)
	}
}
