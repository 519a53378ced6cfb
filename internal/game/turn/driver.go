package turn

import (
	"context"

	"github.com/kekopoly/dentetsu/internal/game/cards"
	"github.com/kekopoly/dentetsu/internal/game/models"
)

// CardChoice is a card a player decided to play and its targets
type CardChoice struct {
	CardID string              `json:"cardId" validate:"required"`
	Target cards.TargetContext `json:"target"`
}

// Driver answers the decisions a human player has to take during a turn and
// receives the narration of everything that happens. CPU players never go
// through the driver for decisions but their turns are narrated too.
type Driver interface {
	ChooseCard(ctx context.Context, state models.GameState, playerID string) (CardChoice, bool, error)
	ChooseRoute(ctx context.Context, state models.GameState, playerID string, options []string) (string, error)
	ConfirmPurchase(ctx context.Context, state models.GameState, playerID, propertyID string) (bool, error)
	ConfirmUpgrade(ctx context.Context, state models.GameState, playerID, propertyID string) (bool, error)
	ChooseShopCards(ctx context.Context, state models.GameState, playerID string, offer []models.Card) ([]string, error)
	// ResolveDebt returns the properties to sell before paying what is owed.
	// Selling nothing accepts a partial payment.
	ResolveDebt(ctx context.Context, state models.GameState, playerID string, owed int) ([]string, error)
	Notify(ctx context.Context, ev Event)
}

// Plan is a set of answers given ahead of a turn
type Plan struct {
	Card        *CardChoice `json:"card,omitempty"`
	Routes      []string    `json:"routes,omitempty"`
	Buy         bool        `json:"buy"`
	Upgrade     bool        `json:"upgrade"`
	ShopCards   []string    `json:"shopCards,omitempty"`
	SellForDebt []string    `json:"sellForDebt,omitempty"`
}

// PlanDriver answers from a Plan. Junctions consume Routes in order and fall
// back to the first option when the planned city is not on offer.
type PlanDriver struct {
	Plan   Plan
	Events []Event

	routes int
}

// NewPlanDriver creates a driver answering from plan
func NewPlanDriver(plan Plan) *PlanDriver {
	return &PlanDriver{Plan: plan}
}

func (d *PlanDriver) ChooseCard(_ context.Context, _ models.GameState, _ string) (CardChoice, bool, error) {
	if d.Plan.Card == nil || d.Plan.Card.CardID == "" {
		return CardChoice{}, false, nil
	}
	return *d.Plan.Card, true, nil
}

func (d *PlanDriver) ChooseRoute(_ context.Context, _ models.GameState, _ string, options []string) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	if d.routes < len(d.Plan.Routes) {
		want := d.Plan.Routes[d.routes]
		d.routes++
		for _, opt := range options {
			if opt == want {
				return opt, nil
			}
		}
	}
	return options[0], nil
}

func (d *PlanDriver) ConfirmPurchase(_ context.Context, _ models.GameState, _, _ string) (bool, error) {
	return d.Plan.Buy, nil
}

func (d *PlanDriver) ConfirmUpgrade(_ context.Context, _ models.GameState, _, _ string) (bool, error) {
	return d.Plan.Upgrade, nil
}

func (d *PlanDriver) ChooseShopCards(_ context.Context, _ models.GameState, _ string, offer []models.Card) ([]string, error) {
	var picks []string
	for _, want := range d.Plan.ShopCards {
		for _, card := range offer {
			if card.ID == want {
				picks = append(picks, want)
				break
			}
		}
	}
	return picks, nil
}

func (d *PlanDriver) ResolveDebt(_ context.Context, _ models.GameState, _ string, _ int) ([]string, error) {
	return d.Plan.SellForDebt, nil
}

func (d *PlanDriver) Notify(_ context.Context, ev Event) {
	d.Events = append(d.Events, ev)
}
