// Package catalog loads the static game content: the board, the property
// list, the card catalog and the event catalog. Content is read once and is
// immutable afterwards. Malformed content fails the load.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/kekopoly/dentetsu/internal/game/board"
	"github.com/kekopoly/dentetsu/internal/game/models"
)

//go:embed data/*.json
var embedded embed.FS

const (
	citiesFile     = "cities.json"
	routesFile     = "routes.json"
	propertiesFile = "properties.json"
	cardsFile      = "cards.json"
	eventsFile     = "events.json"
)

// Content is the loaded, validated content of a session
type Content struct {
	Board      *board.Board
	Cities     []models.City
	Routes     []models.Route
	Properties []models.Property
	Cards      []models.Card
	Events     []models.GameEvent

	cardIndex map[string]int
}

// Default loads the content compiled into the binary.
func Default() (*Content, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("embedded content: %w", err)
	}
	return LoadFS(sub)
}

// Load reads the content files from a directory.
func Load(dir string) (*Content, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads and validates the content files from fsys.
func LoadFS(fsys fs.FS) (*Content, error) {
	c := &Content{}
	files := []struct {
		name string
		dst  interface{}
	}{
		{citiesFile, &c.Cities},
		{routesFile, &c.Routes},
		{propertiesFile, &c.Properties},
		{cardsFile, &c.Cards},
		{eventsFile, &c.Events},
	}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.name, err)
		}
		if err := json.Unmarshal(data, f.dst); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", f.name, err)
		}
	}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

// New validates content assembled in memory.
func New(cities []models.City, routes []models.Route, props []models.Property, cards []models.Card, events []models.GameEvent) (*Content, error) {
	c := &Content{Cities: cities, Routes: routes, Properties: props, Cards: cards, Events: events}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Content) init() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid content: %w", err)
	}
	b, err := board.New(c.Cities, c.Routes)
	if err != nil {
		return fmt.Errorf("invalid board: %w", err)
	}
	c.Board = b
	c.cardIndex = make(map[string]int, len(c.Cards))
	for i, card := range c.Cards {
		c.cardIndex[card.ID] = i
	}
	return nil
}

func (c *Content) validate() error {
	v := validator.New()

	if len(c.Cities) == 0 {
		return fmt.Errorf("no cities")
	}
	cities := make(map[string]bool, len(c.Cities))
	for _, city := range c.Cities {
		if err := v.Struct(city); err != nil {
			return fmt.Errorf("city %q: %w", city.ID, err)
		}
		cities[city.ID] = true
	}
	for _, r := range c.Routes {
		if err := v.Struct(r); err != nil {
			return fmt.Errorf("route %q: %w", r.ID, err)
		}
	}

	seen := make(map[string]bool, len(c.Properties))
	for _, p := range c.Properties {
		if err := v.Struct(p); err != nil {
			return fmt.Errorf("property %q: %w", p.ID, err)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate property id %q", p.ID)
		}
		seen[p.ID] = true
		if !cities[p.CityID] {
			return fmt.Errorf("property %q: unknown city %q", p.ID, p.CityID)
		}
		if len(p.UpgradePrices) != len(p.UpgradeIncomes) {
			return fmt.Errorf("property %q: %d upgrade prices but %d upgrade incomes", p.ID, len(p.UpgradePrices), len(p.UpgradeIncomes))
		}
		if p.OwnerID != "" || p.Level != 0 {
			return fmt.Errorf("property %q: catalog entries must be unowned at level 0", p.ID)
		}
	}

	seen = make(map[string]bool, len(c.Cards))
	for _, card := range c.Cards {
		if err := v.Struct(card); err != nil {
			return fmt.Errorf("card %q: %w", card.ID, err)
		}
		if seen[card.ID] {
			return fmt.Errorf("duplicate card id %q", card.ID)
		}
		seen[card.ID] = true
		kinds, ok := CardKinds[card.Type]
		if !ok {
			return fmt.Errorf("card %q: unknown type %q", card.ID, card.Type)
		}
		if !known(kinds, card.Effect.Kind) {
			return fmt.Errorf("card %q: effect %q not valid for %s", card.ID, card.Effect.Kind, card.Type)
		}
		if card.Effect.Kind == KindToCity && !cities[card.Effect.Target] {
			return fmt.Errorf("card %q: unknown target city %q", card.ID, card.Effect.Target)
		}
	}

	for _, ev := range c.Events {
		if err := v.Struct(ev); err != nil {
			return fmt.Errorf("event %q: %w", ev.ID, err)
		}
		if !known(eventKinds, ev.Effect.Kind) {
			return fmt.Errorf("event %q: unknown effect %q", ev.ID, ev.Effect.Kind)
		}
		if !known(eventTargets, ev.Effect.Target) {
			return fmt.Errorf("event %q: unknown target %q", ev.ID, ev.Effect.Target)
		}
		if ev.Category == models.EventCategoryMonthly && ev.Month == 0 {
			return fmt.Errorf("event %q: monthly event without a month", ev.ID)
		}
	}
	return nil
}

// Card looks up a card by id
func (c *Content) Card(id string) (models.Card, bool) {
	i, ok := c.cardIndex[id]
	if !ok {
		return models.Card{}, false
	}
	return c.Cards[i], true
}

// ShopCards returns the cards sold in shops, in catalog order
func (c *Content) ShopCards() []models.Card {
	var out []models.Card
	for _, card := range c.Cards {
		if card.Price > 0 {
			out = append(out, card)
		}
	}
	return out
}

// NewProperties returns a fresh, unowned copy of the property list
func (c *Content) NewProperties() []models.Property {
	s := models.GameState{Properties: c.Properties}
	return s.Clone().Properties
}
