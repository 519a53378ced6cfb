package turn

import (
	"github.com/kekopoly/dentetsu/internal/game/economy"
	"github.com/kekopoly/dentetsu/internal/game/models"
)

// EventType names a narrated turn event
type EventType string

const (
	EventCardUsed         EventType = "card_used"
	EventCardRejected     EventType = "card_rejected"
	EventDiceRolled       EventType = "dice_rolled"
	EventMoved            EventType = "moved"
	EventCardDrawn        EventType = "card_drawn"
	EventHandFull         EventType = "hand_full"
	EventArrival          EventType = "destination_arrival"
	EventCardBought       EventType = "card_bought"
	EventPropertyBought   EventType = "property_bought"
	EventRentPaid         EventType = "rent_paid"
	EventPropertyUpgraded EventType = "property_upgraded"
	EventPropertySold     EventType = "property_sold"
	EventDebuff           EventType = "debuff"
	EventMonthAdvanced    EventType = "month_advanced"
	EventGameEvent        EventType = "game_event"
	EventYearEnd          EventType = "year_end"
	EventGameOver         EventType = "game_over"
)

// Event is one narrated step of a turn
type Event struct {
	Type     EventType    `json:"type"`
	Phase    models.Phase `json:"phase"`
	PlayerID string       `json:"playerId,omitempty"`
	Data     interface{}  `json:"data,omitempty"`
}

// Context carries the per-turn flags that live only while a turn is played
type Context struct {
	PendingDiceBonus  int
	CardDrawnThisMove bool
	HandFullReported  bool
}

// Report summarises a played turn
type Report struct {
	GameID    string             `json:"gameId"`
	PlayerID  string             `json:"playerId"`
	Turn      int                `json:"turn"`
	Year      int                `json:"year"`
	Month     int                `json:"month"`
	Roll      int                `json:"roll"`
	Path      []string           `json:"path,omitempty"`
	Events    []Event            `json:"events"`
	GameOver  bool               `json:"gameOver"`
	Standings []economy.Standing `json:"standings,omitempty"`
}

// RollData is the payload of a dice_rolled event
type RollData struct {
	Die        int `json:"die"`
	Bonus      int `json:"bonus"`
	Multiplier int `json:"multiplier"`
	Total      int `json:"total"`
}

// PropertyData is the payload of property events
type PropertyData struct {
	PropertyID string `json:"propertyId"`
	OwnerID    string `json:"ownerId,omitempty"`
	Amount     int    `json:"amount"`
	Level      int    `json:"level,omitempty"`
}

// CalendarData is the payload of month_advanced and year_end events
type CalendarData struct {
	Year   int                    `json:"year"`
	Month  int                    `json:"month"`
	Income []economy.IncomeReport `json:"income,omitempty"`
}
