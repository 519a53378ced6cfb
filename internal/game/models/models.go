package models

import (
	"time"
)

// MaxHandSize is the number of cards a player may hold
const MaxHandSize = 8

// GameState represents the complete serialisable state of one game
type GameState struct {
	ID                 string     `bson:"gameId" json:"gameId"`
	Year               int        `bson:"year" json:"year"`
	Month              int        `bson:"month" json:"month"`
	TotalYears         int        `bson:"totalYears" json:"totalYears"`
	Turn               int        `bson:"turn" json:"turn"`
	Phase              Phase      `bson:"phase" json:"phase"`
	CurrentPlayerIndex int        `bson:"currentPlayerIndex" json:"currentPlayerIndex"`
	DestinationCityID  string     `bson:"destinationCityId" json:"destinationCityId"`
	Players            []Player   `bson:"players" json:"players"`
	Properties         []Property `bson:"properties" json:"properties"`
}

// Player represents a seat in the game, human or CPU controlled
type Player struct {
	ID               string       `bson:"playerId" json:"playerId"`
	Name             string       `bson:"name" json:"name"`
	Kind             ControlKind  `bson:"kind" json:"kind"`
	Difficulty       Difficulty   `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	Money            int          `bson:"money" json:"money"`
	TotalAssets      int          `bson:"totalAssets" json:"totalAssets"`
	Position         string       `bson:"position" json:"position"`
	PreviousCity     string       `bson:"previousCity,omitempty" json:"previousCity,omitempty"`
	Hand             []string     `bson:"hand" json:"hand"`
	Debuff           DebuffKind   `bson:"debuff" json:"debuff"`
	DebuffTurns      int          `bson:"debuffTurns" json:"debuffTurns"`
	ImmunityYears    int          `bson:"immunityYears" json:"immunityYears"`
	IncomeMultiplier float64      `bson:"incomeMultiplier" json:"incomeMultiplier"`
	DiceMultiplier   int          `bson:"diceMultiplier" json:"diceMultiplier"`
	Status           PlayerStatus `bson:"status" json:"status"`
}

// Property represents a purchasable property located in a city
type Property struct {
	ID             string `bson:"propertyId" json:"propertyId" validate:"required"`
	CityID         string `bson:"cityId" json:"cityId" validate:"required"`
	Name           string `bson:"name" json:"name" validate:"required"`
	Price          int    `bson:"price" json:"price" validate:"gt=0"`
	Income         int    `bson:"income" json:"income" validate:"gte=0"`
	UpgradePrices  []int  `bson:"upgradePrices" json:"upgradePrices" validate:"dive,gt=0"`
	UpgradeIncomes []int  `bson:"upgradeIncomes" json:"upgradeIncomes" validate:"dive,gte=0"`
	Level          int    `bson:"level" json:"level"`
	OwnerID        string `bson:"ownerId,omitempty" json:"ownerId,omitempty"`
}

// Card represents an entry of the card catalog
type Card struct {
	ID          string     `bson:"cardId" json:"cardId" validate:"required"`
	Name        string     `bson:"name" json:"name" validate:"required"`
	Type        CardType   `bson:"type" json:"type" validate:"required"`
	Rarity      CardRarity `bson:"rarity" json:"rarity" validate:"oneof=COMMON UNCOMMON RARE"`
	Effect      Effect     `bson:"effect" json:"effect"`
	Description string     `bson:"description" json:"description"`
	Price       int        `bson:"price" json:"price" validate:"gte=0"`
}

// Effect describes what a card or event does
type Effect struct {
	Kind   string `bson:"kind" json:"kind" validate:"required"`
	Value  int    `bson:"value" json:"value"`
	Target string `bson:"target,omitempty" json:"target,omitempty"`
}

// GameEvent represents a calendar or random event from the event catalog
type GameEvent struct {
	ID          string        `bson:"eventId" json:"eventId" validate:"required"`
	Name        string        `bson:"name" json:"name" validate:"required"`
	Category    EventCategory `bson:"category" json:"category" validate:"oneof=MONTHLY YEARLY RANDOM"`
	Month       int           `bson:"month,omitempty" json:"month,omitempty" validate:"gte=0,lte=12"`
	Probability float64       `bson:"probability,omitempty" json:"probability,omitempty" validate:"gte=0,lte=1"`
	Effect      Effect        `bson:"effect" json:"effect"`
}

// City represents a node of the board
type City struct {
	ID     string  `bson:"cityId" json:"cityId" validate:"required"`
	Name   string  `bson:"name" json:"name" validate:"required"`
	Region string  `bson:"region" json:"region"`
	X      float64 `bson:"x" json:"x"`
	Y      float64 `bson:"y" json:"y"`
	Shop   bool    `bson:"shop" json:"shop"`
}

// Route represents an edge of the board between two cities
type Route struct {
	ID      string       `bson:"routeId" json:"routeId" validate:"required"`
	From    string       `bson:"from" json:"from" validate:"required"`
	To      string       `bson:"to" json:"to" validate:"required,nefield=From"`
	Kind    RouteKind    `bson:"kind" json:"kind"`
	Squares []SquareKind `bson:"squares" json:"squares" validate:"dive,oneof=BLANK CARD SHOP"`
}

// SaveEnvelope wraps a game state stored in a save slot
type SaveEnvelope struct {
	SlotID  string    `bson:"slotId" json:"slotId"`
	Version string    `bson:"version" json:"version"`
	SavedAt time.Time `bson:"savedAt" json:"savedAt"`
	State   GameState `bson:"state" json:"state"`
}

// SlotMeta summarises a save slot without its state
type SlotMeta struct {
	SlotID  string    `bson:"slotId" json:"slotId"`
	Version string    `bson:"version" json:"version"`
	SavedAt time.Time `bson:"savedAt" json:"savedAt"`
	GameID  string    `bson:"gameId" json:"gameId"`
	Year    int       `bson:"year" json:"year"`
	Month   int       `bson:"month" json:"month"`
	Players []string  `bson:"players" json:"players"`
}

// Phase represents the step of the turn the game is in
type Phase string

const (
	PhaseCardUse      Phase = "CARD_USE"
	PhaseDiceRoll     Phase = "DICE_ROLL"
	PhaseMoving       Phase = "MOVING"
	PhaseJunction     Phase = "JUNCTION"
	PhaseSquareAction Phase = "SQUARE_ACTION"
	PhaseDebuffAction Phase = "DEBUFF_ACTION"
	PhaseYearEnd      Phase = "YEAR_END"
	PhaseGameOver     Phase = "GAME_OVER"
)

// GameStatus represents the lifecycle status of a hosted game
type GameStatus string

const (
	GameStatusActive    GameStatus = "ACTIVE"
	GameStatusCompleted GameStatus = "COMPLETED"
	GameStatusAbandoned GameStatus = "ABANDONED"
)

// PlayerStatus represents the connection status of a player
type PlayerStatus string

const (
	PlayerStatusActive       PlayerStatus = "ACTIVE"
	PlayerStatusDisconnected PlayerStatus = "DISCONNECTED"
)

// ControlKind says who takes the decisions of a player
type ControlKind string

const (
	ControlHuman ControlKind = "HUMAN"
	ControlCPU   ControlKind = "CPU"
)

// Difficulty represents the CPU skill tier
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyNormal Difficulty = "NORMAL"
	DifficultyHard   Difficulty = "HARD"
)

// DebuffKind represents the tier of the roaming debuff
type DebuffKind string

const (
	DebuffNone   DebuffKind = "NONE"
	DebuffMini   DebuffKind = "MINI"
	DebuffNormal DebuffKind = "NORMAL"
	DebuffKing   DebuffKind = "KING"
)

// CardType represents the closed set of card types
type CardType string

const (
	CardTypeDestinationMove CardType = "DESTINATION_MOVE"
	CardTypeStepMove        CardType = "STEP_MOVE"
	CardTypeCityMove        CardType = "CITY_MOVE"
	CardTypePropertyBuy     CardType = "PROPERTY_BUY"
	CardTypePropertySteal   CardType = "PROPERTY_STEAL"
	CardTypePropertySell    CardType = "PROPERTY_SELL"
	CardTypeMoneyGain       CardType = "MONEY_GAIN"
	CardTypeMoneyPay        CardType = "MONEY_PAY"
	CardTypeDebuffRemove    CardType = "DEBUFF_REMOVE"
	CardTypeDebuffTransfer  CardType = "DEBUFF_TRANSFER"
	CardTypeMonopolyBreak   CardType = "MONOPOLY_BREAK"
	CardTypeCardSteal       CardType = "CARD_STEAL"
	CardTypeExtraDice       CardType = "EXTRA_DICE"
	CardTypeIncomeDouble    CardType = "INCOME_DOUBLE"
)

// CardRarity represents the rarity of a card
type CardRarity string

const (
	CardRarityCommon   CardRarity = "COMMON"
	CardRarityUncommon CardRarity = "UNCOMMON"
	CardRarityRare     CardRarity = "RARE"
)

// EventCategory represents when a game event may fire
type EventCategory string

const (
	EventCategoryMonthly EventCategory = "MONTHLY"
	EventCategoryYearly  EventCategory = "YEARLY"
	EventCategoryRandom  EventCategory = "RANDOM"
)

// RouteKind represents the transport type of a route
type RouteKind string

const (
	RouteKindRail RouteKind = "RAIL"
	RouteKindSea  RouteKind = "SEA"
	RouteKindAir  RouteKind = "AIR"
)

// SquareKind represents a square placed along a route
type SquareKind string

const (
	SquareBlank SquareKind = "BLANK"
	SquareCard  SquareKind = "CARD"
	SquareShop  SquareKind = "SHOP"
)
