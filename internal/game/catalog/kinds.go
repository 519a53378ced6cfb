package catalog

import "github.com/kekopoly/dentetsu/internal/game/models"

// Card effect kinds
const (
	KindToDestination      = "to_destination"
	KindDoubleMove         = "double_move"
	KindToCity             = "to_city"
	KindTeleport           = "teleport"
	KindSteps              = "steps"
	KindBonus              = "bonus"
	KindFlat               = "flat"
	KindPercentProperty    = "percent_property"
	KindPercentAssets      = "percent_assets"
	KindFromEachOpponent   = "from_each_opponent"
	KindToEachOpponent     = "to_each_opponent"
	KindSellOne            = "sell_one"
	KindSellAllInCity      = "sell_all_in_city"
	KindForceSellOpponent  = "force_sell_opponent"
	KindRichestCheapest    = "richest_cheapest"
	KindCityCheapest       = "city_cheapest"
	KindFreePick           = "free_pick"
	KindCheapestNationwide = "cheapest_nationwide"
	KindDiscountInCity     = "discount_in_city"
	KindBreak              = "break"
	KindRemove             = "remove"
	KindLastToSecond       = "last_to_second"
	KindToOpponent         = "to_opponent"
	KindSteal              = "steal"
	KindUntilSettlement    = "until_settlement"
	KindMonthNow           = "month_now"
)

// Event effect kinds and targets
const (
	EventMoneyGain    = "money_gain"
	EventMoneyPay     = "money_pay"
	EventMoneyPercent = "money_percent"

	TargetAll     = "all"
	TargetRichest = "richest"
	TargetPoorest = "poorest"
)

// CardKinds lists the effect kinds each card type accepts
var CardKinds = map[models.CardType][]string{
	models.CardTypeDestinationMove: {KindToDestination, KindDoubleMove},
	models.CardTypeCityMove:        {KindToCity, KindTeleport},
	models.CardTypeStepMove:        {KindSteps},
	models.CardTypeExtraDice:       {KindBonus},
	models.CardTypeMoneyGain:       {KindFlat, KindPercentProperty, KindFromEachOpponent},
	models.CardTypeMoneyPay:        {KindFlat, KindPercentProperty, KindPercentAssets, KindToEachOpponent},
	models.CardTypePropertySell:    {KindSellOne, KindSellAllInCity, KindForceSellOpponent},
	models.CardTypePropertySteal:   {KindRichestCheapest, KindCityCheapest},
	models.CardTypePropertyBuy:     {KindFreePick, KindCheapestNationwide, KindDiscountInCity},
	models.CardTypeMonopolyBreak:   {KindBreak},
	models.CardTypeDebuffRemove:    {KindRemove},
	models.CardTypeDebuffTransfer:  {KindLastToSecond, KindToOpponent},
	models.CardTypeCardSteal:       {KindSteal},
	models.CardTypeIncomeDouble:    {KindUntilSettlement, KindMonthNow},
}

var eventKinds = []string{EventMoneyGain, EventMoneyPay, EventMoneyPercent}
var eventTargets = []string{TargetAll, TargetRichest, TargetPoorest}

func known(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
