package cards

import (
	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/outcome"
	"github.com/kekopoly/dentetsu/internal/game/rng"
)

var (
	rarityOrder   = []models.CardRarity{models.CardRarityCommon, models.CardRarityUncommon, models.CardRarityRare}
	rarityWeights = []int{90, 9, 1}
)

// Draw picks a card from the pool: first a rarity by weight, then a uniform
// card of that rarity. Rarities absent from the pool are never picked.
func Draw(pool []models.Card, src rng.Source) (models.Card, bool) {
	byRarity := make(map[models.CardRarity][]models.Card, len(rarityOrder))
	for _, c := range pool {
		byRarity[c.Rarity] = append(byRarity[c.Rarity], c)
	}
	weights := make([]int, len(rarityOrder))
	for i, r := range rarityOrder {
		if len(byRarity[r]) > 0 {
			weights[i] = rarityWeights[i]
		}
	}
	i := rng.WeightedIndex(src, weights)
	if i < 0 {
		return models.Card{}, false
	}
	group := byRarity[rarityOrder[i]]
	return group[src.Intn(len(group))], true
}

// DrawInto adds a drawn card to the player's hand.
func DrawInto(state models.GameState, content *catalog.Content, src rng.Source, playerID string) (models.GameState, models.Card, error) {
	p := state.Player(playerID)
	if p == nil {
		return state, models.Card{}, outcome.New(outcome.CodeNotFound, "player %s", playerID)
	}
	if p.HandFull() {
		return state, models.Card{}, outcome.ErrHandFull
	}
	card, ok := Draw(content.Cards, src)
	if !ok {
		return state, models.Card{}, outcome.New(outcome.CodeNoTarget, "empty card catalog")
	}
	next := state.Clone()
	np := next.Player(playerID)
	np.Hand = append(np.Hand, card.ID)
	return next, card, nil
}

// ShopOffer draws up to size distinct cards from the shop stock.
func ShopOffer(content *catalog.Content, src rng.Source, size int) []models.Card {
	stock := content.ShopCards()
	var offer []models.Card
	for len(offer) < size && len(stock) > 0 {
		card, ok := Draw(stock, src)
		if !ok {
			break
		}
		offer = append(offer, card)
		for i := range stock {
			if stock[i].ID == card.ID {
				stock = append(stock[:i], stock[i+1:]...)
				break
			}
		}
	}
	return offer
}

// BuyCard sells a shop card to the player.
func BuyCard(state models.GameState, playerID string, card models.Card) (models.GameState, error) {
	p := state.Player(playerID)
	if p == nil {
		return state, outcome.New(outcome.CodeNotFound, "player %s", playerID)
	}
	if p.HandFull() {
		return state, outcome.ErrHandFull
	}
	if p.Money < card.Price {
		return state, outcome.New(outcome.CodeNotEnoughMoney, "card %s costs %d", card.ID, card.Price)
	}
	next := state.Clone()
	np := next.Player(playerID)
	np.Money -= card.Price
	np.Hand = append(np.Hand, card.ID)
	next.RecomputeAssets()
	return next, nil
}
