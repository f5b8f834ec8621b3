package game

import (
	"github.com/cardnet/cardnet-server-go/internal/game/mana"
	"github.com/cardnet/cardnet-server-go/internal/world"
)

// cardTemplate is a deck-list entry. Cards are minted from templates once at
// deck build; after that only a card's runtime health and markers change.
type cardTemplate struct {
	name     string
	cardType world.CardType
	count    int
	cost     mana.Cost
	produces mana.Color
	attack   int
	health   int
	effect   *world.SpellEffect
}

// deckList is the fixed deck every seat plays. There is no deck import or
// collection management.
var deckList = []cardTemplate{
	{name: "Plains", cardType: world.CardLand, count: 15, produces: mana.White},
	{name: "Goblin", cardType: world.CardMinion, count: 8, cost: mana.Cost{"W": 1}, attack: 1, health: 1},
	{name: "Knight", cardType: world.CardMinion, count: 4, cost: mana.Cost{"W": 2, mana.GenericKey: 1}, attack: 3, health: 3},
	{name: "Fireball", cardType: world.CardSpell, count: 3, cost: mana.Cost{"W": 1, mana.GenericKey: 3},
		effect: &world.SpellEffect{Kind: world.EffectDealDamage, Value: 6, RequiresTarget: true}},
}

// buildDeck mints the deck list for one player and returns the card handles
// in list order; the caller shuffles.
func (e *Engine) buildDeck(w *world.World, owner world.Entity) []world.Entity {
	var cards []world.Entity
	for _, tpl := range deckList {
		for i := 0; i < tpl.count; i++ {
			card := w.Spawn()
			info := &world.CardInfo{
				Name:     tpl.name,
				Type:     tpl.cardType,
				Cost:     tpl.cost,
				Produces: tpl.produces,
			}
			if tpl.cardType == world.CardMinion {
				info.Attack = tpl.attack
				info.Health = tpl.health
				info.MaxHealth = tpl.health
			}
			w.Cards[card] = info
			w.Owners[card] = owner
			w.SetLocation(card, world.LocDeck)
			if tpl.effect != nil {
				effect := *tpl.effect
				w.Effects[card] = &effect
			}
			cards = append(cards, card)
		}
	}
	return cards
}
