package game

import (
	"go.uber.org/zap"

	"github.com/cardnet/cardnet-server-go/internal/world"
)

// moveToGraveyard routes a card to its owner's graveyard: combat and status
// markers are stripped, a minion's health snaps back to max (graveyard cards
// stay fresh for reanimation effects), and the death is announced with the
// fully revealed card. Graveyards are public zones, so death reveals a card
// even if it died while hidden in hand.
func (e *Engine) moveToGraveyard(card world.Entity) {
	if !e.w.Exists(card) {
		return
	}
	owner, ok := e.w.Owners[card]
	if !ok {
		e.log.Warn("card without owner routed to graveyard, despawning",
			zap.Int("card", int(card)),
		)
		e.w.Despawn(card)
		return
	}
	grave, ok := e.w.Graveyards[owner]
	if !ok {
		e.log.Warn("owner has no graveyard, despawning card",
			zap.Int("card", int(card)),
			zap.Int("owner", int(owner)),
		)
		e.w.Despawn(card)
		return
	}

	e.w.Unmark(card, world.Tapped)
	e.w.Unmark(card, world.Attacking)
	e.w.Unmark(card, world.SummoningSickness)

	if info := e.w.Cards[card]; info != nil && info.Type == world.CardMinion {
		info.Health = info.MaxHealth
	}

	e.w.SetLocation(card, world.LocGraveyard)
	grave.Cards = append(grave.Cards, card)

	e.emit(EventCardDied, CardDiedPayload{
		CardID:  card,
		OwnerID: owner,
		Card:    e.visibleCardView(card),
	})
}
