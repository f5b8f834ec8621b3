package game

import (
	"go.uber.org/zap"

	"github.com/cardnet/cardnet-server-go/internal/world"
)

// runTurnSystem hands the turn to the next player. The EndTurn command is
// only honored from the current ActiveTurn holder; a stale command that slips
// past intake in the same tick as a turn change is silently dropped.
func (e *Engine) runTurnSystem(cmds []Command) {
	for _, c := range cmds {
		cmd, ok := c.(*EndTurnCommand)
		if !ok {
			continue
		}
		active, hasActive := e.w.ActivePlayer()
		if !hasActive || cmd.Player != active {
			continue
		}
		e.endTurn(active)
	}
}

// endTurn runs the ending player's cleanup, then the incoming player's untap,
// reset and draw.
func (e *Engine) endTurn(active world.Entity) {
	w := e.w

	// Cleanup: damage wears off. Every minion the ending player controls on
	// the board heals back to full.
	for _, card := range w.CardEntities() {
		if w.Owners[card] != active || !w.In(card, world.LocBoard) {
			continue
		}
		info := w.Cards[card]
		if info.Type == world.CardMinion && info.Health < info.MaxHealth {
			e.log.Debug("minion healed at cleanup",
				zap.Int("card", int(card)),
				zap.String("name", info.Name),
				zap.Int("from", info.Health),
				zap.Int("to", info.MaxHealth),
			)
			info.Health = info.MaxHealth
		}
	}

	w.Unmark(active, world.ActiveTurn)
	e.emit(EventTurnEnded, TurnPayload{PlayerID: active})

	next, ok := w.Opponent(active)
	if !ok {
		return
	}
	e.startTurn(next)
}

// startTurn begins the incoming player's turn: untap, clear summoning
// sickness, reset the land drop and mana pool, then draw.
func (e *Engine) startTurn(next world.Entity) {
	w := e.w
	w.Mark(next, world.ActiveTurn)

	for _, card := range w.Marked(world.Tapped) {
		if w.Owners[card] == next && w.In(card, world.LocBoard) {
			w.Unmark(card, world.Tapped)
		}
	}
	for _, card := range w.Marked(world.SummoningSickness) {
		if w.Owners[card] == next {
			w.Unmark(card, world.SummoningSickness)
		}
	}
	w.Unmark(next, world.PlayedLandThisTurn)

	player := w.Players[next]
	player.Mana.Reset()

	e.emit(EventTurnStarted, TurnPayload{PlayerID: next})
	e.emit(EventManaPoolUpdated, ManaPoolUpdatedPayload{PlayerID: next, NewPool: player.Mana})

	card, drew := drawCard(w, next)
	if !drew {
		// Empty deck: the draw is skipped, there is no decking-out loss.
		e.log.Debug("draw skipped, deck empty", zap.Int("player", int(next)))
		return
	}
	// The card payload is revealed only to the drawer; the opponent learns
	// about the draw from the redacted snapshot.
	if seat, ok := e.seatOf(next); ok {
		e.emitTo(seat, EventCardDrawn, CardDrawnPayload{
			PlayerID: next,
			CardID:   card,
			Card:     e.visibleCardView(card),
		})
	}
}
