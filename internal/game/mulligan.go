package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cardnet/cardnet-server-go/internal/world"
)

// maxMulligans caps repeated mulligans; a seventh mulligan would leave no
// meaningful hand to bottom cards from.
const maxMulligans = 7

// runMulliganSystem drives the pre-game hand selection. Per player:
// deciding -> (mulligan)* -> keep -> [put N cards on the bottom] -> kept.
// The system is inert outside the MULLIGAN phase.
func (e *Engine) runMulliganSystem(cmds []Command) {
	if e.w.Phase() != world.PhaseMulligan {
		return
	}
	for _, c := range cmds {
		switch cmd := c.(type) {
		case *MulliganCommand:
			e.mulligan(cmd.Player)
		case *KeepHandCommand:
			e.keepHand(cmd.Player)
		case *PutCardsBottomCommand:
			e.putCardsBottom(cmd.Player, cmd.Cards)
		}
	}
	e.maybeStartGame()
}

// mulligan shuffles the player's hand back into the deck and draws a fresh
// seven. The player stays in the decision phase and may mulligan again.
func (e *Engine) mulligan(player world.Entity) {
	w := e.w
	if !w.Has(player, world.MulliganDeciding) {
		e.sendError(player, "you are not deciding on a hand")
		return
	}
	hand := e.handOf(player)
	if len(hand) == 0 {
		e.sendError(player, "you have no hand to mulligan")
		return
	}
	count := w.MulliganCount(player)
	if count >= maxMulligans {
		e.sendError(player, "no mulligans left")
		return
	}
	deck := w.Decks[player]
	if deck == nil || len(deck.Cards)+len(hand) < e.cfg.StartingHandSize {
		e.sendError(player, "not enough cards to mulligan")
		return
	}

	for _, card := range hand {
		w.SetLocation(card, world.LocDeck)
		deck.Cards = append(deck.Cards, card)
	}
	e.rng.Shuffle(len(deck.Cards), func(i, j int) {
		deck.Cards[i], deck.Cards[j] = deck.Cards[j], deck.Cards[i]
	})
	for i := 0; i < e.cfg.StartingHandSize; i++ {
		drawCard(w, player)
	}

	w.SetMulliganCount(player, count+1)
	e.log.Info("player mulliganed",
		zap.Int("player", int(player)),
		zap.Int("count", count+1),
	)
	e.emit(EventMulliganStateChanged, nil)
}

// keepHand locks the current hand in. A player who never mulliganed is ready
// immediately; otherwise they still owe mulligan_count cards to the bottom of
// the deck, a state denoted by the absence of both the deciding and the kept
// markers.
func (e *Engine) keepHand(player world.Entity) {
	w := e.w
	if !w.Has(player, world.MulliganDeciding) {
		e.sendError(player, "you are not deciding on a hand")
		return
	}
	w.Unmark(player, world.MulliganDeciding)
	if w.MulliganCount(player) == 0 {
		w.Mark(player, world.KeptHand)
	}
	e.log.Info("player kept hand",
		zap.Int("player", int(player)),
		zap.Int("owed_to_bottom", w.MulliganCount(player)),
	)
	e.emit(EventMulliganStateChanged, nil)
}

// putCardsBottom moves exactly mulligan_count chosen cards to the bottom of
// the deck. The whole command is validated before any card moves.
func (e *Engine) putCardsBottom(player world.Entity, cards []world.Entity) {
	w := e.w
	if w.Has(player, world.MulliganDeciding) || w.Has(player, world.KeptHand) {
		e.sendError(player, "you have no cards to put back")
		return
	}
	count := w.MulliganCount(player)
	if count == 0 {
		e.sendError(player, "you have no cards to put back")
		return
	}
	if len(cards) != count {
		e.sendError(player, fmt.Sprintf("you must put exactly %d cards on the bottom", count))
		return
	}
	seen := make(map[world.Entity]bool, len(cards))
	for _, card := range cards {
		if seen[card] {
			e.sendError(player, "duplicate card in selection")
			return
		}
		seen[card] = true
		if !w.Exists(card) || !w.In(card, world.LocHand) || w.Owners[card] != player {
			e.sendError(player, "selected card is not in your hand")
			return
		}
	}

	deck := w.Decks[player]
	for _, card := range cards {
		w.SetLocation(card, world.LocDeck)
		deck.Cards = append(deck.Cards, card)
	}
	w.Mark(player, world.KeptHand)
	e.log.Info("player bottomed cards",
		zap.Int("player", int(player)),
		zap.Int("count", count),
	)
	e.emit(EventMulliganStateChanged, nil)
}

// maybeStartGame advances to GAME_RUNNING once every connected player has
// kept a hand. A disconnected seat blocks the start until it returns.
func (e *Engine) maybeStartGame() {
	w := e.w
	for _, player := range w.PlayerEntities() {
		if w.Has(player, world.Disconnected) || !w.Has(player, world.KeptHand) {
			return
		}
	}

	players := w.PlayerEntities()
	if len(players) == 0 {
		return
	}
	for _, player := range players {
		w.Unmark(player, world.KeptHand)
		w.SetMulliganCount(player, 0)
	}
	w.SetPhase(world.PhaseGameRunning)

	starter := players[e.rng.Intn(len(players))]
	w.Mark(starter, world.ActiveTurn)

	e.log.Info("mulligan phase complete, game starting",
		zap.String("match_id", e.matchID),
		zap.Int("starting_player", int(starter)),
	)
	e.emit(EventGameStarted, nil)
	e.emit(EventTurnStarted, TurnPayload{PlayerID: starter})
}

// handOf lists the player's in-hand cards in handle order.
func (e *Engine) handOf(player world.Entity) []world.Entity {
	var hand []world.Entity
	for _, card := range e.w.CardEntities() {
		if e.w.Owners[card] == player && e.w.In(card, world.LocHand) {
			hand = append(hand, card)
		}
	}
	return hand
}
