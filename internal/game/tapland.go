package game

import (
	"go.uber.org/zap"

	"github.com/cardnet/cardnet-server-go/internal/world"
)

// runTapLandSystem taps lands for mana. A land produces one mana of its
// printed color and stays tapped until its controller's next untap step.
func (e *Engine) runTapLandSystem(cmds []Command) {
	for _, c := range cmds {
		cmd, ok := c.(*TapLandCommand)
		if !ok {
			continue
		}
		e.tapLand(cmd)
	}
}

func (e *Engine) tapLand(cmd *TapLandCommand) {
	w := e.w
	if !w.Has(cmd.Player, world.ActiveTurn) {
		e.sendError(cmd.Player, "not your turn")
		return
	}
	info := w.Cards[cmd.Card]
	if !w.Exists(cmd.Card) || info == nil {
		e.sendError(cmd.Player, "card does not exist")
		return
	}
	if w.Owners[cmd.Card] != cmd.Player {
		e.sendError(cmd.Player, "not your card")
		return
	}
	if info.Type != world.CardLand {
		e.sendError(cmd.Player, "that card is not a land")
		return
	}
	if !w.In(cmd.Card, world.LocBoard) {
		e.sendError(cmd.Player, "that land is not on the board")
		return
	}
	if w.Has(cmd.Card, world.Tapped) {
		e.sendError(cmd.Player, "that land is already tapped")
		return
	}

	player := w.Players[cmd.Player]
	if player == nil {
		e.sendError(cmd.Player, "player not found")
		return
	}
	player.Mana.Add(info.Produces, 1)
	w.Mark(cmd.Card, world.Tapped)

	e.log.Debug("land tapped",
		zap.Int("player", int(cmd.Player)),
		zap.String("card", info.Name),
		zap.String("produces", string(info.Produces)),
	)
	e.emit(EventManaPoolUpdated, ManaPoolUpdatedPayload{PlayerID: cmd.Player, NewPool: player.Mana})
}
