package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cardnet/cardnet-server-go/internal/world"
)

// runPlayCardSystem resolves every PlayCard command of the tick. Validation
// happens before any mutation; a rejected command changes nothing and only
// produces an ACTION_ERROR for the sender.
func (e *Engine) runPlayCardSystem(cmds []Command) {
	for _, c := range cmds {
		cmd, ok := c.(*PlayCardCommand)
		if !ok {
			continue
		}
		e.playCard(cmd)
	}
}

func (e *Engine) playCard(cmd *PlayCardCommand) {
	w := e.w
	if !w.Has(cmd.Player, world.ActiveTurn) {
		e.sendError(cmd.Player, "not your turn")
		return
	}
	player := w.Players[cmd.Player]
	if player == nil {
		e.sendError(cmd.Player, "player not found")
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
	if !w.In(cmd.Card, world.LocHand) {
		e.sendError(cmd.Player, "card is not in your hand")
		return
	}
	if info.Type != world.CardLand && !player.Mana.CanPay(info.Cost) {
		e.sendError(cmd.Player, fmt.Sprintf("not enough mana: %s costs %s", info.Name, info.Cost))
		return
	}

	switch info.Type {
	case world.CardLand:
		e.playLand(cmd, info)
	case world.CardMinion:
		e.playMinion(cmd, info)
	case world.CardSpell:
		e.playSpell(cmd, info)
	default:
		e.sendError(cmd.Player, fmt.Sprintf("unknown card type: %s", info.Type))
	}
}

// playLand moves a land to the board. Lands are free but limited to one per
// turn.
func (e *Engine) playLand(cmd *PlayCardCommand, info *world.CardInfo) {
	if e.w.Has(cmd.Player, world.PlayedLandThisTurn) {
		e.sendError(cmd.Player, "you already played a land this turn")
		return
	}
	e.log.Debug("land played",
		zap.Int("player", int(cmd.Player)),
		zap.String("card", info.Name),
	)
	e.w.SetLocation(cmd.Card, world.LocBoard)
	e.w.Mark(cmd.Player, world.PlayedLandThisTurn)
	e.emit(EventCardMoved, CardMovedPayload{CardID: cmd.Card, From: world.LocHand, To: world.LocBoard})
}

// playMinion pays the cost and puts the creature onto the board with
// summoning sickness.
func (e *Engine) playMinion(cmd *PlayCardCommand, info *world.CardInfo) {
	player := e.w.Players[cmd.Player]
	player.Mana.Pay(info.Cost)
	e.emit(EventManaPoolUpdated, ManaPoolUpdatedPayload{PlayerID: cmd.Player, NewPool: player.Mana})

	e.log.Debug("minion played",
		zap.Int("player", int(cmd.Player)),
		zap.String("card", info.Name),
	)
	e.w.SetLocation(cmd.Card, world.LocBoard)
	e.w.Mark(cmd.Card, world.SummoningSickness)
	e.emit(EventCardMoved, CardMovedPayload{CardID: cmd.Card, From: world.LocHand, To: world.LocBoard})
}

// playSpell pays the cost, applies the effect, and routes the spell to the
// graveyard. A resolution failure after payment refunds the full cost; the
// cost is never partially spent.
func (e *Engine) playSpell(cmd *PlayCardCommand, info *world.CardInfo) {
	w := e.w
	effect := w.Effects[cmd.Card]
	if effect == nil {
		e.sendError(cmd.Player, fmt.Sprintf("spell %s has no effect", info.Name))
		return
	}
	if effect.RequiresTarget && !cmd.HasTarget {
		e.sendError(cmd.Player, fmt.Sprintf("spell %s requires a target", info.Name))
		return
	}
	if !effect.RequiresTarget && cmd.HasTarget {
		e.sendError(cmd.Player, fmt.Sprintf("spell %s does not take a target", info.Name))
		return
	}

	player := w.Players[cmd.Player]
	player.Mana.Pay(info.Cost)
	e.emit(EventManaPoolUpdated, ManaPoolUpdatedPayload{PlayerID: cmd.Player, NewPool: player.Mana})

	refund := func(reason string) {
		player.Mana.Refund(info.Cost)
		e.emit(EventManaPoolUpdated, ManaPoolUpdatedPayload{PlayerID: cmd.Player, NewPool: player.Mana})
		e.sendError(cmd.Player, reason)
	}

	switch effect.Kind {
	case world.EffectDealDamage:
		if effect.RequiresTarget {
			if !e.dealSpellDamage(cmd, effect.Value, refund) {
				return
			}
		}
	default:
		refund(fmt.Sprintf("unknown spell effect: %s", effect.Kind))
		return
	}

	e.log.Debug("spell resolved",
		zap.Int("player", int(cmd.Player)),
		zap.String("card", info.Name),
	)
	// A resolved spell always ends up in the graveyard.
	e.moveToGraveyard(cmd.Card)
}

// dealSpellDamage applies DEAL_DAMAGE to a player or card target. Returns
// false (after refunding) when the target is missing or of an invalid type.
func (e *Engine) dealSpellDamage(cmd *PlayCardCommand, value int, refund func(string)) bool {
	w := e.w
	if !w.Exists(cmd.Target) {
		refund("target does not exist")
		return false
	}

	if target := w.Players[cmd.Target]; target != nil {
		target.Health -= value
		e.emit(EventPlayerDamaged, PlayerDamagedPayload{
			PlayerID:     cmd.Target,
			NewHealth:    target.Health,
			SourceCardID: cmd.Card,
		})
		if target.Health <= 0 {
			w.SetGameOver(cmd.Player)
		}
		return true
	}

	if target := w.Cards[cmd.Target]; target != nil {
		target.Health -= value
		if target.Health <= 0 {
			e.moveToGraveyard(cmd.Target)
		}
		return true
	}

	refund("invalid target type")
	return false
}
