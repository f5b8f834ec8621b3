package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cardnet/cardnet-server-go/internal/world"
)

// runCombatSystem drives the declare-attackers / declare-blockers / damage
// cycle. Combat touches many entities in one pass, so resolution is guarded:
// whatever happens mid-resolution, the combat markers are stripped and
// COMBAT_RESOLVED goes out, so one bad input cannot wedge the turn cycle.
func (e *Engine) runCombatSystem(cmds []Command) {
	for _, c := range cmds {
		switch cmd := c.(type) {
		case *DeclareAttackersCommand:
			e.declareAttackers(cmd)
		case *DeclareBlockersCommand:
			e.declareBlockers(cmd)
		}
	}
}

// declareAttackers filters the proposed attackers down to legal ones:
// existing, sender-owned, on-board minions that are neither tapped nor
// summoning-sick. Declaring with no legal attacker short-circuits straight to
// COMBAT_RESOLVED so a no-attack turn never waits on the opponent.
func (e *Engine) declareAttackers(cmd *DeclareAttackersCommand) {
	w := e.w
	if !w.Has(cmd.Player, world.ActiveTurn) {
		e.sendError(cmd.Player, "not your turn")
		return
	}

	var attackers []world.Entity
	for _, card := range cmd.Attackers {
		info := w.Cards[card]
		if !w.Exists(card) || info == nil {
			continue
		}
		if w.Owners[card] != cmd.Player {
			continue
		}
		if info.Type != world.CardMinion || !w.In(card, world.LocBoard) {
			continue
		}
		if w.Has(card, world.Tapped) || w.Has(card, world.SummoningSickness) {
			continue
		}
		attackers = append(attackers, card)
	}

	if len(attackers) == 0 {
		e.emit(EventCombatResolved, nil)
		return
	}

	for _, card := range attackers {
		w.Mark(card, world.Attacking)
		w.Mark(card, world.Tapped)
	}

	defender, ok := w.Opponent(cmd.Player)
	if !ok {
		// No opponent to defend; combat cannot proceed.
		for _, card := range attackers {
			w.Unmark(card, world.Attacking)
		}
		e.emit(EventCombatResolved, nil)
		return
	}
	w.Mark(defender, world.WaitingForBlockers)

	e.log.Debug("attackers declared",
		zap.Int("player", int(cmd.Player)),
		zap.Int("count", len(attackers)),
	)
	e.emit(EventBlockersPhaseStarted, BlockersPhaseStartedPayload{Attackers: attackers})
}

// declareBlockers validates the block assignments and resolves combat damage.
// The cleanup that strips Attacking/WaitingForBlockers and emits
// COMBAT_RESOLVED runs unconditionally, even if resolution panics.
func (e *Engine) declareBlockers(cmd *DeclareBlockersCommand) {
	w := e.w
	if !w.Has(cmd.Player, world.WaitingForBlockers) {
		e.sendError(cmd.Player, "not your blocking phase")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("combat resolution fault",
				zap.Int("defender", int(cmd.Player)),
				zap.Any("panic", r),
			)
			e.sendError(cmd.Player, "error while resolving combat")
		}
		e.cleanupCombat(cmd.Player)
	}()

	e.resolveCombat(cmd)
}

// cleanupCombat strips every combat marker and closes the combat window.
func (e *Engine) cleanupCombat(defender world.Entity) {
	for _, card := range e.w.Marked(world.Attacking) {
		e.w.Unmark(card, world.Attacking)
	}
	e.w.Unmark(defender, world.WaitingForBlockers)
	e.emit(EventCombatResolved, nil)
}

func (e *Engine) resolveCombat(cmd *DeclareBlockersCommand) {
	w := e.w
	defender := cmd.Player
	attackerOwner, ok := w.ActivePlayer()
	if !ok {
		return
	}

	attackers := w.Marked(world.Attacking)
	blockedBy := make(map[world.Entity]world.Entity, len(attackers)) // attacker -> blocker
	isAttacking := make(map[world.Entity]bool, len(attackers))
	for _, a := range attackers {
		isAttacking[a] = true
	}

	// Validate block assignments blocker-by-blocker in handle order. A bad
	// pair is reported and skipped; the rest of the declaration still counts.
	for _, blocker := range sortedKeys(cmd.Blocks) {
		attacker := cmd.Blocks[blocker]
		if !isAttacking[attacker] {
			e.sendError(defender, fmt.Sprintf("creature %d is not attacking", attacker))
			continue
		}
		if !w.Exists(blocker) || w.Owners[blocker] != defender {
			e.sendError(defender, fmt.Sprintf("creature %d is not yours", blocker))
			continue
		}
		if w.Has(blocker, world.Tapped) {
			e.sendError(defender, fmt.Sprintf("creature %d is tapped", blocker))
			continue
		}
		if _, taken := blockedBy[attacker]; taken {
			// One blocker per attacker; extra assignments are rejected
			// outright rather than silently dropped.
			e.sendError(defender, fmt.Sprintf("creature %d is already blocked", attacker))
			continue
		}
		// Assigning a blocker taps it. House rule, kept on purpose.
		w.Mark(blocker, world.Tapped)
		blockedBy[attacker] = blocker
	}

	defenderPlayer := w.Players[defender]
	if defenderPlayer == nil {
		return
	}

	// All damage is computed from pre-combat values, then applied: each
	// attacker's fight is independent and simultaneous.
	type fight struct {
		attacker, blocker world.Entity
		attackerHit       int // damage dealt by the attacker
		blockerHit        int // damage dealt back by the blocker
	}
	var fights []fight
	for _, attacker := range attackers {
		info := w.Cards[attacker]
		if !w.Exists(attacker) || info == nil {
			continue
		}
		f := fight{attacker: attacker, attackerHit: info.Attack}
		if blocker, ok := blockedBy[attacker]; ok && w.Exists(blocker) {
			f.blocker = blocker
			if blockerInfo := w.Cards[blocker]; blockerInfo != nil {
				f.blockerHit = blockerInfo.Attack
			}
		}
		fights = append(fights, f)
	}

	for _, f := range fights {
		if f.blocker == world.None {
			defenderPlayer.Health -= f.attackerHit
			e.log.Debug("unblocked attack",
				zap.Int("attacker", int(f.attacker)),
				zap.Int("damage", f.attackerHit),
			)
			e.emit(EventPlayerDamaged, PlayerDamagedPayload{
				PlayerID:   defender,
				NewHealth:  defenderPlayer.Health,
				AttackerID: f.attacker,
			})
			continue
		}

		attackerInfo := w.Cards[f.attacker]
		blockerInfo := w.Cards[f.blocker]
		blockerInfo.Health -= f.attackerHit
		attackerInfo.Health -= f.blockerHit
		e.emit(EventCardAttacked, CardAttackedPayload{
			AttackerID:        f.attacker,
			TargetID:          f.blocker,
			AttackerNewHealth: attackerInfo.Health,
			TargetNewHealth:   blockerInfo.Health,
		})

		if blockerInfo.Health <= 0 {
			e.moveToGraveyard(f.blocker)
		}
		if attackerInfo.Health <= 0 {
			e.moveToGraveyard(f.attacker)
		}
	}

	if defenderPlayer.Health <= 0 {
		w.SetGameOver(attackerOwner)
	}
}
