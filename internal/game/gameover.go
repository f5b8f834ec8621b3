package game

import (
	"time"

	"go.uber.org/zap"
)

// runGameOverSystem announces a decided match exactly once, then rebuilds the
// world for a fresh match after the configured delay. It runs first in the
// tick so a finished match is observed before any new commands resolve.
func (e *Engine) runGameOverSystem() {
	if e.announced {
		if !e.resetAt.IsZero() && e.now().After(e.resetAt) {
			e.log.Info("resetting match after game over",
				zap.String("match_id", e.matchID),
			)
			e.resetMatch()
		}
		return
	}

	result, ok := e.w.Result()
	if !ok {
		return
	}
	e.announced = true
	e.resetAt = e.now().Add(e.cfg.ResetDelay)

	loser, _ := e.w.Opponent(result.Winner)
	e.log.Info("game over",
		zap.String("match_id", e.matchID),
		zap.Int("winner", int(result.Winner)),
		zap.Int("loser", int(loser)),
	)
	e.emit(EventGameOver, GameOverPayload{WinnerID: result.Winner, LoserID: loser})
}

// resetMatch throws the decided world away and deals a new match. The
// MULLIGAN_STATE_CHANGED event forces a snapshot so clients resync into the
// new mulligan phase.
func (e *Engine) resetMatch() {
	e.announced = false
	e.resetAt = time.Time{}
	e.setupMatch()
	e.emit(EventMulliganStateChanged, nil)
}
