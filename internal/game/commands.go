package game

import (
	"sort"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cardnet/cardnet-server-go/internal/world"
)

// Command is a validated, typed client intent. Commands live for exactly one
// tick: intake appends them, one system consumes them, and the pending list
// is cleared before the tick ends.
type Command interface {
	// Sender is the player entity the command was accepted from.
	Sender() world.Entity
}

type PlayCardCommand struct {
	Player    world.Entity
	Card      world.Entity
	Target    world.Entity
	HasTarget bool
}

type EndTurnCommand struct {
	Player world.Entity
}

type TapLandCommand struct {
	Player world.Entity
	Card   world.Entity
}

type DeclareAttackersCommand struct {
	Player    world.Entity
	Attackers []world.Entity
}

type DeclareBlockersCommand struct {
	Player world.Entity
	Blocks map[world.Entity]world.Entity // blocker -> attacker
}

type MulliganCommand struct {
	Player world.Entity
}

type KeepHandCommand struct {
	Player world.Entity
}

type PutCardsBottomCommand struct {
	Player world.Entity
	Cards  []world.Entity
}

func (c *PlayCardCommand) Sender() world.Entity         { return c.Player }
func (c *EndTurnCommand) Sender() world.Entity          { return c.Player }
func (c *TapLandCommand) Sender() world.Entity          { return c.Player }
func (c *DeclareAttackersCommand) Sender() world.Entity { return c.Player }
func (c *DeclareBlockersCommand) Sender() world.Entity  { return c.Player }
func (c *MulliganCommand) Sender() world.Entity         { return c.Player }
func (c *KeepHandCommand) Sender() world.Entity         { return c.Player }
func (c *PutCardsBottomCommand) Sender() world.Entity   { return c.Player }

// Inbound message payload shapes.

type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type playCardPayload struct {
	CardEntityID *world.Entity `json:"card_entity_id"`
	TargetID     *world.Entity `json:"target_id"`
}

type tapLandPayload struct {
	CardEntityID *world.Entity `json:"card_entity_id"`
}

type declareAttackersPayload struct {
	AttackerIDs []world.Entity `json:"attacker_ids"`
}

type declareBlockersPayload struct {
	// JSON object keys are strings; intake converts them back to handles.
	Blocks map[string]world.Entity `json:"blocks"`
}

type putCardsBottomPayload struct {
	CardIDs []world.Entity `json:"card_ids"`
}

type chatMessagePayload struct {
	Text string `json:"text"`
}

// turnGated lists the command types only the ActiveTurn holder may send.
// Intake rejects these before they reach any game-logic system.
var turnGated = map[string]bool{
	"PLAY_CARD":         true,
	"DECLARE_ATTACKERS": true,
	"END_TURN":          true,
	"TAP_LAND":          true,
}

// handleMessage converts one raw client message into at most one typed
// command appended to the pending list, or reports an ACTION_ERROR to the
// sender. Runs on the tick goroutine, so reading the world here is safe.
func (e *Engine) handleMessage(seat int, raw []byte) {
	player, ok := e.seats[seat]
	if !ok {
		e.log.Warn("message from unknown seat", zap.Int("seat", seat))
		return
	}

	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		e.log.Warn("malformed client message",
			zap.Int("seat", seat),
			zap.Error(err),
		)
		e.sendError(player, "malformed message")
		return
	}

	if turnGated[msg.Type] {
		active, _ := e.w.ActivePlayer()
		if player != active {
			e.log.Warn("command outside sender's turn denied",
				zap.Int("seat", seat),
				zap.String("type", msg.Type),
			)
			e.sendError(player, "not your turn")
			return
		}
	}

	switch msg.Type {
	case "PLAY_CARD":
		var p playCardPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.CardEntityID == nil {
			e.sendError(player, "PLAY_CARD requires card_entity_id")
			return
		}
		cmd := &PlayCardCommand{Player: player, Card: *p.CardEntityID}
		if p.TargetID != nil {
			cmd.Target = *p.TargetID
			cmd.HasTarget = true
		}
		e.pending = append(e.pending, cmd)

	case "END_TURN":
		e.pending = append(e.pending, &EndTurnCommand{Player: player})

	case "TAP_LAND":
		var p tapLandPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.CardEntityID == nil {
			e.sendError(player, "TAP_LAND requires card_entity_id")
			return
		}
		e.pending = append(e.pending, &TapLandCommand{Player: player, Card: *p.CardEntityID})

	case "DECLARE_ATTACKERS":
		var p declareAttackersPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			e.sendError(player, "DECLARE_ATTACKERS requires attacker_ids")
			return
		}
		e.pending = append(e.pending, &DeclareAttackersCommand{Player: player, Attackers: p.AttackerIDs})

	case "DECLARE_BLOCKERS":
		var p declareBlockersPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			e.sendError(player, "DECLARE_BLOCKERS requires a blocks map")
			return
		}
		blocks := make(map[world.Entity]world.Entity, len(p.Blocks))
		for k, attacker := range p.Blocks {
			blocker, err := parseEntity(k)
			if err != nil {
				e.sendError(player, "invalid blocker id in blocks map")
				return
			}
			blocks[blocker] = attacker
		}
		e.pending = append(e.pending, &DeclareBlockersCommand{Player: player, Blocks: blocks})

	case "MULLIGAN":
		e.pending = append(e.pending, &MulliganCommand{Player: player})

	case "KEEP_HAND":
		e.pending = append(e.pending, &KeepHandCommand{Player: player})

	case "PUT_CARDS_BOTTOM":
		var p putCardsBottomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.CardIDs == nil {
			e.sendError(player, "PUT_CARDS_BOTTOM requires card_ids")
			return
		}
		e.pending = append(e.pending, &PutCardsBottomCommand{Player: player, Cards: p.CardIDs})

	case "PLAYER_READY":
		e.ready[seat] = true
		e.emitLobbyUpdate()

	case "CHAT_MESSAGE":
		var p chatMessagePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.Text == "" {
			e.sendError(player, "CHAT_MESSAGE requires text")
			return
		}
		e.emit(EventChat, ChatPayload{From: player, Text: p.Text})

	default:
		e.log.Warn("unknown command type rejected",
			zap.Int("seat", seat),
			zap.String("type", msg.Type),
		)
		e.sendError(player, "unknown command type")
	}
}

func (e *Engine) emitLobbyUpdate() {
	ready := make(map[string]bool, len(e.seats))
	for seat := range e.seats {
		ready[formatSeat(seat)] = e.ready[seat]
	}
	e.emit(EventLobbyUpdate, LobbyUpdatePayload{Ready: ready})
}

// sortedKeys returns a block map's blockers in ascending handle order so the
// pair processing order is deterministic.
func sortedKeys(m map[world.Entity]world.Entity) []world.Entity {
	out := make([]world.Entity, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
