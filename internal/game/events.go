package game

import (
	json "github.com/goccy/go-json"

	"github.com/cardnet/cardnet-server-go/internal/game/mana"
	"github.com/cardnet/cardnet-server-go/internal/world"
)

// EventType is the wire tag of an outbound server message.
type EventType string

const (
	EventAssignPlayerID       EventType = "ASSIGN_PLAYER_ID"
	EventFullStateUpdate      EventType = "FULL_STATE_UPDATE"
	EventGameStarted          EventType = "GAME_STARTED"
	EventTurnStarted          EventType = "TURN_STARTED"
	EventTurnEnded            EventType = "TURN_ENDED"
	EventCardMoved            EventType = "CARD_MOVED"
	EventCardDrawn            EventType = "CARD_DRAWN"
	EventCardDied             EventType = "CARD_DIED"
	EventCardAttacked         EventType = "CARD_ATTACKED"
	EventPlayerDamaged        EventType = "PLAYER_DAMAGED"
	EventManaPoolUpdated      EventType = "PLAYER_MANA_POOL_UPDATED"
	EventBlockersPhaseStarted EventType = "BLOCKERS_PHASE_STARTED"
	EventCombatResolved       EventType = "COMBAT_RESOLVED"
	EventMulliganStateChanged EventType = "MULLIGAN_STATE_CHANGED"
	EventGameOver             EventType = "GAME_OVER"
	EventActionError          EventType = "ACTION_ERROR"
	EventPlayerDisconnected   EventType = "PLAYER_DISCONNECTED"
	EventPlayerReconnected    EventType = "PLAYER_RECONNECTED"
	EventLobbyUpdate          EventType = "LOBBY_UPDATE"
	EventGameFull             EventType = "GAME_FULL"
	EventChat                 EventType = "CHAT_MESSAGE"
)

// Event is one semantic fact produced during a tick. Seat 0 means broadcast;
// any other value addresses a single viewer.
type Event struct {
	Type    EventType
	Seat    int
	Payload any
}

// wireMessage is the one-JSON-object-per-message envelope shared by every
// transport.
type wireMessage struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// EncodeMessage serializes an outbound message envelope.
func EncodeMessage(t EventType, payload any) ([]byte, error) {
	return json.Marshal(wireMessage{Type: t, Payload: payload})
}

// Outbound event payloads. Field names match the client protocol.

type AssignPlayerIDPayload struct {
	PlayerID world.Entity `json:"player_id"`
}

type TurnPayload struct {
	PlayerID world.Entity `json:"player_id"`
}

type CardMovedPayload struct {
	CardID world.Entity   `json:"card_id"`
	From   world.Location `json:"from"`
	To     world.Location `json:"to"`
}

type CardDrawnPayload struct {
	PlayerID world.Entity `json:"player_id"`
	CardID   world.Entity `json:"card_id"`
	Card     *CardView    `json:"card_data"`
}

type CardDiedPayload struct {
	CardID  world.Entity `json:"card_id"`
	OwnerID world.Entity `json:"owner_id"`
	Card    *CardView    `json:"card_data"`
}

type CardAttackedPayload struct {
	AttackerID        world.Entity `json:"attacker_id"`
	TargetID          world.Entity `json:"target_id"`
	AttackerNewHealth int          `json:"attacker_new_health"`
	TargetNewHealth   int          `json:"target_new_health"`
}

type PlayerDamagedPayload struct {
	PlayerID     world.Entity `json:"player_id"`
	NewHealth    int          `json:"new_health"`
	SourceCardID world.Entity `json:"source_card_id,omitempty"`
	AttackerID   world.Entity `json:"attacker_id,omitempty"`
}

type ManaPoolUpdatedPayload struct {
	PlayerID world.Entity `json:"player_id"`
	NewPool  mana.Pool    `json:"new_mana_pool"`
}

type BlockersPhaseStartedPayload struct {
	Attackers []world.Entity `json:"attackers"`
}

type GameOverPayload struct {
	WinnerID world.Entity `json:"winner_id"`
	LoserID  world.Entity `json:"loser_id"`
}

type ActionErrorPayload struct {
	Message string `json:"message"`
}

type PlayerConnectionPayload struct {
	PlayerID world.Entity `json:"player_id"`
}

type LobbyUpdatePayload struct {
	Ready map[string]bool `json:"ready"`
}

type ChatPayload struct {
	From world.Entity `json:"from"`
	Text string       `json:"text"`
}
