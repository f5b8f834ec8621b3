package world

import "github.com/cardnet/cardnet-server-go/internal/game/mana"

// CardType classifies a card template.
type CardType string

const (
	CardLand   CardType = "LAND"
	CardMinion CardType = "MINION"
	CardSpell  CardType = "SPELL"
)

// Player is the per-seat player component. Health starts at 30; the match
// ends when it drops to zero or below. The mana pool is reset at the start of
// the player's own turn.
type Player struct {
	ID     int
	Health int
	Mana   mana.Pool
}

// CardInfo is a card's template plus its mutable runtime health. Template
// fields (Name, Type, Cost, Produces, Attack, MaxHealth) never change after
// deck build.
type CardInfo struct {
	Name     string
	Type     CardType
	Cost     mana.Cost
	Produces mana.Color // lands only

	Attack    int // minions only
	Health    int // minions only, mutable
	MaxHealth int // minions only
}

// EffectKind identifies a spell effect. The effect set is closed; there is no
// scripting layer.
type EffectKind string

// EffectDealDamage subtracts Value from the target's health.
const EffectDealDamage EffectKind = "DEAL_DAMAGE"

// SpellEffect describes what a SPELL card does when it resolves.
type SpellEffect struct {
	Kind           EffectKind
	Value          int
	RequiresTarget bool
}

// Deck is a player's library. Cards[0] is the top.
type Deck struct {
	Cards []Entity
}

// Graveyard holds a player's dead and spent cards in insertion order; the
// last element is the top for display purposes.
type Graveyard struct {
	Cards []Entity
}

// Location is a card's zone. Every card has exactly one location at all
// times; transitions swap the old marker for the new one atomically.
type Location string

const (
	LocDeck      Location = "DECK"
	LocHand      Location = "HAND"
	LocBoard     Location = "BOARD"
	LocGraveyard Location = "GRAVEYARD"
)

// Marker is a boolean component attached to a card or player entity.
type Marker int

const (
	// Card markers.
	Tapped Marker = iota
	SummoningSickness
	Attacking

	// Player markers.
	ActiveTurn
	PlayedLandThisTurn
	WaitingForBlockers
	MulliganDeciding
	KeptHand
	Disconnected
)

var markerNames = map[Marker]string{
	Tapped:             "Tapped",
	SummoningSickness:  "SummoningSickness",
	Attacking:          "Attacking",
	ActiveTurn:         "ActiveTurn",
	PlayedLandThisTurn: "PlayedLandThisTurn",
	WaitingForBlockers: "WaitingForBlockers",
	MulliganDeciding:   "MulliganDeciding",
	KeptHand:           "KeptHand",
	Disconnected:       "Disconnected",
}

func (m Marker) String() string {
	if name, ok := markerNames[m]; ok {
		return name
	}
	return "Marker?"
}

// GamePhase is the singleton match phase. It only ever advances forward
// within a match.
type GamePhase string

const (
	PhaseMulligan    GamePhase = "MULLIGAN"
	PhaseGameRunning GamePhase = "GAME_RUNNING"
)

// GameOver marks a decided match. Only the first marker set matters.
type GameOver struct {
	Winner Entity
}
