// Package world implements the entity/component store the game engine runs
// against: opaque integer entity handles mapped to typed component values.
// A World is an explicit value owned by the engine; there is no package-level
// registry. It is not safe for concurrent use; all mutation happens on the
// engine's single tick goroutine.
package world

import "sort"

// Entity is an opaque handle. Handles are allocated monotonically and never
// reused within a match, so clients may cache them across a command
// round-trip.
type Entity int

// None is the zero Entity, never allocated.
const None Entity = 0

// World is the associative store of entities to component values.
type World struct {
	next  Entity
	alive map[Entity]struct{}

	// Component tables. Systems read and write these directly; lifecycle,
	// markers and locations go through methods so their invariants hold.
	Players    map[Entity]*Player
	Cards      map[Entity]*CardInfo
	Effects    map[Entity]*SpellEffect
	Owners     map[Entity]Entity // card -> owning player, never changes
	Decks      map[Entity]*Deck
	Graveyards map[Entity]*Graveyard

	locations map[Entity]Location
	marks     map[Marker]map[Entity]struct{}
	mulligans map[Entity]int

	phase    GamePhase
	gameOver *GameOver
}

// New returns an empty World in the mulligan phase.
func New() *World {
	return &World{
		alive:      make(map[Entity]struct{}),
		Players:    make(map[Entity]*Player),
		Cards:      make(map[Entity]*CardInfo),
		Effects:    make(map[Entity]*SpellEffect),
		Owners:     make(map[Entity]Entity),
		Decks:      make(map[Entity]*Deck),
		Graveyards: make(map[Entity]*Graveyard),
		locations:  make(map[Entity]Location),
		marks:      make(map[Marker]map[Entity]struct{}),
		mulligans:  make(map[Entity]int),
		phase:      PhaseMulligan,
	}
}

// Spawn allocates a fresh entity handle.
func (w *World) Spawn() Entity {
	w.next++
	w.alive[w.next] = struct{}{}
	return w.next
}

// Despawn removes an entity and all of its components. The handle is not
// reused.
func (w *World) Despawn(e Entity) {
	delete(w.alive, e)
	delete(w.Players, e)
	delete(w.Cards, e)
	delete(w.Effects, e)
	delete(w.Owners, e)
	delete(w.Decks, e)
	delete(w.Graveyards, e)
	delete(w.locations, e)
	delete(w.mulligans, e)
	for _, set := range w.marks {
		delete(set, e)
	}
}

// Exists reports whether the entity is alive.
func (w *World) Exists(e Entity) bool {
	_, ok := w.alive[e]
	return ok
}

// Mark attaches a marker component to an entity.
func (w *World) Mark(e Entity, m Marker) {
	set, ok := w.marks[m]
	if !ok {
		set = make(map[Entity]struct{})
		w.marks[m] = set
	}
	set[e] = struct{}{}
}

// Unmark detaches a marker from an entity, if present.
func (w *World) Unmark(e Entity, m Marker) {
	delete(w.marks[m], e)
}

// Has reports whether the entity carries the marker.
func (w *World) Has(e Entity, m Marker) bool {
	_, ok := w.marks[m][e]
	return ok
}

// Marked returns all entities carrying the marker in ascending handle order.
// The order is stable so system passes are deterministic.
func (w *World) Marked(m Marker) []Entity {
	set := w.marks[m]
	out := make([]Entity, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetLocation moves a card to a zone, replacing any previous location marker
// in the same step. Every card has exactly one location at all times.
func (w *World) SetLocation(e Entity, loc Location) {
	w.locations[e] = loc
}

// LocationOf returns a card's current zone.
func (w *World) LocationOf(e Entity) (Location, bool) {
	loc, ok := w.locations[e]
	return loc, ok
}

// In reports whether the card is currently in the given zone.
func (w *World) In(e Entity, loc Location) bool {
	got, ok := w.locations[e]
	return ok && got == loc
}

// PlayerEntities returns all player entities in ascending handle order.
func (w *World) PlayerEntities() []Entity {
	out := make([]Entity, 0, len(w.Players))
	for e := range w.Players {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CardEntities returns all card entities in ascending handle order.
func (w *World) CardEntities() []Entity {
	out := make([]Entity, 0, len(w.Cards))
	for e := range w.Cards {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ActivePlayer returns the entity holding ActiveTurn, if any. During
// GAME_RUNNING exactly one player holds it.
func (w *World) ActivePlayer() (Entity, bool) {
	for e := range w.marks[ActiveTurn] {
		return e, true
	}
	return None, false
}

// Opponent returns the other player in the two-seat match.
func (w *World) Opponent(player Entity) (Entity, bool) {
	for _, e := range w.PlayerEntities() {
		if e != player {
			return e, true
		}
	}
	return None, false
}

// Phase returns the singleton game phase.
func (w *World) Phase() GamePhase {
	return w.phase
}

// SetPhase advances the game phase. Phases only move forward within a match;
// a new match gets a new World.
func (w *World) SetPhase(p GamePhase) {
	w.phase = p
}

// MulliganCount returns how many times the player has mulliganed.
func (w *World) MulliganCount(player Entity) int {
	return w.mulligans[player]
}

// SetMulliganCount records the player's mulligan count.
func (w *World) SetMulliganCount(player Entity, n int) {
	w.mulligans[player] = n
}

// SetGameOver records the match result. Idempotent: only the first winner
// sticks.
func (w *World) SetGameOver(winner Entity) {
	if w.gameOver == nil {
		w.gameOver = &GameOver{Winner: winner}
	}
}

// Result returns the GameOver marker, if the match is decided.
func (w *World) Result() (*GameOver, bool) {
	return w.gameOver, w.gameOver != nil
}
