// Package game implements the authoritative state machine for a two-player
// match: command intake, the turn/combat/mulligan systems that mutate the
// world store, and the event/snapshot broadcaster that keeps every connected
// client's view consistent.
package game

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardnet/cardnet-server-go/internal/world"
)

// NumSeats is the fixed number of player slots in a match.
const NumSeats = 2

// Transport fans outbound messages to connected seats. Implementations must
// never block the caller; a slow client is the transport's problem.
type Transport interface {
	// Send delivers a message to one seat. Messages to disconnected seats
	// are dropped.
	Send(seat int, data []byte)
	// Broadcast delivers a message to every connected seat.
	Broadcast(data []byte)
	// ConnectedSeats lists the seats with a live connection, ascending.
	ConnectedSeats() []int
}

// Config carries the engine tuning knobs.
type Config struct {
	TickRate         int           // ticks per second
	ResetDelay       time.Duration // delay between GAME_OVER and the next match
	StartingHealth   int
	StartingHandSize int
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	return Config{
		TickRate:         30,
		ResetDelay:       5 * time.Second,
		StartingHealth:   30,
		StartingHandSize: 7,
	}
}

type inboundKind int

const (
	inboundData inboundKind = iota
	inboundConnect
	inboundDisconnect
)

type inbound struct {
	kind      inboundKind
	seat      int
	data      []byte
	reconnect bool
}

// Engine owns the world store and runs the fixed-rate tick loop. All world
// mutation happens on the tick goroutine; the network layer only enqueues
// inbound messages and drains outbound ones.
type Engine struct {
	log       *zap.Logger
	cfg       Config
	matchID   string
	transport Transport

	w     *world.World
	seats map[int]world.Entity // seat -> player entity

	inbox   chan inbound
	pending []Command
	events  []Event

	ready map[int]bool

	announced bool      // GAME_OVER already emitted for this match
	resetAt   time.Time // when to rebuild the match, zero if not scheduled

	rng *rand.Rand
	now func() time.Time
}

// NewEngine builds an engine with a fresh match already set up and waiting in
// the mulligan phase.
func NewEngine(cfg Config, transport Transport, log *zap.Logger) *Engine {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultConfig().TickRate
	}
	e := &Engine{
		log:       log,
		cfg:       cfg,
		transport: transport,
		seats:     make(map[int]world.Entity, NumSeats),
		inbox:     make(chan inbound, 256),
		ready:     make(map[int]bool, NumSeats),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
	e.setupMatch()
	return e
}

// MatchID returns the unique id of the current match.
func (e *Engine) MatchID() string {
	return e.matchID
}

// Enqueue hands a raw client message to the engine. Safe for concurrent use;
// same-connection messages keep their arrival order.
func (e *Engine) Enqueue(seat int, data []byte) {
	e.inbox <- inbound{kind: inboundData, seat: seat, data: data}
}

// Connect notifies the engine that a seat came online. reconnect is true when
// the seat was occupied earlier in the match.
func (e *Engine) Connect(seat int, reconnect bool) {
	e.inbox <- inbound{kind: inboundConnect, seat: seat, reconnect: reconnect}
}

// Disconnect notifies the engine that a seat dropped.
func (e *Engine) Disconnect(seat int) {
	e.inbox <- inbound{kind: inboundDisconnect, seat: seat}
}

// Run drives the tick loop until the context is canceled.
func (e *Engine) Run(ctx context.Context) {
	interval := time.Second / time.Duration(e.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.log.Info("engine running",
		zap.String("match_id", e.matchID),
		zap.Int("tick_rate", e.cfg.TickRate),
	)

	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopped", zap.String("match_id", e.matchID))
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

// tick runs one full engine step: drain inbound, run the systems in their
// fixed deterministic order, then broadcast the tick's events.
func (e *Engine) tick() {
	e.drainInbox()

	cmds := e.pending
	e.pending = nil

	e.runGameOverSystem()
	e.runPlayCardSystem(cmds)
	e.runTapLandSystem(cmds)
	e.runCombatSystem(cmds)
	e.runTurnSystem(cmds)
	e.runMulliganSystem(cmds)

	e.broadcastTick()
}

func (e *Engine) drainInbox() {
	for {
		select {
		case m := <-e.inbox:
			switch m.kind {
			case inboundData:
				e.handleMessage(m.seat, m.data)
			case inboundConnect:
				e.handleConnect(m.seat, m.reconnect)
			case inboundDisconnect:
				e.handleDisconnect(m.seat)
			}
		default:
			return
		}
	}
}

// handleConnect syncs a newly connected seat: player id, then a full
// redacted snapshot for that viewer only. Reconnection additionally notifies
// the other seat. These messages bypass the per-tick snapshot policy.
func (e *Engine) handleConnect(seat int, reconnect bool) {
	player, ok := e.seats[seat]
	if !ok {
		e.log.Warn("connect for unknown seat", zap.Int("seat", seat))
		return
	}
	e.w.Unmark(player, world.Disconnected)

	if reconnect {
		e.directBroadcast(EventPlayerReconnected, PlayerConnectionPayload{PlayerID: player})
	}
	e.directSend(seat, EventAssignPlayerID, AssignPlayerIDPayload{PlayerID: player})
	e.directSend(seat, EventFullStateUpdate, e.snapshotFor(player))

	e.log.Info("seat connected",
		zap.Int("seat", seat),
		zap.Bool("reconnect", reconnect),
	)
}

func (e *Engine) handleDisconnect(seat int) {
	player, ok := e.seats[seat]
	if !ok {
		return
	}
	e.w.Mark(player, world.Disconnected)
	e.ready[seat] = false
	e.directBroadcast(EventPlayerDisconnected, PlayerConnectionPayload{PlayerID: player})
	e.log.Info("seat disconnected", zap.Int("seat", seat))
}

// emit queues a broadcast event for the current tick.
func (e *Engine) emit(t EventType, payload any) {
	e.events = append(e.events, Event{Type: t, Payload: payload})
}

// emitTo queues an event addressed to one seat.
func (e *Engine) emitTo(seat int, t EventType, payload any) {
	e.events = append(e.events, Event{Type: t, Seat: seat, Payload: payload})
}

// sendError reports a validation rejection to the originating player only.
func (e *Engine) sendError(player world.Entity, message string) {
	if seat, ok := e.seatOf(player); ok {
		e.emitTo(seat, EventActionError, ActionErrorPayload{Message: message})
	}
}

func (e *Engine) seatOf(player world.Entity) (int, bool) {
	for seat, ent := range e.seats {
		if ent == player {
			return seat, true
		}
	}
	return 0, false
}

// directSend writes to one seat immediately, outside the event queue.
func (e *Engine) directSend(seat int, t EventType, payload any) {
	data, err := EncodeMessage(t, payload)
	if err != nil {
		e.log.Error("encode message", zap.String("type", string(t)), zap.Error(err))
		return
	}
	e.transport.Send(seat, data)
}

func (e *Engine) directBroadcast(t EventType, payload any) {
	data, err := EncodeMessage(t, payload)
	if err != nil {
		e.log.Error("encode message", zap.String("type", string(t)), zap.Error(err))
		return
	}
	e.transport.Broadcast(data)
}

// broadcastTick drains the tick's events and fans them out, then decides
// whether a full per-viewer snapshot should follow. Snapshots are skipped
// when the tick was purely informational (only ACTION_ERROR), when a phase
// boundary the client animates ended the tick (combat), or when the match
// just ended.
func (e *Engine) broadcastTick() {
	if len(e.events) == 0 {
		return
	}
	events := e.events
	e.events = nil

	infoOnly := true
	phaseEnd := false
	gameEnded := false
	for _, ev := range events {
		if ev.Type != EventActionError {
			infoOnly = false
		}
		if ev.Type == EventCombatResolved || ev.Type == EventBlockersPhaseStarted {
			phaseEnd = true
		}
		if ev.Type == EventGameOver {
			gameEnded = true
		}
	}

	for _, ev := range events {
		data, err := EncodeMessage(ev.Type, ev.Payload)
		if err != nil {
			e.log.Error("encode event", zap.String("type", string(ev.Type)), zap.Error(err))
			continue
		}
		if ev.Seat == 0 {
			e.transport.Broadcast(data)
		} else {
			e.transport.Send(ev.Seat, data)
		}
	}

	if infoOnly || phaseEnd || gameEnded {
		return
	}
	for _, seat := range e.transport.ConnectedSeats() {
		player, ok := e.seats[seat]
		if !ok {
			continue
		}
		e.directSend(seat, EventFullStateUpdate, e.snapshotFor(player))
	}
}

// setupMatch rebuilds the world for a fresh match: players, shuffled decks,
// opening hands, and the mulligan phase. Connection state carries over from
// the transport.
func (e *Engine) setupMatch() {
	e.matchID = uuid.NewString()
	w := world.New()

	connected := make(map[int]bool, NumSeats)
	for _, seat := range e.transport.ConnectedSeats() {
		connected[seat] = true
	}

	for seat := 1; seat <= NumSeats; seat++ {
		player := w.Spawn()
		w.Players[player] = &world.Player{ID: seat, Health: e.cfg.StartingHealth}
		w.Graveyards[player] = &world.Graveyard{}
		e.seats[seat] = player
		if !connected[seat] {
			w.Mark(player, world.Disconnected)
		}
	}

	for seat := 1; seat <= NumSeats; seat++ {
		player := e.seats[seat]
		deck := e.buildDeck(w, player)
		e.rng.Shuffle(len(deck), func(i, j int) {
			deck[i], deck[j] = deck[j], deck[i]
		})
		w.Decks[player] = &world.Deck{Cards: deck}
	}

	// Opening hands are dealt silently; clients pick them up from the
	// snapshot on connect.
	for seat := 1; seat <= NumSeats; seat++ {
		player := e.seats[seat]
		for i := 0; i < e.cfg.StartingHandSize; i++ {
			drawCard(w, player)
		}
		w.Mark(player, world.MulliganDeciding)
		w.SetMulliganCount(player, 0)
	}

	e.w = w
	e.log.Info("match set up",
		zap.String("match_id", e.matchID),
		zap.Int("starting_health", e.cfg.StartingHealth),
	)
}

// drawCard moves the top card of the player's deck into their hand. Returns
// the drawn card, or false when the deck is empty (no decking-out rule).
func drawCard(w *world.World, player world.Entity) (world.Entity, bool) {
	deck, ok := w.Decks[player]
	if !ok || len(deck.Cards) == 0 {
		return world.None, false
	}
	card := deck.Cards[0]
	deck.Cards = deck.Cards[1:]
	w.SetLocation(card, world.LocHand)
	return card, true
}

func parseEntity(s string) (world.Entity, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return world.None, err
	}
	return world.Entity(n), nil
}

func formatSeat(seat int) string {
	return strconv.Itoa(seat)
}
