package game

import (
	"github.com/cardnet/cardnet-server-go/internal/game/mana"
	"github.com/cardnet/cardnet-server-go/internal/world"
)

// Snapshot is a full, per-viewer serialization of the match. Cards in the
// opponent's hand are masked down to owner, location and a hidden flag; the
// rest of the world is public.
type Snapshot struct {
	Players        map[string]*PlayerView `json:"players"`
	Cards          map[string]*CardView   `json:"cards"`
	ActivePlayerID *world.Entity          `json:"active_player_id"`
	GamePhase      world.GamePhase        `json:"game_phase"`
}

// PlayerView is one player's public state plus, during the mulligan phase,
// their mulligan sub-state.
type PlayerView struct {
	EntityID      world.Entity   `json:"entity_id"`
	Health        int            `json:"health"`
	ManaPool      mana.Pool      `json:"mana_pool"`
	Hand          []world.Entity `json:"hand"`
	Board         []world.Entity `json:"board"`
	DeckSize      int            `json:"deck_size"`
	GraveyardSize int            `json:"graveyard_size"`

	MulliganState          string `json:"mulligan_state,omitempty"` // DECIDING, PUT_BOTTOM or WAITING
	MulliganPutBottomCount int    `json:"mulligan_put_bottom_count,omitempty"`
}

// CardView is one card as a given viewer sees it. Hidden cards carry only
// owner, location and the hidden flag; visible cards carry the full template
// and status. Pointer fields distinguish "absent" from "false"/"zero" on the
// wire.
type CardView struct {
	OwnerID  world.Entity   `json:"owner_id"`
	Location world.Location `json:"location"`
	IsHidden bool           `json:"is_hidden,omitempty"`

	Name        string         `json:"name,omitempty"`
	Cost        mana.Cost      `json:"cost,omitempty"`
	Type        world.CardType `json:"type,omitempty"`
	IsTapped    *bool          `json:"is_tapped,omitempty"`
	IsAttacking *bool          `json:"is_attacking,omitempty"`
	HasSickness *bool          `json:"has_sickness,omitempty"`
	CanAttack   *bool          `json:"can_attack,omitempty"`
	Attack      *int           `json:"attack,omitempty"`
	Health      *int           `json:"health,omitempty"`
	MaxHealth   *int           `json:"max_health,omitempty"`
	Effect      *EffectView    `json:"effect,omitempty"`
}

// EffectView is a spell effect on the wire.
type EffectView struct {
	Type           world.EffectKind `json:"type"`
	Value          int              `json:"value"`
	RequiresTarget bool             `json:"requires_target"`
}

// snapshotFor builds the full redacted state for one viewer.
func (e *Engine) snapshotFor(viewer world.Entity) *Snapshot {
	w := e.w
	snap := &Snapshot{
		Players:   make(map[string]*PlayerView, len(w.Players)),
		Cards:     make(map[string]*CardView, len(w.Cards)),
		GamePhase: w.Phase(),
	}
	if active, ok := w.ActivePlayer(); ok {
		snap.ActivePlayerID = &active
	}

	for _, card := range w.CardEntities() {
		snap.Cards[formatEntity(card)] = e.cardViewFor(card, viewer)
	}

	for _, player := range w.PlayerEntities() {
		p := w.Players[player]
		view := &PlayerView{
			EntityID: player,
			Health:   p.Health,
			ManaPool: p.Mana,
			Hand:     []world.Entity{},
			Board:    []world.Entity{},
		}
		for _, card := range w.CardEntities() {
			if w.Owners[card] != player {
				continue
			}
			switch {
			case w.In(card, world.LocHand):
				view.Hand = append(view.Hand, card)
			case w.In(card, world.LocBoard):
				view.Board = append(view.Board, card)
			}
		}
		if deck := w.Decks[player]; deck != nil {
			view.DeckSize = len(deck.Cards)
		}
		if grave := w.Graveyards[player]; grave != nil {
			view.GraveyardSize = len(grave.Cards)
		}
		if w.Phase() == world.PhaseMulligan {
			switch {
			case w.Has(player, world.KeptHand):
				view.MulliganState = "WAITING"
			case w.Has(player, world.MulliganDeciding):
				view.MulliganState = "DECIDING"
			default:
				view.MulliganState = "PUT_BOTTOM"
				view.MulliganPutBottomCount = w.MulliganCount(player)
			}
		}
		snap.Players[formatEntity(player)] = view
	}
	return snap
}

// cardViewFor serializes one card for one viewer, masking opponent hand
// cards.
func (e *Engine) cardViewFor(card, viewer world.Entity) *CardView {
	w := e.w
	owner := w.Owners[card]
	loc, _ := w.LocationOf(card)
	if loc == world.LocHand && owner != viewer {
		return &CardView{OwnerID: owner, Location: loc, IsHidden: true}
	}
	return e.visibleCardView(card)
}

// visibleCardView serializes a card with nothing masked.
func (e *Engine) visibleCardView(card world.Entity) *CardView {
	w := e.w
	info := w.Cards[card]
	loc, _ := w.LocationOf(card)

	tapped := w.Has(card, world.Tapped)
	attacking := w.Has(card, world.Attacking)
	sick := w.Has(card, world.SummoningSickness)

	view := &CardView{
		OwnerID:     w.Owners[card],
		Location:    loc,
		Name:        info.Name,
		Cost:        info.Cost,
		Type:        info.Type,
		IsTapped:    boolPtr(tapped),
		IsAttacking: boolPtr(attacking),
		HasSickness: boolPtr(sick),
		CanAttack:   boolPtr(false),
	}

	switch info.Type {
	case world.CardMinion:
		view.Attack = intPtr(info.Attack)
		view.Health = intPtr(info.Health)
		view.MaxHealth = intPtr(info.MaxHealth)
		// can_attack is derived, never stored.
		view.CanAttack = boolPtr(loc == world.LocBoard && !tapped && !sick)
	case world.CardSpell:
		if effect := w.Effects[card]; effect != nil {
			view.Effect = &EffectView{
				Type:           effect.Kind,
				Value:          effect.Value,
				RequiresTarget: effect.RequiresTarget,
			}
		}
	}
	return view
}

func formatEntity(e world.Entity) string {
	return formatSeat(int(e))
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }
