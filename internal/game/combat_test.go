package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardnet/cardnet-server-go/internal/world"
)

func TestDeclareAttackersFiltersIllegal(t *testing.T) {
	e, _ := newTestEngine(t)
	p1, p2 := e.seats[1], e.seats[2]
	forceGameRunning(e, p1)

	legal := spawnMinion(e, p1, "Knight", 3, 3, world.LocBoard)
	tapped := spawnMinion(e, p1, "Goblin", 1, 1, world.LocBoard)
	e.w.Mark(tapped, world.Tapped)
	sick := spawnMinion(e, p1, "Goblin", 1, 1, world.LocBoard)
	e.w.Mark(sick, world.SummoningSickness)
	inHand := spawnMinion(e, p1, "Goblin", 1, 1, world.LocHand)
	theirs := spawnMinion(e, p2, "Goblin", 1, 1, world.LocBoard)

	e.declareAttackers(&DeclareAttackersCommand{
		Player:    p1,
		Attackers: []world.Entity{legal, tapped, sick, inHand, theirs, 999},
	})

	assert.Equal(t, []world.Entity{legal}, e.w.Marked(world.Attacking))
	assert.True(t, e.w.Has(legal, world.Tapped), "attacking taps the creature")
	assert.True(t, e.w.Has(p2, world.WaitingForBlockers))
	assert.True(t, hasEvent(e, EventBlockersPhaseStarted))
	assert.False(t, hasEvent(e, EventCombatResolved))
}

func TestDeclareNoLegalAttackersResolvesImmediately(t *testing.T) {
	e, _ := newTestEngine(t)
	p1, p2 := e.seats[1], e.seats[2]
	forceGameRunning(e, p1)

	e.declareAttackers(&DeclareAttackersCommand{Player: p1, Attackers: nil})

	assert.True(t, hasEvent(e, EventCombatResolved))
	assert.False(t, e.w.Has(p2, world.WaitingForBlockers))
	assert.Empty(t, e.w.Marked(world.Attacking))
}

func TestUnblockedAttackerHitsDefender(t *testing.T) {
	e, _ := newTestEngine(t)
	p1, p2 := e.seats[1], e.seats[2]
	forceGameRunning(e, p1)

	knight := spawnMinion(e, p1, "Knight", 3, 3, world.LocBoard)
	e.declareAttackers(&DeclareAttackersCommand{Player: p1, Attackers: []world.Entity{knight}})
	e.declareBlockers(&DeclareBlockersCommand{Player: p2, Blocks: nil})

	assert.Equal(t, 27, e.w.Players[p2].Health)
	assert.True(t, hasEvent(e, EventPlayerDamaged))
	assert.True(t, hasEvent(e, EventCombatResolved))
	assert.Empty(t, e.w.Marked(world.Attacking))
	assert.False(t, e.w.Has(p2, world.WaitingForBlockers))
	assert.True(t, e.w.Has(knight, world.Tapped), "attacker stays tapped after combat")
}

func TestBlockedCombatTradesDamage(t *testing.T) {
	e, _ := newTestEngine(t)
	p1, p2 := e.seats[1], e.seats[2]
	forceGameRunning(e, p1)

	knight := spawnMinion(e, p1, "Knight", 3, 3, world.LocBoard)
	wall := spawnMinion(e, p2, "Wall", 1, 2, world.LocBoard)

	e.declareAttackers(&DeclareAttackersCommand{Player: p1, Attackers: []world.Entity{knight}})
	e.declareBlockers(&DeclareBlockersCommand{Player: p2, Blocks: map[world.Entity]world.Entity{wall: knight}})

	assert.Equal(t, 30, e.w.Players[p2].Health, "blocked attacker deals no player damage")
	assert.True(t, e.w.In(wall, world.LocGraveyard), "1/2 dies to 3 damage")
	assert.True(t, e.w.In(knight, world.LocBoard))
	assert.Equal(t, 2, e.w.Cards[knight].Health, "knight took the blocker's 1 back")
	assert.True(t, hasEvent(e, EventCardAttacked))
	assert.True(t, hasEvent(e, EventCardDied))
	assert.True(t, hasEvent(e, EventCombatResolved))
}

func TestMutualDestruction(t *testing.T) {
	e, _ := newTestEngine(t)
	p1, p2 := e.seats[1], e.seats[2]
	forceGameRunning(e, p1)

	a := spawnMinion(e, p1, "Knight", 3, 3, world.LocBoard)
	b := spawnMinion(e, p2, "Knight", 3, 3, world.LocBoard)

	e.declareAttackers(&DeclareAttackersCommand{Player: p1, Attackers: []world.Entity{a}})
	e.declareBlockers(&DeclareBlockersCommand{Player: p2, Blocks: map[world.Entity]world.Entity{b: a}})

	assert.True(t, e.w.In(a, world.LocGraveyard))
	assert.True(t, e.w.In(b, world.LocGraveyard))
}

func TestBlockerTapsOnAssignment(t *testing.T) {
	e, _ := newTestEngine(t)
	p1, p2 := e.seats[1], e.seats[2]
	forceGameRunning(e, p1)

	knight := spawnMinion(e, p1, "Knight", 3, 3, world.LocBoard)
	wall := spawnMinion(e, p2, "Wall", 0, 4, world.LocBoard)

	e.declareAttackers(&DeclareAttackersCommand{Player: p1, Attackers: []world.Entity{knight}})
	e.declareBlockers(&DeclareBlockersCommand{Player: p2, Blocks: map[world.Entity]world.Entity{wall: knight}})

	assert.True(t, e.w.Has(wall, world.Tapped))
	assert.True(t, e.w.In(wall, world.LocBoard), "0/4 survives 3 damage")
	assert.Equal(t, 1, e.w.Cards[wall].Health)
}

func TestInvalidBlockPairsSkippedNotFatal(t *testing.T) {
	e, _ := newTestEngine(t)
	p1, p2 := e.seats[1], e.seats[2]
	forceGameRunning(e, p1)

	knight := spawnMinion(e, p1, "Knight", 3, 3, world.LocBoard)
	goblin := spawnMinion(e, p1, "Goblin", 1, 1, world.LocBoard)
	wall := spawnMinion(e, p2, "Wall", 1, 4, world.LocBoard)
	tappedWall := spawnMinion(e, p2, "Wall", 1, 4, world.LocBoard)
	e.w.Mark(tappedWall, world.Tapped)

	e.declareAttackers(&DeclareAttackersCommand{Player: p1, Attackers: []world.Entity{knight, goblin}})
	e.declareBlockers(&DeclareBlockersCommand{Player: p2, Blocks: map[world.Entity]world.Entity{
		wall:       knight, // valid
		tappedWall: goblin, // rejected: tapped blocker
		999:        knight, // rejected: no such creature
	}})

	// The valid block held; the goblin got through unblocked.
	assert.Equal(t, 29, e.w.Players[p2].Health)
	assert.True(t, e.w.In(wall, world.LocBoard))
	assert.Equal(t, 1, e.w.Cards[wall].Health)
	assert.True(t, hasEvent(e, EventActionError))
	assert.True(t, hasEvent(e, EventCombatResolved))
	assert.Empty(t, e.w.Marked(world.Attacking), "combat markers fully cleared")
	assert.False(t, e.w.Has(p2, world.WaitingForBlockers))
}

func TestSecondBlockerOnSameAttackerRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	p1, p2 := e.seats[1], e.seats[2]
	forceGameRunning(e, p1)

	knight := spawnMinion(e, p1, "Knight", 3, 3, world.LocBoard)
	first := spawnMinion(e, p2, "Wall", 0, 4, world.LocBoard)
	second := spawnMinion(e, p2, "Wall", 0, 4, world.LocBoard)

	e.declareAttackers(&DeclareAttackersCommand{Player: p1, Attackers: []world.Entity{knight}})
	e.declareBlockers(&DeclareBlockersCommand{Player: p2, Blocks: map[world.Entity]world.Entity{
		first:  knight,
		second: knight,
	}})

	// Blockers validate in handle order, so the lower handle keeps the block.
	assert.Equal(t, 1, e.w.Cards[first].Health)
	assert.Equal(t, 4, e.w.Cards[second].Health)
	assert.False(t, e.w.Has(second, world.Tapped), "rejected blocker is not tapped")
	assert.True(t, hasEvent(e, EventActionError))
}

func TestDeclareBlockersOutsideBlockingPhase(t *testing.T) {
	e, _ := newTestEngine(t)
	p1, p2 := e.seats[1], e.seats[2]
	forceGameRunning(e, p1)

	e.declareBlockers(&DeclareBlockersCommand{Player: p2, Blocks: nil})

	assert.True(t, hasEvent(e, EventActionError))
	assert.False(t, hasEvent(e, EventCombatResolved), "no combat window to close")
}

func TestLethalCombatEndsGame(t *testing.T) {
	e, _ := newTestEngine(t)
	p1, p2 := e.seats[1], e.seats[2]
	forceGameRunning(e, p1)

	e.w.Players[p2].Health = 3
	knight := spawnMinion(e, p1, "Knight", 3, 3, world.LocBoard)

	e.declareAttackers(&DeclareAttackersCommand{Player: p1, Attackers: []world.Entity{knight}})
	e.declareBlockers(&DeclareBlockersCommand{Player: p2, Blocks: nil})

	assert.Equal(t, 0, e.w.Players[p2].Health)
	result, decided := e.w.Result()
	require.True(t, decided)
	assert.Equal(t, p1, result.Winner)
	assert.True(t, hasEvent(e, EventCombatResolved), "cleanup still runs on a lethal hit")
}

func TestCombatCleanupSurvivesResolutionFault(t *testing.T) {
	e, _ := newTestEngine(t)
	p1, p2 := e.seats[1], e.seats[2]
	forceGameRunning(e, p1)

	knight := spawnMinion(e, p1, "Knight", 3, 3, world.LocBoard)
	e.declareAttackers(&DeclareAttackersCommand{Player: p1, Attackers: []world.Entity{knight}})

	// Corrupt the store mid-combat: the attacker's card info vanishes while
	// its Attacking marker survives. Resolution must not wedge the match.
	delete(e.w.Cards, knight)

	e.declareBlockers(&DeclareBlockersCommand{Player: p2, Blocks: nil})

	assert.True(t, hasEvent(e, EventCombatResolved))
	assert.Empty(t, e.w.Marked(world.Attacking))
	assert.False(t, e.w.Has(p2, world.WaitingForBlockers))
}
