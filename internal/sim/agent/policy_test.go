package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/grid"
)

func requireMessage(t *testing.T, act Action, scope protocol.Scope, want protocol.Message) {
	t.Helper()
	require.Equal(t, ActCommunicate, act.Kind, "action %s", act)
	require.NotNil(t, act.Msg)
	assert.Equal(t, scope, act.Scope)
	assert.Equal(t, want, *act.Msg)
}

// confirmedWumpusAhead leaves an agent at (0,1) whose belief pins a wumpus on
// (0,2).
func confirmedWumpusAhead(t *testing.T, dir geom.Direction) (*Agent, *board) {
	t.Helper()
	a := New("a", geom.P(0, 1), dir, 5, true, DefaultConfig())
	env := newBoard(5, a)
	a.Belief.MarkVisited(geom.P(0, 0))
	a.Belief.ApplyPercepts(geom.P(0, 0), nil)
	a.Belief.MarkVisited(geom.P(1, 1))
	a.Belief.ApplyPercepts(geom.P(1, 1), nil)
	a.Belief.MarkVisited(geom.P(0, 1))
	a.Belief.ApplyPercepts(geom.P(0, 1), []grid.Tag{grid.TagStench})
	c, _ := a.Belief.Get(geom.P(0, 2))
	require.True(t, c.Wumpus.Is(1), "wumpus=%s", c.Wumpus)
	return a, env
}

func TestStagnationStartsVote(t *testing.T) {
	a := newAgent("a", geom.P(0, 0), 1)
	env := newBoard(1, a)
	a.Perceive(env)

	for i := 1; i < 20; i++ {
		act := a.Decide(env)
		requireMessage(t, act, protocol.Whisper, protocol.Stuck(geom.P(0, 0)))
		require.False(t, a.VoteAdmin, "decide %d", i)
	}

	act := a.Decide(env)
	requireMessage(t, act, protocol.Shout, protocol.Vote(protocol.BallotCall))
	assert.True(t, a.VoteAdmin)
	assert.Equal(t, VoteExit, a.VoteState)

	assert.Equal(t, ActTerminate, a.Decide(env).Kind)
}

func TestDissentRelinquishesAdmin(t *testing.T) {
	a := newAgent("a", geom.P(0, 0), 1)
	env := newBoard(1, a)
	for i := 0; i < 20; i++ {
		a.Decide(env)
	}
	require.True(t, a.VoteAdmin)
	a.Receive(env, protocol.Stay())

	act := a.Decide(env)
	assert.False(t, a.VoteAdmin)
	requireMessage(t, act, protocol.Whisper, protocol.Stuck(geom.P(0, 0)))
	assert.False(t, a.Stagnated(), "a fresh window is needed before the next vote")
}

func TestShininessTriggersOneCollect(t *testing.T) {
	a := newAgent("a", geom.P(2, 2), 5)
	env := newBoard(5, a)
	env.percepts[geom.P(2, 2)] = []grid.Tag{grid.TagShininess}

	a.Perceive(env)
	require.True(t, a.ShininessSeen)
	assert.Equal(t, ActCollect, a.Decide(env).Kind)
	assert.False(t, a.ShininessSeen)

	a.Perceive(env)
	assert.False(t, a.ShininessSeen, "same cell does not retrigger")

	a.MoveTo(geom.P(2, 3))
	a.MoveTo(geom.P(2, 2))
	a.Perceive(env)
	assert.True(t, a.ShininessSeen)
}

func TestAttackConfirmedWumpusAndAnnounceKill(t *testing.T) {
	a, env := confirmedWumpusAhead(t, geom.Front)

	act := a.Decide(env)
	assert.Equal(t, ActAttack, act.Kind)
	require.NotNil(t, a.ArrowTarget)
	assert.Equal(t, geom.P(0, 2), *a.ArrowTarget)

	act = a.Decide(env)
	assert.Equal(t, Move(geom.Front), act)

	a.MoveTo(geom.P(0, 2))
	act = a.Decide(env)
	requireMessage(t, act, protocol.Shout, protocol.WumpusKilled(geom.P(0, 2)))
	assert.Nil(t, a.ArrowTarget)
	c, _ := a.Belief.Get(geom.P(0, 2))
	assert.False(t, c.Wumpus.Known())
	assert.False(t, c.Visited)
}

func TestTurnTowardConfirmedWumpus(t *testing.T) {
	a, env := confirmedWumpusAhead(t, geom.Right)
	assert.Equal(t, Turn(geom.Front), a.Decide(env))
	assert.Nil(t, a.ArrowTarget)
}

func TestNoArrowsAvoidsWumpus(t *testing.T) {
	a, env := confirmedWumpusAhead(t, geom.Front)
	a.ArrowsLeft = 0

	act := a.Decide(env)
	require.Equal(t, ActCommunicate, act.Kind)
	require.NotNil(t, a.PendingTarget)
	assert.NotEqual(t, geom.P(0, 2), *a.PendingTarget)
}

func TestExploreTurnsThenMoves(t *testing.T) {
	a := New("a", geom.P(2, 2), geom.Back, 5, true, DefaultConfig())
	env := newBoard(5, a)
	a.Belief.MarkVisited(geom.P(2, 3))
	a.Belief.MarkVisited(geom.P(2, 1))
	a.Belief.MarkVisited(geom.P(1, 2))
	a.Perceive(env)

	act := a.Decide(env)
	requireMessage(t, act, protocol.Whisper, protocol.WantToMove(geom.P(2, 2), geom.P(3, 2)))
	require.NotNil(t, a.PendingTarget)
	assert.Equal(t, geom.P(3, 2), *a.PendingTarget)

	assert.Equal(t, Turn(geom.Right), a.Decide(env))
	a.Dir = geom.Right

	a.Reserve(geom.P(0, 0))
	assert.Equal(t, Move(geom.Right), a.Decide(env))
	assert.Nil(t, a.PendingTarget)
	assert.Empty(t, a.Reserved)
}

func TestExploreFallsBackToVisited(t *testing.T) {
	a := newAgent("a", geom.P(0, 0), 2)
	env := newBoard(2, a)
	a.Belief.MarkVisited(geom.P(1, 0))
	a.Belief.MarkVisited(geom.P(0, 1))
	a.Perceive(env)
	env.picks = []int{1}

	act := a.Decide(env)
	require.Equal(t, ActCommunicate, act.Kind)
	require.NotNil(t, a.PendingTarget)
	assert.Contains(t, []geom.Pos{geom.P(1, 0), geom.P(0, 1)}, *a.PendingTarget)
}

func TestRevealedCellsCountAsSafe(t *testing.T) {
	a := New("a", geom.P(0, 0), geom.Front, 3, true, Config{StagnationWindow: 20, NegativeEvidence: false})
	env := newBoard(3, a)
	env.revealed[geom.P(1, 0)] = grid.KindPit
	env.revealed[geom.P(0, 1)] = 0
	a.Perceive(env)

	act := a.Decide(env)
	requireMessage(t, act, protocol.Whisper, protocol.WantToMove(geom.P(0, 0), geom.P(0, 1)))
}

func TestStuckWhenEverythingReserved(t *testing.T) {
	a := newAgent("a", geom.P(0, 0), 3)
	env := newBoard(3, a)
	a.Perceive(env)
	a.Reserve(geom.P(1, 0))
	a.Reserve(geom.P(0, 1))

	act := a.Decide(env)
	requireMessage(t, act, protocol.Whisper, protocol.Stuck(geom.P(0, 0)))
	assert.Empty(t, a.Reserved)
	assert.Nil(t, a.PendingTarget)
}

func TestStalePendingTargetIsDropped(t *testing.T) {
	a := newAgent("a", geom.P(0, 0), 5)
	env := newBoard(5, a)
	far := geom.P(3, 3)
	a.PendingTarget = &far

	act := a.Decide(env)
	assert.Equal(t, ActNoop, act.Kind)
	assert.True(t, errors.Is(act.Err, geom.ErrInvalidDirection))
	assert.Nil(t, a.PendingTarget)
}
