package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpusworld.ai/internal/sim/geom"
)

func newGrid(t *testing.T, size int) *Grid {
	t.Helper()
	g, err := New(size)
	require.NoError(t, err)
	return g
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
}

func TestCellAtOutOfBounds(t *testing.T) {
	g := newGrid(t, 5)
	_, err := g.CellAt(geom.P(5, 0))
	require.True(t, errors.Is(err, ErrOutOfBounds))
	_, err = g.CellAt(geom.P(-1, 2))
	require.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestPitSpreadsBreezeAndWithdrawsIt(t *testing.T) {
	g := newGrid(t, 5)
	require.NoError(t, g.Place(geom.P(2, 2), &Pit{}))

	for _, q := range g.Neighbors4(geom.P(2, 2)) {
		assert.Equal(t, []Tag{TagBreeze}, g.Percepts(q), "at %s", q)
	}
	assert.Empty(t, g.Percepts(geom.P(2, 2)))
	assert.Empty(t, g.Percepts(geom.P(1, 1)))

	_, err := g.RemoveOccupant(geom.P(2, 2))
	require.NoError(t, err)
	for _, q := range g.Neighbors4(geom.P(2, 2)) {
		assert.Empty(t, g.Percepts(q))
	}
}

func TestOverlappingPerceptsAreCounted(t *testing.T) {
	g := newGrid(t, 5)
	require.NoError(t, g.Place(geom.P(1, 2), &Pit{}))
	require.NoError(t, g.Place(geom.P(3, 2), &Pit{}))
	require.NoError(t, g.Place(geom.P(2, 3), NewWumpus()))

	assert.Equal(t, []Tag{TagBreeze, TagBreeze, TagStench}, g.Percepts(geom.P(2, 2)))
}

func TestPlaceOccupied(t *testing.T) {
	g := newGrid(t, 3)
	require.NoError(t, g.Place(geom.P(0, 0), &Pit{}))
	err := g.Place(geom.P(0, 0), NewGold())
	require.True(t, errors.Is(err, ErrOccupied))
}

func TestMoveIsAtomic(t *testing.T) {
	g := newGrid(t, 3)
	a := &Agent{ID: "a1"}
	require.NoError(t, g.Place(geom.P(0, 0), a))
	require.NoError(t, g.Move(geom.P(0, 0), geom.P(0, 1)))
	assert.Nil(t, g.Occupant(geom.P(0, 0)))
	assert.Same(t, a, g.Occupant(geom.P(0, 1)))

	require.NoError(t, g.Place(geom.P(1, 1), &Pit{}))
	err := g.Move(geom.P(0, 1), geom.P(1, 1))
	require.True(t, errors.Is(err, ErrOccupied))
	assert.Same(t, a, g.Occupant(geom.P(0, 1)))

	err = g.Move(geom.P(2, 2), geom.P(2, 1))
	require.True(t, errors.Is(err, ErrEmpty))
}

func TestGoldGlowsOnlyAfterIgnite(t *testing.T) {
	g := newGrid(t, 5)
	gold := NewGold()
	require.NoError(t, g.Place(geom.P(2, 2), gold))
	assert.Empty(t, g.Percepts(geom.P(2, 1)))

	require.NoError(t, g.Ignite(geom.P(2, 2)))
	require.NoError(t, g.Ignite(geom.P(2, 2)))
	assert.True(t, gold.Glowing)
	assert.Equal(t, []Tag{TagShininess}, g.Percepts(geom.P(2, 1)))

	_, err := g.RemoveOccupant(geom.P(2, 2))
	require.NoError(t, err)
	assert.Empty(t, g.Percepts(geom.P(2, 1)))
}

func TestRevealAndCopySemantics(t *testing.T) {
	g := newGrid(t, 3)
	require.NoError(t, g.Place(geom.P(1, 0), &Pit{}))
	require.NoError(t, g.Reveal(geom.P(0, 0)))

	c, err := g.CellAt(geom.P(0, 0))
	require.NoError(t, err)
	assert.True(t, c.Visible)
	require.Len(t, c.Percepts, 1)
	c.Percepts[0] = TagStench
	assert.Equal(t, []Tag{TagBreeze}, g.Percepts(geom.P(0, 0)))
}

func TestEachVisitsOccupants(t *testing.T) {
	g := newGrid(t, 3)
	require.NoError(t, g.Place(geom.P(2, 0), &Pit{}))
	require.NoError(t, g.Place(geom.P(0, 2), NewGold()))
	var seen []geom.Pos
	g.Each(func(p geom.Pos, _ Entity) { seen = append(seen, p) })
	assert.Equal(t, []geom.Pos{geom.P(0, 2), geom.P(2, 0)}, seen)
}

func TestInteract(t *testing.T) {
	me := &Agent{ID: "a1"}
	cases := []struct {
		name   string
		target Entity
		kind   Interaction
		want   Outcome
	}{
		{"empty", nil, Neutral, Outcome{}},
		{"self", me, Neutral, Outcome{}},
		{"agent blocks", &Agent{ID: "a2"}, Neutral, Outcome{Hit: true, Blocks: true}},
		{"pit kills", &Pit{}, Neutral, Outcome{Hit: true, Blocks: true, KillsInitiator: true, Reveal: true}},
		{"pit absorbs arrow", &Pit{}, Attack, Outcome{Hit: true}},
		{"wumpus kills", NewWumpus(), Neutral, Outcome{Hit: true, Blocks: true, KillsInitiator: true, Reveal: true}},
		{"wumpus shot", NewWumpus(), Attack, Outcome{Hit: true, Destroyed: true, Reveal: true, Reward: DefaultWumpusReward}},
		{"gold bump", NewGold(), Neutral, Outcome{Hit: true, Blocks: true, Glow: true}},
		{"glowing gold bump", &Gold{Reward: 5, Glowing: true}, Neutral, Outcome{Hit: true, Blocks: true}},
		{"gold collected", NewGold(), Collect, Outcome{Hit: true, Destroyed: true, Reward: DefaultGoldReward}},
		{"gold shot", NewGold(), Attack, Outcome{Hit: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Interact(tc.target, me, tc.kind))
		})
	}
}

func TestParseTagAndKind(t *testing.T) {
	for _, tag := range []Tag{TagBreeze, TagStench, TagShininess} {
		got, err := ParseTag(tag.String())
		require.NoError(t, err)
		assert.Equal(t, tag, got)
	}
	_, err := ParseTag("smell")
	require.Error(t, err)

	k, err := ParseKind("wumpus")
	require.NoError(t, err)
	assert.Equal(t, KindWumpus, k)
}
