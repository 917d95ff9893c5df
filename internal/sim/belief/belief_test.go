package belief

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/grid"
)

func visit(s *Store, p geom.Pos, tags ...grid.Tag) []Inconsistency {
	s.MarkVisited(p)
	_, issues := s.ApplyPercepts(p, tags)
	return issues
}

func TestProbOrdering(t *testing.T) {
	assert.True(t, Value(0).Greater(Unknown))
	assert.False(t, Unknown.Greater(Value(0)))
	assert.False(t, Unknown.Greater(Unknown))
	assert.True(t, Value(0.5).Greater(Value(0.25)))
	assert.False(t, Value(0.25).Greater(Value(0.25)))

	assert.True(t, Value(0).Locked())
	assert.True(t, Value(1).Locked())
	assert.False(t, Value(0.5).Locked())
	assert.False(t, Unknown.Locked())
	assert.True(t, Value(3).Is(1))
	assert.True(t, Value(-1).Is(0))
}

func TestProbJSON(t *testing.T) {
	b, err := Unknown.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var p Prob
	require.NoError(t, p.UnmarshalJSON([]byte("0.25")))
	assert.True(t, p.Is(0.25))
	require.NoError(t, p.UnmarshalJSON([]byte("null")))
	assert.False(t, p.Known())
}

// A single breeze at (2,2) spreads evenly over its four unresolved neighbours.
func TestBreezeSplitsOverFourNeighbours(t *testing.T) {
	s := NewStore(5)
	visit(s, geom.P(2, 2), grid.TagBreeze)

	c, ok := s.Get(geom.P(2, 2))
	require.True(t, ok)
	assert.Equal(t, 1, c.BreezeCount)

	up, ok := s.Get(geom.P(2, 3))
	require.True(t, ok)
	assert.True(t, up.Pit.Is(0.25), "pit=%s", up.Pit)

	s.Estimate(geom.P(2, 3))
	up, _ = s.Get(geom.P(2, 3))
	assert.True(t, up.Pit.Is(0.25))
	assert.True(t, up.Wumpus.Is(0), "negative stench evidence clears wumpus")
}

func TestQuietVisitIsSafe(t *testing.T) {
	s := NewStore(5)
	visit(s, geom.P(1, 1))

	c, ok := s.Get(geom.P(1, 1))
	require.True(t, ok)
	assert.Equal(t, CellBelief{Visited: true, Pit: Value(0), Wumpus: Value(0)}, c)
}

func TestWithoutNegativeEvidenceNeighboursStayUnknown(t *testing.T) {
	s := NewStore(5, WithNegativeEvidence(false))
	visit(s, geom.P(1, 1))

	for _, q := range geom.Neighbors4(geom.P(1, 1), 5) {
		c, ok := s.Get(q)
		require.True(t, ok, "neighbour %s is created lazily", q)
		assert.False(t, c.Pit.Known())
		assert.False(t, c.Wumpus.Known())
	}
}

func TestNegativeEvidenceOverridesEstimate(t *testing.T) {
	s := NewStore(5)
	visit(s, geom.P(2, 2), grid.TagBreeze)
	c, _ := s.Get(geom.P(2, 3))
	require.True(t, c.Pit.Is(0.25))

	visit(s, geom.P(1, 3))
	c, _ = s.Get(geom.P(2, 3))
	assert.True(t, c.Pit.Is(0))
}

func TestConfirmedHazardWhenOnlyOneCandidateLeft(t *testing.T) {
	s := NewStore(5)
	visit(s, geom.P(0, 0))
	visit(s, geom.P(0, 1), grid.TagStench)
	visit(s, geom.P(1, 1))

	// (0,1) has neighbours (0,0) visited, (1,1) visited, (0,2) unknown.
	s.Estimate(geom.P(0, 2))
	c, _ := s.Get(geom.P(0, 2))
	assert.True(t, c.Wumpus.Is(1), "wumpus=%s", c.Wumpus)
	assert.True(t, c.Wumpus.Locked())
}

func TestAccountedHazardIsSubtracted(t *testing.T) {
	s := NewStore(5, WithNegativeEvidence(false))
	visit(s, geom.P(0, 0))
	visit(s, geom.P(0, 1), grid.TagStench)
	visit(s, geom.P(1, 1))
	s.Estimate(geom.P(0, 2))
	c, _ := s.Get(geom.P(0, 2))
	require.True(t, c.Wumpus.Is(1))

	// A second witness with one stench next to a confirmed wumpus proposes 0.
	visit(s, geom.P(1, 2), grid.TagStench)
	c, _ = s.Get(geom.P(2, 2))
	assert.True(t, c.Wumpus.Is(0), "wumpus=%s", c.Wumpus)
}

func TestInconsistentEvidenceIsReported(t *testing.T) {
	s := NewStore(3, WithNegativeEvidence(false))
	visit(s, geom.P(0, 0), grid.TagBreeze)
	s.MarkSafe(geom.P(1, 0))
	s.MarkSafe(geom.P(0, 1))

	// The breeze at (0,0) has nowhere left to come from.
	issues := s.Estimate(geom.P(1, 0))
	require.Len(t, issues, 1)
	assert.Equal(t, geom.P(0, 0), issues[0].Witness)
	assert.Equal(t, geom.P(1, 0), issues[0].Cell)
	assert.Equal(t, Pit, issues[0].Target)
	assert.Equal(t, 1, issues[0].Residual)
	assert.Contains(t, issues[0].String(), "inconsistent pit evidence")

	c, _ := s.Get(geom.P(1, 0))
	assert.True(t, c.Pit.Is(0), "skipped update leaves the entry alone")
}

func TestShininessIsReportedNotCounted(t *testing.T) {
	s := NewStore(5)
	s.MarkVisited(geom.P(2, 2))
	shiny, _ := s.ApplyPercepts(geom.P(2, 2), []grid.Tag{grid.TagShininess, grid.TagStench})
	assert.True(t, shiny)
	c, _ := s.Get(geom.P(2, 2))
	assert.Equal(t, 0, c.BreezeCount)
	assert.Equal(t, 1, c.StenchCount)
}

func TestCountsResetBetweenVisits(t *testing.T) {
	s := NewStore(5)
	visit(s, geom.P(2, 2), grid.TagBreeze, grid.TagBreeze)
	visit(s, geom.P(2, 2), grid.TagBreeze)
	c, _ := s.Get(geom.P(2, 2))
	assert.Equal(t, 1, c.BreezeCount)
}

func TestForgetTouchesOneTarget(t *testing.T) {
	s := NewStore(5)
	visit(s, geom.P(3, 3))
	s.Forget(geom.P(3, 3), Wumpus)

	c, _ := s.Get(geom.P(3, 3))
	assert.False(t, c.Visited)
	assert.False(t, c.Wumpus.Known())
	assert.True(t, c.Pit.Is(0))
}

func TestMarkSafeCreatesEntry(t *testing.T) {
	s := NewStore(5)
	s.MarkSafe(geom.P(4, 4))
	c, ok := s.Get(geom.P(4, 4))
	require.True(t, ok)
	assert.True(t, c.Safe())
	assert.False(t, c.Visited)
}

func TestVisitedCellsAreAlwaysSafe(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	s := NewStore(6)
	tags := []grid.Tag{grid.TagBreeze, grid.TagStench, grid.TagShininess}
	for i := 0; i < 400; i++ {
		p := geom.P(r.IntN(6), r.IntN(6))
		var seen []grid.Tag
		for j := r.IntN(3); j > 0; j-- {
			seen = append(seen, tags[r.IntN(len(tags))])
		}
		visit(s, p, seen...)
		s.Each(func(q geom.Pos, c CellBelief) {
			if c.Visited {
				require.True(t, c.Safe(), "visited %s pit=%s wumpus=%s", q, c.Pit, c.Wumpus)
			}
		})
	}
}

func TestLockedProbabilitiesNeverChange(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for round := 0; round < 20; round++ {
		s := NewStore(5, WithNegativeEvidence(round%2 == 0))
		locked := map[geom.Pos][2]Prob{}
		for i := 0; i < 60; i++ {
			p := geom.P(r.IntN(5), r.IntN(5))
			if c, ok := s.Get(p); ok && (c.Pit.Is(1) || c.Wumpus.Is(1)) {
				continue
			}
			var seen []grid.Tag
			if r.IntN(2) == 0 {
				seen = append(seen, grid.TagBreeze)
			}
			if r.IntN(3) == 0 {
				seen = append(seen, grid.TagStench)
			}
			visit(s, p, seen...)
			delete(locked, p)
			for _, q := range geom.Neighbors4(geom.P(r.IntN(5), r.IntN(5)), 5) {
				s.Estimate(q)
			}

			for q, was := range locked {
				c, _ := s.Get(q)
				if was[0].Locked() {
					require.Equal(t, was[0], c.Pit, "pit at %s", q)
				}
				if was[1].Locked() {
					require.Equal(t, was[1], c.Wumpus, "wumpus at %s", q)
				}
			}
			s.Each(func(q geom.Pos, c CellBelief) {
				if c.Pit.Locked() || c.Wumpus.Locked() {
					locked[q] = [2]Prob{c.Pit, c.Wumpus}
				}
			})
		}
	}
}

func TestSnapshotIsStable(t *testing.T) {
	s := NewStore(5)
	visit(s, geom.P(2, 2), grid.TagBreeze)
	first := s.Snapshot()
	visit(s, geom.P(2, 2), grid.TagBreeze)
	assert.Equal(t, first, s.Snapshot())

	o := NewStore(5)
	visit(o, geom.P(2, 2), grid.TagBreeze)
	assert.Equal(t, first, o.Snapshot())

	visit(o, geom.P(2, 3))
	assert.NotEqual(t, first, o.Snapshot())
}

func TestClearCount(t *testing.T) {
	s := NewStore(5)
	visit(s, geom.P(1, 1), grid.TagStench, grid.TagBreeze)
	s.ClearCount(geom.P(1, 1), Wumpus)
	s.ClearCount(geom.P(4, 4), Wumpus)

	c, _ := s.Get(geom.P(1, 1))
	assert.Equal(t, 0, c.StenchCount)
	assert.Equal(t, 1, c.BreezeCount)
	_, ok := s.Get(geom.P(4, 4))
	assert.False(t, ok)
}
