// Package belief holds an agent's private picture of the board: which cells it
// has visited, the percept counts it saw there and the derived pit and wumpus
// probabilities for the cells around them.
package belief

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/grid"
)

// Target is a hazard the estimator reasons about.
type Target uint8

const (
	Pit Target = iota
	Wumpus
)

var Targets = [...]Target{Pit, Wumpus}

func (t Target) String() string {
	if t == Wumpus {
		return "wumpus"
	}
	return "pit"
}

// TargetFor maps a percept tag to the hazard it is evidence of.
func TargetFor(tag grid.Tag) (Target, bool) {
	switch tag {
	case grid.TagBreeze:
		return Pit, true
	case grid.TagStench:
		return Wumpus, true
	default:
		return 0, false
	}
}

// CellBelief is one coordinate's entry in a Store.
type CellBelief struct {
	Visited     bool `json:"visited"`
	BreezeCount int  `json:"breeze"`
	StenchCount int  `json:"stench"`
	Pit         Prob `json:"pit"`
	Wumpus      Prob `json:"wumpus"`
}

func (c CellBelief) Count(t Target) int {
	if t == Wumpus {
		return c.StenchCount
	}
	return c.BreezeCount
}

func (c CellBelief) Prob(t Target) Prob {
	if t == Wumpus {
		return c.Wumpus
	}
	return c.Pit
}

// Safe reports whether both hazards are ruled out.
func (c CellBelief) Safe() bool { return c.Pit.Is(0) && c.Wumpus.Is(0) }

func (c *CellBelief) set(t Target, p Prob) {
	if t == Wumpus {
		c.Wumpus = p
	} else {
		c.Pit = p
	}
}

func (c *CellBelief) addCount(t Target) {
	if t == Wumpus {
		c.StenchCount++
	} else {
		c.BreezeCount++
	}
}

type Option func(*Store)

// WithNegativeEvidence controls whether a visited witness with a zero count for
// a hazard clears that hazard on its neighbours.
func WithNegativeEvidence(on bool) Option {
	return func(s *Store) { s.negativeEvidence = on }
}

// Store maps coordinates to CellBelief entries. A Store belongs to exactly one
// agent and is not safe for concurrent use.
type Store struct {
	size             int
	negativeEvidence bool
	cells            map[geom.Pos]*CellBelief
}

func NewStore(size int, opts ...Option) *Store {
	s := &Store{
		size:             size,
		negativeEvidence: true,
		cells:            map[geom.Pos]*CellBelief{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Size() int { return s.size }
func (s *Store) Len() int  { return len(s.cells) }

func (s *Store) ensure(p geom.Pos) *CellBelief {
	c, ok := s.cells[p]
	if !ok {
		c = &CellBelief{}
		s.cells[p] = c
	}
	return c
}

// Ensure creates an Unknown entry for p if none exists.
func (s *Store) Ensure(p geom.Pos) { s.ensure(p) }

// Get returns a copy of the entry for p.
func (s *Store) Get(p geom.Pos) (CellBelief, bool) {
	c, ok := s.cells[p]
	if !ok {
		return CellBelief{}, false
	}
	return *c, true
}

func (s *Store) MarkVisited(p geom.Pos) {
	c := s.ensure(p)
	c.Visited = true
	c.Pit = Value(0)
	c.Wumpus = Value(0)
}

// MarkSafe rules out both hazards at p.
func (s *Store) MarkSafe(p geom.Pos) {
	c := s.ensure(p)
	c.Pit = Value(0)
	c.Wumpus = Value(0)
}

// Forget resets the t probability at p to Unknown and clears Visited. The other
// hazard's probability is kept.
func (s *Store) Forget(p geom.Pos, t Target) {
	c := s.ensure(p)
	c.Visited = false
	c.set(t, Unknown)
}

// ClearCount drops the percept count for t at p. It is a no-op for cells the
// store has never seen.
func (s *Store) ClearCount(p geom.Pos, t Target) {
	c, ok := s.cells[p]
	if !ok {
		return
	}
	if t == Wumpus {
		c.StenchCount = 0
	} else {
		c.BreezeCount = 0
	}
}

// ApplyPercepts replaces the percept counts recorded at p with the ones in tags
// and re-estimates every 4-neighbour of p. It reports whether shininess was
// among the tags.
func (s *Store) ApplyPercepts(p geom.Pos, tags []grid.Tag) (bool, []Inconsistency) {
	c := s.ensure(p)
	c.BreezeCount, c.StenchCount = 0, 0
	shiny := false
	for _, tag := range tags {
		if tag == grid.TagShininess {
			shiny = true
			continue
		}
		if t, ok := TargetFor(tag); ok {
			c.addCount(t)
		}
	}

	var issues []Inconsistency
	for _, q := range geom.Neighbors4(p, s.size) {
		s.ensure(q)
	}
	for _, q := range geom.Neighbors4(p, s.size) {
		issues = append(issues, s.Estimate(q)...)
	}
	return shiny, issues
}

// Each visits entries in coordinate order.
func (s *Store) Each(fn func(p geom.Pos, c CellBelief)) {
	for _, p := range s.sortedKeys() {
		fn(p, *s.cells[p])
	}
}

func (s *Store) sortedKeys() []geom.Pos {
	keys := make([]geom.Pos, 0, len(s.cells))
	for p := range s.cells {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Snapshot serialises every entry in coordinate order. Equal stores produce
// equal bytes.
func (s *Store) Snapshot() []byte {
	keys := s.sortedKeys()
	out := make([]byte, 0, len(keys)*(8+1+8+2*9))
	for _, p := range keys {
		c := s.cells[p]
		out = binary.LittleEndian.AppendUint32(out, uint32(int32(p.X)))
		out = binary.LittleEndian.AppendUint32(out, uint32(int32(p.Y)))
		if c.Visited {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
		out = binary.LittleEndian.AppendUint32(out, uint32(c.BreezeCount))
		out = binary.LittleEndian.AppendUint32(out, uint32(c.StenchCount))
		out = appendProb(out, c.Pit)
		out = appendProb(out, c.Wumpus)
	}
	return out
}

func appendProb(b []byte, p Prob) []byte {
	v, ok := p.Float()
	if !ok {
		return append(b, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	}
	b = append(b, 1)
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

func (s *Store) String() string {
	return fmt.Sprintf("belief.Store{size=%d entries=%d}", s.size, len(s.cells))
}
