package belief

import (
	"fmt"

	"wumpusworld.ai/internal/sim/geom"
)

// Inconsistency is reported when a witness still has unexplained evidence for a
// hazard but none of its neighbours can hold it.
type Inconsistency struct {
	Cell     geom.Pos
	Witness  geom.Pos
	Target   Target
	Residual int
}

func (i Inconsistency) String() string {
	return fmt.Sprintf("inconsistent %s evidence at %s while estimating %s: residual %d", i.Target, i.Witness, i.Cell, i.Residual)
}

// Estimate refreshes the probabilities at p from its visited 4-neighbours. Each
// witness proposes residual/possible for a hazard and the largest proposal wins.
// A locked value is never replaced. Only p's entry is written.
func (s *Store) Estimate(p geom.Pos) []Inconsistency {
	c := s.ensure(p)
	if c.Visited {
		c.Pit = Value(0)
		c.Wumpus = Value(0)
		return nil
	}

	var issues []Inconsistency
	for _, w := range geom.Neighbors4(p, s.size) {
		wc, ok := s.cells[w]
		if !ok || !wc.Visited {
			continue
		}
		for _, t := range Targets {
			count := wc.Count(t)
			if count == 0 {
				if s.negativeEvidence && !c.Prob(t).Locked() {
					c.set(t, Value(0))
				}
				continue
			}

			possible, confirmed := s.tally(w, t)
			residual := count - confirmed
			if possible == 0 {
				if residual != 0 {
					issues = append(issues, Inconsistency{Cell: p, Witness: w, Target: t, Residual: residual})
				}
				continue
			}
			next := Value(float64(residual) / float64(possible))
			if cur := c.Prob(t); !cur.Locked() && next.Greater(cur) {
				c.set(t, next)
			}
		}
	}
	return issues
}

// tally counts the 4-neighbours of w that could still hold t and the ones
// already known to hold it.
func (s *Store) tally(w geom.Pos, t Target) (possible, confirmed int) {
	for _, q := range geom.Neighbors4(w, s.size) {
		qc, ok := s.cells[q]
		if !ok {
			possible++
			continue
		}
		pr := qc.Prob(t)
		if pr.Is(1) {
			confirmed++
		}
		if !qc.Visited && !pr.Locked() {
			possible++
		}
	}
	return possible, confirmed
}
