package agent

import (
	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/grid"
)

// Decide picks the next action of an autonomous agent. Rules are tried in
// order and the first that applies wins.
func (a *Agent) Decide(env Env) Action {
	a.RecordSnapshot()

	// Stagnation starts an exit vote.
	if !a.VoteAdmin && a.Stagnated() {
		a.VoteAdmin = true
		a.VoteState = VoteExit
		return Communicate(protocol.Shout, protocol.Vote(protocol.BallotCall))
	}

	if a.VoteAdmin {
		if a.VoteState == VoteExit {
			return Terminate()
		}
		a.VoteAdmin = false
		a.snapshots = a.snapshots[:0]
	}

	if a.ShininessSeen {
		a.ShininessSeen = false
		spent := a.Pos
		a.shineSpent = &spent
		return Collect()
	}

	if a.ArrowTarget != nil {
		if a.Pos == *a.ArrowTarget {
			a.ArrowTarget = nil
			a.forgetKilled(a.Pos)
			return Communicate(protocol.Shout, protocol.WumpusKilled(a.Pos))
		}
		d, err := geom.DirectionBetween(a.Pos, *a.ArrowTarget)
		if err != nil {
			a.ArrowTarget = nil
			return invalid(err)
		}
		return Move(d)
	}

	if a.ArrowsLeft > 0 {
		for _, q := range geom.Neighbors4(a.Pos, env.Size()) {
			c, ok := a.Belief.Get(q)
			if !ok || !c.Wumpus.Is(1) {
				continue
			}
			d, _ := geom.DirectionBetween(a.Pos, q)
			if a.Dir == d {
				target := q
				a.ArrowTarget = &target
				return Attack()
			}
			return Turn(d)
		}
	}

	if a.PendingTarget == nil {
		safe := a.safeNeighbors(env)
		if len(safe) == 0 {
			a.clearReserved()
			return Communicate(protocol.Whisper, protocol.Stuck(a.Pos))
		}
		target := safe[env.IntN(len(safe))]
		a.PendingTarget = &target
		return Communicate(protocol.Whisper, protocol.WantToMove(a.Pos, target))
	}

	d, err := geom.DirectionBetween(a.Pos, *a.PendingTarget)
	if err != nil {
		a.PendingTarget = nil
		return invalid(err)
	}
	if a.Dir != d {
		return Turn(d)
	}
	a.clearReserved()
	a.PendingTarget = nil
	return Move(d)
}

// safeNeighbors lists unreserved 4-neighbours believed free of both hazards or
// seen to be free. Unvisited cells are returned alone when there are any.
func (a *Agent) safeNeighbors(env Env) []geom.Pos {
	var safe, fresh []geom.Pos
	for _, q := range geom.Neighbors4(a.Pos, env.Size()) {
		if a.IsReserved(q) {
			continue
		}
		c, known := a.Belief.Get(q)
		if !(known && c.Safe()) && !revealedFree(env, q) {
			continue
		}
		safe = append(safe, q)
		if !c.Visited {
			fresh = append(fresh, q)
		}
	}
	if len(fresh) > 0 {
		return fresh
	}
	return safe
}

func revealedFree(env Env, p geom.Pos) bool {
	kind, ok := env.Revealed(p)
	if !ok {
		return false
	}
	switch kind {
	case grid.KindPit, grid.KindWumpus, grid.KindAgent:
		return false
	default:
		return true
	}
}
