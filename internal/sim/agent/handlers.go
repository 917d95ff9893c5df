package agent

import (
	"fmt"

	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/belief"
	"wumpusworld.ai/internal/sim/geom"
)

// Receive applies a message from another agent. Replies go out through env
// before Receive returns.
func (a *Agent) Receive(env Env, m protocol.Message) {
	switch m.Kind {
	case protocol.KindWantToMove:
		a.Reserve(m.From)
		if a.PendingTarget == nil || *a.PendingTarget != m.Pos {
			a.Reserve(m.Pos)
			return
		}
		if env.Flip() {
			env.Whisper(a.ID, protocol.Deny(m.Pos))
			return
		}
		a.PendingTarget = nil
		a.Reserve(m.Pos)
		env.Whisper(a.ID, protocol.Allow(m.Pos))

	case protocol.KindDeny:
		if a.PendingTarget != nil && *a.PendingTarget == m.Pos {
			a.PendingTarget = nil
		}
		a.Reserve(m.Pos)

	case protocol.KindAllow:

	case protocol.KindWumpusKilled:
		a.forgetWumpus(m.Pos)

	case protocol.KindStuck:
		a.Reserve(m.Pos)
		for _, q := range geom.Neighbors4(m.Pos, env.Size()) {
			if c, ok := a.Belief.Get(q); ok && (c.Visited || c.Safe()) {
				env.Whisper(a.ID, protocol.SafeCellAt(q))
			}
		}

	case protocol.KindSafeCellAt:
		a.Belief.MarkSafe(m.Pos)

	case protocol.KindVote:
		if m.Ballot != protocol.BallotCall || a.VoteAdmin {
			return
		}
		if a.Stagnated() {
			env.Shout(a.ID, protocol.Vote(protocol.BallotExit))
		} else {
			env.Shout(a.ID, protocol.Stay())
		}

	case protocol.KindStay:
		if a.VoteAdmin {
			a.VoteState = VoteStay
		}
	}
}

// ReceiveRaw parses a wire message and applies it.
func (a *Agent) ReceiveRaw(env Env, text string) error {
	m, err := protocol.Parse(text)
	if err != nil {
		return fmt.Errorf("agent %s: %w", a.ID, err)
	}
	a.Receive(env, m)
	return nil
}

func (a *Agent) forgetWumpus(killed geom.Pos) {
	if a.cfg.ForgetScope == ForgetReceiverNeighbors {
		for _, q := range geom.Neighbors4(a.Pos, a.Belief.Size()) {
			a.Belief.Forget(q, belief.Wumpus)
		}
		return
	}
	a.forgetKilled(killed)
}

// forgetKilled clears the dead wumpus at p and the stench it left around it.
func (a *Agent) forgetKilled(p geom.Pos) {
	a.Belief.Forget(p, belief.Wumpus)
	for _, q := range geom.Neighbors4(p, a.Belief.Size()) {
		a.Belief.ClearCount(q, belief.Wumpus)
	}
}
