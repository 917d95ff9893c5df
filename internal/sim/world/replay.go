package world

import (
	"errors"
	"fmt"

	"wumpusworld.ai/internal/sim/agent"
)

// ErrDigestMismatch reports a replayed tick whose state differs from the log.
var ErrDigestMismatch = errors.New("digest mismatch")

// ExplicitActions returns the actions that were fed to StepOnce from outside
// the policy on the tick recorded by e.
func (e TickLogEntry) ExplicitActions() (map[string]agent.Action, error) {
	out := map[string]agent.Action{}
	for _, ra := range e.Actions {
		if !ra.Explicit {
			continue
		}
		act, err := agent.ParseAction(ra.Action)
		if err != nil {
			return nil, fmt.Errorf("tick %d agent %s: %w", e.Tick, ra.AgentID, err)
		}
		out[ra.AgentID] = act
	}
	return out, nil
}

// Replay steps w through entries and compares every digest. w must be freshly
// built from the same config and layout that produced the log. It returns the
// number of ticks checked.
func Replay(w *World, entries []TickLogEntry) (int, error) {
	checked := 0
	for _, e := range entries {
		if e.Tick != w.CurrentTick() {
			return checked, fmt.Errorf("tick mismatch: want=%d got=%d", w.CurrentTick(), e.Tick)
		}
		explicit, err := e.ExplicitActions()
		if err != nil {
			return checked, err
		}
		tick, got := w.StepOnce(explicit)
		if got != e.Digest {
			return checked, fmt.Errorf("%w at tick %d: got=%s want=%s", ErrDigestMismatch, tick, got, e.Digest)
		}
		checked++
		if w.Over() {
			break
		}
	}
	return checked, nil
}
