package world

import (
	"errors"
	"fmt"

	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/agent"
	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/grid"
)

// applyAct carries out one agent's action. A returned error means the action
// was a no-op; the caller logs it and moves on to the next agent.
func (w *World) applyAct(a *agent.Agent, act agent.Action) error {
	switch act.Kind {
	case agent.ActNoop:
		return act.Err
	case agent.ActTurn:
		if !act.Dir.Valid() {
			return fmt.Errorf("turn: %w", geom.ErrInvalidDirection)
		}
		a.Dir = act.Dir
		return nil
	case agent.ActMove:
		return w.applyMove(a, act.Dir)
	case agent.ActAttack:
		return w.applyAttack(a)
	case agent.ActCollect:
		return w.applyCollect(a)
	case agent.ActCommunicate:
		m := protocol.SafeCellAt(a.Pos)
		if act.Msg != nil {
			m = *act.Msg
		}
		if act.Scope == protocol.Shout {
			w.Shout(a.ID, m)
		} else {
			w.Whisper(a.ID, m)
		}
		return nil
	case agent.ActTerminate:
		w.finish(ReasonConsensus, a.ID)
		return nil
	default:
		return fmt.Errorf("%w: kind %d", agent.ErrUnknownAction, act.Kind)
	}
}

func (w *World) target(a *agent.Agent, d geom.Direction) (geom.Pos, error) {
	to, err := a.Pos.Step(d)
	if err != nil {
		return geom.Pos{}, err
	}
	if !geom.InBounds(to, w.grid.Size()) {
		return geom.Pos{}, fmt.Errorf("%w: %s from %s", grid.ErrOutOfBounds, d, a.Pos)
	}
	return to, nil
}

func (w *World) applyMove(a *agent.Agent, d geom.Direction) error {
	to, err := w.target(a, d)
	if err != nil {
		return err
	}
	if !w.grid.Visible(to) {
		_ = w.grid.Reveal(to)
		w.event(Event{Type: "reveal", AgentID: a.ID, Pos: posPtr(to)})
	}

	occ := w.grid.Occupant(to)
	out := grid.Interact(occ, &grid.Agent{ID: a.ID}, grid.Neutral)
	switch {
	case occ != nil && occ.Kind() == grid.KindAgent:
		return fmt.Errorf("%w: %s", ErrBlocked, to)
	case out.KillsInitiator:
		from := a.Pos
		_, _ = w.grid.RemoveOccupant(from)
		a.Kill()
		w.event(Event{Type: "death", AgentID: a.ID, Pos: posPtr(to), Detail: occ.Kind().String()})
		w.log.WithFields(w.fields(a, "")).Infof("agent died stepping into %s at %s", occ.Kind(), to)
		return nil
	case out.Glow:
		_ = w.grid.Ignite(to)
		w.event(Event{Type: "glow", AgentID: a.ID, Pos: posPtr(to)})
		return nil
	case out.Blocks:
		return nil
	}

	if err := w.grid.Move(a.Pos, to); err != nil {
		return err
	}
	a.MoveTo(to)
	return nil
}

func (w *World) applyAttack(a *agent.Agent) error {
	if a.ArrowsLeft <= 0 {
		a.ArrowTarget = nil
		return ErrNoArrows
	}
	faced, err := w.target(a, a.Dir)
	if err != nil {
		a.ArrowTarget = nil
		return err
	}
	occ := w.grid.Occupant(faced)
	out := grid.Interact(occ, &grid.Agent{ID: a.ID}, grid.Attack)
	switch {
	case !out.Hit:
		a.ArrowsLeft--
		a.ArrowTarget = nil
		w.event(Event{Type: "miss", AgentID: a.ID, Pos: posPtr(faced)})
	case out.Destroyed:
		_, _ = w.grid.RemoveOccupant(faced)
		_ = w.grid.Reveal(faced)
		a.Score += out.Reward
		w.event(Event{Type: "kill", AgentID: a.ID, Pos: posPtr(faced), Reward: out.Reward})
		w.log.WithFields(w.fields(a, "")).Infof("wumpus killed at %s", faced)
	default:
		a.ArrowTarget = nil
		w.event(Event{Type: "absorbed", AgentID: a.ID, Pos: posPtr(faced), Detail: occ.Kind().String()})
	}
	return nil
}

func (w *World) applyCollect(a *agent.Agent) error {
	faced, err := w.target(a, a.Dir)
	if err != nil {
		return err
	}
	out := grid.Interact(w.grid.Occupant(faced), &grid.Agent{ID: a.ID}, grid.Collect)
	if !out.Destroyed {
		return fmt.Errorf("%w at %s", ErrNothingToCollect, faced)
	}
	_, _ = w.grid.RemoveOccupant(faced)
	a.Score += out.Reward
	w.event(Event{Type: "gold", AgentID: a.ID, Pos: posPtr(faced), Reward: out.Reward})
	w.log.WithFields(w.fields(a, "")).Infof("gold collected at %s", faced)
	return nil
}

// codeOf maps an action error to its stable log code.
func codeOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, geom.ErrInvalidDirection):
		return protocol.CodeInvalidDirection
	case errors.Is(err, grid.ErrOutOfBounds):
		return protocol.CodeOutOfBounds
	case errors.Is(err, ErrBlocked):
		return protocol.CodeBlocked
	case errors.Is(err, ErrNoArrows):
		return protocol.CodeNoArrows
	case errors.Is(err, ErrNothingToCollect):
		return protocol.CodeNothingToCollect
	case errors.Is(err, agent.ErrUnknownAction):
		return protocol.CodeUnknownActionName
	case errors.Is(err, protocol.ErrUnknownAction), errors.Is(err, protocol.ErrMalformedPayload):
		return protocol.CodeOf(err)
	default:
		return protocol.CodeInternal
	}
}
