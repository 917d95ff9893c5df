package world

import (
	"github.com/sirupsen/logrus"

	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/agent"
	"wumpusworld.ai/internal/sim/belief"
)

// StepOnce advances the episode by a single tick. Every living agent runs its
// full perceive, decide and act cycle in spawn order before the next one
// starts. explicit overrides the policy for the agents it names; manual agents
// without an entry idle. Once the episode is over StepOnce does nothing and
// returns the last digest.
func (w *World) StepOnce(explicit map[string]agent.Action) (tick uint64, digest string) {
	tick = w.tick.Load()
	if w.over {
		return tick, w.last
	}

	for _, a := range w.agents {
		if w.over {
			break
		}
		if !a.Alive {
			continue
		}
		if act, ok := explicit[a.ID]; ok {
			w.turn(a, &act)
		} else {
			w.turn(a, nil)
		}
	}

	if !w.over {
		switch {
		case len(w.LivingAgents()) == 0:
			w.finish(ReasonNoLivingAgents, "")
		case w.cfg.MaxTicks > 0 && tick+1 >= uint64(w.cfg.MaxTicks):
			w.finish(ReasonMaxTicks, "")
		}
	}

	digest = w.stateDigest(tick)
	w.last = digest
	entry := TickLogEntry{
		Episode:  w.cfg.EpisodeID,
		Tick:     tick,
		Actions:  w.rec.actions,
		Messages: w.rec.messages,
		Events:   w.rec.events,
		Digest:   digest,
	}
	for _, s := range w.sinks {
		if err := s.WriteTick(entry); err != nil {
			w.log.WithField("tick", tick).Warnf("tick sink: %v", err)
		}
	}
	w.rec = tickRecord{}
	w.tick.Add(1)
	return tick, digest
}

// Act runs one agent's perceive, decide and act turn inside the current tick.
// A nil act lets the policy decide; a manual agent with nothing to do idles.
// StepOnce calls it for every living agent in spawn order; callers driving
// turns directly own that ordering.
func (w *World) Act(agentID string, act *agent.Action) error {
	a := w.byID[agentID]
	if a == nil {
		return ErrUnknownAgent
	}
	if w.over || !a.Alive {
		return nil
	}
	return w.turn(a, act)
}

func (w *World) turn(a *agent.Agent, act *agent.Action) error {
	_, issues := a.Perceive(w)
	w.reportInconsistencies(a, issues)

	var chosen agent.Action
	switch {
	case act != nil:
		a.RecordSnapshot()
		chosen = *act
	case a.Auto:
		chosen = a.Decide(w)
	default:
		a.RecordSnapshot()
		chosen = agent.Noop()
	}

	err := w.applyAct(a, chosen)
	rec := RecordedAction{AgentID: a.ID, Action: chosen.String(), Explicit: act != nil}
	if err != nil {
		rec.Code = codeOf(err)
		w.reportActionError(a, chosen, rec.Code, err)
	}
	w.rec.actions = append(w.rec.actions, rec)
	return err
}

func (w *World) fields(a *agent.Agent, code string) logrus.Fields {
	f := logrus.Fields{"tick": w.tick.Load(), "agent": a.ID, "pos": a.Pos.String()}
	if code != "" {
		f["code"] = code
	}
	return f
}

func (w *World) reportActionError(a *agent.Agent, act agent.Action, code string, err error) {
	w.event(Event{Type: "error", AgentID: a.ID, Pos: posPtr(a.Pos), Code: code, Detail: err.Error()})
	entry := w.log.WithFields(w.fields(a, code))
	if code == protocol.CodeBlocked {
		entry.Debugf("%s: %v", act, err)
		return
	}
	entry.Warnf("%s: %v", act, err)
}

func (w *World) reportInconsistencies(a *agent.Agent, issues []belief.Inconsistency) {
	for _, is := range issues {
		w.event(Event{Type: "inconsistent", AgentID: a.ID, Pos: posPtr(is.Witness), Code: protocol.CodeInconsistentEvidence, Detail: is.String()})
		w.log.WithFields(w.fields(a, protocol.CodeInconsistentEvidence)).Warn(is.String())
	}
}
