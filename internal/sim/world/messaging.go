package world

import (
	"github.com/sirupsen/logrus"

	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/agent"
	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/grid"
)

var _ agent.Env = (*World)(nil)

func (w *World) Size() int { return w.grid.Size() }

func (w *World) Percepts(p geom.Pos) []grid.Tag { return w.grid.Percepts(p) }

func (w *World) Revealed(p geom.Pos) (grid.Kind, bool) {
	if !w.grid.Visible(p) {
		return 0, false
	}
	if e := w.grid.Occupant(p); e != nil {
		return e.Kind(), true
	}
	return 0, true
}

// Flip is the unweighted coin used to settle move conflicts. It draws from the
// episode RNG so a seed replays identically.
func (w *World) Flip() bool { return w.rng.IntN(2) == 0 }

func (w *World) IntN(n int) int { return w.rng.IntN(n) }

// Whisper delivers m to the living agents inside the sender's whisper area.
func (w *World) Whisper(from string, m protocol.Message) {
	sender := w.byID[from]
	if sender == nil {
		return
	}
	area := map[geom.Pos]struct{}{}
	for _, p := range geom.WhisperArea(sender.Pos, w.grid.Size()) {
		area[p] = struct{}{}
	}
	w.deliver(protocol.Whisper, from, m, func(a *agent.Agent) bool {
		_, ok := area[a.Pos]
		return ok
	})
}

// Shout delivers m to every living agent.
func (w *World) Shout(from string, m protocol.Message) {
	w.deliver(protocol.Shout, from, m, func(*agent.Agent) bool { return true })
}

// deliver hands m to each matching receiver in spawn order. Replies sent from a
// handler are delivered before the next receiver runs.
func (w *World) deliver(scope protocol.Scope, from string, m protocol.Message, reach func(*agent.Agent) bool) {
	var to []*agent.Agent
	for _, a := range w.agents {
		if a.ID == from || !a.Alive || !reach(a) {
			continue
		}
		to = append(to, a)
	}
	rec := RecordedMessage{From: from, Scope: scope.String(), Text: protocol.Encode(m)}
	for _, a := range to {
		rec.To = append(rec.To, a.ID)
	}
	w.rec.messages = append(w.rec.messages, rec)
	w.log.WithField("agent", from).Debugf("%s %s to %d agents", scope, rec.Text, len(to))

	for _, a := range to {
		if !a.Alive {
			continue
		}
		a.Receive(w, m)
	}
}

// DeliverRaw parses a wire message and hands it to one agent as if from a peer.
func (w *World) DeliverRaw(agentID, text string) error {
	a := w.byID[agentID]
	if a == nil {
		return ErrUnknownAgent
	}
	if err := a.ReceiveRaw(w, text); err != nil {
		code := protocol.CodeOf(err)
		entry := w.log.WithFields(logrus.Fields{"agent": agentID, "code": code})
		if code == protocol.CodeUnknownAction {
			entry.Debugf("ignored message %q: %v", text, err)
		} else {
			entry.Warnf("bad message %q: %v", text, err)
		}
		w.event(Event{Type: "bad_message", AgentID: agentID, Code: code, Detail: text})
		return err
	}
	return nil
}
