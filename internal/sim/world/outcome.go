package world

import (
	"github.com/sirupsen/logrus"

	"wumpusworld.ai/internal/sim/belief"
	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/grid"
)

type Reason string

const (
	ReasonConsensus      Reason = "consensus_exit"
	ReasonMaxTicks       Reason = "max_ticks"
	ReasonNoLivingAgents Reason = "no_living_agents"
	// ReasonInterrupted is never set by the world; runners use it for
	// episodes they stop early.
	ReasonInterrupted Reason = "interrupted"
)

type AgentResult struct {
	ID         string   `json:"id"`
	Alive      bool     `json:"alive"`
	Score      int      `json:"score"`
	ArrowsLeft int      `json:"arrows_left"`
	Pos        geom.Pos `json:"pos"`
	Visited    int      `json:"visited"`
}

type Outcome struct {
	Episode      string        `json:"episode"`
	Reason       Reason        `json:"reason"`
	Tick         uint64        `json:"tick"`
	TerminatedBy string        `json:"terminated_by,omitempty"`
	Agents       []AgentResult `json:"agents"`
	WumpusLeft   int           `json:"wumpus_left"`
	GoldLeft     int           `json:"gold_left"`
}

// TotalScore sums the per-agent scores.
func (o Outcome) TotalScore() int {
	n := 0
	for _, a := range o.Agents {
		n += a.Score
	}
	return n
}

func (w *World) Over() bool { return w.over }

// Outcome reports how the episode ended. Before the end it describes the
// current state with an empty Reason.
func (w *World) Outcome() Outcome {
	if w.over {
		return w.outcome
	}
	return w.snapshotOutcome("", "")
}

func (w *World) finish(reason Reason, by string) {
	if w.over {
		return
	}
	w.over = true
	w.outcome = w.snapshotOutcome(reason, by)
	w.event(Event{Type: "episode_end", AgentID: by, Detail: string(reason)})
	w.log.WithFields(logrus.Fields{"tick": w.tick.Load(), "reason": string(reason)}).Infof("episode over, total score %d", w.outcome.TotalScore())
}

func (w *World) snapshotOutcome(reason Reason, by string) Outcome {
	o := Outcome{Episode: w.cfg.EpisodeID, Reason: reason, Tick: w.tick.Load(), TerminatedBy: by}
	for _, a := range w.agents {
		visited := 0
		a.Belief.Each(func(_ geom.Pos, c belief.CellBelief) {
			if c.Visited {
				visited++
			}
		})
		o.Agents = append(o.Agents, AgentResult{
			ID:         a.ID,
			Alive:      a.Alive,
			Score:      a.Score,
			ArrowsLeft: a.ArrowsLeft,
			Pos:        a.Pos,
			Visited:    visited,
		})
	}
	w.grid.Each(func(_ geom.Pos, e grid.Entity) {
		switch e.Kind() {
		case grid.KindWumpus:
			o.WumpusLeft++
		case grid.KindGold:
			o.GoldLeft++
		}
	})
	return o
}
