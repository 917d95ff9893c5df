// Package agent is one explorer: its private belief, the rule policy that picks
// an action each tick and its side of the negotiation and voting protocol.
package agent

import (
	"bytes"
	"fmt"

	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/belief"
	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/grid"
)

// Env is the part of the world an agent may consult or act through while it
// runs. Whisper and Shout deliver synchronously before returning.
type Env interface {
	Size() int
	Percepts(p geom.Pos) []grid.Tag
	// Revealed reports the occupant kind of a grid-visible cell. Kind is zero
	// for an empty cell; ok is false while the cell is hidden.
	Revealed(p geom.Pos) (kind grid.Kind, ok bool)
	Whisper(from string, m protocol.Message)
	Shout(from string, m protocol.Message)
	Flip() bool
	IntN(n int) int
}

type VoteState uint8

const (
	VoteExit VoteState = iota
	VoteStay
)

func (v VoteState) String() string {
	if v == VoteStay {
		return "stay"
	}
	return "exit"
}

// ForgetScope selects the cells a WumpusKilled message clears.
type ForgetScope uint8

const (
	// ForgetTarget clears the cell named in the message.
	ForgetTarget ForgetScope = iota
	// ForgetReceiverNeighbors clears the receiver's own 4-neighbours.
	ForgetReceiverNeighbors
)

func ParseForgetScope(s string) (ForgetScope, error) {
	switch s {
	case "", "target":
		return ForgetTarget, nil
	case "receiver_neighbors":
		return ForgetReceiverNeighbors, nil
	default:
		return 0, fmt.Errorf("unknown forget scope %q", s)
	}
}

func (f ForgetScope) String() string {
	if f == ForgetReceiverNeighbors {
		return "receiver_neighbors"
	}
	return "target"
}

type Config struct {
	StagnationWindow int
	Arrows           int
	NegativeEvidence bool
	ForgetScope      ForgetScope
}

func DefaultConfig() Config {
	return Config{StagnationWindow: 20, Arrows: 2, NegativeEvidence: true}
}

type Agent struct {
	ID  string
	Pos geom.Pos
	Dir geom.Direction

	Belief *belief.Store

	PendingTarget *geom.Pos
	Reserved      map[geom.Pos]struct{}
	ArrowTarget   *geom.Pos
	ArrowsLeft    int

	Alive bool
	Score int
	Auto  bool

	VoteAdmin bool
	VoteState VoteState

	ShininessSeen bool
	// shineSpent is the cell where the last shininess cue was acted on. The
	// same cue is not acted on twice from one cell.
	shineSpent *geom.Pos

	snapshots [][]byte
	cfg       Config
}

func New(id string, pos geom.Pos, dir geom.Direction, size int, auto bool, cfg Config) *Agent {
	if cfg.StagnationWindow <= 0 {
		cfg.StagnationWindow = DefaultConfig().StagnationWindow
	}
	if !dir.Valid() {
		dir = geom.Front
	}
	return &Agent{
		ID:         id,
		Pos:        pos,
		Dir:        dir,
		Belief:     belief.NewStore(size, belief.WithNegativeEvidence(cfg.NegativeEvidence)),
		Reserved:   map[geom.Pos]struct{}{},
		ArrowsLeft: cfg.Arrows,
		Alive:      true,
		Auto:       auto,
		snapshots:  make([][]byte, 0, cfg.StagnationWindow),
		cfg:        cfg,
	}
}

func (a *Agent) Config() Config { return a.cfg }

// Perceive reads the percepts at the agent's cell into its belief and refreshes
// the estimates around it. Calling it again without moving leaves the belief
// unchanged.
func (a *Agent) Perceive(env Env) ([]grid.Tag, []belief.Inconsistency) {
	tags := env.Percepts(a.Pos)
	a.Belief.MarkVisited(a.Pos)
	shiny, issues := a.Belief.ApplyPercepts(a.Pos, tags)
	if shiny && (a.shineSpent == nil || *a.shineSpent != a.Pos) {
		a.ShininessSeen = true
	}
	return tags, issues
}

func (a *Agent) Reserve(p geom.Pos) { a.Reserved[p] = struct{}{} }

func (a *Agent) IsReserved(p geom.Pos) bool {
	_, ok := a.Reserved[p]
	return ok
}

func (a *Agent) clearReserved() {
	for p := range a.Reserved {
		delete(a.Reserved, p)
	}
}

// RecordSnapshot appends the current belief snapshot to the stagnation window,
// dropping the oldest once the window is full.
func (a *Agent) RecordSnapshot() {
	snap := a.Belief.Snapshot()
	if len(a.snapshots) == a.cfg.StagnationWindow {
		copy(a.snapshots, a.snapshots[1:])
		a.snapshots = a.snapshots[:len(a.snapshots)-1]
	}
	a.snapshots = append(a.snapshots, snap)
}

// Stagnated reports whether the window is full of identical snapshots.
func (a *Agent) Stagnated() bool {
	if len(a.snapshots) < a.cfg.StagnationWindow {
		return false
	}
	for _, s := range a.snapshots[1:] {
		if !bytes.Equal(s, a.snapshots[0]) {
			return false
		}
	}
	return true
}

// MoveTo records a successful move. Facing is unchanged.
func (a *Agent) MoveTo(p geom.Pos) {
	a.Pos = p
	a.shineSpent = nil
}

func (a *Agent) Kill() {
	a.Alive = false
	a.PendingTarget = nil
	a.ArrowTarget = nil
}
