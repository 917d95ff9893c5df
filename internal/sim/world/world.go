package world

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"wumpusworld.ai/internal/sim/agent"
	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/grid"
	"wumpusworld.ai/internal/sim/scenario"
)

var (
	ErrBlocked          = errors.New("cell blocked by another agent")
	ErrNoArrows         = errors.New("no arrows left")
	ErrNothingToCollect = errors.New("nothing to collect")
	ErrUnknownAgent     = errors.New("unknown agent")
	ErrEpisodeOver      = errors.New("episode over")
)

// ActionEnvelope carries an explicit action for one agent into the loop.
type ActionEnvelope struct {
	AgentID string
	Act     agent.Action
}

// World is a single-threaded episode simulation. All state must be accessed
// only from the goroutine driving StepOnce or Run.
type World struct {
	cfg    Config
	layout scenario.Layout
	log    logrus.FieldLogger

	grid *grid.Grid
	rng  *rand.Rand

	tick atomic.Uint64

	agents []*agent.Agent
	byID   map[string]*agent.Agent

	over    bool
	outcome Outcome
	last    string

	// Per-tick recording, reset at the start of every step.
	rec tickRecord

	sinks []TickSink

	inbox    chan ActionEnvelope
	stop     chan struct{}
	stopOnce sync.Once
}

type TickSink interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	Episode  string            `json:"episode"`
	Tick     uint64            `json:"tick"`
	Actions  []RecordedAction  `json:"actions,omitempty"`
	Messages []RecordedMessage `json:"messages,omitempty"`
	Events   []Event           `json:"events,omitempty"`
	Digest   string            `json:"digest"`
}

type RecordedAction struct {
	AgentID string `json:"agent_id"`
	Action  string `json:"action"`
	// Explicit marks actions supplied from outside the policy. Replays feed
	// them back in.
	Explicit bool   `json:"explicit,omitempty"`
	Code     string `json:"code,omitempty"`
}

type RecordedMessage struct {
	From  string   `json:"from"`
	Scope string   `json:"scope"`
	Text  string   `json:"text"`
	To    []string `json:"to,omitempty"`
}

type Event struct {
	Type    string    `json:"type"`
	AgentID string    `json:"agent_id,omitempty"`
	Pos     *geom.Pos `json:"pos,omitempty"`
	Reward  int       `json:"reward,omitempty"`
	Code    string    `json:"code,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

type tickRecord struct {
	actions  []RecordedAction
	messages []RecordedMessage
	events   []Event
}

// New builds the board from layout, spawns the agents in layout order and lets
// each one take its first look around.
func New(cfg Config, layout scenario.Layout, logger logrus.FieldLogger) (*World, error) {
	cfg.applyDefaults()
	if err := layout.Check(); err != nil {
		return nil, err
	}
	g, err := grid.New(layout.Size)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	w := &World{
		cfg:    cfg,
		layout: layout,
		log:    logger.WithField("episode", cfg.EpisodeID),
		grid:   g,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		byID:   map[string]*agent.Agent{},
		inbox:  make(chan ActionEnvelope, 256),
		stop:   make(chan struct{}),
	}

	for _, p := range layout.Wumpus {
		if err := g.Place(p, grid.NewWumpus()); err != nil {
			return nil, fmt.Errorf("place wumpus: %w", err)
		}
	}
	for _, p := range layout.Gold {
		if err := g.Place(p, grid.NewGold()); err != nil {
			return nil, fmt.Errorf("place gold: %w", err)
		}
	}
	for _, p := range layout.Pits {
		if err := g.Place(p, &grid.Pit{}); err != nil {
			return nil, fmt.Errorf("place pit: %w", err)
		}
	}
	for _, spec := range layout.Agents {
		dir := geom.Front
		if spec.Direction != "" {
			if dir, err = geom.ParseDirection(spec.Direction); err != nil {
				return nil, fmt.Errorf("agent %s: %w", spec.ID, err)
			}
		}
		if err := g.Place(spec.Pos, &grid.Agent{ID: spec.ID}); err != nil {
			return nil, fmt.Errorf("place agent %s: %w", spec.ID, err)
		}
		a := agent.New(spec.ID, spec.Pos, dir, layout.Size, spec.IsAuto(), cfg.Agent)
		w.agents = append(w.agents, a)
		w.byID[a.ID] = a
	}
	for _, a := range w.agents {
		_ = w.grid.Reveal(a.Pos)
		_, issues := a.Perceive(w)
		w.reportInconsistencies(a, issues)
		w.event(Event{Type: "spawn", AgentID: a.ID, Pos: posPtr(a.Pos), Detail: a.Dir.String()})
	}
	return w, nil
}

func (w *World) Config() Config { return w.cfg }
func (w *World) Layout() scenario.Layout { return w.layout }
func (w *World) Grid() *grid.Grid { return w.grid }
func (w *World) CurrentTick() uint64 { return w.tick.Load() }
func (w *World) AddTickSink(s TickSink) { w.sinks = append(w.sinks, s) }
func (w *World) Agents() []*agent.Agent { return w.agents }
func (w *World) Agent(id string) *agent.Agent { return w.byID[id] }

// LivingAgents returns the agents still alive, in spawn order.
func (w *World) LivingAgents() []*agent.Agent {
	out := make([]*agent.Agent, 0, len(w.agents))
	for _, a := range w.agents {
		if a.Alive {
			out = append(out, a)
		}
	}
	return out
}

func (w *World) event(e Event) { w.rec.events = append(w.rec.events, e) }

func posPtr(p geom.Pos) *geom.Pos { return &p }
