package agent

import (
	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/grid"
)

// board is an Env where every message reaches every other living agent.
type board struct {
	size     int
	percepts map[geom.Pos][]grid.Tag
	revealed map[geom.Pos]grid.Kind
	agents   []*Agent
	flips    []bool
	picks    []int
	sent     []string
}

func newBoard(size int, agents ...*Agent) *board {
	return &board{
		size:     size,
		percepts: map[geom.Pos][]grid.Tag{},
		revealed: map[geom.Pos]grid.Kind{},
		agents:   agents,
	}
}

func (b *board) Size() int { return b.size }

func (b *board) Percepts(p geom.Pos) []grid.Tag { return b.percepts[p] }

func (b *board) Revealed(p geom.Pos) (grid.Kind, bool) {
	k, ok := b.revealed[p]
	return k, ok
}

func (b *board) Whisper(from string, m protocol.Message) { b.deliver("whisper", from, m) }
func (b *board) Shout(from string, m protocol.Message)   { b.deliver("shout", from, m) }

func (b *board) deliver(scope, from string, m protocol.Message) {
	b.sent = append(b.sent, from+" "+scope+" "+m.String())
	for _, a := range b.agents {
		if a.ID == from || !a.Alive {
			continue
		}
		a.Receive(b, m)
	}
}

func (b *board) Flip() bool {
	if len(b.flips) == 0 {
		return false
	}
	v := b.flips[0]
	b.flips = b.flips[1:]
	return v
}

func (b *board) IntN(n int) int {
	if len(b.picks) == 0 {
		return 0
	}
	v := b.picks[0]
	b.picks = b.picks[1:]
	return v % n
}

func newAgent(id string, pos geom.Pos, size int) *Agent {
	return New(id, pos, geom.Front, size, true, DefaultConfig())
}
