package observerproto

import "wumpusworld.ai/internal/sim/world"

// Version is the observer protocol version (separate from the pilot protocol).
const Version = "0.1"

// Client -> Server. First message on the observer WS connection, and can be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Beliefs asks for each agent's belief grid in every tick.
	Beliefs bool `json:"beliefs,omitempty"`
	// Hidden asks for occupants the agents have not revealed yet.
	Hidden bool `json:"hidden,omitempty"`
}

// HTTP response for GET /v1/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string        `json:"protocol_version"`
	EpisodeID       string        `json:"episode_id"`
	Tick            uint64        `json:"tick"`
	Params          EpisodeParams `json:"params"`
}

type EpisodeParams struct {
	Size       int      `json:"size"`
	TickRateHz int      `json:"tick_rate_hz"`
	MaxTicks   int      `json:"max_ticks"`
	Seed       uint64   `json:"seed"`
	Scenario   string   `json:"scenario,omitempty"`
	Agents     []string `json:"agents"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	EpisodeID       string `json:"episode_id"`
	Tick            uint64 `json:"tick"`
	Digest          string `json:"digest"`

	Agents   []AgentState            `json:"agents"`
	Cells    []CellState             `json:"cells,omitempty"`
	Actions  []world.RecordedAction  `json:"actions,omitempty"`
	Messages []world.RecordedMessage `json:"messages,omitempty"`
	Events   []world.Event           `json:"events,omitempty"`
}

type AgentState struct {
	ID         string `json:"id"`
	Pos        [2]int `json:"pos"`
	Dir        string `json:"dir"`
	Alive      bool   `json:"alive"`
	Auto       bool   `json:"auto"`
	Score      int    `json:"score"`
	ArrowsLeft int    `json:"arrows_left"`
	VoteAdmin  bool   `json:"vote_admin,omitempty"`

	Beliefs []BeliefCell `json:"beliefs,omitempty"`
}

// CellState is one board cell. Occupant is empty unless the cell is visible
// or hidden cells were requested.
type CellState struct {
	Pos      [2]int   `json:"pos"`
	Visible  bool     `json:"visible,omitempty"`
	Occupant string   `json:"occupant,omitempty"`
	Percepts []string `json:"percepts,omitempty"`
}

// BeliefCell uses nil for an unknown probability.
type BeliefCell struct {
	Pos     [2]int   `json:"pos"`
	Visited bool     `json:"visited,omitempty"`
	Pit     *float64 `json:"pit"`
	Wumpus  *float64 `json:"wumpus"`
}

// Server -> Client. Sent once when an episode finishes.
type EpisodeEndMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Outcome         world.Outcome `json:"outcome"`
}
