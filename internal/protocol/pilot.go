package protocol

import (
	"encoding/json"
	"fmt"
)

// Pilot envelope types. A pilot is a remote client that drives one agent over
// a websocket: HELLO, then WELCOME per episode, OBS per tick, ACT at will.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeObs     = "OBS"
	TypeAct     = "ACT"
	TypeError   = "ERROR"
)

type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return m, err
	}
	if m.Type == "" {
		return m, fmt.Errorf("missing type")
	}
	return m, nil
}

type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AgentID         string `json:"agent_id"`
	MaxQueue        int    `json:"max_queue,omitempty"`
}

type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	EpisodeID       string `json:"episode_id"`
	AgentID         string `json:"agent_id"`
	Size            int    `json:"size"`
	Auto            bool   `json:"auto"`
}

type ObsMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	EpisodeID       string   `json:"episode_id"`
	Tick            uint64   `json:"tick"`
	Pos             [2]int   `json:"pos"`
	Dir             string   `json:"dir"`
	Percepts        []string `json:"percepts"`
	Alive           bool     `json:"alive"`
	Score           int      `json:"score"`
	ArrowsLeft      int      `json:"arrows_left"`
	// Inbox holds the wire text of messages delivered to the agent this tick.
	Inbox []string `json:"inbox,omitempty"`
	Over  bool     `json:"over,omitempty"`
}

// ActMsg names an action the way the replay log does ("move_front",
// "communicate shout vote: call", ...).
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Action          string `json:"action"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: msg}
}
