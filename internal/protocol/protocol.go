// Package protocol is the agent negotiation and voting vocabulary: a closed
// Message union, its line-oriented wire form and the stable error codes the
// simulation reports in logs.
package protocol

const Version = "1.0"

// Wire keywords.
const (
	KeywordWantToMove   = "want_to_move"
	KeywordDeny         = "deny"
	KeywordAllow        = "allow"
	KeywordWumpusKilled = "wumpus_killed"
	KeywordStuck        = "stuck"
	KeywordSafeCellAt   = "safe_cell_at"
	KeywordVote         = "vote"
	KeywordStay         = "stay"
)

// Scope says how far a message travels.
type Scope uint8

const (
	// Whisper reaches agents within the whisper area of the sender.
	Whisper Scope = iota + 1
	// Shout reaches every living agent.
	Shout
)

func (s Scope) String() string {
	switch s {
	case Whisper:
		return "whisper"
	case Shout:
		return "shout"
	default:
		return "none"
	}
}
