package protocol

const (
	// Action application.
	CodeInvalidDirection  = "E_INVALID_DIRECTION"
	CodeOutOfBounds       = "E_OUT_OF_BOUNDS"
	CodeBlocked           = "E_BLOCKED"
	CodeNoArrows          = "E_NO_ARROWS"
	CodeNothingToCollect  = "E_NOTHING_TO_COLLECT"
	CodeUnknownActionName = "E_UNKNOWN_ACTION_NAME"

	// Belief.
	CodeInconsistentEvidence = "E_INCONSISTENT_EVIDENCE"

	// Messaging.
	CodeBadMessage    = "E_BAD_MESSAGE"
	CodeUnknownAction = "E_UNKNOWN_ACTION"

	// Pilot transport.
	CodeBadRequest   = "E_BAD_REQUEST"
	CodeUnknownAgent = "E_UNKNOWN_AGENT"
	CodeAgentTaken   = "E_AGENT_TAKEN"
	CodeEpisodeOver  = "E_EPISODE_OVER"

	CodeInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	CodeInvalidDirection:     {},
	CodeOutOfBounds:          {},
	CodeBlocked:              {},
	CodeNoArrows:             {},
	CodeNothingToCollect:     {},
	CodeUnknownActionName:    {},
	CodeInconsistentEvidence: {},
	CodeBadMessage:           {},
	CodeUnknownAction:        {},
	CodeBadRequest:           {},
	CodeUnknownAgent:         {},
	CodeAgentTaken:           {},
	CodeEpisodeOver:          {},
	CodeInternal:             {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
