package agent

import "encoding/json"

// ActionRequest is one mutating tool invocation the agent asked for within
// a turn. ToolID is the agent's correlation token; the matching
// ActionResult must be submitted back under the same id.
type ActionRequest struct {
	ToolID    string
	Name      string
	Arguments json.RawMessage
}

// ActionResult is the outcome of executing one ActionRequest. Exactly one
// result exists per request, whether the handler succeeded, failed a
// business rule, or blew up.
type ActionResult struct {
	IsSuccessful bool   `json:"is_successful"`
	Message      string `json:"message"`
}

// Answer is the agent's final structured reply for one turn.
type Answer struct {
	Answer     string   `json:"answer"`
	MovieIDs   []string `json:"movie_ids"`
	MovieNames []string `json:"movie_names"`
}

// TurnStatus tells the caller whether a turn finished or needs actions.
type TurnStatus string

const (
	// Answered means the turn carries a final Answer.
	Answered TurnStatus = "answered"
	// ActionRequired means the turn carries one or more pending requests
	// that must all be resolved before the conversation can continue.
	ActionRequired TurnStatus = "action_required"
)

// Turn is one unit of conversation progress.
type Turn struct {
	Status   TurnStatus
	Answer   *Answer
	Requests []ActionRequest
}
