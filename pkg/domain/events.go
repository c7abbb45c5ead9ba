package domain

// EventType identifies what happened during run execution.
// Each event in the stream carries exactly one type.
type EventType string

const (
	// EventToken carries an incremental text delta for the assistant reply.
	EventToken EventType = "token"
	// EventToolStart signals that a tool invocation began.
	EventToolStart EventType = "tool_start"
	// EventToolEnd signals that a tool invocation finished.
	EventToolEnd EventType = "tool_end"
	// EventChainStart signals that a sub-chain (node execution) began.
	EventChainStart EventType = "chain_start"
	// EventChainEnd signals that a sub-chain finished.
	EventChainEnd EventType = "chain_end"
	// EventReasoning carries a reasoning-trace update.
	EventReasoning EventType = "reasoning"
	// EventRunID reports the backend-assigned run identifier.
	EventRunID EventType = "run_id"
	// EventRunStatus reports a run-level status change (e.g. "paused").
	EventRunStatus EventType = "run_status"
	// EventDone terminates the stream.
	EventDone EventType = "done"
)

// RunStatusPaused is the run-status value that suspends a stream
// without closing it. A later submit carrying the stored run id
// resumes the same run.
const RunStatusPaused = "paused"

// ExecutionEvent is the decoded form of one stream frame. Which fields
// are populated depends on Type; unused fields stay zero.
type ExecutionEvent struct {
	Type EventType `json:"type"`

	// Token holds the text delta for EventToken.
	Token string `json:"token,omitempty"`

	// SpanID keys tool/chain start events to their matching end events.
	SpanID string `json:"span_id,omitempty"`
	// Name is the tool or chain name for start events.
	Name string `json:"name,omitempty"`
	// Input and Output carry tool/chain payloads.
	Input  any `json:"input,omitempty"`
	Output any `json:"output,omitempty"`

	// Step holds the update for EventReasoning.
	Step *ReasoningStep `json:"step,omitempty"`

	// RunID holds the assigned identifier for EventRunID.
	RunID string `json:"run_id,omitempty"`
	// Status holds the value for EventRunStatus.
	Status string `json:"status,omitempty"`
}
