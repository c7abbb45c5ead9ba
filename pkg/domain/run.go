package domain

import "time"

// ReasoningStep is one human-readable entry in a run's reasoning trace.
// Entries are identified by Label: a later update for an existing label
// replaces that entry in place rather than appending a duplicate.
type ReasoningStep struct {
	Label       string     `json:"label"`
	Status      string     `json:"status"`
	Description string     `json:"description,omitempty"`
	Query       string     `json:"query,omitempty"`
	Sources     []string   `json:"sources,omitempty"`
	Citations   []Citation `json:"citations,omitempty"`
}

// Citation points at a source document referenced by a reasoning step.
type Citation struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

// StepKind distinguishes tool invocations from sub-chain (node) executions.
type StepKind string

const (
	StepKindTool StepKind = "tool"
	StepKindNode StepKind = "node"
)

// StepStatus is the lifecycle status of an execution step record.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
)

// ExecutionStepRecord tracks one unit of backend work (a tool call or a
// sub-chain) shown as a timeline entry. Its identity is stable for the
// step's lifetime: a start event creates it, and only the matching end
// event sharing its ID mutates it.
type ExecutionStepRecord struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Kind      StepKind   `json:"kind"`
	Status    StepStatus `json:"status"`
	Input     any        `json:"input,omitempty"`
	Output    any        `json:"output,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Role values for transcript messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one immutable transcript entry. Assistant messages are
// frozen from run scratch state on a terminating event and carry the
// final reasoning trace, step timeline, and thinking duration.
type Message struct {
	ID               string                `json:"id"`
	Role             string                `json:"role"`
	Content          string                `json:"content"`
	Trace            []ReasoningStep       `json:"trace,omitempty"`
	Steps            []ExecutionStepRecord `json:"steps,omitempty"`
	ThinkingDuration time.Duration         `json:"thinking_duration,omitempty"`
	Error            string                `json:"error,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}
