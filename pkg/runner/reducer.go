package runner

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/canopyhq/canopy/internal/logging"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/observability"
)

// Phase is the reducer's lifecycle state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseStreaming Phase = "streaming"
	PhasePaused    Phase = "paused"
	PhaseCompleted Phase = "completed"
	PhaseErrored   Phase = "errored"
)

// DefaultWrapperChain is the name of the synthetic top-level chain the
// backend wraps every run in. It describes the whole run, not a step, so
// the reducer filters it out of the timeline.
const DefaultWrapperChain = "__run__"

// RunState is an observable snapshot of one conversation: the frozen
// transcript plus the scratch state of the run currently streaming.
type RunState struct {
	Phase    Phase
	Messages []domain.Message

	// Buffer is the streamed assistant text so far. It grows
	// monotonically and is never truncated mid-run.
	Buffer string
	// Trace is the current reasoning snapshot.
	Trace []domain.ReasoningStep
	// Steps is the execution timeline in insertion order.
	Steps []domain.ExecutionStepRecord

	RunID  string
	Paused bool

	// ThinkingDuration is submit-to-first-token, fixed once streaming
	// produced text.
	ThinkingDuration time.Duration
}

// Reducer is the run-execution state machine. It consumes parsed events
// one at a time and keeps RunState consistent and resumable. It is not
// goroutine-safe by itself: all transitions happen synchronously in one
// stream-read loop, and the Controller serializes outside access.
type Reducer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   func() time.Time
	wrapper string

	phase    Phase
	messages []domain.Message
	buffer   []byte
	trace    []domain.ReasoningStep
	steps    map[string]*domain.ExecutionStepRecord
	order    []string
	runID    string
	paused   bool

	submittedAt time.Time
	firstToken  time.Time
}

// NewReducer creates an idle reducer. logger may be nil.
func NewReducer(logger *slog.Logger, metrics *observability.Metrics) *Reducer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reducer{
		logger:  logger,
		metrics: metrics,
		clock:   time.Now,
		wrapper: DefaultWrapperChain,
		phase:   PhaseIdle,
		steps:   make(map[string]*domain.ExecutionStepRecord),
	}
}

// Begin transitions Idle→Streaming for a new submission. A non-empty
// input is appended to the transcript as a user message. When resume is
// true the run scratch state survives: the paused stream continues into
// the same buffer instead of starting over.
func (r *Reducer) Begin(input string, resume bool) {
	if !resume {
		r.resetScratch()
	}
	r.phase = PhaseStreaming
	r.paused = false
	r.submittedAt = r.clock()

	if input != "" {
		r.messages = append(r.messages, domain.Message{
			ID:        uuid.NewString(),
			Role:      domain.RoleUser,
			Content:   input,
			CreatedAt: r.clock(),
		})
	}
}

// Apply folds one event into the state. Exactly one update rule fires
// per event kind; unknown kinds are logged and ignored.
func (r *Reducer) Apply(ev domain.ExecutionEvent) {
	r.metrics.ObserveEvent(string(ev.Type))

	switch ev.Type {
	case domain.EventToken:
		if r.firstToken.IsZero() {
			r.firstToken = r.clock()
		}
		r.buffer = append(r.buffer, ev.Token...)

	case domain.EventReasoning:
		if ev.Step != nil {
			r.trace = MergeReasoningSteps(r.trace, *ev.Step)
		}

	case domain.EventToolStart:
		r.startStep(ev, domain.StepKindTool)
	case domain.EventChainStart:
		if ev.Name == r.wrapper {
			return
		}
		r.startStep(ev, domain.StepKindNode)

	case domain.EventToolEnd, domain.EventChainEnd:
		r.endStep(ev)

	case domain.EventRunID:
		if ev.RunID != "" {
			r.runID = ev.RunID
		}

	case domain.EventRunStatus:
		if ev.Status == domain.RunStatusPaused {
			r.phase = PhasePaused
			r.paused = true
		}

	case domain.EventDone:
		// Terminal; the controller calls Finalize.

	default:
		r.logger.Debug("ignoring unknown event kind", "kind", ev.Type)
	}
}

// SkipMalformed records a frame that could not be parsed. The stream
// continues; a bad frame is never fatal.
func (r *Reducer) SkipMalformed(err error) {
	r.metrics.ObserveMalformed()
	r.logger.Warn("skipping malformed frame", "err", err)
}

func (r *Reducer) startStep(ev domain.ExecutionEvent, kind domain.StepKind) {
	key := ev.SpanID
	if key == "" {
		key = uuid.NewString()
	}
	if _, exists := r.steps[key]; exists {
		r.logger.Debug("duplicate step start ignored", "span", key)
		return
	}
	r.steps[key] = &domain.ExecutionStepRecord{
		ID:        key,
		Name:      ev.Name,
		Kind:      kind,
		Status:    domain.StepRunning,
		Input:     ev.Input,
		Timestamp: r.clock(),
	}
	r.order = append(r.order, key)
}

func (r *Reducer) endStep(ev domain.ExecutionEvent) {
	rec, ok := r.steps[ev.SpanID]
	if !ok {
		r.logger.Debug("end event for unknown step", "span", ev.SpanID)
		return
	}
	rec.Status = domain.StepCompleted
	rec.Output = ev.Output
}

// Finalize freezes the streamed scratch state into one immutable
// assistant message, appends it to the transcript, clears the scratch,
// and transitions to Completed.
func (r *Reducer) Finalize() domain.Message {
	msg := r.freeze("")
	r.messages = append(r.messages, msg)
	r.resetScratch()
	r.phase = PhaseCompleted
	r.metrics.ObserveRun("completed", msg.ThinkingDuration.Seconds())
	return msg
}

// Fail surfaces a transport failure as a failed run. Partial content is
// retained on the appended message - nothing streamed is silently lost.
func (r *Reducer) Fail(err error) domain.Message {
	msg := r.freeze(err.Error())
	r.messages = append(r.messages, msg)
	r.resetScratch()
	r.phase = PhaseErrored
	r.metrics.ObserveRun("errored", 0)
	r.logger.Error("run failed", "err", err, "run_id", r.runID)
	return msg
}

// Abort handles an explicit stop. No completion is synthesized: partial
// scratch content stays visible but is not appended as a finished
// message.
func (r *Reducer) Abort() {
	r.phase = PhaseIdle
	r.paused = false
	r.metrics.ObserveRun("stopped", 0)
}

func (r *Reducer) freeze(errText string) domain.Message {
	var thinking time.Duration
	if !r.firstToken.IsZero() {
		thinking = r.firstToken.Sub(r.submittedAt)
	}
	return domain.Message{
		ID:               uuid.NewString(),
		Role:             domain.RoleAssistant,
		Content:          string(r.buffer),
		Trace:            cloneTrace(r.trace),
		Steps:            r.stepList(),
		ThinkingDuration: thinking,
		Error:            errText,
		CreatedAt:        r.clock(),
	}
}

func (r *Reducer) resetScratch() {
	r.buffer = nil
	r.trace = nil
	r.steps = make(map[string]*domain.ExecutionStepRecord)
	r.order = nil
	r.firstToken = time.Time{}
}

// RunID returns the backend-assigned run id, if any was reported.
func (r *Reducer) RunID() string { return r.runID }

// Paused reports whether the run suspended mid-stream.
func (r *Reducer) Paused() bool { return r.paused }

// Restore preloads transcript and run identity from a persisted record.
func (r *Reducer) Restore(runID string, paused bool, messages []domain.Message) {
	r.runID = runID
	r.paused = paused
	r.messages = append([]domain.Message(nil), messages...)
	if paused {
		r.phase = PhasePaused
	}
}

// Snapshot copies the observable state.
func (r *Reducer) Snapshot() RunState {
	var thinking time.Duration
	if !r.firstToken.IsZero() {
		thinking = r.firstToken.Sub(r.submittedAt)
	}
	return RunState{
		Phase:            r.phase,
		Messages:         append([]domain.Message(nil), r.messages...),
		Buffer:           string(r.buffer),
		Trace:            cloneTrace(r.trace),
		Steps:            r.stepList(),
		RunID:            r.runID,
		Paused:           r.paused,
		ThinkingDuration: thinking,
	}
}

func (r *Reducer) stepList() []domain.ExecutionStepRecord {
	if len(r.order) == 0 {
		return nil
	}
	out := make([]domain.ExecutionStepRecord, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, *r.steps[key])
	}
	return out
}

func cloneTrace(trace []domain.ReasoningStep) []domain.ReasoningStep {
	if trace == nil {
		return nil
	}
	return append([]domain.ReasoningStep(nil), trace...)
}
