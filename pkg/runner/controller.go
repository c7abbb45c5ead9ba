package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/canopyhq/canopy/internal/logging"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/observability"
	"github.com/canopyhq/canopy/pkg/ports"
	"github.com/canopyhq/canopy/pkg/stream"
)

// persistTimeout bounds store writes that happen after the stream's own
// context is already gone.
const persistTimeout = 5 * time.Second

// Hooks are optional callbacks fired as events apply, for live surfaces
// (terminal echo, SSE fan-out). They run on the stream-read goroutine:
// keep them fast.
type Hooks struct {
	OnToken     func(token string)
	OnReasoning func(trace []domain.ReasoningStep)
	OnStep      func(rec domain.ExecutionStepRecord)
	OnMessage   func(msg domain.Message)
}

// Handle tracks one submitted run.
type Handle struct {
	done chan struct{}
	mu   sync.Mutex
	err  error
}

// Done is closed when the run's stream loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err reports how the run ended. It is meaningful after Done is closed:
// nil for completion or pause, context.Canceled for an explicit stop,
// the transport error otherwise.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) finish(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Controller owns one conversation's run lifecycle: it submits runs to
// the backend, drives the reducer from the event stream, and enforces
// at-most-one active stream - submitting aborts any in-flight transport
// for a previous run before starting the next.
type Controller struct {
	service ports.RunService
	store   ports.RunStore
	logger  *slog.Logger
	metrics *observability.Metrics
	hooks   Hooks
	wrapper string
	clock   func() time.Time

	mu      sync.Mutex
	reducer *Reducer
	cancel  context.CancelFunc
	active  *Handle
}

// NewController creates a controller for the given backend service.
func NewController(service ports.RunService, opts ...Option) *Controller {
	c := &Controller{
		service: service,
		logger:  logging.NewNop(),
		wrapper: DefaultWrapperChain,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reducer = NewReducer(c.logger, c.metrics)
	c.reducer.clock = c.clock
	c.reducer.wrapper = c.wrapper
	return c
}

// Submit starts (or resumes) a run for the given input. If the previous
// run paused and reported a run id, the submission carries that id so the
// backend resumes the same run instead of starting a new one.
//
// Any stream still in flight is aborted first; updates it already applied
// persist.
func (c *Controller) Submit(ctx context.Context, input string) (*Handle, error) {
	c.abortActive()

	c.mu.Lock()
	resumeID := ""
	if c.reducer.Paused() {
		resumeID = c.reducer.RunID()
	}
	c.reducer.Begin(input, resumeID != "")
	c.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	body, err := c.service.CreateRun(runCtx, ports.RunRequest{
		Input:       input,
		ResumeRunID: resumeID,
	})
	if err != nil {
		cancel()
		c.mu.Lock()
		msg := c.reducer.Fail(err)
		c.mu.Unlock()
		c.fireMessage(msg)
		return nil, err
	}

	handle := &Handle{done: make(chan struct{})}
	c.mu.Lock()
	c.cancel = cancel
	c.active = handle
	c.mu.Unlock()

	go c.readLoop(runCtx, body, handle)
	return handle, nil
}

// Stop aborts the in-flight transport immediately. The reducer does not
// synthesize a completion: partial content stays visible in the snapshot
// but no finished message is appended.
func (c *Controller) Stop() {
	c.abortActive()
}

// Snapshot returns the current observable run state.
func (c *Controller) Snapshot() RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reducer.Snapshot()
}

// Restore preloads the controller from a persisted run record, enabling
// resume across controller instances. It is a no-op without a store.
func (c *Controller) Restore(ctx context.Context, runID string) error {
	if c.store == nil {
		return domain.ErrRunNotFound
	}
	rec, err := c.store.Load(ctx, runID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reducer.Restore(rec.RunID, rec.Paused, rec.Messages)
	return nil
}

func (c *Controller) abortActive() {
	c.mu.Lock()
	cancel, active := c.cancel, c.active
	c.cancel, c.active = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if active != nil {
		<-active.Done()
	}
}

// readLoop is the single mutation site for this controller's run state.
// It suspends at each read boundary and applies events one at a time.
func (c *Controller) readLoop(ctx context.Context, body io.ReadCloser, handle *Handle) {
	defer body.Close()

	dec := stream.NewFrameDecoder(body)
	for {
		frame, err := dec.Next()
		if err != nil {
			c.finishStream(ctx, err, handle)
			return
		}

		ev, perr := stream.ParseEvent(frame)
		if perr != nil {
			c.mu.Lock()
			c.reducer.SkipMalformed(perr)
			c.mu.Unlock()
			continue
		}

		if ev.Type == domain.EventDone {
			c.finishStream(ctx, nil, handle)
			return
		}

		c.mu.Lock()
		c.reducer.Apply(ev)
		snap := c.reducer.Snapshot()
		c.mu.Unlock()

		c.fireEvent(ev, snap)
	}
}

// finishStream settles the run once the stream ends, for whatever reason.
func (c *Controller) finishStream(ctx context.Context, cause error, handle *Handle) {
	switch {
	case cause == nil, errors.Is(cause, io.EOF), errors.Is(cause, domain.ErrStreamDone):
		// Terminating event or natural stream end. A paused run is not
		// complete: keep the scratch state for resume.
		c.mu.Lock()
		if c.reducer.Paused() {
			c.mu.Unlock()
			c.persist()
			handle.finish(nil)
			return
		}
		msg := c.reducer.Finalize()
		c.mu.Unlock()
		c.fireMessage(msg)
		c.persist()
		handle.finish(nil)

	case errors.Is(cause, context.Canceled) || ctx.Err() != nil:
		// Explicit stop or superseded submission. A backend pause does
		// not always close the transport, so an abort can race in after
		// the pause event: the paused state and its scratch buffer must
		// survive for the resume that follows.
		c.mu.Lock()
		if !c.reducer.Paused() {
			c.reducer.Abort()
		}
		c.mu.Unlock()
		c.persist()
		handle.finish(context.Canceled)

	default:
		// Transport failure: surface a failed run, keep partial content.
		c.mu.Lock()
		msg := c.reducer.Fail(cause)
		c.mu.Unlock()
		c.fireMessage(msg)
		c.persist()
		handle.finish(cause)
	}
}

func (c *Controller) persist() {
	if c.store == nil {
		return
	}
	c.mu.Lock()
	snap := c.reducer.Snapshot()
	c.mu.Unlock()
	if snap.RunID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := c.store.Save(ctx, snap.RunID, &ports.RunRecord{
		RunID:    snap.RunID,
		Paused:   snap.Paused,
		Messages: snap.Messages,
	})
	if err != nil {
		c.logger.Warn("persisting run record failed", "err", err, "run_id", snap.RunID)
	}
}

func (c *Controller) fireEvent(ev domain.ExecutionEvent, snap RunState) {
	switch ev.Type {
	case domain.EventToken:
		if c.hooks.OnToken != nil {
			c.hooks.OnToken(ev.Token)
		}
	case domain.EventReasoning:
		if c.hooks.OnReasoning != nil {
			c.hooks.OnReasoning(snap.Trace)
		}
	case domain.EventToolStart, domain.EventToolEnd, domain.EventChainStart, domain.EventChainEnd:
		if c.hooks.OnStep == nil {
			return
		}
		for _, rec := range snap.Steps {
			if rec.ID == ev.SpanID {
				c.hooks.OnStep(rec)
				return
			}
		}
	}
}

func (c *Controller) fireMessage(msg domain.Message) {
	if c.hooks.OnMessage != nil {
		c.hooks.OnMessage(msg)
	}
}
