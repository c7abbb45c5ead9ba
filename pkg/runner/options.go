package runner

import (
	"log/slog"
	"time"

	"github.com/canopyhq/canopy/pkg/observability"
	"github.com/canopyhq/canopy/pkg/ports"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics wires prometheus collectors into the pipeline.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithStore configures the RunStore used to persist transcripts for
// resume. Without a store, runs are ephemeral.
func WithStore(store ports.RunStore) Option {
	return func(c *Controller) {
		c.store = store
	}
}

// WithHooks configures live-event callbacks.
func WithHooks(hooks Hooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithWrapperChain overrides the name of the synthetic top-level chain
// that is filtered out of the step timeline.
func WithWrapperChain(name string) Option {
	return func(c *Controller) {
		if name != "" {
			c.wrapper = name
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}
