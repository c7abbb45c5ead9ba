package canopy

import (
	"context"

	"github.com/canopyhq/canopy/pkg/compiler"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/ports"
	"github.com/canopyhq/canopy/pkg/runner"
)

// Version is the library version, set at build time for releases.
var Version = "0.3.0-dev"

// CompileGraph compiles an authored node/edge graph into an executable
// spec. It is pure and safe to call repeatedly: already-derived fields
// are never regenerated. See pkg/compiler for the pipeline details.
func CompileGraph(nodes []domain.Node, edges []domain.Edge, opts compiler.Options) domain.GraphSpec {
	return compiler.Compile(nodes, edges, opts)
}

// MergeReasoningSteps folds one reasoning update into a trace, matching
// entries by label. See pkg/runner.MergeReasoningSteps.
func MergeReasoningSteps(trace []domain.ReasoningStep, step domain.ReasoningStep) []domain.ReasoningStep {
	return runner.MergeReasoningSteps(trace, step)
}

// SubmitRun submits a run on the controller and returns its handle.
// Provided as a facade-level alias for embedders; the controller's own
// methods are the full API.
func SubmitRun(ctx context.Context, ctrl *runner.Controller, input string) (*runner.Handle, error) {
	return ctrl.Submit(ctx, input)
}

// StopRun aborts the controller's in-flight stream, if any.
func StopRun(ctrl *runner.Controller) {
	ctrl.Stop()
}

// NewController creates a run controller for the given backend service.
func NewController(service ports.RunService, opts ...runner.Option) *runner.Controller {
	return runner.NewController(service, opts...)
}
