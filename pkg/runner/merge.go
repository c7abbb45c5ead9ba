package runner

import (
	"slices"

	"github.com/canopyhq/canopy/pkg/domain"
)

// MergeReasoningSteps folds one reasoning update into a trace, matching
// entries by label. An existing label is updated in place, preserving its
// position so the rendered trace stays stable instead of reordering on
// every update; a new label is appended. Fields absent from the update
// keep their previous values, which turns a multi-phase step into one
// evolving entry.
//
// The input trace is never mutated; a fresh slice is returned.
func MergeReasoningSteps(trace []domain.ReasoningStep, step domain.ReasoningStep) []domain.ReasoningStep {
	for i := range trace {
		if trace[i].Label != step.Label {
			continue
		}
		out := slices.Clone(trace)
		merged := out[i]
		if step.Status != "" {
			merged.Status = step.Status
		}
		if step.Description != "" {
			merged.Description = step.Description
		}
		if step.Query != "" {
			merged.Query = step.Query
		}
		if len(step.Sources) > 0 {
			merged.Sources = step.Sources
		}
		if len(step.Citations) > 0 {
			merged.Citations = step.Citations
		}
		out[i] = merged
		return out
	}
	return append(slices.Clone(trace), step)
}
