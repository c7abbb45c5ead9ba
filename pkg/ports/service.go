package ports

import (
	"context"
	"io"
)

// RunRequest describes one run submission.
type RunRequest struct {
	// Input is the user prompt or payload for the run.
	Input string `json:"input"`

	// ResumeRunID, when set, asks the backend to resume a paused run
	// instead of starting a fresh one.
	ResumeRunID string `json:"resume_run_id,omitempty"`

	// SpecID optionally names the compiled graph spec to execute.
	SpecID string `json:"spec_id,omitempty"`
}

// RunService creates runs on the execution backend. The returned stream
// carries newline-delimited "data: <json>" frames, terminated by
// end-of-stream or an explicit "[DONE]" marker line.
//
// Closing the stream aborts the transport; events already delivered
// before the abort stay applied.
type RunService interface {
	CreateRun(ctx context.Context, req RunRequest) (io.ReadCloser, error)
}
