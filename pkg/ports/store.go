package ports

import (
	"context"

	"github.com/canopyhq/canopy/pkg/domain"
)

// RunRecord is the durable snapshot of a run: its transcript so far and
// whether it is paused awaiting a resume.
type RunRecord struct {
	RunID    string           `json:"run_id"`
	Paused   bool             `json:"paused"`
	Messages []domain.Message `json:"messages"`
}

// RunStore persists run records keyed by run id, enabling "stop & resume"
// across controller instances.
type RunStore interface {
	// Save persists the record for a run id.
	Save(ctx context.Context, runID string, rec *RunRecord) error

	// Load retrieves the record for a run id.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*RunRecord, error)

	// Delete removes the record for a run id.
	Delete(ctx context.Context, runID string) error

	// List returns the ids of all persisted runs.
	List(ctx context.Context) ([]string, error)
}
