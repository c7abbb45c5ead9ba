// Package runner consumes ordered run-execution event streams and
// maintains consistent, resumable run state.
//
// The Reducer is the state machine (Idle → Streaming → Completed,
// Errored or Paused); the Controller wraps it with transport lifecycle:
// submitting runs, enforcing at-most-one active stream, aborting on
// stop, and persisting transcripts through a ports.RunStore for resume.
//
// Everything is single-threaded and event-driven: one read loop applies
// events synchronously, so there is never parallel mutation of a run's
// state.
package runner
