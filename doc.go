// Package canopy pairs an orchestration graph compiler with a run
// execution state machine.
//
// The compiler (pkg/compiler) turns a user-edited node/edge graph into a
// versioned executable spec: node defaults are filled from a kind
// registry, orchestration config (idempotency keys, router and judge
// tables) is derived, and the spec version is resolved from the node
// kinds present.
//
// The runner (pkg/runner) consumes the backend's run event stream and
// maintains consistent, resumable state: streamed text, a merged
// reasoning trace, a per-step timeline, and pause/resume across
// submissions.
//
// Adapters under pkg/adapters connect both halves to the outside world:
// an HTTP client for the run backend, in-memory and Redis run stores,
// and an HTTP server exposing compile and run streaming.
package canopy
