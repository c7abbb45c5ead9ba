// Package observability exposes prometheus collectors for the run
// pipeline. Instrumentation is opt-in: every recorder is safe to call on
// a nil *Metrics.
package observability
