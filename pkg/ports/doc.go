// Package ports defines the interfaces the canopy core consumes and the
// contracts adapters implement: the run-creating backend service and the
// store that persists run transcripts for resume.
//
// The core never talks to a concrete transport or database; everything
// outward flows through these interfaces.
package ports
