package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRunNotFound is returned by run stores when no state exists for
	// the given run id.
	ErrRunNotFound = errors.New("run not found")

	// ErrStreamDone is the sentinel a frame decoder returns when the
	// stream closed with an explicit terminator marker.
	ErrStreamDone = errors.New("stream done")
)

// MalformedEventError describes a frame that could not be decoded into a
// known event. Reducers log and skip these; they are never fatal to the
// stream.
type MalformedEventError struct {
	Frame  string
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event: %s", e.Reason)
}
