package conversion

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for operations on an unknown conversion ID.
var ErrNotFound = errors.New("conversion not found")

// ErrDuplicateFilename is returned by the repository when an insert trips the
// filename uniqueness constraint. The service consumes it by regenerating the
// filename and retrying once.
var ErrDuplicateFilename = errors.New("duplicate filename")

// ValidationError reports rejected input. Nothing is persisted when one is
// returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SynthesisError wraps a failure of the external speech backend. Creation is
// all-or-nothing, so no record or file remains when one is returned.
type SynthesisError struct {
	Backend string
	Err     error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed (%s): %v", e.Backend, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
