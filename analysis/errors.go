package analysis

import (
	"fmt"
	"time"
)

// AlignmentError indicates the feature sequences are too short or too
// degenerate to align meaningfully. The caller should treat it as a client
// problem (re-record), not a server fault.
type AlignmentError struct {
	Reason string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("alignment failed: %s", e.Reason)
}

// TimeoutError indicates the pipeline exceeded its processing budget.
// Malformed or adversarial audio must never hang a request slot.
type TimeoutError struct {
	Stage  string
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("analysis timed out during %s (budget %v)", e.Stage, e.Budget)
}
