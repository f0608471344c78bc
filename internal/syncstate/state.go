// Package syncstate implements the sync detector / state machine: the
// authoritative phase lock on the one-minute cycle, maintaining a
// confidence score and the last-marker anchor that drives BCD windowing
// downstream.
package syncstate

// State is one of the four phase-lock states. Declaration order is not
// strength order: RECOVERING is a degraded LOCKED.
type State int

const (
	StateNone State = iota
	StateTentative
	StateLocked
	StateRecovering
)

func (s State) String() string {
	switch s {
	case StateTentative:
		return "TENTATIVE"
	case StateLocked:
		return "LOCKED"
	case StateRecovering:
		return "RECOVERING"
	default:
		return "NONE"
	}
}

// Context is the sync detector's externally-observable status.
type Context struct {
	State                   State
	Confidence              float64
	LastMarkerMs            float64
	ConsecutiveGoodIntervals int
	ConfirmedMarkerCount    int
}
