// Package epoch defines the one-second epoch estimate and the precedence
// rule that decides whether a new estimate is allowed to replace the one a
// detector currently holds.
package epoch

// Source identifies which correlator contributed an Estimate.
type Source int

const (
	SourceNone Source = iota
	SourceMarker
	SourceTickChain
)

func (s Source) String() string {
	switch s {
	case SourceMarker:
		return "MARKER"
	case SourceTickChain:
		return "TICK_CHAIN"
	default:
		return "NONE"
	}
}

// Estimate is the phase of second-0 relative to the pipeline's monotonic
// clock, plus the confidence the producer has in it.
type Estimate struct {
	OffsetMs   float64
	Source     Source
	Confidence float64
}

// Normalize folds OffsetMs into [0, 1000) by modular arithmetic, per the
// invariant that an installed epoch offset always lies in that range.
func (e Estimate) Normalize() Estimate {
	off := e.OffsetMs
	for off < 0 {
		off += 1000
	}
	for off >= 1000 {
		off -= 1000
	}
	e.OffsetMs = off
	return e
}

// Supersedes reports whether candidate is allowed to replace current under
// a single source-precedence rule:
//
//	TICK_CHAIN always replaces MARKER or NONE, and replaces another
//	TICK_CHAIN estimate only if its confidence strictly exceeds the
//	current one; MARKER may install only if the current source is NONE.
//	A source never loses to an equal-or-lower ranked source.
func Supersedes(current, candidate Estimate) bool {
	switch candidate.Source {
	case SourceTickChain:
		switch current.Source {
		case SourceNone:
			return true
		case SourceMarker:
			return true
		case SourceTickChain:
			return candidate.Confidence > current.Confidence
		}
	case SourceMarker:
		return current.Source == SourceNone
	}
	return false
}
