// Package markercorr implements the marker correlator: it
// fuses the fast accumulator-path marker events with the slow overlapped-
// FFT path's above-threshold spans, emitting a HIGH-confidence correlated
// marker when both paths agree within a match window, or a LOW-confidence
// orphan ("P-marker" candidate) when only one path saw it.
package markercorr

import (
	"github.com/cwsl/wwvsync/internal/constants"
	"github.com/cwsl/wwvsync/internal/events"
)

// Params holds the marker correlator's runtime-tunable parameters.
type Params struct {
	MatchWindowMs float64 // max timestamp delta for fast/slow agreement
	PendingWindowMs float64 // how long a one-path event waits before it's orphaned
}

// DefaultParams returns the correlator's default tuning.
func DefaultParams() Params {
	return Params{MatchWindowMs: 500.0, PendingWindowMs: 2000.0}
}

type pending struct {
	timestampMs float64
	fromFast    bool
}

// Correlator fuses fast-path MarkerEvents and slow-path above-threshold
// spans into CorrelatedMarker events.
type Correlator struct {
	params Params

	pendingFast []pending
	pendingSlow []pending

	slowAbove     bool
	slowStartMs   float64

	onCorrelated func(events.CorrelatedMarker)
}

// New creates a marker correlator.
func New(p Params) *Correlator {
	return &Correlator{params: p}
}

// SetCorrelatedCallback installs the consumer for fused marker events
// (both HIGH-confidence confirmations and LOW-confidence orphans).
func (c *Correlator) SetCorrelatedCallback(fn func(events.CorrelatedMarker)) {
	c.onCorrelated = fn
}

// SetParams replaces the tunable parameter set.
func (c *Correlator) SetParams(p Params) { c.params = p }

// Reset clears all pending evidence, e.g. on stream discontinuity.
func (c *Correlator) Reset() {
	onCorrelated := c.onCorrelated
	*c = *New(c.params)
	c.onCorrelated = onCorrelated
}

// ProcessFastMarker folds in a confirmed fast-path MarkerEvent. The fast
// path timestamps a marker at the pulse's trailing edge, so it is
// converted back to the leading edge (pulse onset) before matching, the
// common edge both paths align to.
func (c *Correlator) ProcessFastMarker(m events.Marker) {
	c.match(m.TimestampMs-m.DurationMs, true)
}

// ProcessSlowFrame folds in one slow-path SlowMarkerFrame, converting a
// contiguous above-threshold span into a single slow-path marker
// candidate timestamped at the span's start. The overlapped-FFT path
// reports a span start that trails the true pulse onset by roughly
// constants.SlowMarkerDelayMs (its framing latency); that delay is
// subtracted here so both paths match on the same leading edge.
func (c *Correlator) ProcessSlowFrame(f events.SlowMarkerFrame) {
	if f.AboveThreshold && !c.slowAbove {
		c.slowAbove = true
		c.slowStartMs = f.TimestampMs
	} else if !f.AboveThreshold && c.slowAbove {
		c.slowAbove = false
		c.match(c.slowStartMs-constants.SlowMarkerDelayMs, false)
	}
}

// Tick runs the periodic pending-queue expiry; entries older than
// PendingWindowMs that never found a match are emitted as orphans (low
// confidence, single-path P-marker evidence).
func (c *Correlator) Tick(nowMs float64) {
	c.pendingFast = c.expire(c.pendingFast, nowMs)
	c.pendingSlow = c.expire(c.pendingSlow, nowMs)
}

func (c *Correlator) expire(list []pending, nowMs float64) []pending {
	kept := list[:0]
	for _, p := range list {
		if nowMs-p.timestampMs > c.params.PendingWindowMs {
			c.emitOrphan(p)
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func (c *Correlator) emitOrphan(p pending) {
	if c.onCorrelated == nil {
		return
	}
	c.onCorrelated(events.CorrelatedMarker{
		TimestampMs: p.timestampMs,
		Confidence:  events.ConfidenceLow,
		FromFast:    p.fromFast,
		FromSlow:    !p.fromFast,
	})
}

// match checks the opposite path's pending queue for an entry within the
// match window; on a hit, it emits a HIGH-confidence correlated marker and
// drops the matched entry, otherwise it queues this event as pending.
func (c *Correlator) match(timestampMs float64, fromFast bool) {
	var own, other *[]pending
	if fromFast {
		own, other = &c.pendingFast, &c.pendingSlow
	} else {
		own, other = &c.pendingSlow, &c.pendingFast
	}

	for i, p := range *other {
		if absf(timestampMs-p.timestampMs) <= c.params.MatchWindowMs {
			*other = append((*other)[:i], (*other)[i+1:]...)
			c.emit(timestampMs, events.ConfidenceHigh, true, true)
			return
		}
	}
	*own = append(*own, pending{timestampMs: timestampMs, fromFast: fromFast})
}

func (c *Correlator) emit(timestampMs float64, conf events.MarkerConfidence, fromFast, fromSlow bool) {
	if c.onCorrelated == nil {
		return
	}
	c.onCorrelated(events.CorrelatedMarker{
		TimestampMs: timestampMs,
		Confidence:  conf,
		FromFast:    fromFast,
		FromSlow:    fromSlow,
	})
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
