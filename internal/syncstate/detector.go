package syncstate

import (
	"math"

	"github.com/cwsl/wwvsync/internal/constants"
	"github.com/cwsl/wwvsync/internal/epoch"
	"github.com/cwsl/wwvsync/internal/events"
)

// Detector is the sync state machine.
type Detector struct {
	params Params
	ctx    Context

	haveEpoch bool
	curEpoch  epoch.Estimate

	lastEvidenceMs   float64
	haveLastEvidence bool
	lastCheckMs      float64
	haveLastCheck    bool

	recoveringFailures int

	pendingTick    events.Tick
	havePendingTick bool

	recentHoleMs float64
	haveRecentHole bool

	onStateChange func(old, new State, ctx Context)
}

// New creates a sync detector.
func New(p Params) *Detector {
	return &Detector{params: p}
}

// SetStateChangeCallback installs the consumer for state transitions.
func (d *Detector) SetStateChangeCallback(fn func(old, new State, ctx Context)) {
	d.onStateChange = fn
}

// SetParams replaces the tunable parameter set.
func (d *Detector) SetParams(p Params) { d.params = p }

// Params returns the current tunable parameter set.
func (d *Detector) Params() Params { return d.params }

// SetEpoch installs the currently-best epoch estimate, used to judge
// whether a tick arrived within tick-phase tolerance of the expected
// second.
func (d *Detector) SetEpoch(e epoch.Estimate) {
	d.haveEpoch = true
	d.curEpoch = e
}

// State returns the current sync state.
func (d *Detector) State() State { return d.ctx.State }

// Confidence returns the current confidence, always in [0,1].
func (d *Detector) Confidence() float64 { return d.ctx.Confidence }

// Context returns a snapshot of the detector's full externally-observable
// status.
func (d *Detector) Context() Context { return d.ctx }

// TakePendingTick returns (and clears) the most recently seen tick, if one
// is pending. A tick received just before a marker can be retrieved once
// by the marker-processing path to measure the tick-to-marker offset; the
// read-then-clear semantics live here, in one place, per design note
// "Pending-tick handoff".
func (d *Detector) TakePendingTick() (events.Tick, bool) {
	if !d.havePendingTick {
		return events.Tick{}, false
	}
	t := d.pendingTick
	d.havePendingTick = false
	return t, true
}

// Reset clears all sync-detector state, e.g. on stream discontinuity.
func (d *Detector) Reset() {
	onStateChange := d.onStateChange
	*d = *New(d.params)
	d.onStateChange = onStateChange
}

// ProcessTick folds in a confirmed Tick as weak positive/negative evidence
// depending on whether it falls within tick-phase tolerance of the
// installed epoch.
func (d *Detector) ProcessTick(t events.Tick, nowMs float64) {
	d.pendingTick = t
	d.havePendingTick = true

	if !d.haveEpoch {
		return
	}
	phase := math.Mod(t.LeadingMs-d.curEpoch.OffsetMs, constants.SecondMs)
	if phase < 0 {
		phase += constants.SecondMs
	}
	dist := math.Min(phase, constants.SecondMs-phase)
	consistent := dist <= d.params.TickToleranceMs
	d.applyEvidence(d.params.WeightTick, consistent, nowMs)
}

// ProcessTickHole folds in the absence of an expected tick at second 29 or
// 59 (WWV/WWVH omit those two ticks deliberately), which is itself
// positive evidence of lock.
func (d *Detector) ProcessTickHole(h events.TickHole, nowMs float64) {
	d.recentHoleMs = nowMs
	d.haveRecentHole = true
	d.applyEvidence(d.params.WeightTickHole, true, nowMs)
}

// ProcessCorrelatedMarker folds in the marker correlator's fused output:
// a HIGH-confidence confirmed marker, or a LOW-confidence orphan
// (P-marker) candidate.
func (d *Detector) ProcessCorrelatedMarker(m events.CorrelatedMarker, nowMs float64) {
	d.havePendingTick = false // cleared on marker confirmation, per design note

	if m.Confidence == events.ConfidenceHigh {
		d.processConfirmedMarker(m.TimestampMs, nowMs)
		return
	}
	d.processPMarker(m.TimestampMs, nowMs)
}

func (d *Detector) processConfirmedMarker(tsMs, nowMs float64) {
	old := d.ctx.State

	if d.ctx.State == StateNone {
		d.ctx.LastMarkerMs = tsMs
		d.ctx.State = StateTentative
		d.ctx.Confidence = d.params.TentativeInit
		d.ctx.ConfirmedMarkerCount++
		d.lastEvidenceMs, d.haveLastEvidence = nowMs, true
		d.notify(old, nowMs)
		return
	}

	consistent := d.anchorConsistent(tsMs, d.params.MarkerToleranceMs)
	if consistent {
		d.updateAnchor(tsMs)
		d.ctx.ConsecutiveGoodIntervals++
	} else {
		d.ctx.ConsecutiveGoodIntervals = 0
	}

	weight := d.params.WeightMarker
	if d.haveRecentHole && nowMs-d.recentHoleMs <= d.params.TickHoleWindowMs {
		weight += d.params.WeightCombined
		d.haveRecentHole = false
	}
	d.applyEvidence(weight, consistent, nowMs)
	if consistent {
		d.ctx.ConfirmedMarkerCount++
	}

	switch d.ctx.State {
	case StateTentative:
		if d.ctx.Confidence >= d.params.LockedThreshold && d.ctx.ConfirmedMarkerCount >= 1 &&
			d.ctx.ConsecutiveGoodIntervals >= d.params.GoodIntervalsNeeded {
			d.ctx.State = StateLocked
			d.recoveringFailures = 0
		}
	case StateRecovering:
		if consistent && d.ctx.Confidence >= d.params.LockedThreshold {
			d.ctx.State = StateLocked
			d.recoveringFailures = 0
		} else if !consistent {
			d.recoveringFailures++
			if d.recoveringFailures >= 2 {
				d.ctx.State = StateTentative
				d.recoveringFailures = 0
			}
		}
	}
	d.notify(old, nowMs)
}

func (d *Detector) processPMarker(tsMs, nowMs float64) {
	old := d.ctx.State
	consistent := d.ctx.State != StateNone && d.anchorConsistent(tsMs, d.params.PMarkerToleranceMs)
	d.applyEvidence(d.params.WeightPMarker, consistent, nowMs)
	d.notify(old, nowMs)
}

func (d *Detector) anchorConsistent(tsMs, toleranceMs float64) bool {
	if d.ctx.LastMarkerMs == 0 && d.ctx.ConfirmedMarkerCount == 0 {
		return true
	}
	delta := tsMs - d.ctx.LastMarkerMs
	k := math.Round(delta / constants.MinuteMs)
	expected := d.ctx.LastMarkerMs + k*constants.MinuteMs
	return math.Abs(tsMs-expected) <= toleranceMs
}

func (d *Detector) updateAnchor(tsMs float64) {
	delta := tsMs - d.ctx.LastMarkerMs
	k := math.Round(delta / constants.MinuteMs)
	expected := d.ctx.LastMarkerMs + k*constants.MinuteMs
	d.ctx.LastMarkerMs = expected + d.params.AnchorSmoothing*(tsMs-expected)
}

// applyEvidence applies the confidence update rule: consistent evidence
// bumps confidence up by weight, inconsistent evidence pulls it down by
// weight, both clamped to [0,1].
func (d *Detector) applyEvidence(weight float64, consistent bool, nowMs float64) {
	if consistent {
		d.ctx.Confidence = math.Min(1, d.ctx.Confidence+weight)
		d.lastEvidenceMs, d.haveLastEvidence = nowMs, true
	} else {
		d.ctx.Confidence = math.Max(0, d.ctx.Confidence-weight)
	}
}

// Advance drives the periodic check (decay + staleness), which must run
// independently of external evidence arrival. Call it on every sample or
// frame; it self-paces to roughly PeriodicCheckMs.
func (d *Detector) Advance(nowMs float64) {
	if !d.haveLastCheck {
		d.lastCheckMs = nowMs
		d.haveLastCheck = true
		return
	}
	if nowMs-d.lastCheckMs < d.params.PeriodicCheckMs {
		return
	}
	d.lastCheckMs = nowMs
	d.periodicCheck(nowMs)
}

func (d *Detector) periodicCheck(nowMs float64) {
	old := d.ctx.State

	decay := d.params.DecayNormal
	if d.ctx.State == StateRecovering {
		decay = d.params.DecayRecovering
	}
	d.ctx.Confidence = math.Max(0, d.ctx.Confidence-decay)

	stale := d.haveLastEvidence && nowMs-d.lastEvidenceMs > d.params.StalenessMs

	switch d.ctx.State {
	case StateLocked:
		if d.ctx.Confidence < d.params.MinRetain || stale {
			d.ctx.State = StateRecovering
			d.recoveringFailures = 0
		}
	case StateRecovering:
		if d.ctx.Confidence < d.params.TentativeInit {
			d.ctx.State = StateTentative
		}
	case StateTentative:
		if d.ctx.Confidence <= 0 {
			d.ctx.State = StateNone
			d.ctx.ConfirmedMarkerCount = 0
			d.ctx.ConsecutiveGoodIntervals = 0
		}
	}
	d.notify(old, nowMs)
}

func (d *Detector) notify(old State, _ float64) {
	if old == d.ctx.State {
		return
	}
	if d.onStateChange != nil {
		d.onStateChange(old, d.ctx.State, d.ctx)
	}
}
