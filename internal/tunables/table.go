// Package tunables collects every runtime-tunable detector parameter into
// one declared table (name, range, default, description), validates
// updates against that table before applying them, and persists the current
// values to an INI file, keeping every tunable in one place rather than
// scattered across individual setters.
package tunables

import (
	"fmt"

	"github.com/cwsl/wwvsync/internal/fastmarker"
	"github.com/cwsl/wwvsync/internal/syncstate"
	"github.com/cwsl/wwvsync/internal/tickcorr"
	"github.com/cwsl/wwvsync/internal/tickdetect"
)

// Spec declares one tunable parameter's name, allowed range, default, and
// a short human-readable description, plus the getter/setter that read and
// write the matching field of the Table's parameter sets.
type Spec struct {
	Name        string
	Min, Max    float64
	Default     float64
	Description string
	Section     string
	get         func() float64
	set         func(float64)
}

// Table owns the detector parameter sets and the declared Spec list that
// governs validated access to them. pipeline.New copies these sets into
// the detectors it builds; a later Set changes the table (and what Save
// writes) but not the parameters of a pipeline that already exists.
type Table struct {
	Tick       tickdetect.Params
	TickCorr   tickcorr.Params
	Marker     fastmarker.Params
	Sync       syncstate.Params

	specs []Spec
}

// NewTable builds a table seeded with each component's documented
// defaults and wires up the Spec getter/setter closures.
func NewTable() *Table {
	t := &Table{
		Tick:     tickdetect.DefaultParams(),
		TickCorr: tickcorr.DefaultParams(),
		Marker:   fastmarker.DefaultParams(),
		Sync:     syncstate.DefaultParams(),
	}
	t.specs = t.buildSpecs()
	return t
}

func (t *Table) buildSpecs() []Spec {
	return []Spec{
		{Name: "threshold_multiplier", Section: "tick_detector", Min: 1.0, Max: 5.0, Default: tickdetect.DefaultParams().ThresholdMult,
			get: func() float64 { return t.Tick.ThresholdMult }, set: func(v float64) { t.Tick.ThresholdMult = v }},
		{Name: "noise_alpha_down", Section: "tick_detector", Min: 0.0001, Max: 0.5, Default: tickdetect.DefaultParams().NoiseAlphaDown,
			get: func() float64 { return t.Tick.NoiseAlphaDown }, set: func(v float64) { t.Tick.NoiseAlphaDown = v }},
		{Name: "noise_alpha_up", Section: "tick_detector", Min: 0.00001, Max: 0.5, Default: tickdetect.DefaultParams().NoiseAlphaUp,
			get: func() float64 { return t.Tick.NoiseAlphaUp }, set: func(v float64) { t.Tick.NoiseAlphaUp = v }},
		{Name: "min_duration_ms", Section: "tick_detector", Min: 1.0, Max: 10.0, Default: tickdetect.DefaultParams().MinDurationMs,
			get: func() float64 { return t.Tick.MinDurationMs }, set: func(v float64) { t.Tick.MinDurationMs = v }},

		{Name: "epoch_confidence_threshold", Section: "tick_correlator", Min: 0.0, Max: 1.0, Default: tickcorr.DefaultParams().EpochConfidenceThreshold,
			get: func() float64 { return t.TickCorr.EpochConfidenceThreshold }, set: func(v float64) { t.TickCorr.EpochConfidenceThreshold = v }},
		{Name: "max_consecutive_misses", Section: "tick_correlator", Min: 1, Max: 20, Default: float64(tickcorr.DefaultParams().MaxConsecutiveMisses),
			get: func() float64 { return float64(t.TickCorr.MaxConsecutiveMisses) }, set: func(v float64) { t.TickCorr.MaxConsecutiveMisses = int(v) }},

		{Name: "marker_threshold_multiplier", Section: "marker_detector", Min: 1.0, Max: 10.0, Default: fastmarker.DefaultParams().ThresholdMult,
			get: func() float64 { return t.Marker.ThresholdMult }, set: func(v float64) { t.Marker.ThresholdMult = v }},
		{Name: "marker_adapt_rate", Section: "marker_detector", Min: 0.00001, Max: 0.1, Default: fastmarker.DefaultParams().AdaptRate,
			get: func() float64 { return t.Marker.AdaptRate }, set: func(v float64) { t.Marker.AdaptRate = v }},
		{Name: "marker_min_duration_ms", Section: "marker_detector", Min: 100.0, Max: 1000.0, Default: fastmarker.DefaultParams().MinDurationMs,
			get: func() float64 { return t.Marker.MinDurationMs }, set: func(v float64) { t.Marker.MinDurationMs = v }},

		{Name: "weight_tick", Section: "sync_detector", Min: 0.0, Max: 1.0, Default: syncstate.DefaultParams().WeightTick,
			get: func() float64 { return t.Sync.WeightTick }, set: func(v float64) { t.Sync.WeightTick = v }},
		{Name: "weight_marker", Section: "sync_detector", Min: 0.0, Max: 1.0, Default: syncstate.DefaultParams().WeightMarker,
			get: func() float64 { return t.Sync.WeightMarker }, set: func(v float64) { t.Sync.WeightMarker = v }},
		{Name: "weight_p_marker", Section: "sync_detector", Min: 0.0, Max: 1.0, Default: syncstate.DefaultParams().WeightPMarker,
			get: func() float64 { return t.Sync.WeightPMarker }, set: func(v float64) { t.Sync.WeightPMarker = v }},
		{Name: "weight_tick_hole", Section: "sync_detector", Min: 0.0, Max: 1.0, Default: syncstate.DefaultParams().WeightTickHole,
			get: func() float64 { return t.Sync.WeightTickHole }, set: func(v float64) { t.Sync.WeightTickHole = v }},
		{Name: "weight_combined", Section: "sync_detector", Min: 0.0, Max: 1.0, Default: syncstate.DefaultParams().WeightCombined,
			get: func() float64 { return t.Sync.WeightCombined }, set: func(v float64) { t.Sync.WeightCombined = v }},
		{Name: "locked_threshold", Section: "sync_detector", Min: 0.0, Max: 1.0, Default: syncstate.DefaultParams().LockedThreshold,
			get: func() float64 { return t.Sync.LockedThreshold }, set: func(v float64) { t.Sync.LockedThreshold = v }},
		{Name: "min_retain", Section: "sync_detector", Min: 0.0, Max: 1.0, Default: syncstate.DefaultParams().MinRetain,
			get: func() float64 { return t.Sync.MinRetain }, set: func(v float64) { t.Sync.MinRetain = v }},
		{Name: "tentative_init", Section: "sync_detector", Min: 0.0, Max: 1.0, Default: syncstate.DefaultParams().TentativeInit,
			get: func() float64 { return t.Sync.TentativeInit }, set: func(v float64) { t.Sync.TentativeInit = v }},
		{Name: "decay_normal", Section: "sync_detector", Min: 0.0, Max: 0.1, Default: syncstate.DefaultParams().DecayNormal,
			get: func() float64 { return t.Sync.DecayNormal }, set: func(v float64) { t.Sync.DecayNormal = v }},
		{Name: "decay_recovering", Section: "sync_detector", Min: 0.0, Max: 0.1, Default: syncstate.DefaultParams().DecayRecovering,
			get: func() float64 { return t.Sync.DecayRecovering }, set: func(v float64) { t.Sync.DecayRecovering = v }},
		{Name: "tick_tolerance_ms", Section: "sync_detector", Min: 1.0, Max: 500.0, Default: syncstate.DefaultParams().TickToleranceMs,
			get: func() float64 { return t.Sync.TickToleranceMs }, set: func(v float64) { t.Sync.TickToleranceMs = v }},
		{Name: "marker_tolerance_ms", Section: "sync_detector", Min: 1.0, Max: 2000.0, Default: syncstate.DefaultParams().MarkerToleranceMs,
			get: func() float64 { return t.Sync.MarkerToleranceMs }, set: func(v float64) { t.Sync.MarkerToleranceMs = v }},
		{Name: "p_marker_tolerance_ms", Section: "sync_detector", Min: 1.0, Max: 2000.0, Default: syncstate.DefaultParams().PMarkerToleranceMs,
			get: func() float64 { return t.Sync.PMarkerToleranceMs }, set: func(v float64) { t.Sync.PMarkerToleranceMs = v }},
	}
}

// Spec looks up a declared parameter by name.
func (t *Table) Spec(name string) (Spec, bool) {
	for _, s := range t.specs {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// Specs returns all declared parameter specs, for listing/INI round trips.
func (t *Table) Specs() []Spec { return t.specs }

// Set validates value against the named spec's declared range and, only
// if it's in range, applies it. A rejection never mutates state.
func (t *Table) Set(name string, value float64) error {
	spec, ok := t.Spec(name)
	if !ok {
		return fmt.Errorf("unknown parameter %q", name)
	}
	if value < spec.Min || value > spec.Max {
		return &RangeError{Param: name, Value: value, Min: spec.Min, Max: spec.Max}
	}
	spec.set(value)
	return nil
}

// Get returns the current value of the named parameter.
func (t *Table) Get(name string) (float64, error) {
	spec, ok := t.Spec(name)
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", name)
	}
	return spec.get(), nil
}

// RangeError reports an out-of-range Set attempt.
type RangeError struct {
	Param      string
	Value      float64
	Min, Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("Invalid %s=%.3f (range %.1f-%.1f)", e.Param, e.Value, e.Min, e.Max)
}
