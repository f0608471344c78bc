package syncstate

// Params holds the sync detector's runtime-tunable weights, tolerances
// and thresholds.
type Params struct {
	WeightTick       float64
	WeightMarker     float64
	WeightPMarker    float64
	WeightTickHole   float64
	WeightCombined   float64

	TickToleranceMs    float64
	MarkerToleranceMs  float64
	PMarkerToleranceMs float64

	LockedThreshold  float64
	MinRetain        float64
	TentativeInit    float64

	DecayNormal     float64
	DecayRecovering float64

	StalenessMs        float64
	GoodIntervalsNeeded int

	// AnchorSmoothing blends a confirmed marker's timestamp into the
	// existing anchor: 1.0 snaps to the new marker, lower values smooth.
	// Defaults to smoothing rather than snapping, to bound the influence
	// of any single spurious marker.
	AnchorSmoothing float64

	// TickHoleWindowMs bounds how long a registered tick hole counts
	// toward the "combined hole + marker" bonus evidence.
	TickHoleWindowMs float64

	// PeriodicCheckMs is the cadence of the decay/staleness check.
	PeriodicCheckMs float64
}

// DefaultParams returns the state machine's default tuning.
func DefaultParams() Params {
	return Params{
		WeightTick:       0.05,
		WeightMarker:     0.30,
		WeightPMarker:    0.10,
		WeightTickHole:   0.05,
		WeightCombined:   0.20,

		TickToleranceMs:    50.0,
		MarkerToleranceMs:  500.0,
		PMarkerToleranceMs: 500.0,

		LockedThreshold: 0.7,
		MinRetain:       0.4,
		TentativeInit:   0.3,

		DecayNormal:     0.0005,
		DecayRecovering: 0.002,

		StalenessMs:         120000.0,
		GoodIntervalsNeeded: 2,

		AnchorSmoothing:  0.5,
		TickHoleWindowMs: 2000.0,
		PeriodicCheckMs:  100.0,
	}
}
