package fastmarker

// Params holds the fast marker detector's runtime-tunable parameters
//.
type Params struct {
	ThresholdMult float64
	AdaptRate     float64
	MinDurationMs float64
	MaxDurationMs float64
	WindowMs      float64
}

// DefaultParams returns the detector's default tuning.
func DefaultParams() Params {
	return Params{
		ThresholdMult: 3.0,
		AdaptRate:     1e-3,
		MinDurationMs: 500.0,
		MaxDurationMs: 900.0,
		WindowMs:      1000.0,
	}
}
