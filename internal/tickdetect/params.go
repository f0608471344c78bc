package tickdetect

// Params holds the tick detector's runtime-tunable parameters.
type Params struct {
	ThresholdMult     float64 // high = noise floor * ThresholdMult
	NoiseAlphaDown    float64 // fast attack downward
	NoiseAlphaUp      float64 // slow release upward
	MinDurationMs     float64
	// Durations are measured in whole FFT frames (5.12 ms at 50 kHz), so a
	// 5 ms tick straddling two frames reads as 10.24 ms.
	MaxTickDurationMs float64
	MarkerMinMs       float64
	MarkerMaxMs       float64
	MinIntervalMs     float64
	CorrThreshold     float64
	CorrDecimation    int
	CooldownMs        float64
	HardCapMs         float64
	WarmupFrames      int
	WarmupAlpha       float64

	// GatingEnabled/GatingToleranceMs implement an optional epoch-phase
	// gate: when enabled and an epoch has been installed via SetEpoch, a
	// pulse whose leading edge lies farther than GatingToleranceMs from
	// that epoch's second boundary is rejected. Disabled by default, since
	// during initial acquisition no epoch yet exists for pulses to agree
	// with.
	GatingEnabled     bool
	GatingToleranceMs float64
}

// DefaultParams returns the detector's default tuning.
func DefaultParams() Params {
	return Params{
		ThresholdMult:     2.0,
		NoiseAlphaDown:    1e-3,
		NoiseAlphaUp:      1e-4,
		MinDurationMs:     2.0,
		MaxTickDurationMs: 15.0,
		MarkerMinMs:       500.0,
		MarkerMaxMs:       900.0,
		MinIntervalMs:     800.0,
		CorrThreshold:     3.0,
		CorrDecimation:    8,
		CooldownMs:        500.0,
		HardCapMs:         950.0,
		WarmupFrames:      50,
		WarmupAlpha:       0.05,
		GatingEnabled:     false,
		GatingToleranceMs: 2.0,
	}
}
