package bcd

import (
	"math"

	"github.com/cwsl/wwvsync/internal/dsp"
	"github.com/cwsl/wwvsync/internal/events"
)

// ClassifierParams controls the pulse-width classification shared by the
// time and frequency BCD detectors: nominal ~200/~500/~800 ms pulse widths
// for ZERO/ONE/MARKER.
type ClassifierParams struct {
	ThresholdMult  float64
	ZeroMs         float64
	OneMs          float64
	MarkerMs       float64
	ToleranceMs    float64
	NoiseAlphaDown float64
	NoiseAlphaUp   float64
}

// DefaultClassifierParams returns reasonable defaults for the 200/500/800ms
// WWV/WWVH BCD pulse widths.
func DefaultClassifierParams() ClassifierParams {
	return ClassifierParams{
		ThresholdMult:  2.0,
		ZeroMs:         200.0,
		OneMs:          500.0,
		MarkerMs:       800.0,
		ToleranceMs:    100.0,
		NoiseAlphaDown: 1e-3,
		NoiseAlphaUp:   1e-4,
	}
}

// pulseClassifier turns a magnitude stream into BCD symbol candidates by
// thresholding against an adaptive noise floor and bucketing the resulting
// pulse width against the nominal 200/500/800 ms bands.
type pulseClassifier struct {
	params ClassifierParams
	noise  *dsp.AsymEMA
	inOn   bool
	startMs float64

	onCandidate func(events.BCDSymbol, float64, float64)
}

func newPulseClassifier(p ClassifierParams, onCandidate func(events.BCDSymbol, float64, float64)) *pulseClassifier {
	return &pulseClassifier{
		params:      p,
		noise:       dsp.NewAsymEMA(1e-3, p.NoiseAlphaDown, p.NoiseAlphaUp, 1e-5, 5.0),
		onCandidate: onCandidate,
	}
}

func (c *pulseClassifier) setParams(p ClassifierParams) { c.params = p }

func (c *pulseClassifier) process(mag, nowMs float64) {
	threshold := c.noise.Value * c.params.ThresholdMult
	if !c.inOn {
		c.noise.Update(mag)
		if mag > threshold {
			c.inOn = true
			c.startMs = nowMs
		}
		return
	}
	if mag <= threshold {
		c.inOn = false
		width := nowMs - c.startMs
		sym, ok := c.bucket(width)
		if ok && c.onCandidate != nil {
			c.onCandidate(sym, c.startMs, width)
		}
	}
}

func (c *pulseClassifier) bucket(widthMs float64) (events.BCDSymbol, bool) {
	switch {
	case math.Abs(widthMs-c.params.ZeroMs) <= c.params.ToleranceMs:
		return events.BCDZero, true
	case math.Abs(widthMs-c.params.OneMs) <= c.params.ToleranceMs:
		return events.BCDOne, true
	case math.Abs(widthMs-c.params.MarkerMs) <= c.params.ToleranceMs:
		return events.BCDMarker, true
	default:
		return events.BCDUnknown, false
	}
}

func (c *pulseClassifier) reset() {
	c.inOn = false
	c.noise.Reset(1e-3)
}
