// Package tickcorr implements the tick correlator: it fits
// the stream of confirmed ticks to the model t_n ≈ t_0 + n·1000ms by
// circular-mean phase estimation, and publishes an epoch estimate with
// confidence once the fit is tight enough.
package tickcorr

import (
	"math"

	"github.com/cwsl/wwvsync/internal/constants"
	"github.com/cwsl/wwvsync/internal/epoch"
	"github.com/cwsl/wwvsync/internal/events"
)

// Params holds the tick correlator's runtime-tunable parameters.
type Params struct {
	HistorySize              int
	ToleranceMs              float64
	EpochConfidenceThreshold float64
	MaxConsecutiveMisses     int
}

// DefaultParams returns the correlator's default tuning.
func DefaultParams() Params {
	return Params{
		HistorySize:              30,
		ToleranceMs:              15.0,
		EpochConfidenceThreshold: 0.7,
		MaxConsecutiveMisses:     3,
	}
}

// Correlator maintains the tick phase history and the current epoch
// estimate derived from it.
type Correlator struct {
	params Params

	phases []float64 // t_n mod 1000, ring buffer
	idx    int
	count  int

	haveLast          bool
	lastTrailingMs    float64
	consecutiveMisses int

	confidence float64
	epochMs    float64
	haveEpoch  bool

	onEpoch func(epoch.Estimate)
}

// New creates a tick correlator.
func New(p Params) *Correlator {
	return &Correlator{
		params: p,
		phases: make([]float64, p.HistorySize),
	}
}

// SetEpochCallback installs the consumer for published epoch estimates.
func (c *Correlator) SetEpochCallback(fn func(epoch.Estimate)) { c.onEpoch = fn }

// SetParams replaces the tunable parameter set.
func (c *Correlator) SetParams(p Params) { c.params = p }

// Params returns the current tunable parameter set.
func (c *Correlator) Params() Params { return c.params }

// Confidence returns the correlator's current epoch confidence.
func (c *Correlator) Confidence() float64 { return c.confidence }

// Reset clears all history, e.g. on stream discontinuity.
func (c *Correlator) Reset() {
	onEpoch := c.onEpoch
	*c = *New(c.params)
	c.onEpoch = onEpoch
}

// ProcessTick folds in one confirmed tick.
func (c *Correlator) ProcessTick(t events.Tick) {
	if c.haveLast {
		expected := constants.SecondMs
		delta := math.Abs(t.TrailingMs - c.lastTrailingMs - expected)
		if delta > c.params.ToleranceMs {
			c.consecutiveMisses++
		} else {
			c.consecutiveMisses = 0
		}
	}
	c.lastTrailingMs = t.TrailingMs
	c.haveLast = true

	phase := math.Mod(t.TrailingMs, constants.SecondMs)
	if phase < 0 {
		phase += constants.SecondMs
	}
	c.phases[c.idx] = phase
	c.idx = (c.idx + 1) % len(c.phases)
	if c.count < len(c.phases) {
		c.count++
	}

	c.recompute()
}

func (c *Correlator) recompute() {
	if c.count == 0 {
		return
	}
	var sumSin, sumCos float64
	for i := 0; i < c.count; i++ {
		theta := 2.0 * math.Pi * c.phases[i] / constants.SecondMs
		sumSin += math.Sin(theta)
		sumCos += math.Cos(theta)
	}
	n := float64(c.count)
	meanSin, meanCos := sumSin/n, sumCos/n
	r := math.Hypot(meanSin, meanCos) // circular concentration, in [0,1]

	meanAngle := math.Atan2(meanSin, meanCos)
	phiMs := meanAngle / (2.0 * math.Pi) * constants.SecondMs
	if phiMs < 0 {
		phiMs += constants.SecondMs
	}

	within := 0
	for i := 0; i < c.count; i++ {
		d := circularDist(c.phases[i], phiMs, constants.SecondMs)
		if d <= c.params.ToleranceMs {
			within++
		}
	}
	frac := float64(within) / n

	confidence := r * frac
	if c.consecutiveMisses >= c.params.MaxConsecutiveMisses {
		confidence *= 0.5
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	c.confidence = confidence
	c.epochMs = phiMs
	c.haveEpoch = true

	// A lone tick trivially agrees with itself; an epoch needs a chain.
	if c.count >= 2 && confidence >= c.params.EpochConfidenceThreshold && c.onEpoch != nil {
		c.onEpoch(epoch.Estimate{
			OffsetMs:   phiMs,
			Source:     epoch.SourceTickChain,
			Confidence: confidence,
		}.Normalize())
	}
}

func circularDist(a, b, mod float64) float64 {
	d := math.Mod(math.Abs(a-b), mod)
	if d > mod/2 {
		d = mod - d
	}
	return d
}
