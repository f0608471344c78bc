package transport

import (
	"math"

	"github.com/cwsl/wwvsync/internal/iq"
)

// SyntheticParams configures a generated WWV/WWVH-like baseband stream,
// used to exercise the full pipeline against known ground truth (per the
// end-to-end scenarios: perfect signal, noise only, gradual fade,
// disconnect/reconnect).
type SyntheticParams struct {
	SampleRateHz float64
	CarrierHz    float64 // 1000 Hz tone carrier
	Sub500Hz     float64
	Sub600Hz     float64
	BCDHz        float64 // 100 Hz subcarrier
	NoiseAmp     float64 // amplitude of additive white noise
	SignalAmp    float64 // amplitude of the composite tone signal
	EpochOffsetMs float64 // phase of second-0 relative to sample 0
}

// DefaultSyntheticParams returns a clean, strong synthetic signal.
func DefaultSyntheticParams(rateHz float64) SyntheticParams {
	return SyntheticParams{
		SampleRateHz: rateHz,
		CarrierHz:    1000.0,
		Sub500Hz:     500.0,
		Sub600Hz:     600.0,
		BCDHz:        100.0,
		NoiseAmp:     0.01,
		SignalAmp:    1.0,
	}
}

// Generator produces a deterministic complex baseband stream with WWV's
// per-second tick and minute-marker pulses on the carrier tone plus the
// continuous 500/600 Hz subcarriers. It does not modulate the BCD
// subcarrier, and it emits ticks at seconds 29 and 59 as at every other
// second. Noise comes from a seeded internal PRNG so callers can reproduce
// a run exactly.
type Generator struct {
	p         SyntheticParams
	sampleIdx int64
	rngState  uint64
}

// NewGenerator seeds a generator with a fixed xorshift64 state for reproducible
// noise, avoiding any dependency on wall-clock randomness.
func NewGenerator(p SyntheticParams, seed uint64) *Generator {
	if seed == 0 {
		seed = 1
	}
	return &Generator{p: p, rngState: seed}
}

func (g *Generator) nextNoise() float64 {
	// xorshift64
	x := g.rngState
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	g.rngState = x
	u := float64(x%1_000_000) / 500_000.0 - 1.0 // roughly [-1,1)
	return u
}

// msInSecond returns the sample's offset within its current WWV second,
// accounting for the configured epoch phase.
func (g *Generator) msInSecond(sampleIdx int64) float64 {
	tMs := float64(sampleIdx)*1000.0/g.p.SampleRateHz - g.p.EpochOffsetMs
	m := math.Mod(tMs, 1000.0)
	if m < 0 {
		m += 1000.0
	}
	return m
}

// secondOfMinute returns which second of the 60-second minute this
// sample index falls in, used to decide tick vs. marker pulse shape.
func (g *Generator) secondOfMinute(sampleIdx int64) int {
	tMs := float64(sampleIdx)*1000.0/g.p.SampleRateHz - g.p.EpochOffsetMs
	totalSec := int64(math.Floor(tMs / 1000.0))
	sec := totalSec % 60
	if sec < 0 {
		sec += 60
	}
	return int(sec)
}

// Next generates n samples starting from the generator's current
// internal position.
func (g *Generator) Next(n int) []iq.Sample {
	out := make([]iq.Sample, n)
	for k := 0; k < n; k++ {
		idx := g.sampleIdx
		g.sampleIdx++

		msec := g.msInSecond(idx)
		sec := g.secondOfMinute(idx)

		pulseMs := 5.0
		if sec == 0 {
			pulseMs = 800.0 // minute marker
		}
		inPulse := msec < pulseMs

		t := float64(idx) / g.p.SampleRateHz
		var re, im float64
		if inPulse {
			phase := 2 * math.Pi * g.p.CarrierHz * t
			re += g.p.SignalAmp * math.Cos(phase)
			im += g.p.SignalAmp * math.Sin(phase)
		}
		// subcarriers run continuously at low amplitude
		sub500 := 2 * math.Pi * g.p.Sub500Hz * t
		sub600 := 2 * math.Pi * g.p.Sub600Hz * t
		re += 0.1 * g.p.SignalAmp * math.Cos(sub500)
		im += 0.1 * g.p.SignalAmp * math.Sin(sub500)
		re += 0.1 * g.p.SignalAmp * math.Cos(sub600)
		im += 0.1 * g.p.SignalAmp * math.Sin(sub600)

		re += g.p.NoiseAmp * g.nextNoise()
		im += g.p.NoiseAmp * g.nextNoise()

		out[k] = iq.Sample{I: re, Q: im}
	}
	return out
}

// Fade linearly scales SignalAmp from 'from' to 'to' across n generated
// samples, used to model the gradual-fade end-to-end scenario.
func (g *Generator) Fade(n int, from, to float64) []iq.Sample {
	out := make([]iq.Sample, n)
	base := g.p
	for k := 0; k < n; k++ {
		frac := float64(k) / float64(n)
		g.p.SignalAmp = from + (to-from)*frac
		s := g.Next(1)
		out[k] = s[0]
	}
	g.p = base
	g.p.SignalAmp = to
	return out
}
