// Package tickdetect implements the tick detector: the
// dual-mechanism second-tick and minute-long-pulse detector running an
// energy-threshold FFT state machine and a matched-filter correlator in
// parallel on the sync channel.
package tickdetect

import (
	"math"

	"github.com/cwsl/wwvsync/internal/constants"
	"github.com/cwsl/wwvsync/internal/dsp"
	"github.com/cwsl/wwvsync/internal/epoch"
	"github.com/cwsl/wwvsync/internal/events"
	"github.com/cwsl/wwvsync/internal/iq"
)

type state int

const (
	stateIdle state = iota
	stateInPulse
	stateCooldown
)

// Detector runs the dual tick/marker detection mechanism over a sync
// channel sample stream at a fixed rate.
type Detector struct {
	params Params
	rateHz float64

	energy  *dsp.ToneExtractor
	noise   *dsp.AsymEMA
	corrTpl []complex128
	corrBuf []complex128
	corrIdx int
	corrCnt int
	corrNoise *dsp.AsymEMA

	st            state
	pulseStartMs  float64
	peakEnergy    float64
	corrPeak      float64
	cooldownUntil float64

	frameCount int
	tickNum    int
	markerNum  int
	lastTickMs float64
	haveTick   bool
	avgInterval float64

	rejectedCount int

	haveEpoch  bool
	curEpoch   epoch.Estimate

	onTick       func(events.Tick)
	onTickMarker func(events.TickMarker)
}

// New creates a tick detector for a sync-channel stream sampled at
// rateHz (nominally constants.DecimatedRateHz), using p for its tunables.
func New(rateHz float64, p Params) *Detector {
	d := &Detector{
		params: p,
		rateHz: rateHz,
		energy: dsp.NewToneExtractor(constants.TickFFTSize, rateHz, constants.TargetToneHz, 2),
		noise:  dsp.NewAsymEMA(1e-3, p.NoiseAlphaDown, p.NoiseAlphaUp, 1e-4, 5.0),
	}
	tplLen := int(math.Round(5.0 / 1000.0 * rateHz)) // nominal 5ms tick
	if tplLen < 4 {
		tplLen = 4
	}
	window := dsp.HannWindow(tplLen)
	tpl := make([]complex128, tplLen)
	for i := range tpl {
		theta := 2.0 * math.Pi * constants.TargetToneHz * float64(i) / rateHz
		tpl[i] = complex(math.Cos(theta)*window[i], math.Sin(theta)*window[i])
	}
	d.corrTpl = tpl
	d.corrBuf = make([]complex128, tplLen)
	d.corrNoise = dsp.NewAsymEMA(1e-3, p.NoiseAlphaDown, p.NoiseAlphaUp, 1e-4, 5.0)
	return d
}

// SetTickCallback installs the consumer for confirmed TickEvents.
func (d *Detector) SetTickCallback(fn func(events.Tick)) { d.onTick = fn }

// SetTickMarkerCallback installs the consumer for confirmed long pulses.
func (d *Detector) SetTickMarkerCallback(fn func(events.TickMarker)) { d.onTickMarker = fn }

// SetParams replaces the tunable parameter set atomically.
func (d *Detector) SetParams(p Params) { d.params = p }

// Params returns the current tunable parameter set.
func (d *Detector) Params() Params { return d.params }

// SetEpoch installs an epoch estimate used for the optional phase gate.
// Per the epoch-distributor rule, the caller is responsible
// for only calling this with estimates that already passed the source
// precedence check in package epoch.
func (d *Detector) SetEpoch(e epoch.Estimate) {
	d.haveEpoch = true
	d.curEpoch = e
}

// RejectedCount returns the number of pulses seen but not reported as
// ticks or markers.
func (d *Detector) RejectedCount() int { return d.rejectedCount }

// Reset clears all detector state, e.g. on stream discontinuity.
func (d *Detector) Reset() {
	onTick, onTickMarker := d.onTick, d.onTickMarker
	*d = *New(d.rateHz, d.params)
	d.onTick, d.onTickMarker = onTick, onTickMarker
}

// ProcessSample feeds one sync-channel sample at timestamp nowMs through
// both detection mechanisms.
func (d *Detector) ProcessSample(s iq.Sample, nowMs float64) {
	d.updateCorrelator(s)

	energyVal, ready := d.energy.Push(s)
	if !ready {
		return
	}
	d.frameCount++

	if d.frameCount <= d.params.WarmupFrames {
		d.noise.AlphaDown, d.noise.AlphaUp = d.params.WarmupAlpha, d.params.WarmupAlpha
		d.noise.Update(energyVal)
		d.noise.AlphaDown, d.noise.AlphaUp = d.params.NoiseAlphaDown, d.params.NoiseAlphaUp
		return
	}

	switch d.st {
	case stateIdle:
		d.noise.Update(energyVal)
		high := d.noise.Value * d.params.ThresholdMult
		if energyVal > high {
			d.st = stateInPulse
			d.pulseStartMs = nowMs
			d.peakEnergy = energyVal
			d.corrPeak = 0
		}
	case stateInPulse:
		if energyVal > d.peakEnergy {
			d.peakEnergy = energyVal
		}
		high := d.noise.Value * d.params.ThresholdMult
		low := high * 0.7
		duration := nowMs - d.pulseStartMs
		if energyVal < low || duration > d.params.HardCapMs {
			d.finishPulse(nowMs)
			d.st = stateCooldown
			d.cooldownUntil = nowMs + d.params.CooldownMs
		}
	case stateCooldown:
		d.noise.Update(energyVal)
		if nowMs >= d.cooldownUntil {
			d.st = stateIdle
		}
	}
}

func (d *Detector) updateCorrelator(s iq.Sample) {
	d.corrBuf[d.corrIdx] = complex(s.I, s.Q)
	d.corrIdx = (d.corrIdx + 1) % len(d.corrBuf)
	d.corrCnt++
	if d.corrCnt%d.params.CorrDecimation != 0 {
		return
	}
	var acc complex128
	n := len(d.corrBuf)
	for i := 0; i < n; i++ {
		sampleIdx := (d.corrIdx + i) % n
		acc += d.corrBuf[sampleIdx] * cmplxConj(d.corrTpl[i])
	}
	mag := math.Hypot(real(acc), imag(acc)) / float64(n)
	if d.st == stateInPulse && mag > d.corrPeak {
		d.corrPeak = mag
	} else if d.st != stateInPulse {
		d.corrNoise.Update(mag)
	}
}

func cmplxConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}

func (d *Detector) finishPulse(nowMs float64) {
	trailing := nowMs
	duration := nowMs - d.pulseStartMs
	leading := trailing - duration - constants.FilterDelayMs

	interval := 0.0
	if d.haveTick {
		interval = trailing - d.lastTickMs
	}

	corrNoiseFloor := d.corrNoise.Value
	corrRatio := 0.0
	if corrNoiseFloor > 0 {
		corrRatio = d.corrPeak / corrNoiseFloor
	}

	isMarker := duration >= d.params.MarkerMinMs && duration <= d.params.MarkerMaxMs &&
		(!d.haveTick || interval >= d.params.MinIntervalMs)
	isTick := !isMarker && duration >= d.params.MinDurationMs && duration <= d.params.MaxTickDurationMs &&
		(!d.haveTick || interval >= d.params.MinIntervalMs) && corrRatio >= d.params.CorrThreshold

	if d.gated(leading) {
		d.rejectedCount++
		return
	}

	switch {
	case isMarker:
		d.markerNum++
		if d.onTickMarker != nil {
			d.onTickMarker(events.TickMarker{
				Number: d.markerNum, TrailingMs: trailing, LeadingMs: leading,
				DurationMs: duration, PeakEnergy: d.peakEnergy, IntervalMs: interval,
				AvgIntervalMs: d.avgInterval, NoiseFloor: d.noise.Value,
				CorrPeak: d.corrPeak, CorrRatio: corrRatio,
			})
		}
	case isTick:
		d.tickNum++
		if d.haveTick {
			if d.avgInterval == 0 {
				d.avgInterval = interval
			} else {
				d.avgInterval = d.avgInterval*0.8 + interval*0.2
			}
		}
		d.lastTickMs = trailing
		d.haveTick = true
		if d.onTick != nil {
			d.onTick(events.Tick{
				Number: d.tickNum, TrailingMs: trailing, LeadingMs: leading,
				DurationMs: duration, PeakEnergy: d.peakEnergy, IntervalMs: interval,
				AvgIntervalMs: d.avgInterval, NoiseFloor: d.noise.Value,
				CorrPeak: d.corrPeak, CorrRatio: corrRatio,
			})
		}
	default:
		d.rejectedCount++
	}
}

// gated reports whether the optional epoch-phase gate should suppress this
// pulse: its leading edge's phase within the second must fall within
// GatingToleranceMs of the installed epoch's second-0 phase.
func (d *Detector) gated(leadingMs float64) bool {
	if !d.params.GatingEnabled || !d.haveEpoch {
		return false
	}
	phase := math.Mod(leadingMs-d.curEpoch.OffsetMs, constants.SecondMs)
	if phase < 0 {
		phase += constants.SecondMs
	}
	dist := math.Min(phase, constants.SecondMs-phase)
	return dist > d.params.GatingToleranceMs
}
