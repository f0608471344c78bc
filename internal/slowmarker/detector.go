// Package slowmarker implements the slow marker detector:
// an independent confirmation of minute markers from the 12 kHz
// overlapped-FFT display path, used by the marker correlator to cross-check
// the fast path's accumulator-based detection.
package slowmarker

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cwsl/wwvsync/internal/constants"
	"github.com/cwsl/wwvsync/internal/dsp"
	"github.com/cwsl/wwvsync/internal/events"
	"github.com/cwsl/wwvsync/internal/iq"
)

// Params holds the slow marker detector's tunables.
type Params struct {
	ThresholdDB float64 // SNR threshold for AboveThreshold
	NeighborBins int    // bins either side of the target used for the noise estimate
}

// DefaultParams returns reasonable defaults for the 2048-point path.
func DefaultParams() Params {
	return Params{ThresholdDB: 6.0, NeighborBins: 4}
}

// Detector consumes the 12 kHz path sample-by-sample and emits a
// SlowMarkerFrame each time its overlapped FFT produces a new update.
type Detector struct {
	params    Params
	rateHz    float64
	window    []float64
	buf       []complex128
	idx       int
	hop       int
	sinceHop  int
	filled    bool
	fft       *fourier.CmplxFFT
	scratch   []complex128
	targetBin int

	onFrame func(events.SlowMarkerFrame)
}

// New creates a slow marker detector for a display-path stream at rateHz
// (nominally constants.DisplayRateHz), using a 50%-overlapped
// constants.SlowMarkerFFTSize-point FFT.
func New(rateHz float64, p Params) *Detector {
	n := constants.SlowMarkerFFTSize
	return &Detector{
		params:    p,
		rateHz:    rateHz,
		window:    dsp.HannWindow(n),
		buf:       make([]complex128, n),
		hop:       n / 2,
		fft:       fourier.NewCmplxFFT(n),
		scratch:   make([]complex128, n),
		targetBin: int(math.Round(constants.TargetToneHz / rateHz * float64(n))),
	}
}

// SetFrameCallback installs the consumer for SlowMarkerFrames.
func (d *Detector) SetFrameCallback(fn func(events.SlowMarkerFrame)) { d.onFrame = fn }

// SetParams replaces the tunable parameter set.
func (d *Detector) SetParams(p Params) { d.params = p }

// Reset clears all detector state, e.g. on stream discontinuity.
func (d *Detector) Reset() {
	onFrame := d.onFrame
	*d = *New(d.rateHz, d.params)
	d.onFrame = onFrame
}

// ProcessSample feeds one display-path sample at timestamp nowMs.
func (d *Detector) ProcessSample(s iq.Sample, nowMs float64) {
	n := len(d.buf)
	d.buf[d.idx] = complex(s.I, s.Q)
	d.idx = (d.idx + 1) % n
	if d.idx == 0 {
		d.filled = true
	}
	d.sinceHop++
	if d.sinceHop < d.hop || !d.filled {
		return
	}
	d.sinceHop = 0
	d.emit(nowMs)
}

func (d *Detector) emit(nowMs float64) {
	n := len(d.buf)
	windowed := make([]complex128, n)
	for i := 0; i < n; i++ {
		v := d.buf[(d.idx+i)%n]
		windowed[i] = complex(real(v)*d.window[i], imag(v)*d.window[i])
	}
	out := d.fft.Coefficients(d.scratch, windowed)

	sigMag := cmplxAbs(out[d.targetBin])
	sigPower := sigMag * sigMag

	noisePower := 0.0
	count := 0
	for off := -d.params.NeighborBins - 2; off <= d.params.NeighborBins+2; off++ {
		if off >= -d.params.NeighborBins && off <= d.params.NeighborBins {
			continue
		}
		k := ((d.targetBin+off)%n + n) % n
		m := cmplxAbs(out[k])
		noisePower += m * m
		count++
	}
	if count > 0 {
		noisePower /= float64(count)
	}
	if noisePower < 1e-12 {
		noisePower = 1e-12
	}

	snrDB := 10.0 * math.Log10(sigPower/noisePower)

	if d.onFrame != nil {
		d.onFrame(events.SlowMarkerFrame{
			TimestampMs:    nowMs,
			Energy:         sigPower,
			SNRdB:          snrDB,
			AboveThreshold: snrDB >= d.params.ThresholdDB,
		})
	}
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
