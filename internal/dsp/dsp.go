// Package dsp holds small numeric building blocks shared by more than one
// detector: Hann windowing, a complex-FFT tone-energy extractor built on
// gonum's fourier transform, and the asymmetric EMA noise/baseline tracker
// that recurs across the tick, fast-marker, and BCD detectors.
package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cwsl/wwvsync/internal/iq"
)

// HannWindow returns an n-point Hann window.
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// ToneExtractor runs a fixed-size complex FFT over a ring buffer of
// complex baseband samples and reports the energy around a target
// frequency, summing both sidebands (+f and -f relative to baseband) over
// a configurable bin set around the target frequency.
type ToneExtractor struct {
	n          int
	rateHz     float64
	window     []float64
	buf        []complex128
	idx        int
	fft        *fourier.CmplxFFT
	scratch    []complex128
	binWidth   int // bins either side of center included in the sum
	targetBin  int
}

// NewToneExtractor builds an extractor for an n-point FFT at rateHz
// targeting targetHz, summing binWidth bins on either side of center (and
// its mirror) into the reported energy.
func NewToneExtractor(n int, rateHz, targetHz float64, binWidth int) *ToneExtractor {
	return &ToneExtractor{
		n:         n,
		rateHz:    rateHz,
		window:    HannWindow(n),
		buf:       make([]complex128, n),
		fft:       fourier.NewCmplxFFT(n),
		scratch:   make([]complex128, n),
		binWidth:  binWidth,
		targetBin: int(math.Round(targetHz / rateHz * float64(n))),
	}
}

// Push adds one sample to the ring buffer. It returns (energy, true) once
// every n samples, when a new non-overlapping block completes.
func (t *ToneExtractor) Push(s iq.Sample) (float64, bool) {
	t.buf[t.idx] = complex(s.I, s.Q)
	t.idx++
	if t.idx < t.n {
		return 0, false
	}
	t.idx = 0
	return t.energy(), true
}

// Reset clears the ring buffer position, e.g. on stream discontinuity.
func (t *ToneExtractor) Reset() {
	t.idx = 0
}

func (t *ToneExtractor) energy() float64 {
	windowed := make([]complex128, t.n)
	for i, v := range t.buf {
		windowed[i] = complex(real(v)*t.window[i], imag(v)*t.window[i])
	}
	out := t.fft.Coefficients(t.scratch, windowed)

	sum := 0.0
	sum += sumAround(out, t.targetBin, t.binWidth, t.n)
	mirror := (t.n - t.targetBin) % t.n
	sum += sumAround(out, mirror, t.binWidth, t.n)
	// Normalize by the squared FFT length so results are comparable across
	// sizes.
	return sum / float64(t.n*t.n)
}

func sumAround(bins []complex128, center, width, n int) float64 {
	sum := 0.0
	for d := -width; d <= width; d++ {
		k := ((center+d)%n + n) % n
		m := cmplxAbs(bins[k])
		sum += m * m
	}
	return sum
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// AsymEMA is an asymmetric exponential moving average: it moves toward a
// new sample at one rate when the sample pulls it down and a different
// rate when the sample pulls it up. This is the shape of every noise-floor
// and baseline tracker in the detector bank: fast
// attack downward, slow release upward, clamped to a configured range.
type AsymEMA struct {
	Value          float64
	AlphaDown      float64 // rate applied when input < Value
	AlphaUp        float64 // rate applied when input >= Value
	Min, Max       float64
}

// NewAsymEMA creates a tracker seeded at init and clamped to [min, max].
func NewAsymEMA(init, alphaDown, alphaUp, min, max float64) *AsymEMA {
	return &AsymEMA{Value: init, AlphaDown: alphaDown, AlphaUp: alphaUp, Min: min, Max: max}
}

// Update folds in one new sample and returns the updated value.
func (e *AsymEMA) Update(sample float64) float64 {
	alpha := e.AlphaUp
	if sample < e.Value {
		alpha = e.AlphaDown
	}
	e.Value += alpha * (sample - e.Value)
	if e.Value < e.Min {
		e.Value = e.Min
	}
	if e.Value > e.Max {
		e.Value = e.Max
	}
	return e.Value
}

// Reset reseeds the tracker, e.g. on stream discontinuity.
func (e *AsymEMA) Reset(init float64) {
	e.Value = init
}
