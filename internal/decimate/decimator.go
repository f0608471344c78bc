// Package decimate implements the decimator/filter bank and channel
// splitter: two parallel anti-alias + decimate chains from
// the input rate to the detector-path rate Fd (50 kHz) and the
// display/slow-path rate Fw (12 kHz), a slow-AGC normalizer ahead of the
// detector path, and the sync/data channel band separation.
package decimate

import (
	"fmt"
	"math"

	"github.com/cwsl/wwvsync/internal/iq"
)

// Chain is one anti-alias low-pass + integer-rate decimation stage.
type Chain struct {
	lpfI, lpfQ *biquad
	ratio      int
	phase      int
}

// NewChain builds a decimation chain from inRateHz down to outRateHz. The
// anti-alias corner sits ~10-20% inside the output Nyquist to leave a guard
// band.
func NewChain(inRateHz, outRateHz float64) (*Chain, error) {
	if outRateHz <= 0 || inRateHz <= 0 {
		return nil, fmt.Errorf("decimate: non-positive rate (in=%v out=%v)", inRateHz, outRateHz)
	}
	ratio := inRateHz / outRateHz
	if math.Abs(ratio-math.Round(ratio)) > 1e-6 {
		return nil, fmt.Errorf("decimate: input rate %v is not an integer multiple of output rate %v", inRateHz, outRateHz)
	}
	corner := outRateHz / 2.0 * 0.85 // ~15% guard band inside output Nyquist
	q := 0.7071                      // Butterworth-ish, maximally flat
	return &Chain{
		lpfI:  newLowpass(corner, inRateHz, q),
		lpfQ:  newLowpass(corner, inRateHz, q),
		ratio: int(math.Round(ratio)),
	}, nil
}

// Process filters and decimates one input sample, returning the decimated
// output sample and whether one was produced on this call.
func (c *Chain) Process(s iq.Sample) (iq.Sample, bool) {
	fi := c.lpfI.Filter(s.I)
	fq := c.lpfQ.Filter(s.Q)
	c.phase++
	if c.phase < c.ratio {
		return iq.Sample{}, false
	}
	c.phase = 0
	return iq.Sample{I: fi, Q: fq}, true
}

// Reset clears filter state, e.g. on stream discontinuity.
func (c *Chain) Reset() {
	c.lpfI.Reset()
	c.lpfQ.Reset()
	c.phase = 0
}

// Normalizer is a slow AGC over the decimated detector-path stream: an
// exponentially-smoothed magnitude estimate used to unity-normalize each
// sample. Attack is fast for the first warmupSamples, then slow.
type Normalizer struct {
	level         float64
	samplesSeen   int
	warmupSamples int
	fastAlpha     float64
	slowAlpha     float64
}

// NewNormalizer creates a normalizer with a default warm-up schedule
// (~50000 samples at fast attack, alpha ~0.01, then slow at alpha
// ~0.0001).
func NewNormalizer() *Normalizer {
	return &Normalizer{
		level:         1.0,
		warmupSamples: 50000,
		fastAlpha:     0.01,
		slowAlpha:     0.0001,
	}
}

// Process returns s scaled by 1/L where L is the current smoothed
// magnitude estimate, floored at 1e-4 to avoid blow-up on silence.
func (n *Normalizer) Process(s iq.Sample) iq.Sample {
	mag := math.Sqrt(s.Mag2())
	alpha := n.slowAlpha
	if n.samplesSeen < n.warmupSamples {
		alpha = n.fastAlpha
	}
	n.samplesSeen++
	n.level = n.level + alpha*(mag-n.level)
	if n.level < 1e-4 {
		n.level = 1e-4
	}
	inv := 1.0 / n.level
	return iq.Sample{I: s.I * inv, Q: s.Q * inv}
}

// Reset restarts the warm-up schedule, e.g. on stream discontinuity.
func (n *Normalizer) Reset() {
	n.level = 1.0
	n.samplesSeen = 0
}
