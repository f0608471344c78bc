// Package iq defines the sample types shared across the detector/correlator
// graph and the monotonic sample-count clock the whole pipeline times off.
package iq

// Sample is a complex baseband sample pair, normalized to approximately
// [-1, 1].
type Sample struct {
	I, Q float64
}

// Mag2 returns the squared magnitude, cheaper than the magnitude itself
// when only relative comparisons are needed.
func (s Sample) Mag2() float64 {
	return s.I*s.I + s.Q*s.Q
}

// Frame is a fixed-size block of samples at a specific rate, timestamped
// from the sample-count clock at the start of the block.
type Frame struct {
	Samples []Sample
	RateHz  float64
	StartMs float64
}

// Clock derives millisecond timestamps from a running sample count, as
// required by spec: "All time values are floating-point milliseconds since
// pipeline start, derived from a monotonic sample-count clock."
type Clock struct {
	rateHz float64
	count  uint64
}

// NewClock creates a clock ticking at rateHz samples per second.
func NewClock(rateHz float64) *Clock {
	return &Clock{rateHz: rateHz}
}

// Advance accounts for n additional samples having been processed.
func (c *Clock) Advance(n int) {
	c.count += uint64(n)
}

// NowMs returns the current timestamp in milliseconds.
func (c *Clock) NowMs() float64 {
	return float64(c.count) / c.rateHz * 1000.0
}

// Reset zeros the sample count, e.g. on transport reconnect.
func (c *Clock) Reset() {
	c.count = 0
}

// RateHz returns the clock's configured sample rate.
func (c *Clock) RateHz() float64 {
	return c.rateHz
}
