// Package bcd implements the BCD time/frequency detectors and BCD
// correlator: two independent 100 Hz subcarrier detectors
// on the data channel, fused into one symbol-per-second while the sync
// state machine is LOCKED.
package bcd

import (
	"github.com/cwsl/wwvsync/internal/events"
	"github.com/cwsl/wwvsync/internal/iq"
)

// TimeDetector extracts the 100 Hz envelope with a single-bin Goertzel
// over 10 ms blocks, then classifies pulse widths. It is the time-domain
// half of the dual-path BCD design (the other half, FreqDetector, is
// frequency-domain).
type TimeDetector struct {
	rateHz     float64
	gz         *goertzel
	classifier *pulseClassifier

	onCandidate func(events.BCDSymbol, float64, float64)
}

// NewTimeDetector creates a time-domain BCD detector for a data-channel
// stream at rateHz.
func NewTimeDetector(rateHz float64, p ClassifierParams) *TimeDetector {
	blockSamples := int(rateHz * 0.01) // 10ms blocks
	if blockSamples < 1 {
		blockSamples = 1
	}
	d := &TimeDetector{rateHz: rateHz}
	d.gz = newGoertzel(rateHz, 100.0, blockSamples)
	d.classifier = newPulseClassifier(p, func(sym events.BCDSymbol, tsMs, widthMs float64) {
		if d.onCandidate != nil {
			d.onCandidate(sym, tsMs, widthMs)
		}
	})
	return d
}

// SetCandidateCallback installs the consumer for classified pulse
// candidates (symbol, leading-edge timestamp, pulse width).
func (d *TimeDetector) SetCandidateCallback(fn func(events.BCDSymbol, float64, float64)) {
	d.onCandidate = fn
}

// SetParams replaces the classifier's tunable parameters.
func (d *TimeDetector) SetParams(p ClassifierParams) { d.classifier.setParams(p) }

// Reset clears all detector state, e.g. on stream discontinuity.
func (d *TimeDetector) Reset() {
	d.gz.reset()
	d.classifier.reset()
}

// ProcessSample feeds one data-channel sample (the envelope is taken from
// the I component; the data channel is real-valued information carried on
// a baseband low-pass, so Q is redundant for this extraction).
func (d *TimeDetector) ProcessSample(s iq.Sample, nowMs float64) {
	mag, ready := d.gz.push(s.I)
	if !ready {
		return
	}
	d.classifier.process(mag, nowMs)
}
