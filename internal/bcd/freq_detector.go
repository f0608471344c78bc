package bcd

import (
	"github.com/cwsl/wwvsync/internal/dsp"
	"github.com/cwsl/wwvsync/internal/events"
	"github.com/cwsl/wwvsync/internal/iq"
)

// FreqDetector extracts 100 Hz energy via a full windowed FFT over 10 ms
// blocks, independently of TimeDetector's single-bin Goertzel, so the two
// paths can cross-check each other in the BCD correlator.
type FreqDetector struct {
	rateHz     float64
	extractor  *dsp.ToneExtractor
	classifier *pulseClassifier

	onCandidate func(events.BCDSymbol, float64, float64)
}

// NewFreqDetector creates a frequency-domain BCD detector for a
// data-channel stream at rateHz.
func NewFreqDetector(rateHz float64, p ClassifierParams) *FreqDetector {
	blockSamples := int(rateHz * 0.01)
	if blockSamples < 4 {
		blockSamples = 4
	}
	d := &FreqDetector{rateHz: rateHz}
	d.extractor = dsp.NewToneExtractor(blockSamples, rateHz, 100.0, 0)
	d.classifier = newPulseClassifier(p, func(sym events.BCDSymbol, tsMs, widthMs float64) {
		if d.onCandidate != nil {
			d.onCandidate(sym, tsMs, widthMs)
		}
	})
	return d
}

// SetCandidateCallback installs the consumer for classified pulse
// candidates.
func (d *FreqDetector) SetCandidateCallback(fn func(events.BCDSymbol, float64, float64)) {
	d.onCandidate = fn
}

// SetParams replaces the classifier's tunable parameters.
func (d *FreqDetector) SetParams(p ClassifierParams) { d.classifier.setParams(p) }

// Reset clears all detector state, e.g. on stream discontinuity.
func (d *FreqDetector) Reset() {
	d.extractor.Reset()
	d.classifier.reset()
}

// ProcessSample feeds one data-channel sample.
func (d *FreqDetector) ProcessSample(s iq.Sample, nowMs float64) {
	energy, ready := d.extractor.Push(s)
	if !ready {
		return
	}
	d.classifier.process(energy, nowMs)
}
