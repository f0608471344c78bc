// Package fastmarker implements the fast marker detector: a
// sliding-window 1000 Hz energy accumulator on the sync channel, confirming
// minute markers independently of the tick detector's long-pulse path.
package fastmarker

import (
	"github.com/cwsl/wwvsync/internal/constants"
	"github.com/cwsl/wwvsync/internal/dsp"
	"github.com/cwsl/wwvsync/internal/events"
	"github.com/cwsl/wwvsync/internal/iq"
)

// Detector accumulates wide-band 1000 Hz energy over a rolling ~1s window
// and confirms a marker when the accumulator stays above baseline*mult for
// a span in [MinDurationMs, MaxDurationMs].
type Detector struct {
	params   Params
	rateHz   float64
	energy   *dsp.ToneExtractor
	baseline float64

	frameMs     float64
	window      []float64
	windowIdx   int
	windowSum   float64
	windowLen   int

	inMarker    bool
	startMs     float64
	accumulated float64
	peak        float64

	markerNum   int
	lastMarkerMs float64
	haveMarker  bool

	onMarker func(events.Marker)
}

// New creates a fast marker detector for a sync-channel stream at rateHz.
func New(rateHz float64, p Params) *Detector {
	frameMs := float64(constants.TickFFTSize) / rateHz * 1000.0
	windowLen := int(p.WindowMs / frameMs)
	if windowLen < 1 {
		windowLen = 1
	}
	return &Detector{
		params:   p,
		rateHz:   rateHz,
		energy:   dsp.NewToneExtractor(constants.TickFFTSize, rateHz, constants.TargetToneHz, 5), // wider band, +-5 bins (about +-980 Hz at 50 kHz)
		baseline: 1e-3,
		frameMs:  frameMs,
		window:   make([]float64, windowLen),
		windowLen: windowLen,
	}
}

// SetMarkerCallback installs the consumer for confirmed MarkerEvents.
func (d *Detector) SetMarkerCallback(fn func(events.Marker)) { d.onMarker = fn }

// SetParams replaces the tunable parameter set.
func (d *Detector) SetParams(p Params) { d.params = p }

// Params returns the current tunable parameter set.
func (d *Detector) Params() Params { return d.params }

// Reset clears all detector state, e.g. on stream discontinuity.
func (d *Detector) Reset() {
	onMarker := d.onMarker
	*d = *New(d.rateHz, d.params)
	d.onMarker = onMarker
}

// ProcessSample feeds one sync-channel sample at timestamp nowMs.
func (d *Detector) ProcessSample(s iq.Sample, nowMs float64) {
	frameEnergy, ready := d.energy.Push(s)
	if !ready {
		return
	}

	d.windowSum -= d.window[d.windowIdx]
	d.window[d.windowIdx] = frameEnergy
	d.windowSum += frameEnergy
	d.windowIdx = (d.windowIdx + 1) % d.windowLen

	threshold := d.baseline * d.params.ThresholdMult

	if !d.inMarker {
		d.baseline += d.params.AdaptRate * (frameEnergy - d.baseline)
		if d.baseline < 1e-6 {
			d.baseline = 1e-6
		}
		if d.windowSum > threshold {
			d.inMarker = true
			d.startMs = nowMs
			d.accumulated = 0
			d.peak = 0
		}
		return
	}

	d.accumulated += d.windowSum
	if d.windowSum > d.peak {
		d.peak = d.windowSum
	}

	if d.windowSum <= threshold {
		d.inMarker = false
		// The sum only falls back once the pulse's last frame has left the
		// window, one window length after the pulse's trailing edge.
		trailing := nowMs - float64(d.windowLen)*d.frameMs
		duration := trailing - d.startMs
		if duration >= d.params.MinDurationMs && duration <= d.params.MaxDurationMs {
			d.markerNum++
			since := 0.0
			if d.haveMarker {
				since = trailing - d.lastMarkerMs
			}
			d.lastMarkerMs = trailing
			d.haveMarker = true
			if d.onMarker != nil {
				d.onMarker(events.Marker{
					Number:           d.markerNum,
					TimestampMs:      trailing,
					AccumulatedEnerg: d.accumulated,
					PeakEnergy:       d.peak,
					DurationMs:       duration,
					SinceLastMs:      since,
				})
			}
		}
	}
}
