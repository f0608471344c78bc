package pipeline

import (
	"math"

	"github.com/cwsl/wwvsync/internal/constants"
	"github.com/cwsl/wwvsync/internal/dsp"
	"github.com/cwsl/wwvsync/internal/iq"
	"github.com/cwsl/wwvsync/internal/telemetry"
)

func toDB(energy float64) float64 {
	if energy < 1e-12 {
		energy = 1e-12
	}
	return 10.0 * math.Log10(energy)
}

// channelQuality tracks receiver quality on the sync channel: the
// broadband carrier level, the narrowband 500/600/1000 Hz tone energies,
// and a slow noise-floor estimate, emitting one CHAN record per second.
type channelQuality struct {
	carrier    float64 // smoothed broadband |I+jQ|^2, updated every sample
	tone1000   *dsp.ToneExtractor
	tone500    *dsp.ToneExtractor
	tone600    *dsp.ToneExtractor
	noiseFloor *dsp.AsymEMA

	lastEmitMs float64
	haveLast   bool
}

func newChannelQuality(rateHz float64) *channelQuality {
	return &channelQuality{
		tone1000:   dsp.NewToneExtractor(constants.TickFFTSize, rateHz, 1000.0, 2),
		tone500:    dsp.NewToneExtractor(constants.TickFFTSize, rateHz, 500.0, 2),
		tone600:    dsp.NewToneExtractor(constants.TickFFTSize, rateHz, 600.0, 2),
		noiseFloor: dsp.NewAsymEMA(1e-3, 1e-3, 1e-4, 1e-6, 10.0),
	}
}

// reset clears all tracked quality state, e.g. on stream discontinuity.
func (q *channelQuality) reset() {
	q.carrier = 0
	q.tone1000.Reset()
	q.tone500.Reset()
	q.tone600.Reset()
	q.noiseFloor.Reset(1e-3)
	q.haveLast = false
}

// process feeds one sync-channel sample; it returns a ready record no
// more than once per second.
func (q *channelQuality) process(s iq.Sample, nowMs float64) (telemetry.ChanRecord, bool) {
	q.carrier = 0.98*q.carrier + 0.02*s.Mag2()

	e1000, r1 := q.tone1000.Push(s)
	e500, _ := q.tone500.Push(s)
	e600, _ := q.tone600.Push(s)
	if !r1 {
		return telemetry.ChanRecord{}, false
	}

	q.noiseFloor.Update(e1000)

	if q.haveLast && nowMs-q.lastEmitMs < constants.SecondMs {
		return telemetry.ChanRecord{}, false
	}
	q.lastEmitMs = nowMs
	q.haveLast = true

	noiseDB := toDB(q.noiseFloor.Value)
	tone1000DB := toDB(e1000)
	snrDB := tone1000DB - noiseDB

	return telemetry.ChanRecord{
		TimestampMs: nowMs,
		CarrierDB:   toDB(q.carrier),
		SNRdB:       snrDB,
		Sub500DB:    toDB(e500),
		Sub600DB:    toDB(e600),
		Tone1000DB:  tone1000DB,
		NoiseDB:     noiseDB,
	}, true
}
