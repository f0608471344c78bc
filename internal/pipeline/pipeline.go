// Package pipeline wires the detector/correlator/sync-state graph into a
// single cooperative ingest path: raw samples flow
// through the decimator bank, the channel splitter, the detector bank,
// the correlators, and the sync state machine, with the best-available
// epoch estimate propagated back into the tick detector and BCD
// correlator.
package pipeline

import (
	"math"

	"github.com/cwsl/wwvsync/internal/bcd"
	"github.com/cwsl/wwvsync/internal/constants"
	"github.com/cwsl/wwvsync/internal/decimate"
	"github.com/cwsl/wwvsync/internal/epoch"
	"github.com/cwsl/wwvsync/internal/events"
	"github.com/cwsl/wwvsync/internal/fastmarker"
	"github.com/cwsl/wwvsync/internal/iq"
	"github.com/cwsl/wwvsync/internal/markercorr"
	"github.com/cwsl/wwvsync/internal/slowmarker"
	"github.com/cwsl/wwvsync/internal/syncstate"
	"github.com/cwsl/wwvsync/internal/telemetry"
	"github.com/cwsl/wwvsync/internal/tickcorr"
	"github.com/cwsl/wwvsync/internal/tickdetect"
	"github.com/cwsl/wwvsync/internal/transport"
	"github.com/cwsl/wwvsync/internal/tunables"
)

// Config configures a Pipeline's fixed sample rates. Only the input rate
// varies by deployment; the internal detector/display rates are the
// spec's fixed Fd/Fw values unless overridden for testing.
type Config struct {
	InputRateHz   float64
	DetectorRateHz float64 // Fd, default constants.DecimatedRateHz
	DisplayRateHz  float64 // Fw, default constants.DisplayRateHz
}

// DefaultConfig returns the fixed internal detector and display rates for
// a given input sample rate.
func DefaultConfig(inputRateHz float64) Config {
	return Config{
		InputRateHz:    inputRateHz,
		DetectorRateHz: constants.DecimatedRateHz,
		DisplayRateHz:  constants.DisplayRateHz,
	}
}

// Pipeline owns every detector, correlator, and the sync state machine,
// and drives them sample-by-sample from a raw input stream. All state is
// owned exclusively by the goroutine calling IngestBlock; nothing here is
// shared across goroutines.
type Pipeline struct {
	cfg Config

	clockDet   *iq.Clock
	clockWide  *iq.Clock
	decimDet   *decimate.Chain
	decimWide  *decimate.Chain
	normalizer *decimate.Normalizer
	splitter   *decimate.Splitter

	quality *channelQuality

	tick       *tickdetect.Detector
	fastMarker *fastmarker.Detector
	slowMarker *slowmarker.Detector
	timeDet    *bcd.TimeDetector
	freqDet    *bcd.FreqDetector

	tickCorr   *tickcorr.Correlator
	markerCorr *markercorr.Correlator
	bcdCorr    *bcd.Correlator
	sync       *syncstate.Detector

	tunables *tunables.Table

	telem   *telemetry.Emitter
	metrics *telemetry.Metrics

	curEpoch epoch.Estimate

	holeSecond     int
	haveHoleSecond bool
	sawTickThisSec bool

	bcdSymbolCount int
}

// New builds a fully-wired Pipeline from a declared tunables table and
// telemetry emitter (both may be nil for a detector-only pipeline, e.g.
// in tests).
func New(cfg Config, t *tunables.Table, telem *telemetry.Emitter, metrics *telemetry.Metrics) (*Pipeline, error) {
	if t == nil {
		t = tunables.NewTable()
	}

	decimDet, err := decimate.NewChain(cfg.InputRateHz, cfg.DetectorRateHz)
	if err != nil {
		return nil, err
	}
	decimWide, err := decimate.NewChain(cfg.InputRateHz, cfg.DisplayRateHz)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg: cfg,

		clockDet:  iq.NewClock(cfg.DetectorRateHz),
		clockWide: iq.NewClock(cfg.DisplayRateHz),

		decimDet:   decimDet,
		decimWide:  decimWide,
		normalizer: decimate.NewNormalizer(),
		splitter:   decimate.NewSplitter(cfg.DetectorRateHz),

		quality: newChannelQuality(cfg.DetectorRateHz),

		tick:       tickdetect.New(cfg.DetectorRateHz, t.Tick),
		fastMarker: fastmarker.New(cfg.DetectorRateHz, t.Marker),
		slowMarker: slowmarker.New(cfg.DisplayRateHz, slowmarker.DefaultParams()),
		timeDet:    bcd.NewTimeDetector(cfg.DetectorRateHz, bcd.DefaultClassifierParams()),
		freqDet:    bcd.NewFreqDetector(cfg.DetectorRateHz, bcd.DefaultClassifierParams()),

		tickCorr:   tickcorr.New(t.TickCorr),
		markerCorr: markercorr.New(markercorr.DefaultParams()),
		bcdCorr:    bcd.New(),
		sync:       syncstate.New(t.Sync),

		tunables: t,
		telem:    telem,
		metrics:  metrics,
	}

	p.wire()
	return p, nil
}

func (p *Pipeline) wire() {
	p.tick.SetTickCallback(p.onTick)
	p.tick.SetTickMarkerCallback(p.onTickMarker)
	p.fastMarker.SetMarkerCallback(p.markerCorr.ProcessFastMarker)
	p.slowMarker.SetFrameCallback(p.onSlowFrame)
	p.timeDet.SetCandidateCallback(p.bcdCorr.ProcessTimeCandidate)
	p.freqDet.SetCandidateCallback(p.bcdCorr.ProcessFreqCandidate)

	p.tickCorr.SetEpochCallback(p.onTickChainEpoch)
	p.markerCorr.SetCorrelatedCallback(p.onCorrelatedMarker)
	p.bcdCorr.SetSymbolCallback(p.onBCDSymbol)
	p.sync.SetStateChangeCallback(p.onSyncStateChange)
}

// installEpoch applies the epoch distributor rule: candidate only takes
// effect if it outranks the currently installed estimate.
func (p *Pipeline) installEpoch(candidate epoch.Estimate) {
	if !epoch.Supersedes(p.curEpoch, candidate) {
		return
	}
	p.curEpoch = candidate
	p.tick.SetEpoch(candidate)
	p.sync.SetEpoch(candidate)
}

func (p *Pipeline) onTickChainEpoch(e epoch.Estimate) {
	p.installEpoch(e)
}

func (p *Pipeline) onTick(t events.Tick) {
	p.sawTickThisSec = true
	p.tickCorr.ProcessTick(t)
	p.sync.ProcessTick(t, t.TrailingMs)
	if p.metrics != nil {
		p.metrics.IncTick()
	}
	if p.telem != nil {
		expected := p.sync.State() == syncstate.StateLocked || p.sync.State() == syncstate.StateTentative
		p.telem.Emit(telemetry.TickRecord{
			TimestampMs: t.TrailingMs, TickNum: t.Number, ExpectedEvent: expected,
			EnergyPeak: t.PeakEnergy, DurationMs: t.DurationMs, IntervalMs: t.IntervalMs,
			AvgIntervalMs: t.AvgIntervalMs, NoiseFloor: t.NoiseFloor,
			CorrPeak: t.CorrPeak, CorrRatio: t.CorrRatio,
		})
	}
}

// onTickMarker implements the marker-fallback rule: a long-pulse event
// from the fast tick-detector path installs a MARKER-source epoch when
// the tick detector has none yet.
func (p *Pipeline) onTickMarker(tm events.TickMarker) {
	candidate := epoch.Estimate{OffsetMs: tm.LeadingMs, Source: epoch.SourceMarker, Confidence: 0.7}.Normalize()
	p.installEpoch(candidate)
}

func (p *Pipeline) onSlowFrame(f events.SlowMarkerFrame) {
	p.markerCorr.ProcessSlowFrame(f)
}

func (p *Pipeline) onCorrelatedMarker(m events.CorrelatedMarker) {
	prevMarkerMs := p.sync.Context().LastMarkerMs
	p.sync.ProcessCorrelatedMarker(m, m.TimestampMs)
	if m.Confidence == events.ConfidenceHigh {
		if p.metrics != nil {
			p.metrics.IncMarker()
		}
		if p.telem != nil {
			ctx := p.sync.Context()
			since := 0.0
			if prevMarkerMs > 0 {
				since = (m.TimestampMs - prevMarkerMs) / 1000.0
			}
			p.telem.Emit(telemetry.MarkRecord{
				TimestampMs: m.TimestampMs, MarkerNum: ctx.ConfirmedMarkerCount,
				Energy: 0, DurationMs: 0, SinceLastS: since,
			})
		}
	}
}

func (p *Pipeline) onBCDSymbol(s events.BCDSymbolEvent) {
	p.bcdSymbolCount++
	if p.telem != nil {
		p.telem.Emit(telemetry.BCDSSymbolRecord{
			Symbol: s.Symbol.String(), TimestampMs: s.TimestampMs, PulseWidthMs: s.PulseWidthMs,
		})
	}
}

func (p *Pipeline) onSyncStateChange(old, new syncstate.State, ctx syncstate.Context) {
	p.bcdCorr.SetSyncStatus(new == syncstate.StateLocked, ctx.LastMarkerMs)
	if p.metrics != nil {
		p.metrics.ObserveSyncState([]string{"NONE", "TENTATIVE", "LOCKED", "RECOVERING"}, new.String(), ctx.Confidence)
	}
	if p.telem != nil {
		p.telem.Emit(telemetry.SyncRecord{
			TimestampMs: ctx.LastMarkerMs, OldState: old.String(), NewState: new.String(),
			Confidence: ctx.Confidence, LastMarkerMs: ctx.LastMarkerMs, ConfirmedCount: ctx.ConfirmedMarkerCount,
		})
	}
}

// checkTickHole registers the absence of an expected tick at second 29 or
// 59 of the minute as positive lock evidence (WWV/WWVH omit those two
// ticks deliberately). It only has a reference frame once a marker anchor
// exists.
func (p *Pipeline) checkTickHole(nowMs float64) {
	ctx := p.sync.Context()
	if ctx.LastMarkerMs == 0 && ctx.ConfirmedMarkerCount == 0 {
		return
	}
	rel := math.Mod(nowMs-ctx.LastMarkerMs, constants.MinuteMs)
	if rel < 0 {
		rel += constants.MinuteMs
	}
	sec := int(math.Floor(rel / constants.SecondMs))

	if !p.haveHoleSecond || sec != p.holeSecond {
		if p.haveHoleSecond && (p.holeSecond == 29 || p.holeSecond == 59) && !p.sawTickThisSec {
			p.sync.ProcessTickHole(events.TickHole{ExpectedSecondMs: nowMs}, nowMs)
		}
		p.holeSecond = sec
		p.haveHoleSecond = true
		p.sawTickThisSec = false
	}
}

// OnStreamHeader implements transport.Consumer. Input rate is fixed at
// construction time; a header announcing a different rate is handled by
// the caller re-creating the Pipeline rather than by mutating this one.
func (p *Pipeline) OnStreamHeader(h transport.StreamHeader) {}

// OnSamples implements transport.Consumer.
func (p *Pipeline) OnSamples(samples []iq.Sample, reset bool) {
	p.IngestBlock(samples, reset)
}

// OnMetadata implements transport.Consumer; receiver front-end metadata
// doesn't currently feed into detection and is accepted for interface
// compatibility.
func (p *Pipeline) OnMetadata(m transport.Metadata) {}

// Reset clears every stage's internal state, e.g. on transport reconnect
//.
func (p *Pipeline) Reset() {
	p.clockDet.Reset()
	p.clockWide.Reset()
	p.decimDet.Reset()
	p.decimWide.Reset()
	p.normalizer.Reset()
	p.splitter.Reset()
	p.tick.Reset()
	p.fastMarker.Reset()
	p.slowMarker.Reset()
	p.timeDet.Reset()
	p.freqDet.Reset()
	p.tickCorr.Reset()
	p.markerCorr.Reset()
	p.sync.Reset()
	p.bcdCorr.Reset()
	p.quality.reset()
	p.bcdSymbolCount = 0
	p.curEpoch = epoch.Estimate{}
	p.haveHoleSecond = false
	p.wire()
}

// IngestBlock runs one block of raw input samples through the full
// pipeline, in order. reset, when true, clears all DSP state first
// (mid-stream discontinuity signaled by the transport).
func (p *Pipeline) IngestBlock(samples []iq.Sample, reset bool) {
	if reset {
		p.Reset()
	}
	for _, raw := range samples {
		p.ingestOne(raw)
	}
}

func (p *Pipeline) ingestOne(raw iq.Sample) {
	if detOut, ok := p.decimDet.Process(raw); ok {
		p.clockDet.Advance(1)
		nowMs := p.clockDet.NowMs()

		norm := p.normalizer.Process(detOut)
		syncCh, dataCh := p.splitter.Process(norm)

		p.tick.ProcessSample(syncCh, nowMs)
		p.fastMarker.ProcessSample(syncCh, nowMs)
		p.timeDet.ProcessSample(dataCh, nowMs)
		p.freqDet.ProcessSample(dataCh, nowMs)

		if rec, ready := p.quality.process(syncCh, nowMs); ready {
			if p.telem != nil {
				p.telem.Emit(rec)
			}
			if p.metrics != nil {
				p.metrics.ObserveChannel(rec.CarrierDB, rec.SNRdB, rec.NoiseDB)
			}
		}

		p.sync.Advance(nowMs)
		p.bcdCorr.Tick(nowMs)
		p.markerCorr.Tick(nowMs)
		p.checkTickHole(nowMs)
	}

	if wideOut, ok := p.decimWide.Process(raw); ok {
		p.clockWide.Advance(1)
		p.slowMarker.ProcessSample(wideOut, p.clockWide.NowMs())
	}
}

// State returns the current sync state, for callers that poll rather than
// subscribe to state-change telemetry.
func (p *Pipeline) State() syncstate.State { return p.sync.State() }

// Epoch returns the currently installed best epoch estimate.
func (p *Pipeline) Epoch() epoch.Estimate { return p.curEpoch }
