// Package telemetry formats and emits the six line-oriented telemetry
// channels: CHAN, TICK, MARK, SYNC, SUBC, BCDS. Each record
// is comma-separated and prefixed with a channel tag, one line per event.
package telemetry

import (
	"fmt"
	"time"
)

// Quality bands receiver SNR into GOOD/FAIR/POOR/NONE.
func Quality(snrDB float64) string {
	switch {
	case snrDB > 15:
		return "GOOD"
	case snrDB > 8:
		return "FAIR"
	case snrDB > 3:
		return "POOR"
	default:
		return "NONE"
	}
}

func tsField(nowMs float64) (string, float64) {
	t := time.UnixMilli(int64(nowMs)).UTC()
	return t.Format("15:04:05.000"), nowMs
}

// ChanRecord is the CHAN channel's periodic receiver-quality report.
type ChanRecord struct {
	TimestampMs                                         float64
	CarrierDB, SNRdB, Sub500DB, Sub600DB, Tone1000DB, NoiseDB float64
}

func (r ChanRecord) Format() string {
	clock, ts := tsField(r.TimestampMs)
	return fmt.Sprintf("CHAN,%s,%.0f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%s",
		clock, ts, r.CarrierDB, r.SNRdB, r.Sub500DB, r.Sub600DB, r.Tone1000DB, r.NoiseDB, Quality(r.SNRdB))
}

// TickRecord is the TICK channel's per-pulse classification record.
type TickRecord struct {
	TimestampMs                                      float64
	TickNum                                          int
	ExpectedEvent                                    bool
	EnergyPeak, DurationMs, IntervalMs, AvgIntervalMs float64
	NoiseFloor, CorrPeak, CorrRatio                  float64
}

func (r TickRecord) Format() string {
	clock, ts := tsField(r.TimestampMs)
	return fmt.Sprintf("TICK,%s,%.0f,%d,%t,%.6f,%.2f,%.2f,%.2f,%.6f,%.4f,%.3f",
		clock, ts, r.TickNum, r.ExpectedEvent, r.EnergyPeak, r.DurationMs, r.IntervalMs,
		r.AvgIntervalMs, r.NoiseFloor, r.CorrPeak, r.CorrRatio)
}

// MarkRecord is the MARK channel's per-marker record.
type MarkRecord struct {
	TimestampMs              float64
	MarkerNum                int
	Energy, DurationMs       float64
	SinceLastS                float64
}

func (r MarkRecord) Format() string {
	clock, ts := tsField(r.TimestampMs)
	return fmt.Sprintf("MARK,%s,%.0f,%d,%.6f,%.2f,%.2f",
		clock, ts, r.MarkerNum, r.Energy, r.DurationMs, r.SinceLastS)
}

// SyncRecord is the SYNC channel's state-change record.
type SyncRecord struct {
	TimestampMs                      float64
	OldState, NewState               string
	Confidence, LastMarkerMs         float64
	ConfirmedCount                   int
}

func (r SyncRecord) Format() string {
	clock, ts := tsField(r.TimestampMs)
	return fmt.Sprintf("SYNC,%s,%.0f,%s,%s,%.3f,%.0f,%d",
		clock, ts, r.OldState, r.NewState, r.Confidence, r.LastMarkerMs, r.ConfirmedCount)
}

// SubcRecord is the SUBC channel's per-minute subcarrier report.
type SubcRecord struct {
	TimestampMs                float64
	Minute                     int
	ExpectedTone               string
	Sub500DB, Sub600DB, DeltaDB float64
	Detected, Match            bool
}

func (r SubcRecord) Format() string {
	clock, ts := tsField(r.TimestampMs)
	return fmt.Sprintf("SUBC,%s,%.0f,%d,%s,%.2f,%.2f,%.2f,%t,%t",
		clock, ts, r.Minute, r.ExpectedTone, r.Sub500DB, r.Sub600DB, r.DeltaDB, r.Detected, r.Match)
}

// BCDSSymbolRecord is a BCDS channel SYM sub-record.
type BCDSSymbolRecord struct {
	Symbol       string
	TimestampMs  float64
	PulseWidthMs float64
}

func (r BCDSSymbolRecord) Format() string {
	return fmt.Sprintf("BCDS,SYM,%s,%.0f,%.1f", r.Symbol, r.TimestampMs, r.PulseWidthMs)
}

// BCDSStatusRecord is a BCDS channel STATUS sub-record, emitted once per
// modem housekeeping tick.
type BCDSStatusRecord struct {
	TimestampMs      float64
	SymbolsSinceStart int
}

func (r BCDSStatusRecord) Format() string {
	clock, ts := tsField(r.TimestampMs)
	return fmt.Sprintf("BCDS,STATUS,%s,%.0f,MODEM,-1,0,0,%d", clock, ts, r.SymbolsSinceStart)
}
