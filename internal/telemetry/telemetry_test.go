package telemetry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityBands(t *testing.T) {
	assert.Equal(t, "GOOD", Quality(20))
	assert.Equal(t, "FAIR", Quality(10))
	assert.Equal(t, "POOR", Quality(5))
	assert.Equal(t, "NONE", Quality(1))
}

func TestChanRecordFormatHasExpectedFieldCount(t *testing.T) {
	r := ChanRecord{TimestampMs: 1000, CarrierDB: -10, SNRdB: 20, Sub500DB: -5, Sub600DB: -6, Tone1000DB: -3, NoiseDB: -40}
	line := r.Format()
	assert.True(t, strings.HasPrefix(line, "CHAN,"))
	fields := strings.Split(line, ",")
	require.Len(t, fields, 10)
	assert.Equal(t, "GOOD", fields[len(fields)-1])
}

func TestTickRecordFormat(t *testing.T) {
	r := TickRecord{TimestampMs: 5000, TickNum: 3, ExpectedEvent: true, EnergyPeak: 0.5, DurationMs: 5, IntervalMs: 1000, AvgIntervalMs: 1000, NoiseFloor: 0.01, CorrPeak: 0.8, CorrRatio: 4.0}
	line := r.Format()
	assert.True(t, strings.HasPrefix(line, "TICK,"))
	assert.Contains(t, line, "true")
}

type fakeSink struct {
	lines []string
}

func (f *fakeSink) Write(line string) { f.lines = append(f.lines, line) }

func TestEmitterSkipsDisabledChannel(t *testing.T) {
	sink := &fakeSink{}
	e := NewEmitter(sink)
	e.DisableChannel("TICK")

	e.Emit(TickRecord{TimestampMs: 0, TickNum: 1})
	assert.Empty(t, sink.lines)

	e.Emit(MarkRecord{TimestampMs: 0, MarkerNum: 1})
	assert.Len(t, sink.lines, 1)
}

func TestEmitterReenableChannel(t *testing.T) {
	sink := &fakeSink{}
	e := NewEmitter(sink)
	e.DisableChannel("TICK")
	e.EnableChannel("TICK")

	e.Emit(TickRecord{TimestampMs: 0, TickNum: 1})
	assert.Len(t, sink.lines, 1)
}

func TestEmitterFansOutToMultipleSinks(t *testing.T) {
	a, b := &fakeSink{}, &fakeSink{}
	e := NewEmitter(a, b)
	e.Emit(MarkRecord{TimestampMs: 0, MarkerNum: 1})
	assert.Len(t, a.lines, 1)
	assert.Len(t, b.lines, 1)
	assert.Equal(t, a.lines[0], b.lines[0])
}
