package tickdetect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwsl/wwvsync/internal/events"
	"github.com/cwsl/wwvsync/internal/iq"
)

const testRateHz = 50000.0

// xorshift32 gives deterministic low-level dither without pulling in
// math/rand, matching the determinism goal of the synthetic generator.
func xorshift32(state *uint32) float64 {
	x := *state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	*state = x
	return (float64(x)/float64(1<<32))*2 - 1
}

func genPulse(samples []iq.Sample, startIdx, n int, amp float64) {
	for i := 0; i < n && startIdx+i < len(samples); i++ {
		theta := 2 * math.Pi * 1000.0 * float64(i) / testRateHz
		samples[startIdx+i].I += amp * math.Cos(theta)
		samples[startIdx+i].Q += amp * math.Sin(theta)
	}
}

func TestDetectorFindsPeriodicTicks(t *testing.T) {
	d := New(testRateHz, DefaultParams())

	var ticks []events.Tick
	d.SetTickCallback(func(e events.Tick) { ticks = append(ticks, e) })

	const seconds = 5
	n := int(testRateHz) * seconds
	samples := make([]iq.Sample, n)

	var rngState uint32 = 12345
	for i := range samples {
		noise := 0.02 * xorshift32(&rngState)
		samples[i] = iq.Sample{I: noise, Q: 0}
	}
	pulseLen := int(0.005 * testRateHz) // 5ms
	for sec := 1; sec < seconds; sec++ {
		genPulse(samples, sec*int(testRateHz), pulseLen, 1.0)
	}

	for i, s := range samples {
		nowMs := float64(i) / testRateHz * 1000.0
		d.ProcessSample(s, nowMs)
	}

	require.GreaterOrEqual(t, len(ticks), seconds-2, "should detect most of the periodic pulses as ticks")
	for i := 1; i < len(ticks); i++ {
		assert.Greater(t, ticks[i].Number, ticks[i-1].Number)
	}
}

func TestDetectorFindsMarkerPulse(t *testing.T) {
	d := New(testRateHz, DefaultParams())

	var markers []events.TickMarker
	d.SetTickMarkerCallback(func(e events.TickMarker) { markers = append(markers, e) })

	const seconds = 2
	n := int(testRateHz) * seconds
	samples := make([]iq.Sample, n)
	var rngState uint32 = 777
	for i := range samples {
		noise := 0.02 * xorshift32(&rngState)
		samples[i] = iq.Sample{I: noise, Q: 0}
	}
	markerLen := int(0.8 * testRateHz) // 800ms
	// Start after the 50-frame (256 ms) warm-up, which only adapts the
	// noise floor.
	genPulse(samples, int(0.5*testRateHz), markerLen, 1.0)

	for i, s := range samples {
		nowMs := float64(i) / testRateHz * 1000.0
		d.ProcessSample(s, nowMs)
	}

	require.Len(t, markers, 1)
	assert.InDelta(t, 800.0, markers[0].DurationMs, 20.0)
}

func TestResetClearsPulseNumbering(t *testing.T) {
	d := New(testRateHz, DefaultParams())
	var ticks []events.Tick
	d.SetTickCallback(func(e events.Tick) { ticks = append(ticks, e) })

	n := int(testRateHz) * 2
	samples := make([]iq.Sample, n)
	genPulse(samples, int(testRateHz), int(0.005*testRateHz), 1.0)
	for i, s := range samples {
		d.ProcessSample(s, float64(i)/testRateHz*1000.0)
	}
	require.NotEmpty(t, ticks)

	d.Reset()
	assert.Equal(t, 0, d.RejectedCount())

	ticks = nil
	for i, s := range samples {
		d.ProcessSample(s, float64(i)/testRateHz*1000.0)
	}
	require.NotEmpty(t, ticks)
	assert.Equal(t, 1, ticks[0].Number)
}
