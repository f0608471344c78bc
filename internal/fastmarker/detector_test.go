package fastmarker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwsl/wwvsync/internal/events"
	"github.com/cwsl/wwvsync/internal/iq"
)

const testRateHz = 50000.0

func TestDetectorConfirmsAnEightHundredMsMarker(t *testing.T) {
	d := New(testRateHz, DefaultParams())

	var markers []events.Marker
	d.SetMarkerCallback(func(e events.Marker) { markers = append(markers, e) })

	const seconds = 2.0
	n := int(testRateHz * seconds)

	markerLen := int(0.8 * testRateHz)
	for i := 0; i < n; i++ {
		var s iq.Sample
		if i < markerLen {
			theta := 2 * math.Pi * 1000.0 * float64(i) / testRateHz
			s = iq.Sample{I: math.Cos(theta), Q: math.Sin(theta)}
		}
		nowMs := float64(i) / testRateHz * 1000.0
		d.ProcessSample(s, nowMs)
	}

	require.Len(t, markers, 1)
	assert.InDelta(t, 800.0, markers[0].DurationMs, 50.0)
	assert.Equal(t, 1, markers[0].Number)
}

func TestDetectorIgnoresShortPulse(t *testing.T) {
	d := New(testRateHz, DefaultParams())
	var markers []events.Marker
	d.SetMarkerCallback(func(e events.Marker) { markers = append(markers, e) })

	n := int(testRateHz * 1.0)
	pulseLen := int(0.005 * testRateHz) // 5ms, well under MinDurationMs
	for i := 0; i < n; i++ {
		var s iq.Sample
		if i < pulseLen {
			theta := 2 * math.Pi * 1000.0 * float64(i) / testRateHz
			s = iq.Sample{I: math.Cos(theta), Q: math.Sin(theta)}
		}
		d.ProcessSample(s, float64(i)/testRateHz*1000.0)
	}
	assert.Empty(t, markers, "a 5ms pulse should not be confirmed as an 800ms marker")
}
