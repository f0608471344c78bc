package bcd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwsl/wwvsync/internal/events"
	"github.com/cwsl/wwvsync/internal/iq"
)

const testRateHz = 1000.0

func feedPulse(d *TimeDetector, widthMs float64, startMs float64) float64 {
	n := int(widthMs / 1000.0 * testRateHz)
	now := startMs
	for i := 0; i < n; i++ {
		d.ProcessSample(iq.Sample{I: 1.0}, now)
		now += 1000.0 / testRateHz
	}
	// cooldown so the classifier closes the pulse
	for i := 0; i < 20; i++ {
		d.ProcessSample(iq.Sample{I: 0.0}, now)
		now += 1000.0 / testRateHz
	}
	return now
}

func TestTimeDetectorClassifiesZeroOneMarker(t *testing.T) {
	cases := []struct {
		widthMs float64
		want    events.BCDSymbol
	}{
		{200, events.BCDZero},
		{500, events.BCDOne},
		{800, events.BCDMarker},
	}
	for _, c := range cases {
		d := NewTimeDetector(testRateHz, DefaultClassifierParams())
		var got []events.BCDSymbol
		d.SetCandidateCallback(func(sym events.BCDSymbol, tsMs, widthMs float64) {
			got = append(got, sym)
		})
		feedPulse(d, c.widthMs, 0)
		require.NotEmpty(t, got, "widthMs=%v should classify", c.widthMs)
		assert.Equal(t, c.want, got[len(got)-1])
	}
}

func TestBCDCorrelatorGatesOnLockedState(t *testing.T) {
	c := New()
	var emitted []events.BCDSymbolEvent
	c.SetSymbolCallback(func(e events.BCDSymbolEvent) { emitted = append(emitted, e) })

	// not locked: candidates are dropped
	c.ProcessTimeCandidate(events.BCDOne, 100, 500)
	c.ProcessFreqCandidate(events.BCDOne, 100, 500)
	c.Tick(100)
	assert.Empty(t, emitted)

	c.SetSyncStatus(true, 0)
	c.ProcessTimeCandidate(events.BCDOne, 100, 500)
	c.ProcessFreqCandidate(events.BCDOne, 150, 500)
	c.Tick(1000)

	require.Len(t, emitted, 1)
	assert.Equal(t, events.BCDOne, emitted[0].Symbol)
}

func TestBCDCorrelatorDisagreementYieldsUnknown(t *testing.T) {
	c := New()
	var emitted []events.BCDSymbolEvent
	c.SetSymbolCallback(func(e events.BCDSymbolEvent) { emitted = append(emitted, e) })

	c.SetSyncStatus(true, 0)
	c.ProcessTimeCandidate(events.BCDZero, 100, 200)
	c.ProcessFreqCandidate(events.BCDOne, 150, 500)
	c.Tick(1000)

	require.Len(t, emitted, 1)
	assert.Equal(t, events.BCDUnknown, emitted[0].Symbol)
}
