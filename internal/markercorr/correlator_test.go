package markercorr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwsl/wwvsync/internal/constants"
	"github.com/cwsl/wwvsync/internal/events"
)

func TestBothPathsAgreeingEmitsHighConfidence(t *testing.T) {
	c := New(DefaultParams())

	var emitted []events.CorrelatedMarker
	c.SetCorrelatedCallback(func(m events.CorrelatedMarker) { emitted = append(emitted, m) })

	// Physical pulse onset at 60000ms: the fast path reports its trailing
	// edge (onset + duration), the slow path reports a span start that
	// trails onset by its framing latency (constants.SlowMarkerDelayMs).
	// Both should resolve back to the same ~60000ms leading edge.
	c.ProcessFastMarker(events.Marker{TimestampMs: 60800.0, DurationMs: 800.0})
	c.ProcessSlowFrame(events.SlowMarkerFrame{TimestampMs: 60000.0 + constants.SlowMarkerDelayMs, AboveThreshold: true})
	c.ProcessSlowFrame(events.SlowMarkerFrame{TimestampMs: 60900.0 + constants.SlowMarkerDelayMs, AboveThreshold: false})

	require.Len(t, emitted, 1)
	assert.Equal(t, events.ConfidenceHigh, emitted[0].Confidence)
	assert.True(t, emitted[0].FromFast)
	assert.True(t, emitted[0].FromSlow)
}

func TestUnmatchedFastEventOrphansAfterWindow(t *testing.T) {
	c := New(DefaultParams())

	var emitted []events.CorrelatedMarker
	c.SetCorrelatedCallback(func(m events.CorrelatedMarker) { emitted = append(emitted, m) })

	c.ProcessFastMarker(events.Marker{TimestampMs: 60000.0})
	c.Tick(60000.0 + DefaultParams().PendingWindowMs - 1)
	assert.Empty(t, emitted, "should not orphan before the pending window elapses")

	c.Tick(60000.0 + DefaultParams().PendingWindowMs + 1)
	require.Len(t, emitted, 1)
	assert.Equal(t, events.ConfidenceLow, emitted[0].Confidence)
	assert.True(t, emitted[0].FromFast)
	assert.False(t, emitted[0].FromSlow)
}

func TestMatchOutsideWindowDoesNotFuse(t *testing.T) {
	c := New(DefaultParams())

	var emitted []events.CorrelatedMarker
	c.SetCorrelatedCallback(func(m events.CorrelatedMarker) { emitted = append(emitted, m) })

	// Slow-path onset resolves to 61000ms, a full second after the fast
	// path's 60000ms onset: still outside the match window even after
	// delay compensation.
	c.ProcessFastMarker(events.Marker{TimestampMs: 60800.0, DurationMs: 800.0})
	c.ProcessSlowFrame(events.SlowMarkerFrame{TimestampMs: 61000.0 + constants.SlowMarkerDelayMs, AboveThreshold: true})
	c.ProcessSlowFrame(events.SlowMarkerFrame{TimestampMs: 61900.0 + constants.SlowMarkerDelayMs, AboveThreshold: false})

	assert.Empty(t, emitted, "a slow-path event a full second later is outside the match window")
}
