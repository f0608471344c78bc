package syncstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwsl/wwvsync/internal/events"
)

func TestThreeConsistentMarkersReachLocked(t *testing.T) {
	d := New(DefaultParams())

	var states []State
	d.SetStateChangeCallback(func(old, new State, ctx Context) { states = append(states, new) })

	for i := 0; i < 3; i++ {
		ts := float64(i) * 60000.0
		d.ProcessCorrelatedMarker(events.CorrelatedMarker{TimestampMs: ts, Confidence: events.ConfidenceHigh, FromFast: true, FromSlow: true}, ts)
	}

	require.NotEmpty(t, states)
	assert.Equal(t, StateLocked, d.State())
	assert.GreaterOrEqual(t, d.Confidence(), DefaultParams().LockedThreshold)
}

func TestFirstMarkerGoesToTentativeNotLocked(t *testing.T) {
	d := New(DefaultParams())
	d.ProcessCorrelatedMarker(events.CorrelatedMarker{TimestampMs: 0, Confidence: events.ConfidenceHigh}, 0)
	assert.Equal(t, StateTentative, d.State())
	assert.Equal(t, DefaultParams().TentativeInit, d.Confidence())
}

func TestStalenessDemotesLockedToRecovering(t *testing.T) {
	d := New(DefaultParams())
	for i := 0; i < 3; i++ {
		ts := float64(i) * 60000.0
		d.ProcessCorrelatedMarker(events.CorrelatedMarker{TimestampMs: ts, Confidence: events.ConfidenceHigh, FromFast: true, FromSlow: true}, ts)
	}
	require.Equal(t, StateLocked, d.State())

	now := 120000.0
	d.Advance(now)
	staleAt := now + DefaultParams().StalenessMs + DefaultParams().PeriodicCheckMs
	d.Advance(staleAt)

	assert.Equal(t, StateRecovering, d.State())
}

func TestResetReturnsToNoneState(t *testing.T) {
	d := New(DefaultParams())
	d.ProcessCorrelatedMarker(events.CorrelatedMarker{TimestampMs: 0, Confidence: events.ConfidenceHigh}, 0)
	require.NotEqual(t, StateNone, d.State())
	d.Reset()
	assert.Equal(t, StateNone, d.State())
	assert.Equal(t, 0.0, d.Confidence())
}
