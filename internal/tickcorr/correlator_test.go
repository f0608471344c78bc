package tickcorr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwsl/wwvsync/internal/epoch"
	"github.com/cwsl/wwvsync/internal/events"
)

func TestCorrelatorPublishesEpochOnTightPhase(t *testing.T) {
	c := New(DefaultParams())

	var estimates []epoch.Estimate
	c.SetEpochCallback(func(e epoch.Estimate) { estimates = append(estimates, e) })

	for n := 0; n < 10; n++ {
		c.ProcessTick(events.Tick{Number: n + 1, TrailingMs: float64(n)*1000.0 + 123.4})
	}

	require.NotEmpty(t, estimates, "a tight 1000ms-spaced tick train should publish an epoch estimate")
	last := estimates[len(estimates)-1]
	assert.Equal(t, epoch.SourceTickChain, last.Source)
	assert.InDelta(t, 123.4, last.OffsetMs, 1.0)
	assert.GreaterOrEqual(t, last.Confidence, DefaultParams().EpochConfidenceThreshold)
}

func TestCorrelatorWithholdsEpochOnJitter(t *testing.T) {
	c := New(DefaultParams())

	var estimates []epoch.Estimate
	c.SetEpochCallback(func(e epoch.Estimate) { estimates = append(estimates, e) })

	phases := []float64{0, 400, 800, 200, 600, 0, 500, 100, 700, 300}
	for n, ph := range phases {
		c.ProcessTick(events.Tick{Number: n + 1, TrailingMs: float64(n)*1000.0 + ph})
	}

	assert.Empty(t, estimates, "scattered phases should never cross the confidence threshold")
}

func TestResetClearsConfidence(t *testing.T) {
	c := New(DefaultParams())
	for n := 0; n < 10; n++ {
		c.ProcessTick(events.Tick{Number: n + 1, TrailingMs: float64(n)*1000.0 + 50})
	}
	require.Greater(t, c.Confidence(), 0.0)
	c.Reset()
	assert.Equal(t, 0.0, c.Confidence())
}
