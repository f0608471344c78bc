package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsObserveChannelAndSyncState(t *testing.T) {
	m := NewMetrics()

	m.ObserveChannel(-10.0, 20.0, -40.0)
	assert.Equal(t, 20.0, testutil.ToFloat64(m.snrDB))
	assert.Equal(t, -40.0, testutil.ToFloat64(m.noiseDB))

	m.ObserveSyncState([]string{"NONE", "TENTATIVE", "LOCKED", "RECOVERING"}, "LOCKED", 0.85)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncState.WithLabelValues("LOCKED")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.syncState.WithLabelValues("TENTATIVE")))
	assert.Equal(t, 0.85, testutil.ToFloat64(m.syncConf))

	m.IncTick()
	m.IncMarker()
	m.IncRejectedTick()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tickCount))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.markerCount))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejectedTick))
}
