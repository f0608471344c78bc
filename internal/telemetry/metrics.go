package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes receiver-quality and sync-state gauges for Prometheus
// scraping.
type Metrics struct {
	snrDB        prometheus.Gauge
	noiseDB      prometheus.Gauge
	carrierDB    prometheus.Gauge
	syncState    *prometheus.GaugeVec // one series per state name, 1 for current
	syncConf     prometheus.Gauge
	tickCount    prometheus.Counter
	markerCount  prometheus.Counter
	rejectedTick prometheus.Counter
}

// NewMetrics registers every gauge/counter against the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		snrDB: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wwvsync_channel_snr_db",
			Help: "Current sync-channel SNR in dB.",
		}),
		noiseDB: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wwvsync_channel_noise_db",
			Help: "Current sync-channel noise floor in dB.",
		}),
		carrierDB: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wwvsync_channel_carrier_db",
			Help: "Current sync-channel broadband carrier level in dB.",
		}),
		syncState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wwvsync_sync_state",
			Help: "1 for the currently active sync state, 0 otherwise.",
		}, []string{"state"}),
		syncConf: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wwvsync_sync_confidence",
			Help: "Current sync detector confidence in [0,1].",
		}),
		tickCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wwvsync_ticks_total",
			Help: "Total accepted tick pulses.",
		}),
		markerCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wwvsync_markers_total",
			Help: "Total confirmed minute markers.",
		}),
		rejectedTick: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wwvsync_ticks_rejected_total",
			Help: "Total pulses rejected by the tick classifier.",
		}),
	}
}

func (m *Metrics) ObserveChannel(carrierDB, snrDB, noiseDB float64) {
	m.carrierDB.Set(carrierDB)
	m.snrDB.Set(snrDB)
	m.noiseDB.Set(noiseDB)
}

func (m *Metrics) ObserveSyncState(states []string, current string, confidence float64) {
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1.0
		}
		m.syncState.WithLabelValues(s).Set(v)
	}
	m.syncConf.Set(confidence)
}

func (m *Metrics) IncTick()         { m.tickCount.Inc() }
func (m *Metrics) IncMarker()       { m.markerCount.Inc() }
func (m *Metrics) IncRejectedTick() { m.rejectedTick.Inc() }
