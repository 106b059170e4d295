package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for feed refreshes.
type Metrics struct {
	Refreshes        *prometheus.CounterVec // labels: outcome={ok,no_match,empty,unavailable}
	FetchFailures    *prometheus.CounterVec // labels: kind={transport,timeout,status,decode}
	FetchDuration    prometheus.Histogram
	RecordsDropped   prometheus.Counter
	ReadingsRetained prometheus.Gauge

	// Latest classified value per sensor channel.
	SensorValue *prometheus.GaugeVec // labels: channel

	SnapshotsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all refresh metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Refreshes,
		m.FetchFailures,
		m.FetchDuration,
		m.RecordsDropped,
		m.ReadingsRetained,
		m.SensorValue,
		m.SnapshotsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soil_monitor",
			Name:      "refreshes_total",
			Help:      "Dashboard refreshes by outcome.",
		}, []string{"outcome"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soil_monitor",
			Name:      "fetch_failures_total",
			Help:      "Feed fetch failures by kind.",
		}, []string{"kind"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "soil_monitor",
			Name:      "fetch_duration_seconds",
			Help:      "ThingSpeak feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "soil_monitor",
			Name:      "records_dropped_total",
			Help:      "Feed entries dropped as malformed.",
		}),
		ReadingsRetained: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "soil_monitor",
			Name:      "readings_retained",
			Help:      "Readings on or after the cutoff in the latest refresh.",
		}),
		SensorValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "soil_monitor",
			Name:      "sensor_value",
			Help:      "Latest snapshot value per sensor channel.",
		}, []string{"channel"}),
		SnapshotsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soil_monitor",
			Name:      "snapshots_published_total",
			Help:      "Snapshot events written to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}
