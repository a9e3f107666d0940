package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for matrix
// builds and exports.
type Metrics struct {
	FilesParsed    prometheus.Counter
	FilesSkipped   prometheus.Counter
	Readings       prometheus.Counter
	ColumnsDropped prometheus.Counter
	BuildDuration  prometheus.Histogram

	// VictoriaMetrics export.
	SamplesExported prometheus.Counter
	InsertErrors    prometheus.Counter

	Runs           *prometheus.CounterVec // labels: outcome={success,failure}
	LastRunSuccess prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FilesParsed,
		m.FilesSkipped,
		m.Readings,
		m.ColumnsDropped,
		m.BuildDuration,
		m.SamplesExported,
		m.InsertErrors,
		m.Runs,
		m.LastRunSuccess,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "merra2",
			Name:      "files_parsed_total",
			Help:      "Daily files parsed successfully.",
		}),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "merra2",
			Name:      "files_skipped_total",
			Help:      "Daily files skipped because they could not be parsed.",
		}),
		Readings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "merra2",
			Name:      "readings_total",
			Help:      "Grid cell readings collected from daily files.",
		}),
		ColumnsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "merra2",
			Name:      "columns_dropped_total",
			Help:      "Hourly columns dropped because some location had no value.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "merra2",
			Name:      "build_duration_seconds",
			Help:      "Duration of a complete matrix build.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		SamplesExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "merra2",
			Name:      "vm_samples_exported_total",
			Help:      "Samples sent to VictoriaMetrics.",
		}),
		InsertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "merra2",
			Name:      "vm_insert_errors_total",
			Help:      "Failed VictoriaMetrics insert requests.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "merra2",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "merra2",
			Name:      "last_run_success_timestamp_seconds",
			Help:      "Unix time of the last successful pipeline run.",
		}),
	}
}
