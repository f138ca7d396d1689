// Package telemetry provides logging, metrics and tracing for credential resolution.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus metrics for resolution runs. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runs             *prometheus.CounterVec
	duration         prometheus.Histogram
	published        prometheus.Gauge
	decryptFailures  prometheus.Counter
	mirrorsSelected  prometheus.Counter
	serversProcessed prometheus.Counter
}

// NewMetrics creates a collector backed by its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credprops_resolution_runs_total",
			Help: "Resolution runs by outcome.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "credprops_resolution_duration_seconds",
			Help:    "Duration of resolution runs.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		published: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "credprops_properties_published",
			Help: "Number of properties published by the last successful run.",
		}),
		decryptFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "credprops_decrypt_failures_total",
			Help: "Tokens that could not be decrypted and were left as written.",
		}),
		mirrorsSelected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "credprops_mirrors_selected_total",
			Help: "Repository URLs replaced by a mirror.",
		}),
		serversProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "credprops_servers_processed_total",
			Help: "Server entries resolved.",
		}),
	}
	m.registry.MustRegister(m.runs, m.duration, m.published, m.decryptFailures, m.mirrorsSelected, m.serversProcessed)
	return m
}

// RecordRun records a finished run. status is "success" or "failure".
func (m *Metrics) RecordRun(status string, d time.Duration, published int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.duration.Observe(d.Seconds())
	if status == "success" {
		m.published.Set(float64(published))
	}
}

// DecryptFailure counts one token left encrypted.
func (m *Metrics) DecryptFailure() {
	if m != nil {
		m.decryptFailures.Inc()
	}
}

// MirrorSelected counts one repository URL replaced by a mirror.
func (m *Metrics) MirrorSelected() {
	if m != nil {
		m.mirrorsSelected.Inc()
	}
}

// ServerProcessed counts one resolved server entry.
func (m *Metrics) ServerProcessed() {
	if m != nil {
		m.serversProcessed.Inc()
	}
}


// WriteTextfile writes the metrics in the text exposition format, for the
// node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
