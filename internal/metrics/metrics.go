// Package metrics exposes Prometheus instruments for the ETL job.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	namespace = "sparkify_etl"

	// JobName groups pushed metrics in the Pushgateway.
	JobName = "sparkify_etl"
)

// Metrics holds the job's instruments on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	filesDiscovered *prometheus.CounterVec
	filesProcessed  *prometheus.CounterVec
	filesFailed     *prometheus.CounterVec
	rowsWritten     *prometheus.CounterVec
	rowsFailed      *prometheus.CounterVec
	runDuration     prometheus.Gauge
	lastSuccess     prometheus.Gauge
}

// New creates the instruments and registers them, along with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesDiscovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_discovered_total",
			Help:      "Input files found, by phase.",
		}, []string{"phase"}),
		filesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Input files loaded and committed, by phase.",
		}, []string{"phase"}),
		filesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_failed_total",
			Help:      "Input files rolled back, by phase.",
		}, []string{"phase"}),
		rowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows written, by table.",
		}, []string{"table"}),
		rowsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_failed_total",
			Help:      "Rows rejected, by table.",
		}, []string{"table"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that completed without a fatal error.",
		}),
	}

	m.registry.MustRegister(
		m.filesDiscovered,
		m.filesProcessed,
		m.filesFailed,
		m.rowsWritten,
		m.rowsFailed,
		m.runDuration,
		m.lastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the instruments live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// FileDiscovered implements etl.Recorder.
func (m *Metrics) FileDiscovered(phase string, n int) {
	m.filesDiscovered.WithLabelValues(phase).Add(float64(n))
}

// FileProcessed implements etl.Recorder.
func (m *Metrics) FileProcessed(phase string) {
	m.filesProcessed.WithLabelValues(phase).Inc()
}

// FileFailed implements etl.Recorder.
func (m *Metrics) FileFailed(phase string) {
	m.filesFailed.WithLabelValues(phase).Inc()
}

// RecordWritten implements etl.Recorder.
func (m *Metrics) RecordWritten(table string) {
	m.rowsWritten.WithLabelValues(table).Inc()
}

// RecordFailed implements etl.Recorder.
func (m *Metrics) RecordFailed(table string) {
	m.rowsFailed.WithLabelValues(table).Inc()
}

// ObserveRun records the outcome of a run.
func (m *Metrics) ObserveRun(d time.Duration, success bool) {
	m.runDuration.Set(d.Seconds())
	if success {
		m.lastSuccess.SetToCurrentTime()
	}
}

// Push sends the job's own instruments to a Pushgateway. The runtime
// collectors are left out since they describe a process that is about to exit.
func (m *Metrics) Push(ctx context.Context, url string) error {
	err := push.New(url, JobName).
		Collector(m.filesDiscovered).
		Collector(m.filesProcessed).
		Collector(m.filesFailed).
		Collector(m.rowsWritten).
		Collector(m.rowsFailed).
		Collector(m.runDuration).
		Collector(m.lastSuccess).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}
