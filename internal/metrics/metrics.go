// Package metrics exposes Prometheus metrics for retrification passes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	passes           *prometheus.CounterVec
	passDuration     prometheus.Histogram
	lastSuccess      prometheus.Gauge
	archived         prometheus.Counter
	archiveFailures  prometheus.Counter
	orphansRemoved   prometheus.Counter
	logsRead         prometheus.Counter
	parseErrors      prometheus.Counter
	trackedWebapps   prometheus.Gauge
	inventoryWebapps *prometheus.GaugeVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		passes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retrificator_passes_total",
				Help: "Total number of retrification passes by result",
			},
			[]string{"result"},
		),
		passDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "retrificator_pass_duration_seconds",
				Help:    "Duration of retrification passes in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
		),
		lastSuccess: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "retrificator_last_success_timestamp_seconds",
				Help: "Unix time of the last pass that completed without error",
			},
		),
		archived: f.NewCounter(
			prometheus.CounterOpts{
				Name: "retrificator_webapps_archived_total",
				Help: "Total number of live packages renamed to their archive name",
			},
		),
		archiveFailures: f.NewCounter(
			prometheus.CounterOpts{
				Name: "retrificator_archive_failures_total",
				Help: "Total number of archive attempts that failed",
			},
		),
		orphansRemoved: f.NewCounter(
			prometheus.CounterOpts{
				Name: "retrificator_orphan_archives_removed_total",
				Help: "Total number of archived packages removed because a live package exists",
			},
		),
		logsRead: f.NewCounter(
			prometheus.CounterOpts{
				Name: "retrificator_access_logs_read_total",
				Help: "Total number of access log files merged into the state",
			},
		),
		parseErrors: f.NewCounter(
			prometheus.CounterOpts{
				Name: "retrificator_access_log_parse_errors_total",
				Help: "Total number of access log lines that failed to parse",
			},
		),
		trackedWebapps: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "retrificator_tracked_webapps",
				Help: "Number of applications with a recorded last access",
			},
		),
		inventoryWebapps: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "retrificator_inventory_webapps",
				Help: "Applications found in the container by artifact kind",
			},
			[]string{"kind"},
		),
	}
}

// RecordPass records the outcome and duration of a pass.
func (m *Metrics) RecordPass(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.passDuration.Observe(d.Seconds())
	if err != nil {
		m.passes.WithLabelValues("error").Inc()
		return
	}
	m.passes.WithLabelValues("success").Inc()
	m.lastSuccess.SetToCurrentTime()
}

func (m *Metrics) RecordArchived() {
	if m == nil {
		return
	}
	m.archived.Inc()
}

func (m *Metrics) RecordArchiveFailure() {
	if m == nil {
		return
	}
	m.archiveFailures.Inc()
}

func (m *Metrics) RecordOrphanRemoved() {
	if m == nil {
		return
	}
	m.orphansRemoved.Inc()
}

// RecordTracking records what an access log update did.
func (m *Metrics) RecordTracking(logsRead, parseErrors int) {
	if m == nil {
		return
	}
	m.logsRead.Add(float64(logsRead))
	m.parseErrors.Add(float64(parseErrors))
}

func (m *Metrics) SetTracked(n int) {
	if m == nil {
		return
	}
	m.trackedWebapps.Set(float64(n))
}

// SetInventory records the container contents: live packages, archived
// packages and exploded-only applications.
func (m *Metrics) SetInventory(live, archived, dirOnly int) {
	if m == nil {
		return
	}
	m.inventoryWebapps.WithLabelValues("live").Set(float64(live))
	m.inventoryWebapps.WithLabelValues("archived").Set(float64(archived))
	m.inventoryWebapps.WithLabelValues("dir_only").Set(float64(dirOnly))
}
