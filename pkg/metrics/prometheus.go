package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ingestRows  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	records     prometheus.Gauge
	pyramids    prometheus.Gauge
	clusterK    prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ingestRows: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "afripulse_ingested_rows_total",
				Help: "Total raw observation rows ingested",
			},
			[]string{"indicator"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "afripulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "afripulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		records: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "afripulse_snapshot_records",
			Help: "Indicator records in the last published snapshot",
		}),
		pyramids: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "afripulse_snapshot_pyramids",
			Help: "Age pyramids in the last published snapshot",
		}),
		clusterK: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "afripulse_snapshot_cluster_k",
			Help: "Selected cluster count in the last published snapshot",
		}),
	}
}

// RecordIngest records observation rows accepted for an indicator.
func (r *Recorder) RecordIngest(indicator string, rows int) {
	r.ingestRows.WithLabelValues(indicator).Add(float64(rows))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordSnapshot records the shape of a freshly published snapshot.
func (r *Recorder) RecordSnapshot(records, pyramids, clusteredK int) {
	r.records.Set(float64(records))
	r.pyramids.Set(float64(pyramids))
	r.clusterK.Set(float64(clusteredK))
}
