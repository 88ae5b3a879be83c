package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MaintenanceRecorder tracks maintenance runs: health checks, purges,
// performance reports, backups and restores.
type MaintenanceRecorder struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	purged      *prometheus.CounterVec
	healthy     prometheus.Gauge
}

func NewMaintenanceRecorder(reg prometheus.Registerer) *MaintenanceRecorder {
	r := &MaintenanceRecorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "runs_total",
			Help:      "Maintenance runs by operation and outcome",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "run_duration_seconds",
			Help:      "Duration of maintenance runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 16),
		}, []string{"operation"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "last_success_time_seconds",
			Help:      "Last successful run per operation in seconds since epoch",
		}, []string{"operation"}),
		purged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "purged_rows_total",
			Help:      "Rows physically removed by retention purges",
		}, []string{"table"}),
		healthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "database_healthy",
			Help:      "1 when the last health check succeeded",
		}),
	}
	reg.MustRegister(r.runs, r.duration, r.lastSuccess, r.purged, r.healthy)
	return r
}

// RecordRun counts one finished run. status is the report status.
func (r *MaintenanceRecorder) RecordRun(operation, status string, ok bool, duration time.Duration) {
	r.runs.WithLabelValues(operation, status).Inc()
	r.duration.WithLabelValues(operation).Observe(duration.Seconds())
	if ok {
		r.lastSuccess.WithLabelValues(operation).Set(float64(time.Now().Unix()))
	}
}

func (r *MaintenanceRecorder) RecordPurged(table string, rows int64) {
	if rows > 0 {
		r.purged.WithLabelValues(table).Add(float64(rows))
	}
}

func (r *MaintenanceRecorder) RecordHealth(healthy bool) {
	if healthy {
		r.healthy.Set(1)
		return
	}
	r.healthy.Set(0)
}
