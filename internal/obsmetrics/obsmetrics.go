// Package obsmetrics exposes the agent's own health as Prometheus metrics —
// loop ticks and failures, job outcomes, HTTP call latency, connectivity —
// distinct from internal/sysmetrics, which collects metrics ABOUT the host
// for reporting to the control plane. Grounded on the teacher's
// internal/metrics/metrics.go (promauto-registered package-level vars) and
// textfile.go (WriteTextfile for node_exporter's textfile collector).
package obsmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoopTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reap3r_loop_ticks_total",
		Help: "Total number of scheduler loop ticks by loop name.",
	}, []string{"loop"})

	LoopFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reap3r_loop_failures_total",
		Help: "Total number of failed scheduler loop ticks by loop name.",
	}, []string{"loop"})

	LoopConsecutiveFailures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reap3r_loop_consecutive_failures",
		Help: "Current consecutive failure count by loop name.",
	}, []string{"loop"})

	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reap3r_jobs_total",
		Help: "Total number of jobs executed by job_type and status.",
	}, []string{"job_type", "status"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reap3r_job_duration_seconds",
		Help:    "Duration of job execution by job_type.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job_type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reap3r_http_request_duration_seconds",
		Help:    "Duration of outbound control-plane HTTP requests by endpoint and outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})

	Connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reap3r_connected",
		Help: "1 if the last control-plane request succeeded, 0 otherwise.",
	})

	EnrollmentStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reap3r_enrolled",
		Help: "1 if the agent holds valid enrollment credentials, 0 otherwise.",
	})
)

// ObserveLoopState records a scheduler loop's state transition as metrics.
// Wired as the scheduler's onStateChange callback.
func ObserveLoopState(loop string, consecutiveFailures uint32) {
	LoopTicks.WithLabelValues(loop).Inc()
	LoopConsecutiveFailures.WithLabelValues(loop).Set(float64(consecutiveFailures))
	if consecutiveFailures > 0 {
		LoopFailures.WithLabelValues(loop).Inc()
	}
}
