package obsmetrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsRegistered(t *testing.T) {
	LoopTicks.WithLabelValues("heartbeat")
	JobsTotal.WithLabelValues("run_script", "success")
	HTTPRequestDuration.WithLabelValues("heartbeat", "ok")

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	expected := map[string]bool{
		"reap3r_loop_ticks_total":               false,
		"reap3r_loop_failures_total":            false,
		"reap3r_loop_consecutive_failures":       false,
		"reap3r_jobs_total":                     false,
		"reap3r_job_duration_seconds":           false,
		"reap3r_http_request_duration_seconds":  false,
		"reap3r_connected":                       false,
		"reap3r_enrolled":                        false,
	}
	for _, mf := range mfs {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not registered", name)
		}
	}
}

func TestObserveLoopStateIncrementsFailuresOnlyWhenNonZero(t *testing.T) {
	ObserveLoopState("job_poll", 0)
	ObserveLoopState("job_poll", 1)

	var m dto.Metric
	if err := LoopConsecutiveFailures.WithLabelValues("job_poll").Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := m.GetGauge().GetValue(); got != 1 {
		t.Fatalf("consecutive failures gauge = %v, want 1", got)
	}
}
