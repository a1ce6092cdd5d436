// Command agent is the reap3r endpoint agent: it enrolls with the central
// control plane, then runs four independent periodic loops (heartbeat,
// metrics, inventory, job-poll) until terminated. Grounded on the teacher's
// cmd/sentinel/main.go wiring order (config -> logging -> signal context ->
// component construction -> run -> graceful shutdown).
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/massvision/reap3r/internal/clock"
	"github.com/massvision/reap3r/internal/config"
	"github.com/massvision/reap3r/internal/dispatch"
	"github.com/massvision/reap3r/internal/enrollment"
	"github.com/massvision/reap3r/internal/executor"
	"github.com/massvision/reap3r/internal/history"
	"github.com/massvision/reap3r/internal/inventory"
	"github.com/massvision/reap3r/internal/logging"
	"github.com/massvision/reap3r/internal/notify"
	"github.com/massvision/reap3r/internal/obsmetrics"
	"github.com/massvision/reap3r/internal/scheduler"
	"github.com/massvision/reap3r/internal/sysmetrics"
	"github.com/massvision/reap3r/internal/transport"
)

// version and commit are set at build time via ldflags:
//
//	-X main.version=$(VERSION) -X main.commit=$(COMMIT)
var version = "dev"
var commit = "unknown"

func versionString() string {
	if commit != "" && commit != "unknown" {
		return version + " (" + commit + ")"
	}
	return version
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogJSON)
	log.Info("reap3r agent starting", "version", versionString(), "server", cfg.ServerURL)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	client := transport.New(cfg.ServerURL, versionString())

	if err := enrollment.New(cfg, client, log, versionString()).EnsureEnrolled(ctx); err != nil {
		log.Error("enrollment failed", "error", err)
		os.Exit(1)
	}
	obsmetrics.EnrollmentStatus.Set(1)

	historyStore, err := history.Open(cfg.HistoryPath(), cfg.HistoryCapacity)
	if err != nil {
		log.Error("failed to open history store", "error", err)
		os.Exit(1)
	}
	defer historyStore.Close()

	notifier := notify.NewMulti(log, notify.NewLogNotifier(log))

	active := newActiveJobSet()
	observe := func(job transport.JobRequest, result transport.JobResult) {
		active.remove(job.JobID)
		obsmetrics.JobsTotal.WithLabelValues(job.JobType, result.Status).Inc()
		if err := historyStore.Record(job, result); err != nil {
			log.Warn("recording job history failed", "job_id", job.JobID, "error", err)
		}
		notifyJobOutcome(ctx, notifier, cfg, job, result)
	}

	runner := jobRunnerWithTracking{inner: dispatch.New(), active: active}

	if cfg.MetricsEnabled {
		go serveMetrics(cfg.MetricsAddr, log)
	}

	onState := func(loop string, _ scheduler.State, consecutiveFailures uint32) {
		obsmetrics.ObserveLoopState(loop, consecutiveFailures)
	}

	clk := clock.Real{}

	sched := scheduler.New(
		scheduler.NewHeartbeatLoop(client, runner, client, cfg, versionString(), active.list, observe, clk, log, onState),
		scheduler.NewMetricsLoop(sysmetrics.NewCollector(), client, cfg, clk, log, onState),
		scheduler.NewInventoryLoop(inventory.NewAssembler(), client, cfg, clk, log, onState),
		scheduler.NewJobPollLoop(client, runner, cfg, observe, clk, log, onState),
	)

	sched.Run(ctx)
	log.Info("reap3r agent shutdown complete")
}

// activeJobSet tracks job IDs currently executing, for the heartbeat
// payload's active_jobs field.
type activeJobSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newActiveJobSet() *activeJobSet {
	return &activeJobSet{ids: make(map[string]struct{})}
}

func (a *activeJobSet) add(id string) {
	a.mu.Lock()
	a.ids[id] = struct{}{}
	a.mu.Unlock()
}

func (a *activeJobSet) remove(id string) {
	a.mu.Lock()
	delete(a.ids, id)
	a.mu.Unlock()
}

func (a *activeJobSet) list() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]string, 0, len(a.ids))
	for id := range a.ids {
		ids = append(ids, id)
	}
	return ids
}

// jobRunnerWithTracking wraps dispatch.Dispatcher to register a job in the
// active set for the duration of its execution.
type jobRunnerWithTracking struct {
	inner  *dispatch.Dispatcher
	active *activeJobSet
}

func (r jobRunnerWithTracking) Execute(ctx context.Context, job transport.JobRequest) transport.JobResult {
	r.active.add(job.JobID)
	defer r.active.remove(job.JobID)
	return r.inner.Execute(ctx, job)
}

// notifyJobOutcome fires an operator alert for job failure/timeout and for
// the fixed-effect power-action job types, regardless of outcome.
func notifyJobOutcome(ctx context.Context, n *notify.Multi, cfg *config.Config, job transport.JobRequest, result transport.JobResult) {
	var eventType notify.EventType
	switch {
	case result.Status == executor.StatusTimeout:
		eventType = notify.EventJobTimeout
	case result.Status == executor.StatusFailed:
		eventType = notify.EventJobFailed
	case job.JobType == "reboot" || job.JobType == "shutdown":
		eventType = notify.EventPowerAction
	default:
		return
	}

	event := notify.NotifyEvent{
		Type:      eventType,
		JobID:     job.JobID,
		JobType:   job.JobType,
		HostID:    cfg.AgentID(),
		Status:    result.Status,
		Timestamp: time.Now(),
	}
	if result.ErrorMessage != nil {
		event.Error = *result.ErrorMessage
	}
	n.Notify(ctx, event)
}

// serveMetrics exposes the node_exporter-style /metrics endpoint used by
// internal/obsmetrics; it runs until the process exits, matching the
// teacher's fire-and-forget background HTTP server pattern.
func serveMetrics(addr string, log *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("metrics server listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server error", "error", err)
	}
}
