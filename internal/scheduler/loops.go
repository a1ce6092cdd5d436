package scheduler

import (
	"context"
	"time"

	"github.com/massvision/reap3r/internal/clock"
	"github.com/massvision/reap3r/internal/config"
	"github.com/massvision/reap3r/internal/logging"
	"github.com/massvision/reap3r/internal/transport"
)

// Narrow interfaces over transport.Client and the collectors/dispatcher, so
// loops can be tested without a real HTTP server or OS sampling.

type HeartbeatSender interface {
	Heartbeat(ctx context.Context, payload transport.HeartbeatPayload) (transport.HeartbeatResponse, error)
}

type MetricsReporter interface {
	ReportMetrics(ctx context.Context, payload transport.MetricsPayload) error
}

type MetricsCollector interface {
	Collect(ctx context.Context) (transport.MetricsPayload, error)
}

type InventoryReporter interface {
	ReportInventory(ctx context.Context, payload transport.InventoryPayload) error
}

type InventoryCollector interface {
	Collect(ctx context.Context) transport.InventoryPayload
}

type JobPoller interface {
	PollJobs(ctx context.Context) (*transport.JobRequest, error)
	ReportJobResult(ctx context.Context, result transport.JobResult) error
}

type JobRunner interface {
	Execute(ctx context.Context, job transport.JobRequest) transport.JobResult
}

// JobObserver is notified after every job runs, whether it arrived by
// server push (on a heartbeat) or by poll. Used to feed the job-history
// ledger and operator notifications.
type JobObserver func(job transport.JobRequest, result transport.JobResult)

func noopObserver(transport.JobRequest, transport.JobResult) {}

// processStart marks when this process began, for the heartbeat's uptime_sec field.
var processStart = time.Now()

// runPushedJob executes and reports a job pushed alongside a heartbeat ack
// without blocking the heartbeat loop's own cadence, matching
// original_source/main.rs's tokio::spawn of the pending_job handler.
func runPushedJob(log *logging.Logger, runner JobRunner, poller JobPoller, observe JobObserver, job transport.JobRequest) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(job.TimeoutSec+30)*time.Second)
		defer cancel()

		result := runner.Execute(ctx, job)
		observe(job, result)
		if err := poller.ReportJobResult(ctx, result); err != nil {
			log.Warn("reporting pushed job result failed", "job_id", job.JobID, "error", err)
		}
	}()
}

// NewHeartbeatLoop builds the heartbeat loop: sends a HeartbeatPayload every
// HeartbeatInterval seconds (0s initial delay — the agent announces itself
// immediately on startup) and, if the server pushes a job alongside the
// ack, runs it in the background without delaying the next heartbeat.
func NewHeartbeatLoop(sender HeartbeatSender, runner JobRunner, poller JobPoller, cfg *config.Config, agentVersion string, activeJobs func() []string, observe JobObserver, clk clock.Clock, log *logging.Logger, onState func(string, State, uint32)) *Loop {
	if observe == nil {
		observe = noopObserver
	}
	tick := func(ctx context.Context) error {
		payload := transport.HeartbeatPayload{
			Status:       "online",
			UptimeSec:    uint64(time.Since(processStart).Seconds()),
			AgentVersion: agentVersion,
			ActiveJobs:   activeJobs(),
			Capabilities: cfg.Capabilities(),
		}
		resp, err := sender.Heartbeat(ctx, payload)
		if err != nil {
			return err
		}
		if resp.PendingJob != nil {
			runPushedJob(log, runner, poller, observe, *resp.PendingJob)
		}
		return nil
	}
	interval := func() time.Duration { return time.Duration(cfg.HeartbeatInterval()) * time.Second }
	return NewLoop("heartbeat", 0, interval, tick, clk, log, onState)
}

// NewMetricsLoop builds the metrics loop: collects and reports a system
// snapshot every MetricsInterval seconds, after an initial 5s delay.
// Reporting failures are logged and never propagate (SPEC_FULL.md §7).
func NewMetricsLoop(collector MetricsCollector, reporter MetricsReporter, cfg *config.Config, clk clock.Clock, log *logging.Logger, onState func(string, State, uint32)) *Loop {
	tick := func(ctx context.Context) error {
		snapshot, err := collector.Collect(ctx)
		if err != nil {
			return err
		}
		if err := reporter.ReportMetrics(ctx, snapshot); err != nil {
			log.Warn("reporting metrics failed", "error", err)
		}
		return nil
	}
	interval := func() time.Duration { return time.Duration(cfg.MetricsInterval()) * time.Second }
	return NewLoop("metrics", 5*time.Second, interval, tick, clk, log, onState)
}

// NewInventoryLoop builds the inventory loop: assembles and reports a full
// inventory snapshot every InventoryInterval seconds, after an initial 10s
// delay. Reporting failures are logged and never propagate.
func NewInventoryLoop(collector InventoryCollector, reporter InventoryReporter, cfg *config.Config, clk clock.Clock, log *logging.Logger, onState func(string, State, uint32)) *Loop {
	tick := func(ctx context.Context) error {
		snapshot := collector.Collect(ctx)
		if err := reporter.ReportInventory(ctx, snapshot); err != nil {
			log.Warn("reporting inventory failed", "error", err)
		}
		return nil
	}
	interval := func() time.Duration { return time.Duration(cfg.InventoryInterval()) * time.Second }
	return NewLoop("inventory", 10*time.Second, interval, tick, clk, log, onState)
}

// NewJobPollLoop builds the job-poll loop: asks for the next queued job
// every JobPollInterval seconds, after an initial 3s delay, runs whatever
// it gets, and reports the result. A poll that finds nothing (HTTP 204) is
// a successful, empty tick, not a failure.
func NewJobPollLoop(poller JobPoller, runner JobRunner, cfg *config.Config, observe JobObserver, clk clock.Clock, log *logging.Logger, onState func(string, State, uint32)) *Loop {
	if observe == nil {
		observe = noopObserver
	}
	tick := func(ctx context.Context) error {
		job, err := poller.PollJobs(ctx)
		if err != nil {
			return err
		}
		if job == nil {
			return nil
		}
		result := runner.Execute(ctx, *job)
		observe(*job, result)
		if err := poller.ReportJobResult(ctx, result); err != nil {
			log.Warn("reporting job result failed", "job_id", job.JobID, "error", err)
		}
		return nil
	}
	interval := func() time.Duration { return time.Duration(cfg.JobPollInterval()) * time.Second }
	return NewLoop("job_poll", 3*time.Second, interval, tick, clk, log, onState)
}
