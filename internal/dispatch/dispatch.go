// Package dispatch routes a JobRequest to the right handler by job_type and
// shapes the outcome into a JobResult, containing every error so a failing
// job never propagates past this package. Grounded on the outer/inner
// split in original_source/apps/agent/src/modules/runner.rs: each handler
// builds a result with StartedAt/CompletedAt left zero, and Execute
// overwrites both after the handler returns.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/massvision/reap3r/internal/executor"
	"github.com/massvision/reap3r/internal/transport"
)

// Dispatcher routes jobs to their handlers.
type Dispatcher struct{}

// New creates a Dispatcher.
func New() *Dispatcher { return &Dispatcher{} }

// Execute runs job to completion and always returns a JobResult — never an
// error — per SPEC_FULL.md §7's Job-local error containment.
func (d *Dispatcher) Execute(ctx context.Context, job transport.JobRequest) transport.JobResult {
	startedAt := time.Now().Unix()

	result := d.route(ctx, job)

	completedAt := time.Now().Unix()
	result.JobID = job.JobID
	result.StartedAt = startedAt
	result.CompletedAt = completedAt
	return result
}

func (d *Dispatcher) route(ctx context.Context, job transport.JobRequest) transport.JobResult {
	switch job.JobType {
	case "run_script":
		return d.runScript(ctx, job)
	case "reboot":
		return d.reboot(ctx, job)
	case "shutdown":
		return d.shutdown(ctx, job)
	case "service_restart":
		return d.serviceAction(ctx, job, "restart")
	case "service_stop":
		return d.serviceAction(ctx, job, "stop")
	case "service_start":
		return d.serviceAction(ctx, job, "start")
	case "process_kill":
		return d.processKill(ctx, job)
	default:
		return failed(fmt.Sprintf("unsupported job type: %s", job.JobType))
	}
}

type scriptPayload struct {
	Language   string            `json:"language"`
	Script     string            `json:"script"`
	WorkingDir string            `json:"working_dir"`
	EnvVars    map[string]string `json:"env_vars"`
}

func (d *Dispatcher) runScript(ctx context.Context, job transport.JobRequest) transport.JobResult {
	var p scriptPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return failed("invalid run_script payload: " + err.Error())
	}
	if p.Script == "" {
		return failed("missing script in payload")
	}
	if p.Language == "" {
		p.Language = "powershell"
	}

	name, args, err := executor.ScriptCommand(p.Language, p.Script)
	if err != nil {
		return failed(err.Error())
	}

	timeout := time.Duration(job.TimeoutSec) * time.Second
	res := executor.Run(ctx, timeout, p.WorkingDir, p.EnvVars, name, args...)
	return fromExecResult(res)
}

type powerPayload struct {
	Force     bool   `json:"force"`
	DelaySec  uint64 `json:"delay_sec"`
}

func (d *Dispatcher) reboot(ctx context.Context, job transport.JobRequest) transport.JobResult {
	var p powerPayload
	_ = json.Unmarshal(job.Payload, &p)

	name, args := rebootCommand(p.Force)
	res := executor.Run(ctx, 30*time.Second, "", nil, name, args...)
	return fromExecResult(res)
}

func (d *Dispatcher) shutdown(ctx context.Context, job transport.JobRequest) transport.JobResult {
	var p powerPayload
	_ = json.Unmarshal(job.Payload, &p)

	name, args := shutdownCommand(p.Force, p.DelaySec)
	res := executor.Run(ctx, 30*time.Second, "", nil, name, args...)
	return fromExecResult(res)
}

type serviceActionPayload struct {
	ServiceName string `json:"service_name"`
}

func (d *Dispatcher) serviceAction(ctx context.Context, job transport.JobRequest, action string) transport.JobResult {
	var p serviceActionPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil || p.ServiceName == "" {
		return failed("missing service_name in payload")
	}

	name, args := serviceActionCommand(action, p.ServiceName)
	timeout := time.Duration(job.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	res := executor.Run(ctx, timeout, "", nil, name, args...)
	return fromExecResult(res)
}

type processKillPayload struct {
	PID uint32 `json:"pid"`
}

func (d *Dispatcher) processKill(ctx context.Context, job transport.JobRequest) transport.JobResult {
	var p processKillPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil || p.PID == 0 {
		return failed("missing pid in payload")
	}

	name, args := killCommand(p.PID)
	res := executor.Run(ctx, 10*time.Second, "", nil, name, args...)
	return fromExecResult(res)
}

func rebootCommand(force bool) (string, []string) {
	if runtime.GOOS == "windows" {
		args := []string{"/r", "/t", "5"}
		if force {
			args = append(args, "/f")
		}
		return "shutdown", args
	}
	return "shutdown", []string{"-r", "+0"}
}

func shutdownCommand(force bool, delaySec uint64) (string, []string) {
	if runtime.GOOS == "windows" {
		args := []string{"/s", "/t", fmt.Sprintf("%d", delaySec)}
		if force {
			args = append(args, "/f")
		}
		return "shutdown", args
	}
	if delaySec == 0 {
		return "shutdown", []string{"-h", "now"}
	}
	return "shutdown", []string{"-h", fmt.Sprintf("+%d", delaySec/60)}
}

func serviceActionCommand(action, serviceName string) (string, []string) {
	if runtime.GOOS == "windows" {
		var psCmd string
		switch action {
		case "restart":
			psCmd = fmt.Sprintf("Restart-Service -Name %s -Force", serviceName)
		case "stop":
			psCmd = fmt.Sprintf("Stop-Service -Name %s -Force", serviceName)
		default:
			psCmd = fmt.Sprintf("Start-Service -Name %s", serviceName)
		}
		return "powershell", []string{"-NoProfile", "-Command", psCmd}
	}
	return "systemctl", []string{action, serviceName}
}

func killCommand(pid uint32) (string, []string) {
	if runtime.GOOS == "windows" {
		return "taskkill", []string{"/PID", fmt.Sprintf("%d", pid), "/F"}
	}
	return "kill", []string{"-9", fmt.Sprintf("%d", pid)}
}

func fromExecResult(res executor.Result) transport.JobResult {
	jr := transport.JobResult{Status: res.Status}
	if res.Stdout != "" {
		jr.Stdout = strPtr(res.Stdout)
	}
	if res.Stderr != "" {
		jr.Stderr = strPtr(res.Stderr)
	}
	if res.HasExitCode {
		code := res.ExitCode
		jr.ExitCode = &code
	}
	if res.ErrorMessage != "" {
		jr.ErrorMessage = strPtr(res.ErrorMessage)
	}
	return jr
}

func failed(message string) transport.JobResult {
	return transport.JobResult{Status: executor.StatusFailed, ErrorMessage: strPtr(message)}
}

func strPtr(s string) *string { return &s }
