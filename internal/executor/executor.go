// Package executor runs subprocesses on the agent's behalf: arbitrary
// scripts in one of four interpreters, and the small set of fixed system
// commands (power actions, service control, process kill) that the
// dispatcher needs. Every run is timeout-bounded and output-capped at 1 MiB,
// per SPEC_FULL.md §4.E, grounded on
// original_source/apps/agent/src/modules/runner.rs.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

const maxOutputBytes = 1 << 20 // 1 MiB
const truncationSuffix = "... [truncated]"

// Status values mirror the wire vocabulary used by transport.JobResult.Status.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusTimeout = "timeout"
)

// Result is the raw outcome of one subprocess run, before the dispatcher
// stamps job_id/started_at/completed_at onto it.
type Result struct {
	Status       string
	Stdout       string
	Stderr       string
	ExitCode     int
	HasExitCode  bool
	ErrorMessage string
}

// ScriptCommand resolves a job's "language" to the argv used to run it,
// matching original_source's per-interpreter dispatch table exactly.
func ScriptCommand(language, script string) (name string, args []string, err error) {
	switch language {
	case "powershell", "":
		return "powershell", []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-Command", script}, nil
	case "bash":
		return "bash", []string{"-c", script}, nil
	case "python":
		return "python3", []string{"-c", script}, nil
	case "cmd":
		return "cmd", []string{"/C", script}, nil
	default:
		return "", nil, fmt.Errorf("unsupported language: %s", language)
	}
}

// Run executes name(args...) with the given timeout, working directory
// (empty = inherit), and extra environment variables, capturing and
// truncating combined stdout/stderr independently.
func Run(ctx context.Context, timeout time.Duration, workingDir string, env map[string]string, name string, args ...string) Result {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	if workingDir != "" {
		cmd.Dir = workingDir
	}
	if len(env) > 0 {
		cmd.Env = cmd.Environ()
		for k, v := range env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Result{
			Status:       StatusTimeout,
			ErrorMessage: fmt.Sprintf("job timed out after %s", timeout),
		}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			status := StatusSuccess
			if code != 0 {
				status = StatusFailed
			}
			return Result{
				Status:      status,
				Stdout:      truncate(stdout.String()),
				Stderr:      truncate(stderr.String()),
				ExitCode:    code,
				HasExitCode: true,
			}
		}
		return Result{
			Status:       StatusFailed,
			ErrorMessage: fmt.Sprintf("process execution error: %s", err),
		}
	}

	return Result{
		Status:      StatusSuccess,
		Stdout:      truncate(stdout.String()),
		Stderr:      truncate(stderr.String()),
		ExitCode:    0,
		HasExitCode: true,
	}
}

func truncate(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	return s[:maxOutputBytes] + truncationSuffix
}
