package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/massvision/reap3r/internal/transport"
)

func TestExecuteUnknownJobTypeFails(t *testing.T) {
	d := New()
	job := transport.JobRequest{JobID: "j1", JobType: "nonexistent", TimeoutSec: 5}
	result := d.Execute(context.Background(), job)
	if result.Status != "failed" {
		t.Fatalf("Status = %q, want failed", result.Status)
	}
	if result.JobID != "j1" {
		t.Fatalf("JobID = %q, want j1", result.JobID)
	}
	if result.StartedAt == 0 || result.CompletedAt == 0 {
		t.Fatal("StartedAt/CompletedAt must be stamped by Execute")
	}
}

func TestRunScriptBash(t *testing.T) {
	d := New()
	payload, _ := json.Marshal(scriptPayload{Language: "bash", Script: "echo ok"})
	job := transport.JobRequest{JobID: "j2", JobType: "run_script", TimeoutSec: 5, Payload: payload}
	result := d.Execute(context.Background(), job)
	if result.Status != "success" {
		t.Fatalf("Status = %q, want success (stderr=%v err=%v)", result.Status, result.Stderr, result.ErrorMessage)
	}
	if result.Stdout == nil {
		t.Fatal("expected stdout to be captured")
	}
}

func TestRunScriptMissingScriptFails(t *testing.T) {
	d := New()
	payload, _ := json.Marshal(scriptPayload{Language: "bash"})
	job := transport.JobRequest{JobID: "j3", JobType: "run_script", TimeoutSec: 5, Payload: payload}
	result := d.Execute(context.Background(), job)
	if result.Status != "failed" {
		t.Fatalf("Status = %q, want failed", result.Status)
	}
}

func TestServiceActionMissingNameFails(t *testing.T) {
	d := New()
	payload, _ := json.Marshal(serviceActionPayload{})
	job := transport.JobRequest{JobID: "j4", JobType: "service_restart", TimeoutSec: 5, Payload: payload}
	result := d.Execute(context.Background(), job)
	if result.Status != "failed" {
		t.Fatalf("Status = %q, want failed", result.Status)
	}
}

func TestProcessKillMissingPIDFails(t *testing.T) {
	d := New()
	payload, _ := json.Marshal(processKillPayload{})
	job := transport.JobRequest{JobID: "j5", JobType: "process_kill", TimeoutSec: 5, Payload: payload}
	result := d.Execute(context.Background(), job)
	if result.Status != "failed" {
		t.Fatalf("Status = %q, want failed", result.Status)
	}
}
