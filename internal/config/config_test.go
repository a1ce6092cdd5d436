package config

import (
	"path/filepath"
	"testing"
)

func TestLoadPathCreatesDefaultDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.toml")

	cfg, err := LoadPath(path)
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if cfg.IsEnrolled() {
		t.Fatal("fresh default config should not be enrolled")
	}
	if cfg.EnrollmentToken != defaultEnrollmentToken {
		t.Fatalf("EnrollmentToken = %q, want sentinel default", cfg.EnrollmentToken)
	}
	if got := cfg.HeartbeatInterval(); got != 10 {
		t.Fatalf("HeartbeatInterval = %d, want 10", got)
	}
	if got := cfg.MetricsInterval(); got != 15 {
		t.Fatalf("MetricsInterval = %d, want 15", got)
	}
	if got := cfg.InventoryInterval(); got != 300 {
		t.Fatalf("InventoryInterval = %d, want 300", got)
	}
	if got := cfg.JobPollInterval(); got != 3 {
		t.Fatalf("JobPollInterval = %d, want 3", got)
	}
	if len(cfg.Capabilities()) == 0 {
		t.Fatal("default capabilities should not be empty")
	}

	reloaded, err := LoadPath(path)
	if err != nil {
		t.Fatalf("LoadPath (reload): %v", err)
	}
	if reloaded.EnrollmentToken != cfg.EnrollmentToken {
		t.Fatalf("reloaded config diverges from the written default")
	}
}

func TestSetCredentialsPersist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.toml")

	cfg, err := LoadPath(path)
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	cfg.SetCredentials("A1", "s3cr3t")
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := LoadPath(path)
	if err != nil {
		t.Fatalf("LoadPath (reload): %v", err)
	}
	if !reloaded.IsEnrolled() {
		t.Fatal("reloaded config should be enrolled")
	}
	if reloaded.AgentID() != "A1" || reloaded.AgentSecret() != "s3cr3t" {
		t.Fatalf("credentials did not round-trip: id=%q secret=%q", reloaded.AgentID(), reloaded.AgentSecret())
	}
}

func TestValuesRedactsSecrets(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadPath(filepath.Join(dir, "agent.toml"))
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	cfg.SetCredentials("A1", "s3cr3t")
	vals := cfg.Values()
	if vals["agent_secret"] == "s3cr3t" {
		t.Fatal("Values() leaked the raw agent secret")
	}
}

func TestValidateRejectsZeroIntervals(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadPath(filepath.Join(dir, "agent.toml"))
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	cfg.heartbeatInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate should reject a zero heartbeat interval")
	}
}
