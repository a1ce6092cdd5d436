package enrollment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/massvision/reap3r/internal/config"
	"github.com/massvision/reap3r/internal/logging"
	"github.com/massvision/reap3r/internal/transport"
)

type fakeClient struct {
	req         transport.EnrollmentRequest
	resp        transport.EnrollmentResponse
	err         error
	credsAgent  string
	credsSecret string
}

func (f *fakeClient) Enroll(ctx context.Context, req transport.EnrollmentRequest) (transport.EnrollmentResponse, error) {
	f.req = req
	return f.resp, f.err
}

func (f *fakeClient) SetCredentials(agentID, agentSecret string) {
	f.credsAgent = agentID
	f.credsSecret = agentSecret
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.LoadPath(filepath.Join(dir, "agent.toml"))
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	return cfg
}

func TestEnsureEnrolledPerformsEnrollmentOnce(t *testing.T) {
	cfg := newTestConfig(t)
	heartbeat := uint64(20)
	client := &fakeClient{resp: transport.EnrollmentResponse{
		AgentID:              "A1",
		AgentSecret:          "s3cr3t",
		HeartbeatIntervalSec: &heartbeat,
		Capabilities:         []string{"inventory"},
	}}
	log := logging.New(false)

	m := New(cfg, client, log, "1.0.0")
	if err := m.EnsureEnrolled(context.Background()); err != nil {
		t.Fatalf("EnsureEnrolled: %v", err)
	}

	if client.req.EnrollmentToken == "" {
		t.Fatal("enrollment request should carry the configured token")
	}
	if client.credsAgent != "A1" || client.credsSecret != "s3cr3t" {
		t.Fatalf("credentials not installed on client: %+v", client)
	}
	if !cfg.IsEnrolled() {
		t.Fatal("config should be enrolled after EnsureEnrolled")
	}
	if cfg.HeartbeatInterval() != 20 {
		t.Fatalf("HeartbeatInterval = %d, want 20 (server override)", cfg.HeartbeatInterval())
	}
}

func TestEnsureEnrolledSkipsWhenAlreadyEnrolled(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.SetCredentials("A1", "s3cr3t")
	client := &fakeClient{}
	log := logging.New(false)

	m := New(cfg, client, log, "1.0.0")
	if err := m.EnsureEnrolled(context.Background()); err != nil {
		t.Fatalf("EnsureEnrolled: %v", err)
	}
	if client.req.EnrollmentToken != "" {
		t.Fatal("should not re-enroll when already enrolled")
	}
	if client.credsAgent != "A1" {
		t.Fatal("should install existing credentials onto the client")
	}
}
