// Package enrollment performs the agent's one unsigned first-contact
// request and persists the issued credentials plus any server-pushed
// cadence/capability overrides. Grounded on
// original_source/apps/agent/src/main.rs's enroll() function and
// get_mac_addresses() helper, and on the teacher's
// internal/cluster/agent/agent.go enroll() (persist-then-install-credentials
// ordering).
package enrollment

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
	gonet "github.com/shirou/gopsutil/v3/net"

	"github.com/massvision/reap3r/internal/config"
	"github.com/massvision/reap3r/internal/logging"
	"github.com/massvision/reap3r/internal/transport"
)

// Client is the subset of transport.Client enrollment needs.
type Client interface {
	Enroll(ctx context.Context, req transport.EnrollmentRequest) (transport.EnrollmentResponse, error)
	SetCredentials(agentID, agentSecret string)
}

// Manager drives enrollment and installs credentials on both the
// configuration store and the transport client.
type Manager struct {
	cfg          *config.Config
	client       Client
	log          *logging.Logger
	agentVersion string
}

// New creates a Manager.
func New(cfg *config.Config, client Client, log *logging.Logger, agentVersion string) *Manager {
	return &Manager{cfg: cfg, client: client, log: log, agentVersion: agentVersion}
}

// EnsureEnrolled enrolls the agent if it has no stored credentials yet, then
// installs whatever credentials are on disk onto the transport client. This
// is the one point where credentials are written, eliminating any need for
// a lock across job execution at steady state (SPEC_FULL.md §9 Open
// Question (2)).
func (m *Manager) EnsureEnrolled(ctx context.Context) error {
	if m.cfg.IsEnrolled() {
		m.log.Info("agent already enrolled", "agent_id", m.cfg.AgentID())
		m.client.SetCredentials(m.cfg.AgentID(), m.cfg.AgentSecret())
		return nil
	}

	if m.cfg.EnrollmentToken == "" {
		return fmt.Errorf("enrollment: no enrollment token configured")
	}

	m.log.Info("agent not enrolled, starting enrollment")

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	req := transport.EnrollmentRequest{
		EnrollmentToken: m.cfg.EnrollmentToken,
		Hostname:        hostname,
		OS:              runtime.GOOS,
		OSVersion:       osVersion(ctx),
		Arch:            runtime.GOARCH,
		AgentVersion:    m.agentVersion,
		MACAddresses:    macAddresses(ctx),
	}

	resp, err := m.client.Enroll(ctx, req)
	if err != nil {
		return fmt.Errorf("enrollment: %w", err)
	}

	m.cfg.SetCredentials(resp.AgentID, resp.AgentSecret)
	if resp.HeartbeatIntervalSec != nil {
		m.cfg.SetHeartbeatInterval(*resp.HeartbeatIntervalSec)
	}
	if resp.Capabilities != nil {
		m.cfg.SetCapabilities(resp.Capabilities)
	}
	if err := m.cfg.Save(); err != nil {
		return fmt.Errorf("enrollment: persisting credentials: %w", err)
	}

	m.client.SetCredentials(resp.AgentID, resp.AgentSecret)
	m.log.Info("enrollment complete", "agent_id", resp.AgentID)
	return nil
}

// macAddresses collects non-zero MAC addresses across all interfaces,
// matching original_source's get_mac_addresses filter.
func macAddresses(ctx context.Context) []string {
	ifaces, err := gonet.InterfacesWithContext(ctx)
	if err != nil {
		return nil
	}
	var macs []string
	for _, iface := range ifaces {
		if iface.HardwareAddr == "" || iface.HardwareAddr == "00:00:00:00:00:00" {
			continue
		}
		macs = append(macs, iface.HardwareAddr)
	}
	return macs
}

func osVersion(ctx context.Context) string {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "unknown"
	}
	return info.PlatformVersion
}
