// Package config loads and persists the agent's TOML configuration file,
// synthesizing a default document on first run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

const defaultEnrollmentToken = "ENROLL-DEFAULT-2024-MASSVISION"

// defaultCapabilities is the baseline capability set advertised before
// enrollment has a chance to apply any server-pushed override.
var defaultCapabilities = []string{
	"run_script",
	"remote_shell",
	"reboot",
	"shutdown",
	"service_management",
	"process_management",
	"inventory",
	"metrics",
}

// Config holds the agent's persistent configuration. AgentID, AgentSecret,
// and the four interval fields may be overridden at enrollment time and are
// protected by mu; every other field is set once at load and read-only
// afterward, so it needs no locking.
type Config struct {
	ServerURL        string   `toml:"server_url"`
	EnrollmentToken  string   `toml:"enrollment_token,omitempty"`
	OrganizationID   string   `toml:"organization_id,omitempty"`
	LogLevel         string   `toml:"log_level"`
	LogJSON          bool     `toml:"log_json"`
	MetricsEnabled   bool     `toml:"metrics_enabled"`
	MetricsAddr      string   `toml:"metrics_addr"`
	HistoryCapacity  int      `toml:"history_capacity"`
	NotifyProviders  []string `toml:"notify_providers,omitempty"`

	mu                sync.RWMutex
	agentID           string
	agentSecret       string
	capabilities      []string
	heartbeatInterval uint64
	metricsInterval   uint64
	inventoryInterval uint64
	jobPollInterval   uint64

	path string
}

// Load reads the TOML config file at the platform-default path, creating a
// default document (with a sentinel enrollment token and baseline
// capabilities) if none exists yet.
func Load() (*Config, error) {
	path := configPath()
	return LoadPath(path)
}

// LoadPath reads the TOML config file at an explicit path (tests use this to
// avoid touching the real platform path).
func LoadPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := defaultConfig(path)
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("config: writing default document: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var doc onDisk
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg := doc.toConfig()
	cfg.path = path
	return cfg, nil
}

// onDisk mirrors Config's TOML shape including the mutable fields, which are
// unexported in Config and therefore need explicit (de)serialization.
type onDisk struct {
	ServerURL         string   `toml:"server_url"`
	AgentID           string   `toml:"agent_id,omitempty"`
	AgentSecret       string   `toml:"agent_secret,omitempty"`
	EnrollmentToken   string   `toml:"enrollment_token,omitempty"`
	OrganizationID    string   `toml:"organization_id,omitempty"`
	HeartbeatInterval uint64   `toml:"heartbeat_interval_sec"`
	MetricsInterval   uint64   `toml:"metrics_interval_sec"`
	InventoryInterval uint64   `toml:"inventory_interval_sec"`
	JobPollInterval   uint64   `toml:"job_poll_interval_sec"`
	Capabilities      []string `toml:"capabilities,omitempty"`
	LogLevel          string   `toml:"log_level"`
	LogJSON           bool     `toml:"log_json"`
	MetricsEnabled    bool     `toml:"metrics_enabled"`
	MetricsAddr       string   `toml:"metrics_addr"`
	HistoryCapacity   int      `toml:"history_capacity"`
	NotifyProviders   []string `toml:"notify_providers,omitempty"`
}

func (d onDisk) toConfig() *Config {
	return &Config{
		ServerURL:         d.ServerURL,
		EnrollmentToken:   d.EnrollmentToken,
		OrganizationID:    d.OrganizationID,
		LogLevel:          d.LogLevel,
		LogJSON:           d.LogJSON,
		MetricsEnabled:    d.MetricsEnabled,
		MetricsAddr:       d.MetricsAddr,
		HistoryCapacity:   d.HistoryCapacity,
		NotifyProviders:   d.NotifyProviders,
		agentID:           d.AgentID,
		agentSecret:       d.AgentSecret,
		capabilities:       d.Capabilities,
		heartbeatInterval: d.HeartbeatInterval,
		metricsInterval:   d.MetricsInterval,
		inventoryInterval: d.InventoryInterval,
		jobPollInterval:   d.JobPollInterval,
	}
}

func (c *Config) toOnDisk() onDisk {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return onDisk{
		ServerURL:         c.ServerURL,
		AgentID:           c.agentID,
		AgentSecret:       c.agentSecret,
		EnrollmentToken:   c.EnrollmentToken,
		OrganizationID:    c.OrganizationID,
		HeartbeatInterval: c.heartbeatInterval,
		MetricsInterval:   c.metricsInterval,
		InventoryInterval: c.inventoryInterval,
		JobPollInterval:   c.jobPollInterval,
		Capabilities:      c.capabilities,
		LogLevel:          c.LogLevel,
		LogJSON:           c.LogJSON,
		MetricsEnabled:    c.MetricsEnabled,
		MetricsAddr:       c.MetricsAddr,
		HistoryCapacity:   c.HistoryCapacity,
		NotifyProviders:   c.NotifyProviders,
	}
}

// defaultConfig synthesizes the document written on first run.
func defaultConfig(path string) *Config {
	return &Config{
		ServerURL:         "http://localhost:4000",
		EnrollmentToken:   defaultEnrollmentToken,
		LogLevel:          "info",
		LogJSON:           true,
		MetricsEnabled:    false,
		MetricsAddr:       "127.0.0.1:9274",
		HistoryCapacity:   500,
		capabilities:      append([]string(nil), defaultCapabilities...),
		heartbeatInterval: 10,
		metricsInterval:   15,
		inventoryInterval: 300,
		jobPollInterval:   3,
		path:              path,
	}
}

// Save serializes the config (including credentials) back to its file path.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = configPath()
		c.path = path
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: creating directory: %w", err)
	}
	data, err := toml.Marshal(c.toOnDisk())
	if err != nil {
		return fmt.Errorf("config: serializing: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// IsEnrolled reports whether agent_id and agent_secret are both set.
func (c *Config) IsEnrolled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.agentID != "" && c.agentSecret != ""
}

// AgentID returns the enrolled agent ID (thread-safe).
func (c *Config) AgentID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.agentID
}

// AgentSecret returns the enrolled agent secret (thread-safe).
func (c *Config) AgentSecret() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.agentSecret
}

// SetCredentials installs the agent_id/agent_secret issued at enrollment.
func (c *Config) SetCredentials(agentID, agentSecret string) {
	c.mu.Lock()
	c.agentID = agentID
	c.agentSecret = agentSecret
	c.mu.Unlock()
}

// Capabilities returns the current capability set (thread-safe).
func (c *Config) Capabilities() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.capabilities...)
}

// SetCapabilities overrides the capability set, e.g. from an enrollment response.
func (c *Config) SetCapabilities(caps []string) {
	c.mu.Lock()
	c.capabilities = append([]string(nil), caps...)
	c.mu.Unlock()
}

// HeartbeatInterval returns the heartbeat loop cadence in seconds (thread-safe).
func (c *Config) HeartbeatInterval() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.heartbeatInterval
}

// SetHeartbeatInterval overrides the heartbeat cadence, e.g. from enrollment.
func (c *Config) SetHeartbeatInterval(sec uint64) {
	c.mu.Lock()
	c.heartbeatInterval = sec
	c.mu.Unlock()
}

// MetricsInterval returns the metrics loop cadence in seconds (thread-safe).
func (c *Config) MetricsInterval() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metricsInterval
}

// InventoryInterval returns the inventory loop cadence in seconds (thread-safe).
func (c *Config) InventoryInterval() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inventoryInterval
}

// JobPollInterval returns the job-poll loop cadence in seconds (thread-safe).
func (c *Config) JobPollInterval() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jobPollInterval
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerURL == "" {
		errs = append(errs, fmt.Errorf("server_url must not be empty"))
	}
	if c.HeartbeatInterval() == 0 {
		errs = append(errs, fmt.Errorf("heartbeat_interval_sec must be > 0"))
	}
	if c.MetricsInterval() == 0 {
		errs = append(errs, fmt.Errorf("metrics_interval_sec must be > 0"))
	}
	if c.InventoryInterval() == 0 {
		errs = append(errs, fmt.Errorf("inventory_interval_sec must be > 0"))
	}
	if c.JobPollInterval() == 0 {
		errs = append(errs, fmt.Errorf("job_poll_interval_sec must be > 0"))
	}
	return errors.Join(errs...)
}

// Values returns redacted configuration as a string map, for display/debugging.
func (c *Config) Values() map[string]string {
	return map[string]string{
		"server_url":             c.ServerURL,
		"agent_id":               c.AgentID(),
		"agent_secret":           redactSecret(c.AgentSecret()),
		"enrollment_token":       redactSecret(c.EnrollmentToken),
		"log_level":              c.LogLevel,
		"metrics_enabled":        fmt.Sprintf("%t", c.MetricsEnabled),
		"history_capacity":       fmt.Sprintf("%d", c.HistoryCapacity),
	}
}

func redactSecret(s string) string {
	if s != "" {
		return "(set)"
	}
	return ""
}

// configPath returns the platform-default config file path.
func configPath() string {
	if runtime.GOOS == "windows" {
		return `C:\ProgramData\MASSVISION\Reap3r\agent.toml`
	}
	return "/etc/massvision/reap3r/agent.toml"
}

// HistoryPath returns the bbolt job-history file path alongside the config file.
func (c *Config) HistoryPath() string {
	dir := filepath.Dir(c.path)
	if dir == "" || dir == "." {
		dir = filepath.Dir(configPath())
	}
	return filepath.Join(dir, "history.db")
}
