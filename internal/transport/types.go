package transport

import "encoding/json"

// APIResponse is the wrapper every agent-v2 endpoint replies with.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// EnrollmentRequest is the unsigned first-contact payload.
type EnrollmentRequest struct {
	EnrollmentToken string   `json:"enrollment_token"`
	Hostname        string   `json:"hostname"`
	OS              string   `json:"os"`
	OSVersion       string   `json:"os_version"`
	Arch            string   `json:"arch"`
	AgentVersion    string   `json:"agent_version"`
	MACAddresses    []string `json:"mac_addresses"`
}

// EnrollmentResponse carries the issued credentials plus optional overrides.
type EnrollmentResponse struct {
	AgentID              string          `json:"agent_id"`
	AgentSecret          string          `json:"agent_secret"`
	Policy               json.RawMessage `json:"policy,omitempty"`
	HeartbeatIntervalSec *uint64         `json:"heartbeat_interval_sec,omitempty"`
	Capabilities         []string        `json:"capabilities,omitempty"`
}

// HeartbeatPayload is sent every heartbeat tick.
type HeartbeatPayload struct {
	Status       string   `json:"status"`
	UptimeSec    uint64   `json:"uptime_sec"`
	AgentVersion string   `json:"agent_version"`
	ActiveJobs   []string `json:"active_jobs"`
	Capabilities []string `json:"capabilities"`
}

// HeartbeatResponse may carry a job pushed alongside the acknowledgement.
type HeartbeatResponse struct {
	Ack        bool        `json:"ack"`
	PendingJob *JobRequest `json:"pending_job,omitempty"`
}

// JobRequest is a unit of work dispatched by the server, via poll or push.
type JobRequest struct {
	JobID          string          `json:"job_id"`
	JobType        string          `json:"type"`
	TimeoutSec     uint64          `json:"timeout_sec"`
	Priority       string          `json:"priority"`
	Payload        json.RawMessage `json:"payload"`
	CreatedBy      string          `json:"created_by"`
	OrganizationID string          `json:"organization_id"`
}

// JobResult is the outcome of executing a JobRequest.
type JobResult struct {
	JobID        string          `json:"job_id"`
	Status       string          `json:"status"`
	StartedAt    int64           `json:"started_at"`
	CompletedAt  int64           `json:"completed_at"`
	Stdout       *string         `json:"stdout,omitempty"`
	Stderr       *string         `json:"stderr,omitempty"`
	ExitCode     *int            `json:"exit_code,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	ResultData   json.RawMessage `json:"result_data,omitempty"`
}

// MetricsPayload is a single system-metrics snapshot.
type MetricsPayload struct {
	Timestamp      int64            `json:"timestamp"`
	CPU            CPUMetrics       `json:"cpu"`
	Memory         MemoryMetrics    `json:"memory"`
	Disks          []DiskMetrics    `json:"disks"`
	Network        []NetworkMetrics `json:"network"`
	ProcessesCount uint32           `json:"processes_count"`
	UptimeSec      uint64           `json:"uptime_sec"`
}

type CPUMetrics struct {
	UsagePercent  float64   `json:"usage_percent"`
	Cores         uint32    `json:"cores"`
	Model         string    `json:"model"`
	FrequencyMHz  uint64    `json:"frequency_mhz"`
	PerCoreUsage  []float64 `json:"per_core_usage"`
}

type MemoryMetrics struct {
	TotalBytes     uint64 `json:"total_bytes"`
	UsedBytes      uint64 `json:"used_bytes"`
	AvailableBytes uint64 `json:"available_bytes"`
	SwapTotalBytes uint64 `json:"swap_total_bytes"`
	SwapUsedBytes  uint64 `json:"swap_used_bytes"`
}

// DiskMetrics. Rates are always 0 — per-disk IO-rate sampling is not
// implemented, matching original_source (read_bytes_sec/write_bytes_sec are
// always zero there too).
type DiskMetrics struct {
	MountPoint     string `json:"mount_point"`
	Device         string `json:"device"`
	FSType         string `json:"fs_type"`
	TotalBytes     uint64 `json:"total_bytes"`
	UsedBytes      uint64 `json:"used_bytes"`
	AvailableBytes uint64 `json:"available_bytes"`
	ReadBytesSec   uint64 `json:"read_bytes_sec"`
	WriteBytesSec  uint64 `json:"write_bytes_sec"`
}

// NetworkMetrics. rx/tx are bytes-per-tick, not bytes-per-second, by design
// — see SPEC_FULL.md §9 Open Question (1). Packet rates are always 0;
// original_source never samples them either.
type NetworkMetrics struct {
	InterfaceName string `json:"interface_name"`
	IPAddress     string `json:"ip_address"`
	MACAddress    string `json:"mac_address"`
	RxBytesSec    uint64 `json:"rx_bytes_sec"`
	TxBytesSec    uint64 `json:"tx_bytes_sec"`
	RxPacketsSec  uint64 `json:"rx_packets_sec"`
	TxPacketsSec  uint64 `json:"tx_packets_sec"`
}

// InventoryPayload is a single point-in-time inventory snapshot.
type InventoryPayload struct {
	Timestamp     int64              `json:"timestamp"`
	OS            OSInfo             `json:"os"`
	Hardware      HardwareInfo       `json:"hardware"`
	Software      []InstalledSoftware `json:"software"`
	Services      []ServiceInfo      `json:"services"`
	Users         []LocalUser        `json:"users"`
	NetworkConfig []NetworkConfig    `json:"network_config"`
}

type OSInfo struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	Build    string `json:"build"`
	Arch     string `json:"arch"`
	Kernel   string `json:"kernel"`
	Hostname string `json:"hostname"`
	Domain   string `json:"domain"`
	LastBoot int64  `json:"last_boot"`
}

type HardwareInfo struct {
	Manufacturer string    `json:"manufacturer"`
	Model        string    `json:"model"`
	SerialNumber string    `json:"serial_number"`
	BIOSVersion  string    `json:"bios_version"`
	CPUModel     string    `json:"cpu_model"`
	CPUCores     uint32    `json:"cpu_cores"`
	CPUThreads   uint32    `json:"cpu_threads"`
	RAMTotalBytes uint64   `json:"ram_total_bytes"`
	RAMSlots     []RAMSlot `json:"ram_slots"`
	GPU          []GPUInfo `json:"gpu"`
}

type RAMSlot struct {
	Slot         string `json:"slot"`
	SizeBytes    uint64 `json:"size_bytes"`
	Type         string `json:"type"`
	SpeedMHz     uint64 `json:"speed_mhz"`
	Manufacturer string `json:"manufacturer"`
}

type GPUInfo struct {
	Name          string `json:"name"`
	DriverVersion string `json:"driver_version"`
	VRAMBytes     uint64 `json:"vram_bytes"`
}

type InstalledSoftware struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Publisher   string `json:"publisher"`
	InstallDate string `json:"install_date"`
	SizeBytes   uint64 `json:"size_bytes"`
}

type ServiceInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
	StartType   string `json:"start_type"`
	PID         *uint32 `json:"pid,omitempty"`
}

type LocalUser struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	IsAdmin   bool   `json:"is_admin"`
	IsActive  bool   `json:"is_active"`
	LastLogin *int64 `json:"last_login,omitempty"`
}

type NetworkConfig struct {
	InterfaceName string   `json:"interface_name"`
	IPAddresses   []string `json:"ip_addresses"`
	MACAddress    string   `json:"mac_address"`
	Gateway       string   `json:"gateway"`
	DNSServers    []string `json:"dns_servers"`
	DHCPEnabled   bool     `json:"dhcp_enabled"`
}
