// Package inventory assembles a point-in-time host inventory snapshot by
// composing independent providers; any provider's failure yields an empty
// result for that section rather than failing the whole snapshot, per
// SPEC_FULL.md §4.D.
package inventory

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	gonet "github.com/shirou/gopsutil/v3/net"

	"github.com/massvision/reap3r/internal/transport"
)

// OSProvider, HardwareProvider, etc. narrow the collection surface to a
// single method each, in the teacher's DockerAPI-style narrow-interface
// idiom (internal/docker/interface.go), so each section can be faked
// independently in tests.
type OSProvider interface {
	CollectOS(ctx context.Context) transport.OSInfo
}

type HardwareProvider interface {
	CollectHardware(ctx context.Context) transport.HardwareInfo
}

type SoftwareProvider interface {
	CollectSoftware(ctx context.Context) []transport.InstalledSoftware
}

type ServiceProvider interface {
	CollectServices(ctx context.Context) []transport.ServiceInfo
}

type UserProvider interface {
	CollectUsers(ctx context.Context) []transport.LocalUser
}

type NetworkConfigProvider interface {
	CollectNetworkConfig(ctx context.Context) []transport.NetworkConfig
}

// Assembler composes the providers above into one InventoryPayload.
type Assembler struct {
	OS            OSProvider
	Hardware      HardwareProvider
	Software      SoftwareProvider
	Services      ServiceProvider
	Users         UserProvider
	NetworkConfig NetworkConfigProvider
}

// NewAssembler wires up the platform-appropriate default providers.
func NewAssembler() *Assembler {
	base := &gopsutilProvider{}
	return &Assembler{
		OS:            base,
		Hardware:      base,
		Software:      platformSoftwareProvider(),
		Services:      platformServiceProvider(),
		Users:         platformUserProvider(),
		NetworkConfig: base,
	}
}

// Collect assembles a full snapshot. Each section is gathered independently;
// a panic-free, error-free provider call that can only ever return an empty
// slice/zero value on failure (providers never return errors by design).
func (a *Assembler) Collect(ctx context.Context) transport.InventoryPayload {
	return transport.InventoryPayload{
		Timestamp:     time.Now().UnixMilli(),
		OS:            a.OS.CollectOS(ctx),
		Hardware:      a.Hardware.CollectHardware(ctx),
		Software:      a.Software.CollectSoftware(ctx),
		Services:      a.Services.CollectServices(ctx),
		Users:         a.Users.CollectUsers(ctx),
		NetworkConfig: a.NetworkConfig.CollectNetworkConfig(ctx),
	}
}

// gopsutilProvider implements the OS/Hardware/NetworkConfig sections, which
// are portable across platforms via gopsutil. Software/Services/Users are
// platform-specific shellouts (see linux.go/windows.go/unsupported.go).
type gopsutilProvider struct{}

func (gopsutilProvider) CollectOS(ctx context.Context) transport.OSInfo {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return transport.OSInfo{Type: osType(), Arch: runtime.GOARCH}
	}
	hostname, _ := os.Hostname()
	var lastBoot int64
	if info.BootTime > 0 {
		lastBoot = int64(info.BootTime)
	}
	return transport.OSInfo{
		Type:     osType(),
		Name:     info.Platform,
		Version:  info.PlatformVersion,
		Build:    info.PlatformVersion,
		Arch:     runtime.GOARCH,
		Kernel:   info.KernelVersion,
		Hostname: hostname,
		Domain:   "",
		LastBoot: lastBoot,
	}
}

func (gopsutilProvider) CollectHardware(ctx context.Context) transport.HardwareInfo {
	infos, err := cpu.InfoWithContext(ctx)
	counts, _ := cpu.CountsWithContext(ctx, false)
	threads, _ := cpu.CountsWithContext(ctx, true)

	var model string
	if err == nil && len(infos) > 0 {
		model = infos[0].ModelName
	}

	var ramTotal uint64
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		ramTotal = vm.Total
	}

	return transport.HardwareInfo{
		CPUModel:      model,
		CPUCores:      uint32(counts),
		CPUThreads:    uint32(threads),
		RAMTotalBytes: ramTotal,
		RAMSlots:      nil,
		GPU:           nil,
	}
}

func (gopsutilProvider) CollectNetworkConfig(ctx context.Context) []transport.NetworkConfig {
	ifaces, err := gonet.InterfacesWithContext(ctx)
	if err != nil {
		return nil
	}
	out := make([]transport.NetworkConfig, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs := make([]string, 0, len(iface.Addrs))
		for _, a := range iface.Addrs {
			addrs = append(addrs, a.Addr)
		}
		out = append(out, transport.NetworkConfig{
			InterfaceName: iface.Name,
			IPAddresses:   addrs,
			MACAddress:    iface.HardwareAddr,
		})
	}
	return out
}

func osType() string {
	switch runtime.GOOS {
	case "windows", "linux":
		return runtime.GOOS
	case "darwin":
		return "macos"
	default:
		return "linux"
	}
}
