// Package sysmetrics samples live CPU/memory/disk/network counters and
// converts the cumulative network counters into per-tick deltas.
//
// The rate engine intentionally does NOT divide by the tick interval — see
// SPEC_FULL.md §9 Open Question (1). This preserves the bug-compatible
// behavior of original_source/apps/agent/src/modules/metrics.rs, whose
// rx_bytes_sec/tx_bytes_sec fields are bytes-per-tick, not bytes-per-second.
package sysmetrics

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	gonet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/massvision/reap3r/internal/transport"
)

// netCounters is the previous tick's cumulative counters for one interface.
type netCounters struct {
	rx uint64
	tx uint64
}

// Collector samples system metrics and owns the previous-tick counter map
// exclusively — it must only ever be driven by one goroutine (the metrics
// loop), per SPEC_FULL.md §5.
type Collector struct {
	prevNet map[string]netCounters
}

// NewCollector returns a Collector with no prior network counters; the
// first Collect() call therefore reports all-zero network rates.
func NewCollector() *Collector {
	return &Collector{prevNet: make(map[string]netCounters)}
}

// Collect samples one metrics snapshot.
func (c *Collector) Collect(ctx context.Context) (transport.MetricsPayload, error) {
	var payload transport.MetricsPayload
	payload.Timestamp = nowMillis()

	cpuPayload, err := c.collectCPU(ctx)
	if err != nil {
		return transport.MetricsPayload{}, fmt.Errorf("sysmetrics: cpu: %w", err)
	}
	payload.CPU = cpuPayload

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return transport.MetricsPayload{}, fmt.Errorf("sysmetrics: memory: %w", err)
	}
	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return transport.MetricsPayload{}, fmt.Errorf("sysmetrics: swap: %w", err)
	}
	payload.Memory = transport.MemoryMetrics{
		TotalBytes:     vm.Total,
		UsedBytes:      vm.Used,
		AvailableBytes: vm.Available,
		SwapTotalBytes: swap.Total,
		SwapUsedBytes:  swap.Used,
	}

	payload.Disks = c.collectDisks(ctx)
	payload.Network = c.collectNetwork(ctx)

	procs, err := process.PidsWithContext(ctx)
	if err == nil {
		payload.ProcessesCount = uint32(len(procs))
	}

	uptime, err := host.UptimeWithContext(ctx)
	if err == nil {
		payload.UptimeSec = uptime
	}

	return payload, nil
}

func (c *Collector) collectCPU(ctx context.Context) (transport.CPUMetrics, error) {
	percentTotal, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return transport.CPUMetrics{}, err
	}
	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return transport.CPUMetrics{}, err
	}
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return transport.CPUMetrics{}, err
	}

	var usage float64
	if len(percentTotal) > 0 {
		usage = percentTotal[0]
	}
	var model string
	var freq uint64
	if len(infos) > 0 {
		model = infos[0].ModelName
		freq = uint64(infos[0].Mhz)
	}

	return transport.CPUMetrics{
		UsagePercent: usage,
		Cores:        uint32(len(infos)),
		Model:        model,
		FrequencyMHz: freq,
		PerCoreUsage: perCore,
	}, nil
}

func (c *Collector) collectDisks(ctx context.Context) []transport.DiskMetrics {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil
	}
	out := make([]transport.DiskMetrics, 0, len(partitions))
	for _, p := range partitions {
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		out = append(out, transport.DiskMetrics{
			MountPoint:     p.Mountpoint,
			Device:         p.Device,
			FSType:         p.Fstype,
			TotalBytes:     usage.Total,
			UsedBytes:      usage.Used,
			AvailableBytes: usage.Free,
			// IO rate sampling is not implemented, matching original_source
			// (read_bytes_sec/write_bytes_sec are always zero there too).
			ReadBytesSec:  0,
			WriteBytesSec: 0,
		})
	}
	return out
}

func (c *Collector) collectNetwork(ctx context.Context) []transport.NetworkMetrics {
	counters, err := gonet.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil
	}
	interfaces, _ := gonet.InterfacesWithContext(ctx)
	macByName := make(map[string]string, len(interfaces))
	for _, iface := range interfaces {
		macByName[iface.Name] = iface.HardwareAddr
	}

	newPrev := make(map[string]netCounters, len(counters))
	out := make([]transport.NetworkMetrics, 0, len(counters))
	for _, ct := range counters {
		prev, ok := c.prevNet[ct.Name]
		var rxRate, txRate uint64
		if ok {
			rxRate = saturatingSub(ct.BytesRecv, prev.rx)
			txRate = saturatingSub(ct.BytesSent, prev.tx)
		}
		newPrev[ct.Name] = netCounters{rx: ct.BytesRecv, tx: ct.BytesSent}

		out = append(out, transport.NetworkMetrics{
			InterfaceName: ct.Name,
			MACAddress:    macByName[ct.Name],
			RxBytesSec:    rxRate,
			TxBytesSec:    txRate,
		})
	}
	c.prevNet = newPrev
	return out
}

// saturatingSub computes a-b, clamped to 0 when b > a (a counter reset or
// wraparound), matching original_source's u64::saturating_sub.
func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
