package inventory

import (
	"context"
	"testing"

	"github.com/massvision/reap3r/internal/transport"
)

type stubProvider struct {
	os       transport.OSInfo
	hardware transport.HardwareInfo
}

func (s stubProvider) CollectOS(context.Context) transport.OSInfo             { return s.os }
func (s stubProvider) CollectHardware(context.Context) transport.HardwareInfo { return s.hardware }
func (s stubProvider) CollectNetworkConfig(context.Context) []transport.NetworkConfig {
	return nil
}

func TestAssemblerComposesAllSections(t *testing.T) {
	stub := stubProvider{os: transport.OSInfo{Hostname: "box1"}}
	a := &Assembler{
		OS:            stub,
		Hardware:      stub,
		Software:      emptyProvider{},
		Services:      emptyProvider{},
		Users:         emptyProvider{},
		NetworkConfig: stub,
	}
	snap := a.Collect(context.Background())
	if snap.OS.Hostname != "box1" {
		t.Fatalf("OS.Hostname = %q, want box1", snap.OS.Hostname)
	}
	if snap.Timestamp == 0 {
		t.Fatal("Timestamp should be set")
	}
	if snap.Software != nil || snap.Services != nil || snap.Users != nil {
		t.Fatal("empty providers should yield nil sections, not errors")
	}
}

func TestOSTypeMapping(t *testing.T) {
	if got := osType(); got == "" {
		t.Fatal("osType() should never be empty")
	}
}
