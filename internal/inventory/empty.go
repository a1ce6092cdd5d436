package inventory

import (
	"context"

	"github.com/massvision/reap3r/internal/transport"
)

// emptyProvider backs every section with no platform-specific implementation,
// per SPEC_FULL.md §4.D's "provider failure yields an empty result" rule —
// here the failure is "not implemented on this platform" rather than a
// runtime error, but the contract is identical.
type emptyProvider struct{}

func (emptyProvider) CollectSoftware(context.Context) []transport.InstalledSoftware { return nil }
func (emptyProvider) CollectServices(context.Context) []transport.ServiceInfo       { return nil }
func (emptyProvider) CollectUsers(context.Context) []transport.LocalUser            { return nil }
