//go:build windows

package inventory

import (
	"context"

	"golang.org/x/sys/windows/registry"

	"github.com/massvision/reap3r/internal/transport"
)

func platformSoftwareProvider() SoftwareProvider { return windowsProvider{} }
func platformServiceProvider() ServiceProvider   { return emptyProvider{} }
func platformUserProvider() UserProvider         { return emptyProvider{} }

type windowsProvider struct{}

// CollectSoftware walks HKLM\...\Uninstall, matching original_source's
// windows_inventory::collect_software.
func (windowsProvider) CollectSoftware(ctx context.Context) []transport.InstalledSoftware {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE,
		`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`, registry.ENUMERATE_SUB_KEYS|registry.READ)
	if err != nil {
		return nil
	}
	defer key.Close()

	names, err := key.ReadSubKeyNames(-1)
	if err != nil {
		return nil
	}

	var software []transport.InstalledSoftware
	for _, name := range names {
		sub, err := registry.OpenKey(registry.LOCAL_MACHINE,
			`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\`+name, registry.READ)
		if err != nil {
			continue
		}
		displayName, _, _ := sub.GetStringValue("DisplayName")
		if displayName == "" {
			sub.Close()
			continue
		}
		version, _, _ := sub.GetStringValue("DisplayVersion")
		publisher, _, _ := sub.GetStringValue("Publisher")
		installDate, _, _ := sub.GetStringValue("InstallDate")
		estimatedSizeKB, _, _ := sub.GetIntegerValue("EstimatedSize")
		sub.Close()

		software = append(software, transport.InstalledSoftware{
			Name:        displayName,
			Version:     version,
			Publisher:   publisher,
			InstallDate: installDate,
			SizeBytes:   estimatedSizeKB * 1024,
		})
	}
	return software
}
