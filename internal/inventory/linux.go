//go:build linux

package inventory

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/massvision/reap3r/internal/transport"
)

func platformSoftwareProvider() SoftwareProvider { return linuxProvider{} }
func platformServiceProvider() ServiceProvider   { return linuxProvider{} }
func platformUserProvider() UserProvider         { return linuxProvider{} }

type linuxProvider struct{}

// CollectServices shells out to systemctl, matching original_source's
// linux_inventory::collect_services exactly (same flags, same column
// parsing, same running/exited-or-dead/unknown status mapping).
func (linuxProvider) CollectServices(ctx context.Context) []transport.ServiceInfo {
	out, err := exec.CommandContext(ctx, "systemctl",
		"list-units", "--type=service", "--all", "--no-pager", "--plain", "--no-legend").Output()
	if err != nil {
		return nil
	}
	var services []transport.ServiceInfo
	for _, line := range strings.Split(string(out), "\n") {
		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}
		var status string
		switch parts[3] {
		case "running":
			status = "running"
		case "exited", "dead":
			status = "stopped"
		default:
			status = "unknown"
		}
		name := strings.TrimSuffix(parts[0], ".service")
		services = append(services, transport.ServiceInfo{
			Name:        name,
			DisplayName: name,
			Status:      status,
			StartType:   "unknown",
		})
	}
	return services
}

// CollectSoftware shells out to dpkg-query, matching original_source.
func (linuxProvider) CollectSoftware(ctx context.Context) []transport.InstalledSoftware {
	out, err := exec.CommandContext(ctx, "dpkg-query", "-W", "-f=${Package}\t${Version}\t${Maintainer}\n").Output()
	if err != nil {
		return nil
	}
	var software []transport.InstalledSoftware
	for _, line := range strings.Split(string(out), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		var publisher string
		if len(parts) > 2 {
			publisher = parts[2]
		}
		software = append(software, transport.InstalledSoftware{
			Name:      parts[0],
			Version:   parts[1],
			Publisher: publisher,
		})
	}
	return software
}

// CollectUsers shells out to getent passwd, keeping only uid>=1000 or uid==0
// (root), matching original_source's filter exactly.
func (linuxProvider) CollectUsers(ctx context.Context) []transport.LocalUser {
	out, err := exec.CommandContext(ctx, "getent", "passwd").Output()
	if err != nil {
		return nil
	}
	var users []transport.LocalUser
	for _, line := range strings.Split(string(out), "\n") {
		parts := strings.Split(line, ":")
		if len(parts) < 7 {
			continue
		}
		uid, err := strconv.ParseUint(parts[2], 10, 32)
		if err != nil {
			uid = 65534
		}
		if uid != 0 && uid < 1000 {
			continue
		}
		var fullName string
		if len(parts) > 4 && parts[4] != "" {
			fullName = strings.SplitN(parts[4], ",", 2)[0]
		}
		shell := parts[6]
		users = append(users, transport.LocalUser{
			Username: parts[0],
			FullName: fullName,
			IsAdmin:  uid == 0,
			IsActive: !strings.Contains(shell, "nologin") && !strings.Contains(shell, "false"),
		})
	}
	return users
}
