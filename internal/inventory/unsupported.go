//go:build !linux && !windows

package inventory

func platformSoftwareProvider() SoftwareProvider { return emptyProvider{} }
func platformServiceProvider() ServiceProvider   { return emptyProvider{} }
func platformUserProvider() UserProvider         { return emptyProvider{} }
