package svcctl

import (
	"fmt"
	"os"
	"path/filepath"
)

// BackendConfig carries the per-kind paths and binaries the encoders and the
// facade use. The constructors return platform-conventional defaults; every
// field can be overridden, which is how tests point the library at temp
// directories and fake binaries.
type BackendConfig struct {
	// Kind specifies which backend this configuration is for
	Kind Kind
	// CtlPath is the control binary (systemctl, rc-service, service,
	// launchctl, sc.exe, winsw.exe)
	CtlPath string
	// UpdatePath is the secondary registration binary used by backends
	// that separate control from autostart registration (rc-update for
	// OpenRC, sysrc for rc.d); empty when unused
	UpdatePath string
	// SystemDir is the system-scope artifact directory; empty for
	// backends with no file artifact
	SystemDir string
	// UserDir is the user-scope artifact directory; empty when the
	// backend has no user scope
	UserDir string
	// Runlevel is the OpenRC runlevel used for enable/disable
	Runlevel string
	// SupportedOps contains the set of supported operations
	SupportedOps map[Operation]struct{}
}

// allOperations returns a set with all facade operations enabled
func allOperations() map[Operation]struct{} {
	return map[Operation]struct{}{
		OpInstall:   {},
		OpUninstall: {},
		OpStart:     {},
		OpStop:      {},
		OpRestart:   {},
		OpEnable:    {},
		OpDisable:   {},
		OpStatus:    {},
	}
}

// IsOperationSupported checks if an operation is supported by this backend
func (c *BackendConfig) IsOperationSupported(op Operation) bool {
	_, ok := c.SupportedOps[op]
	return ok
}

// ConfigSystemd returns the default configuration for systemd
//
//nolint:revive // Clear naming for multiple config types
func ConfigSystemd() *BackendConfig {
	userDir := ""
	if cfg, err := os.UserConfigDir(); err == nil {
		userDir = filepath.Join(cfg, "systemd", "user")
	}
	return &BackendConfig{
		Kind:         KindSystemd,
		CtlPath:      DefaultSystemctlPath,
		SystemDir:    "/etc/systemd/system",
		UserDir:      userDir,
		SupportedOps: allOperations(),
	}
}

// ConfigOpenRC returns the default configuration for OpenRC
func ConfigOpenRC() *BackendConfig {
	return &BackendConfig{
		Kind:         KindOpenRC,
		CtlPath:      DefaultRcServicePath,
		UpdatePath:   DefaultRcUpdatePath,
		SystemDir:    "/etc/init.d",
		Runlevel:     "default",
		SupportedOps: allOperations(),
	}
}

// ConfigRcd returns the default configuration for BSD rc.d
func ConfigRcd() *BackendConfig {
	return &BackendConfig{
		Kind:         KindRcd,
		CtlPath:      DefaultServicePath,
		UpdatePath:   DefaultSysrcPath,
		SystemDir:    "/usr/local/etc/rc.d",
		SupportedOps: allOperations(),
	}
}

// ConfigLaunchd returns the default configuration for launchd
func ConfigLaunchd() *BackendConfig {
	userDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		userDir = filepath.Join(home, "Library", "LaunchAgents")
	}
	return &BackendConfig{
		Kind:         KindLaunchd,
		CtlPath:      DefaultLaunchctlPath,
		SystemDir:    "/Library/LaunchDaemons",
		UserDir:      userDir,
		SupportedOps: allOperations(),
	}
}

// ConfigSc returns the default configuration for Windows sc.exe. The service
// registry entry is the artifact, so no directories apply.
func ConfigSc() *BackendConfig {
	return &BackendConfig{
		Kind:         KindSc,
		CtlPath:      DefaultScPath,
		SupportedOps: allOperations(),
	}
}

// ConfigWinSW returns the default configuration for the WinSW wrapper.
// Enable and disable are not independent operations for WinSW; start mode is
// folded into the generated XML at install time.
func ConfigWinSW() *BackendConfig {
	systemDir := ""
	if pd := os.Getenv("ProgramData"); pd != "" {
		systemDir = filepath.Join(pd, "winsw")
	}
	ops := allOperations()
	delete(ops, OpEnable)
	delete(ops, OpDisable)
	return &BackendConfig{
		Kind:         KindWinSW,
		CtlPath:      DefaultWinSWPath,
		SystemDir:    systemDir,
		SupportedOps: ops,
	}
}

// ConfigForKind returns the default configuration for the given backend kind
func ConfigForKind(kind Kind) (*BackendConfig, error) {
	switch kind {
	case KindSystemd:
		return ConfigSystemd(), nil
	case KindOpenRC:
		return ConfigOpenRC(), nil
	case KindRcd:
		return ConfigRcd(), nil
	case KindLaunchd:
		return ConfigLaunchd(), nil
	case KindSc:
		return ConfigSc(), nil
	case KindWinSW:
		return ConfigWinSW(), nil
	default:
		return nil, fmt.Errorf("svcctl: unsupported backend kind: %v", kind)
	}
}
