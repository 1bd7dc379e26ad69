package svcctl

import (
	"fmt"
	"time"
)

// Kind identifies a native service-management backend
type Kind int

const (
	// KindUnknown represents an unrecognized backend
	KindUnknown Kind = iota
	// KindSystemd represents systemd unit management via systemctl
	KindSystemd
	// KindOpenRC represents OpenRC init scripts via rc-service/rc-update
	KindOpenRC
	// KindRcd represents BSD rc.d scripts via the service wrapper
	KindRcd
	// KindLaunchd represents launchd property lists via launchctl
	KindLaunchd
	// KindSc represents native Windows service registration via sc.exe
	KindSc
	// KindWinSW represents the WinSW wrapper service via winsw.exe
	KindWinSW
)

// Kind string constants
const (
	kindUnknownStr = "unknown"
	kindSystemdStr = "systemd"
	kindOpenRCStr  = "openrc"
	kindRcdStr     = "rcd"
	kindLaunchdStr = "launchd"
	kindScStr      = "sc"
	kindWinSWStr   = "winsw"
)

// String returns the string representation of a Kind
func (k Kind) String() string {
	switch k {
	case KindSystemd:
		return kindSystemdStr
	case KindOpenRC:
		return kindOpenRCStr
	case KindRcd:
		return kindRcdStr
	case KindLaunchd:
		return kindLaunchdStr
	case KindSc:
		return kindScStr
	case KindWinSW:
		return kindWinSWStr
	case KindUnknown:
		fallthrough
	default:
		return kindUnknownStr
	}
}

// ParseKind converts a backend name into a Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case kindSystemdStr:
		return KindSystemd, nil
	case kindOpenRCStr:
		return KindOpenRC, nil
	case kindRcdStr:
		return KindRcd, nil
	case kindLaunchdStr:
		return KindLaunchd, nil
	case kindScStr:
		return KindSc, nil
	case kindWinSWStr:
		return KindWinSW, nil
	default:
		return KindUnknown, fmt.Errorf("svcctl: unknown backend kind %q", s)
	}
}

// Level is the installation scope of a service
type Level int

const (
	// LevelSystem installs the service machine-wide; requires elevation
	LevelSystem Level = iota
	// LevelUser installs the service for the calling user only
	LevelUser
)

// Level string constants
const (
	levelSystemStr = "system"
	levelUserStr   = "user"
)

// String returns the string representation of a Level
func (l Level) String() string {
	switch l {
	case LevelUser:
		return levelUserStr
	default:
		return levelSystemStr
	}
}

// ParseLevel converts an install-level name into a Level
func ParseLevel(s string) (Level, error) {
	switch s {
	case levelSystemStr:
		return LevelSystem, nil
	case levelUserStr:
		return LevelUser, nil
	default:
		return LevelSystem, fmt.Errorf("svcctl: unknown install level %q", s)
	}
}

// RestartPolicy describes when the backend should restart the service
type RestartPolicy int

const (
	// RestartNever leaves the service down once it exits
	RestartNever RestartPolicy = iota
	// RestartOnFailure restarts the service only after an unclean exit
	RestartOnFailure
	// RestartAlways restarts the service whenever it exits
	RestartAlways
)

// RestartPolicy string constants
const (
	restartNeverStr     = "never"
	restartOnFailureStr = "on-failure"
	restartAlwaysStr    = "always"
)

// String returns the string representation of a RestartPolicy
func (r RestartPolicy) String() string {
	switch r {
	case RestartOnFailure:
		return restartOnFailureStr
	case RestartAlways:
		return restartAlwaysStr
	default:
		return restartNeverStr
	}
}

// ParseRestartPolicy converts a policy name into a RestartPolicy
func ParseRestartPolicy(s string) (RestartPolicy, error) {
	switch s {
	case restartNeverStr:
		return RestartNever, nil
	case restartOnFailureStr:
		return RestartOnFailure, nil
	case restartAlwaysStr:
		return RestartAlways, nil
	default:
		return RestartNever, fmt.Errorf("svcctl: unknown restart policy %q", s)
	}
}

// State represents the normalized run state of an installed service
type State int

const (
	// StateUnknown indicates the state could not be determined
	StateUnknown State = iota
	// StateRunning indicates the service is currently running
	StateRunning
	// StateStopped indicates the service is installed but not running
	StateStopped
)

// State string constants
const (
	stateUnknownStr = "unknown"
	stateRunningStr = "running"
	stateStoppedStr = "stopped"
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateRunning:
		return stateRunningStr
	case StateStopped:
		return stateStoppedStr
	default:
		return stateUnknownStr
	}
}

// Operation represents a facade operation type
type Operation int

const (
	// OpUnknown represents an unknown operation
	OpUnknown Operation = iota
	// OpInstall materializes a descriptor into the backend's config store
	OpInstall
	// OpUninstall removes a service from the backend's config store
	OpUninstall
	// OpStart starts an installed service
	OpStart
	// OpStop stops a running service
	OpStop
	// OpRestart stops and then starts a service
	OpRestart
	// OpEnable registers a service to start at boot or login
	OpEnable
	// OpDisable removes the boot/login registration
	OpDisable
	// OpStatus queries the current run state
	OpStatus
)

// Operation string constants
const (
	opUnknownStr   = "unknown"
	opInstallStr   = "install"
	opUninstallStr = "uninstall"
	opStartStr     = "start"
	opStopStr      = "stop"
	opRestartStr   = "restart"
	opEnableStr    = "enable"
	opDisableStr   = "disable"
	opStatusStr    = "status"
)

// String returns the string representation of an Operation
func (op Operation) String() string {
	switch op {
	case OpInstall:
		return opInstallStr
	case OpUninstall:
		return opUninstallStr
	case OpStart:
		return opStartStr
	case OpStop:
		return opStopStr
	case OpRestart:
		return opRestartStr
	case OpEnable:
		return opEnableStr
	case OpDisable:
		return opDisableStr
	case OpStatus:
		return opStatusStr
	default:
		return opUnknownStr
	}
}

// Control binary defaults that can be overridden through BackendConfig
const (
	// DefaultSystemctlPath is the default systemd control binary
	DefaultSystemctlPath = "systemctl"

	// DefaultRcServicePath is the default OpenRC control binary
	DefaultRcServicePath = "rc-service"

	// DefaultRcUpdatePath is the default OpenRC runlevel registration binary
	DefaultRcUpdatePath = "rc-update"

	// DefaultServicePath is the default BSD rc.d control wrapper
	DefaultServicePath = "service"

	// DefaultSysrcPath is the default FreeBSD rc.conf editing binary
	DefaultSysrcPath = "sysrc"

	// DefaultLaunchctlPath is the default launchd control binary
	DefaultLaunchctlPath = "launchctl"

	// DefaultScPath is the default Windows service control binary
	DefaultScPath = "sc.exe"

	// DefaultWinSWPath is the default WinSW wrapper binary
	DefaultWinSWPath = "winsw.exe"
)

// File modes
const (
	// DirMode is the default mode for created directories
	DirMode = 0o755

	// FileMode is the default mode for generated config artifacts
	FileMode = 0o644

	// ExecMode is the default mode for generated init scripts
	ExecMode = 0o755
)

// Timing defaults
const (
	// DefaultWaitInterval is the polling interval used by WaitForState
	DefaultWaitInterval = 100 * time.Millisecond

	// DefaultWatchDebounce is the debounce window for artifact watch events
	DefaultWatchDebounce = 25 * time.Millisecond

	// DefaultGroupTimeout is the per-operation timeout for bulk operations
	DefaultGroupTimeout = 30 * time.Second
)
