package svcctl

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Detector probes the host for an available service management backend.
// Probing is read-only: a PATH lookup for the backend's control binary plus,
// for backends that load configuration from a directory tree, a check that
// the directory exists. The probe functions are injectable so detection is
// testable on hosts that have none of the backends.
type Detector struct {
	goos     string
	lookPath func(file string) (string, error)
	stat     func(name string) (os.FileInfo, error)
}

// DetectorOption configures a Detector
type DetectorOption func(*Detector)

// WithGOOS overrides the platform whose candidate order is probed
func WithGOOS(goos string) DetectorOption {
	return func(d *Detector) {
		d.goos = goos
	}
}

// WithLookPath overrides executable resolution
func WithLookPath(fn func(file string) (string, error)) DetectorOption {
	return func(d *Detector) {
		d.lookPath = fn
	}
}

// WithStat overrides filesystem probing
func WithStat(fn func(name string) (os.FileInfo, error)) DetectorOption {
	return func(d *Detector) {
		d.stat = fn
	}
}

// NewDetector creates a Detector for the current host
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		stat:     os.Stat,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// candidates returns the probe order for the detector's platform
func (d *Detector) candidates() []Kind {
	switch d.goos {
	case "linux":
		return []Kind{KindSystemd, KindOpenRC, KindRcd}
	case "darwin":
		return []Kind{KindLaunchd}
	case "windows":
		return []Kind{KindSc, KindWinSW}
	case "freebsd", "netbsd", "openbsd", "dragonfly":
		return []Kind{KindRcd}
	default:
		return nil
	}
}

// Detect probes the platform's candidate backends in order and returns the
// first available one as a configuration with its control binary resolved.
// It fails with ErrNoBackendAvailable when no candidate probes successfully.
func (d *Detector) Detect(ctx context.Context) (*BackendConfig, error) {
	for _, kind := range d.candidates() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cfg, err := d.resolve(kind)
		if err != nil {
			logger.Debugf("backend %s unavailable: %v", kind, err)
			continue
		}
		logger.Debugf("detected backend %s via %s", kind, cfg.CtlPath)
		return cfg, nil
	}
	return nil, fmt.Errorf("%w on %s", ErrNoBackendAvailable, d.goos)
}

// DetectKind resolves one specific backend, bypassing the platform probe
// order. It fails with ErrNotFound when that backend is not present on the
// host.
func (d *Detector) DetectKind(ctx context.Context, kind Kind) (*BackendConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg, err := d.resolve(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return cfg, nil
}

// resolve builds the default configuration for a kind and binds it to the
// probed binary locations
func (d *Detector) resolve(kind Kind) (*BackendConfig, error) {
	cfg, err := ConfigForKind(kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindSystemd:
		path, err := d.lookPath("systemctl")
		if err != nil {
			return nil, fmt.Errorf("systemctl not on PATH: %w", err)
		}
		// systemctl can exist on hosts booted with another init; the
		// directory is only present when systemd is PID 1
		if _, err := d.stat("/run/systemd/system"); err != nil {
			return nil, fmt.Errorf("host not booted with systemd: %w", err)
		}
		cfg.CtlPath = path

	case KindOpenRC:
		path, err := d.lookPath("rc-service")
		if err != nil {
			return nil, fmt.Errorf("rc-service not on PATH: %w", err)
		}
		cfg.CtlPath = path
		if upd, err := d.lookPath("rc-update"); err == nil {
			cfg.UpdatePath = upd
		}

	case KindRcd:
		path, err := d.lookPath("service")
		if err != nil {
			return nil, fmt.Errorf("service not on PATH: %w", err)
		}
		dir, err := d.rcdScriptDir(cfg.SystemDir)
		if err != nil {
			return nil, err
		}
		cfg.CtlPath = path
		cfg.SystemDir = dir
		if upd, err := d.lookPath("sysrc"); err == nil {
			cfg.UpdatePath = upd
		}

	case KindLaunchd:
		path, err := d.lookPath("launchctl")
		if err != nil {
			return nil, fmt.Errorf("launchctl not on PATH: %w", err)
		}
		cfg.CtlPath = path

	case KindSc:
		path, err := d.lookPath("sc.exe")
		if err != nil {
			if path, err = d.lookPath("sc"); err != nil {
				return nil, fmt.Errorf("sc not on PATH: %w", err)
			}
		}
		cfg.CtlPath = path

	case KindWinSW:
		if env := os.Getenv("WINSW_PATH"); env != "" {
			path, err := d.lookPath(env)
			if err != nil {
				return nil, fmt.Errorf("WINSW_PATH %s: %w", env, err)
			}
			cfg.CtlPath = path
			break
		}
		path, err := d.lookPath("winsw.exe")
		if err != nil {
			if path, err = d.lookPath("winsw"); err != nil {
				return nil, fmt.Errorf("winsw not on PATH: %w", err)
			}
		}
		cfg.CtlPath = path

	default:
		return nil, fmt.Errorf("svcctl: unsupported backend kind: %v", kind)
	}

	return cfg, nil
}

// rcdScriptDir probes the conventional rc.d script directories, preferring
// the ports location over the base system one
func (d *Detector) rcdScriptDir(preferred string) (string, error) {
	for _, dir := range []string{preferred, "/etc/rc.d"} {
		if dir == "" {
			continue
		}
		if info, err := d.stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no rc.d script directory present")
}

// Detect probes the current host with default settings. See Detector.Detect.
func Detect(ctx context.Context) (*BackendConfig, error) {
	return NewDetector().Detect(ctx)
}

// DetectKind resolves a specific backend on the current host with default
// settings. See Detector.DetectKind.
func DetectKind(ctx context.Context, kind Kind) (*BackendConfig, error) {
	return NewDetector().DetectKind(ctx, kind)
}
