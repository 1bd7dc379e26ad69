package svcctl

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"
)

// encoderSystemd renders systemd unit files and systemctl command plans.
// User scope maps to --user and the per-user unit directory; system scope
// maps to /etc/systemd/system.
type encoderSystemd struct {
	cfg *BackendConfig
}

// systemctl status exit codes
const (
	systemdExitRunning      = 0
	systemdExitStopped      = 3
	systemdExitNotInstalled = 4
)

// unitName appends the .service suffix systemctl expects
func (e *encoderSystemd) unitName(name string) string {
	return name + ".service"
}

// ctl builds a systemctl invocation, inserting --user for user scope
func (e *encoderSystemd) ctl(level Level, args ...string) Invocation {
	if level == LevelUser {
		args = append([]string{"--user"}, args...)
	}
	return Invocation{Path: e.cfg.CtlPath, Args: args}
}

func (e *encoderSystemd) artifactPath(name string, level Level) (string, error) {
	dir, err := e.cfg.levelDir(level)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, e.unitName(name)), nil
}

// restartValue maps the policy onto systemd's Restart= directive
func restartValue(p RestartPolicy) string {
	switch p {
	case RestartAlways:
		return "always"
	case RestartOnFailure:
		return "on-failure"
	default:
		return "no"
	}
}

func (e *encoderSystemd) encode(d Descriptor) (*Artifact, []Invocation, error) {
	path, err := e.artifactPath(d.Name, d.Level)
	if err != nil {
		return nil, nil, err
	}

	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", d.Name),
	}
	for _, dep := range d.Dependencies {
		opts = append(opts, unit.NewUnitOption("Unit", "After", dep+".service"))
	}

	if d.WorkingDirectory != "" {
		opts = append(opts, unit.NewUnitOption("Service", "WorkingDirectory", d.WorkingDirectory))
	}
	for _, key := range envKeys(d.Environment) {
		opts = append(opts, unit.NewUnitOption("Service", "Environment",
			systemdEnvironment(key, d.Environment[key])))
	}
	opts = append(opts, unit.NewUnitOption("Service", "ExecStart",
		systemdExecStart(d.Program, d.Args)))
	if d.Restart != RestartNever {
		opts = append(opts, unit.NewUnitOption("Service", "Restart", restartValue(d.Restart)))
	}

	// [Install] is always present so enable/disable work independently of
	// the autostart flag chosen at install time
	wantedBy := "multi-user.target"
	if d.Level == LevelUser {
		wantedBy = "default.target"
	}
	opts = append(opts, unit.NewUnitOption("Install", "WantedBy", wantedBy))

	data, err := io.ReadAll(unit.Serialize(opts))
	if err != nil {
		return nil, nil, fmt.Errorf("svcctl: serializing unit: %w", err)
	}

	post := []Invocation{e.ctl(d.Level, "daemon-reload")}
	if d.Autostart {
		post = append(post, e.ctl(d.Level, "enable", e.unitName(d.Name)))
	}
	return &Artifact{Path: path, Data: data, Mode: FileMode}, post, nil
}

func (e *encoderSystemd) uninstallCommands(name string, level Level) []Invocation {
	disable := e.ctl(level, "disable", e.unitName(name))
	disable.BenignOutput = []string{"does not exist", "not loaded"}
	return []Invocation{disable}
}

func (e *encoderSystemd) controlCommand(op Operation, name string, level Level) (Invocation, error) {
	var verb string
	switch op {
	case OpStart:
		verb = "start"
	case OpStop:
		verb = "stop"
	case OpEnable:
		verb = "enable"
	case OpDisable:
		verb = "disable"
	default:
		return Invocation{}, fmt.Errorf("%w: %s for %s", ErrUnsupported, op, e.cfg.Kind)
	}
	inv := e.ctl(level, verb, e.unitName(name))
	if op == OpStop {
		// stopping a unit systemd has never loaded is already-stopped
		inv.BenignOutput = []string{"not loaded"}
	}
	return inv, nil
}

func (e *encoderSystemd) statusCommand(name string, level Level) (Invocation, error) {
	inv := e.ctl(level, "status", e.unitName(name))
	inv.OKCodes = []int{systemdExitRunning, systemdExitStopped, systemdExitNotInstalled}
	return inv, nil
}

func (e *encoderSystemd) parseStatus(res Result) (State, error) {
	switch res.ExitCode {
	case systemdExitRunning:
		return StateRunning, nil
	case systemdExitStopped:
		return StateStopped, nil
	case systemdExitNotInstalled:
		return StateUnknown, ErrNotFound
	default:
		return StateUnknown, nil
	}
}

func (e *encoderSystemd) classify(err error) error {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	switch {
	case strings.Contains(cmdErr.Stderr, "Access denied"),
		strings.Contains(cmdErr.Stderr, "Permission denied"),
		strings.Contains(cmdErr.Stderr, "Interactive authentication required"):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case strings.Contains(cmdErr.Stderr, "does not exist"),
		strings.Contains(cmdErr.Stderr, "could not be found"):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return err
	}
}
