package svcctl

import (
	"errors"
	"fmt"
	"strings"
)

// encoderSc drives native Windows service registration through sc.exe. There
// is no file artifact: the registry entry created by `sc create` is the
// durable state, so install and uninstall are pure command plans.
type encoderSc struct {
	cfg *BackendConfig
}

// Windows service control exit codes
const (
	scExitAccessDenied   = 5
	scExitAlreadyRunning = 1056
	scExitNotFound       = 1060
	scExitNotActive      = 1062
)

// scRestartActions is the failure-action triple applied when the restart
// policy asks for respawn: restart after five seconds, three times per reset
// window
const scRestartActions = "restart/5000/restart/5000/restart/5000"

func (e *encoderSc) artifactPath(_ string, _ Level) (string, error) {
	return "", nil
}

func (e *encoderSc) encode(d Descriptor) (*Artifact, []Invocation, error) {
	if d.Level == LevelUser {
		return nil, nil, fmt.Errorf("%w: %s has no user-level scope", ErrUnsupported, e.cfg.Kind)
	}
	// the service control manager offers no per-service environment or
	// working directory; surface the conflict instead of dropping fields
	if len(d.Environment) > 0 {
		return nil, nil, fmt.Errorf("%w: %s cannot set environment variables", ErrUnsupported, e.cfg.Kind)
	}
	if d.WorkingDirectory != "" {
		return nil, nil, fmt.Errorf("%w: %s cannot set a working directory", ErrUnsupported, e.cfg.Kind)
	}

	start := "demand"
	if d.Autostart {
		start = "auto"
	}
	args := []string{"create", d.Name, "binPath=", windowsJoin(d.Program, d.Args), "start=", start}
	if len(d.Dependencies) > 0 {
		args = append(args, "depend=", strings.Join(d.Dependencies, "/"))
	}

	cmds := []Invocation{{Path: e.cfg.CtlPath, Args: args}}
	if d.Restart != RestartNever {
		cmds = append(cmds, Invocation{
			Path: e.cfg.CtlPath,
			Args: []string{"failure", d.Name, "reset=", "0", "actions=", scRestartActions},
		})
	}
	return nil, cmds, nil
}

func (e *encoderSc) uninstallCommands(name string, _ Level) []Invocation {
	return []Invocation{{Path: e.cfg.CtlPath, Args: []string{"delete", name}}}
}

func (e *encoderSc) controlCommand(op Operation, name string, _ Level) (Invocation, error) {
	switch op {
	case OpStart:
		return Invocation{
			Path:    e.cfg.CtlPath,
			Args:    []string{"start", name},
			OKCodes: []int{0, scExitAlreadyRunning},
		}, nil
	case OpStop:
		return Invocation{
			Path:    e.cfg.CtlPath,
			Args:    []string{"stop", name},
			OKCodes: []int{0, scExitNotActive},
		}, nil
	case OpEnable:
		return Invocation{Path: e.cfg.CtlPath, Args: []string{"config", name, "start=", "auto"}}, nil
	case OpDisable:
		return Invocation{Path: e.cfg.CtlPath, Args: []string{"config", name, "start=", "demand"}}, nil
	default:
		return Invocation{}, fmt.Errorf("%w: %s for %s", ErrUnsupported, op, e.cfg.Kind)
	}
}

func (e *encoderSc) statusCommand(name string, _ Level) (Invocation, error) {
	return Invocation{
		Path:    e.cfg.CtlPath,
		Args:    []string{"query", name},
		OKCodes: []int{0, scExitNotFound},
	}, nil
}

func (e *encoderSc) parseStatus(res Result) (State, error) {
	if res.ExitCode == scExitNotFound {
		return StateUnknown, ErrNotFound
	}
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		if !strings.Contains(line, "STATE") {
			continue
		}
		switch {
		case strings.Contains(line, "RUNNING"):
			return StateRunning, nil
		case strings.Contains(line, "STOPPED"):
			return StateStopped, nil
		case strings.Contains(line, "PENDING"):
			return StateUnknown, nil
		}
	}
	return StateUnknown, nil
}

func (e *encoderSc) classify(err error) error {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	switch cmdErr.ExitCode {
	case scExitNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case scExitAccessDenied:
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	if strings.Contains(cmdErr.Stderr, "Access is denied") {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return err
}
