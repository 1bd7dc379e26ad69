package svcctl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"howett.net/plist"
)

// encoderLaunchd renders launchd property lists and launchctl command plans.
// Install only writes the plist; loading a RunAtLoad job would start it, so
// registration with launchd happens on start (load) and stop (unload), the
// way launch agents are conventionally managed.
type encoderLaunchd struct {
	cfg *BackendConfig
}

// launchdJob mirrors the property-list schema for one launchd job
type launchdJob struct {
	Label                string            `plist:"Label"`
	ProgramArguments     []string          `plist:"ProgramArguments"`
	WorkingDirectory     string            `plist:"WorkingDirectory,omitempty"`
	EnvironmentVariables map[string]string `plist:"EnvironmentVariables,omitempty"`
	RunAtLoad            bool              `plist:"RunAtLoad"`
	KeepAlive            any               `plist:"KeepAlive,omitempty"`
}

func (e *encoderLaunchd) artifactPath(name string, level Level) (string, error) {
	dir, err := e.cfg.levelDir(level)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".plist"), nil
}

// domainTarget renders the launchctl domain for enable/disable
func (e *encoderLaunchd) domainTarget(name string, level Level) string {
	if level == LevelUser {
		return "gui/" + strconv.Itoa(os.Getuid()) + "/" + name
	}
	return "system/" + name
}

// keepAliveValue maps the restart policy onto launchd's KeepAlive key
func keepAliveValue(p RestartPolicy) any {
	switch p {
	case RestartAlways:
		return true
	case RestartOnFailure:
		return map[string]bool{"SuccessfulExit": false}
	default:
		return nil
	}
}

func (e *encoderLaunchd) encode(d Descriptor) (*Artifact, []Invocation, error) {
	path, err := e.artifactPath(d.Name, d.Level)
	if err != nil {
		return nil, nil, err
	}

	job := launchdJob{
		Label:                d.Name,
		ProgramArguments:     append([]string{d.Program}, d.Args...),
		WorkingDirectory:     d.WorkingDirectory,
		EnvironmentVariables: d.Environment,
		RunAtLoad:            d.Autostart,
		KeepAlive:            keepAliveValue(d.Restart),
	}
	data, err := plist.MarshalIndent(job, plist.XMLFormat, "\t")
	if err != nil {
		return nil, nil, fmt.Errorf("svcctl: serializing plist: %w", err)
	}

	return &Artifact{Path: path, Data: data, Mode: FileMode}, nil, nil
}

// loadCommand builds a launchctl load/unload invocation for the plist path
func (e *encoderLaunchd) loadCommand(verb, name string, level Level) (Invocation, error) {
	path, err := e.artifactPath(name, level)
	if err != nil {
		return Invocation{}, err
	}
	inv := Invocation{Path: e.cfg.CtlPath, Args: []string{verb, path}}
	switch verb {
	case "load":
		inv.BenignOutput = []string{"already loaded"}
	case "unload":
		inv.BenignOutput = []string{"Could not find specified service", "not currently loaded"}
	}
	return inv, nil
}

func (e *encoderLaunchd) uninstallCommands(name string, level Level) []Invocation {
	unload, err := e.loadCommand("unload", name, level)
	if err != nil {
		return nil
	}
	return []Invocation{unload}
}

func (e *encoderLaunchd) controlCommand(op Operation, name string, level Level) (Invocation, error) {
	switch op {
	case OpStart:
		return e.loadCommand("load", name, level)
	case OpStop:
		return e.loadCommand("unload", name, level)
	case OpEnable:
		return Invocation{
			Path: e.cfg.CtlPath,
			Args: []string{"enable", e.domainTarget(name, level)},
		}, nil
	case OpDisable:
		return Invocation{
			Path: e.cfg.CtlPath,
			Args: []string{"disable", e.domainTarget(name, level)},
		}, nil
	default:
		return Invocation{}, fmt.Errorf("%w: %s for %s", ErrUnsupported, op, e.cfg.Kind)
	}
}

func (e *encoderLaunchd) statusCommand(name string, _ Level) (Invocation, error) {
	// launchctl list exits non-zero for a job that is not loaded; the facade
	// has already ruled out a missing artifact by then, so those exits mean
	// installed-but-stopped
	return Invocation{
		Path:    e.cfg.CtlPath,
		Args:    []string{"list", name},
		OKCodes: []int{0, 1, 113},
	}, nil
}

func (e *encoderLaunchd) parseStatus(res Result) (State, error) {
	if res.ExitCode != 0 {
		return StateStopped, nil
	}
	if strings.Contains(string(res.Stdout), `"PID" =`) {
		return StateRunning, nil
	}
	return StateStopped, nil
}

func (e *encoderLaunchd) classify(err error) error {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	switch {
	case strings.Contains(cmdErr.Stderr, "Could not find"):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case strings.Contains(cmdErr.Stderr, "Operation not permitted"),
		strings.Contains(cmdErr.Stderr, "not privileged"):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	default:
		return err
	}
}
