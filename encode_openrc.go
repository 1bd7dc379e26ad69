package svcctl

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// encoderOpenRC renders OpenRC init scripts and rc-service/rc-update command
// plans. OpenRC is system-scope only; scripts land in /etc/init.d and are
// picked up without a registration step.
type encoderOpenRC struct {
	cfg *BackendConfig
}

// rc-service status exit codes
const (
	openrcExitRunning = 0
	openrcExitStopped = 3
	openrcExitCrashed = 32
)

func (e *encoderOpenRC) artifactPath(name string, level Level) (string, error) {
	dir, err := e.cfg.levelDir(level)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (e *encoderOpenRC) encode(d Descriptor) (*Artifact, []Invocation, error) {
	path, err := e.artifactPath(d.Name, d.Level)
	if err != nil {
		return nil, nil, err
	}

	var b strings.Builder
	b.WriteString("#!/sbin/openrc-run\n\n")
	fmt.Fprintf(&b, "name=%s\n", posixDoubleQuote(d.Name))
	fmt.Fprintf(&b, "command=%s\n", posixDoubleQuote(d.Program))
	if len(d.Args) > 0 {
		fmt.Fprintf(&b, "command_args=%s\n", posixDoubleQuote(posixJoin(d.Args)))
	}
	if d.WorkingDirectory != "" {
		fmt.Fprintf(&b, "directory=%s\n", posixDoubleQuote(d.WorkingDirectory))
	}
	if d.Restart == RestartNever {
		b.WriteString("command_background=true\n")
		fmt.Fprintf(&b, "pidfile=%s\n", posixDoubleQuote("/run/"+d.Name+".pid"))
	} else {
		// supervise-daemon respawns the process when it dies
		b.WriteString("supervisor=supervise-daemon\n")
	}

	if len(d.Environment) > 0 {
		b.WriteString("\n")
		for _, key := range envKeys(d.Environment) {
			fmt.Fprintf(&b, "export %s=%s\n", key, posixDoubleQuote(d.Environment[key]))
		}
	}

	if len(d.Dependencies) > 0 {
		b.WriteString("\ndepend() {\n")
		fmt.Fprintf(&b, "\tafter %s\n", strings.Join(d.Dependencies, " "))
		b.WriteString("}\n")
	}

	var post []Invocation
	if d.Autostart {
		post = append(post, e.enableCommand(d.Name))
	}
	return &Artifact{Path: path, Data: []byte(b.String()), Mode: ExecMode}, post, nil
}

// enableCommand registers the script in the configured runlevel
func (e *encoderOpenRC) enableCommand(name string) Invocation {
	return Invocation{
		Path:         e.cfg.UpdatePath,
		Args:         []string{"add", name, e.cfg.Runlevel},
		BenignOutput: []string{"already installed"},
	}
}

func (e *encoderOpenRC) uninstallCommands(name string, _ Level) []Invocation {
	return []Invocation{{
		Path:         e.cfg.UpdatePath,
		Args:         []string{"del", name, e.cfg.Runlevel},
		BenignOutput: []string{"is not in the runlevel", "not found in runlevel"},
	}}
}

func (e *encoderOpenRC) controlCommand(op Operation, name string, _ Level) (Invocation, error) {
	switch op {
	case OpStart:
		return Invocation{Path: e.cfg.CtlPath, Args: []string{name, "start"}}, nil
	case OpStop:
		return Invocation{Path: e.cfg.CtlPath, Args: []string{name, "stop"}}, nil
	case OpEnable:
		return e.enableCommand(name), nil
	case OpDisable:
		return Invocation{
			Path:         e.cfg.UpdatePath,
			Args:         []string{"del", name, e.cfg.Runlevel},
			BenignOutput: []string{"is not in the runlevel", "not found in runlevel"},
		}, nil
	default:
		return Invocation{}, fmt.Errorf("%w: %s for %s", ErrUnsupported, op, e.cfg.Kind)
	}
}

func (e *encoderOpenRC) statusCommand(name string, _ Level) (Invocation, error) {
	return Invocation{
		Path:    e.cfg.CtlPath,
		Args:    []string{name, "status"},
		OKCodes: []int{openrcExitRunning, openrcExitStopped, openrcExitCrashed},
	}, nil
}

func (e *encoderOpenRC) parseStatus(res Result) (State, error) {
	switch res.ExitCode {
	case openrcExitRunning:
		return StateRunning, nil
	case openrcExitStopped, openrcExitCrashed:
		return StateStopped, nil
	default:
		return StateUnknown, nil
	}
}

func (e *encoderOpenRC) classify(err error) error {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	stderr := strings.ToLower(cmdErr.Stderr)
	switch {
	case strings.Contains(stderr, "does not exist"):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case strings.Contains(stderr, "permission denied"),
		strings.Contains(stderr, "superuser access required"):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	default:
		return err
	}
}
