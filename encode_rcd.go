package svcctl

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// encoderRcd renders FreeBSD-style rc.d scripts and service/sysrc command
// plans. Scripts wrap the program in /usr/sbin/daemon so the rc framework
// gets a pidfile and optional respawn; control goes through the one* verbs,
// which work regardless of the rc.conf enable flag. System scope only.
type encoderRcd struct {
	cfg *BackendConfig
}

// service onestatus exit codes
const (
	rcdExitRunning = 0
	rcdExitStopped = 1
)

// rcdVarName maps a service name onto a legal shell variable prefix
func rcdVarName(name string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}

func (e *encoderRcd) artifactPath(name string, level Level) (string, error) {
	dir, err := e.cfg.levelDir(level)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (e *encoderRcd) encode(d Descriptor) (*Artifact, []Invocation, error) {
	path, err := e.artifactPath(d.Name, d.Level)
	if err != nil {
		return nil, nil, err
	}

	rcvar := rcdVarName(d.Name)
	pidfile := "/var/run/" + d.Name + ".pid"

	// daemon supervises the child: -P tracks the supervisor pidfile when
	// respawn is on, -p tracks the child directly when it is not
	daemonArgs := []string{}
	if d.Restart == RestartNever {
		daemonArgs = append(daemonArgs, "-p", pidfile)
	} else {
		daemonArgs = append(daemonArgs, "-P", pidfile, "-r")
	}
	daemonArgs = append(daemonArgs, "-t", d.Name, d.Program)
	daemonArgs = append(daemonArgs, d.Args...)

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("#\n")
	fmt.Fprintf(&b, "# PROVIDE: %s\n", d.Name)
	require := "LOGIN FILESYSTEMS"
	if len(d.Dependencies) > 0 {
		require += " " + strings.Join(d.Dependencies, " ")
	}
	fmt.Fprintf(&b, "# REQUIRE: %s\n", require)
	b.WriteString("# KEYWORD: shutdown\n\n")
	b.WriteString(". /etc/rc.subr\n\n")
	fmt.Fprintf(&b, "name=%s\n", posixDoubleQuote(d.Name))
	fmt.Fprintf(&b, "rcvar=%s\n\n", posixDoubleQuote(rcvar+"_enable"))
	b.WriteString("load_rc_config $name\n\n")
	fmt.Fprintf(&b, ": ${%s_enable:=\"NO\"}\n\n", rcvar)
	fmt.Fprintf(&b, "pidfile=%s\n", posixDoubleQuote(pidfile))
	b.WriteString("command=\"/usr/sbin/daemon\"\n")
	fmt.Fprintf(&b, "command_args=%s\n", posixDoubleQuote(posixJoin(daemonArgs)))
	if d.WorkingDirectory != "" {
		fmt.Fprintf(&b, "%s_chdir=%s\n", rcvar, posixDoubleQuote(d.WorkingDirectory))
	}
	if len(d.Environment) > 0 {
		b.WriteString("\n")
		for _, key := range envKeys(d.Environment) {
			fmt.Fprintf(&b, "export %s=%s\n", key, posixDoubleQuote(d.Environment[key]))
		}
	}
	b.WriteString("\nrun_rc_command \"$1\"\n")

	var post []Invocation
	if d.Autostart {
		post = append(post, e.sysrc(rcvar+"_enable=YES"))
	}
	return &Artifact{Path: path, Data: []byte(b.String()), Mode: ExecMode}, post, nil
}

// sysrc builds an rc.conf edit invocation
func (e *encoderRcd) sysrc(assignment string) Invocation {
	return Invocation{Path: e.cfg.UpdatePath, Args: []string{assignment}}
}

func (e *encoderRcd) uninstallCommands(name string, _ Level) []Invocation {
	// drop the enable flag so rc.conf does not accumulate stale entries
	inv := Invocation{
		Path:         e.cfg.UpdatePath,
		Args:         []string{"-x", rcdVarName(name) + "_enable"},
		BenignOutput: []string{"unknown variable"},
	}
	return []Invocation{inv}
}

func (e *encoderRcd) controlCommand(op Operation, name string, _ Level) (Invocation, error) {
	switch op {
	case OpStart:
		return Invocation{
			Path:         e.cfg.CtlPath,
			Args:         []string{name, "onestart"},
			BenignOutput: []string{"already running"},
		}, nil
	case OpStop:
		return Invocation{
			Path:         e.cfg.CtlPath,
			Args:         []string{name, "onestop"},
			BenignOutput: []string{"not running"},
		}, nil
	case OpEnable:
		return e.sysrc(rcdVarName(name) + "_enable=YES"), nil
	case OpDisable:
		return e.sysrc(rcdVarName(name) + "_enable=NO"), nil
	default:
		return Invocation{}, fmt.Errorf("%w: %s for %s", ErrUnsupported, op, e.cfg.Kind)
	}
}

func (e *encoderRcd) statusCommand(name string, _ Level) (Invocation, error) {
	return Invocation{
		Path:    e.cfg.CtlPath,
		Args:    []string{name, "onestatus"},
		OKCodes: []int{rcdExitRunning, rcdExitStopped},
	}, nil
}

func (e *encoderRcd) parseStatus(res Result) (State, error) {
	switch res.ExitCode {
	case rcdExitRunning:
		return StateRunning, nil
	case rcdExitStopped:
		return StateStopped, nil
	default:
		return StateUnknown, nil
	}
}

func (e *encoderRcd) classify(err error) error {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	stderr := strings.ToLower(cmdErr.Stderr)
	switch {
	case strings.Contains(stderr, "does not exist"),
		strings.Contains(stderr, "unknown directive"):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case strings.Contains(stderr, "permission denied"),
		strings.Contains(stderr, "must be root"):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	default:
		return err
	}
}
