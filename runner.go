package svcctl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Invocation is a structured request for one external command: the binary,
// its arguments, and the exit codes that count as success. BenignOutput lists
// output substrings that convert an unexpected exit into success; backends
// use it to normalize "already running" and "already stopped" conditions.
type Invocation struct {
	// Path is the binary to invoke
	Path string
	// Args are the command arguments in order
	Args []string
	// OKCodes are the exit codes treated as success; empty means {0}
	OKCodes []int
	// BenignOutput lists stderr/stdout substrings treated as success even
	// when the exit code is outside OKCodes
	BenignOutput []string
}

// String renders the invocation as a shell-like command line for logging
func (inv Invocation) String() string {
	if len(inv.Args) == 0 {
		return inv.Path
	}
	return inv.Path + " " + strings.Join(inv.Args, " ")
}

// okExit reports whether the exit code is in the expected set
func (inv Invocation) okExit(code int) bool {
	if len(inv.OKCodes) == 0 {
		return code == 0
	}
	for _, ok := range inv.OKCodes {
		if code == ok {
			return true
		}
	}
	return false
}

// benign reports whether captured output matches a benign condition. Both
// streams are checked: service managers are inconsistent about which one
// carries their "already running" style warnings.
func (inv Invocation) benign(stdout, stderr []byte) bool {
	if len(inv.BenignOutput) == 0 {
		return false
	}
	text := string(stderr) + string(stdout)
	for _, substr := range inv.BenignOutput {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

// Result holds the captured outcome of a completed invocation
type Result struct {
	// ExitCode is the command's exit code (0 when the command succeeded)
	ExitCode int
	// Stdout is the captured standard output
	Stdout []byte
	// Stderr is the captured standard error
	Stderr []byte
}

// Runner executes invocations. Every external command the library issues
// funnels through a single Runner so outcome classification stays uniform
// across backends; tests substitute a scripted implementation.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// ExecRunner runs invocations with os/exec, capturing stdout and stderr.
// It imposes no timeout of its own; cancellation comes from the context.
type ExecRunner struct{}

// Run executes the invocation and classifies the outcome. Exit codes in the
// expected set, and benign stderr matches, return a nil error; anything else
// returns a *CommandError carrying the exit code and captured stderr. A
// missing binary maps to ErrNotFound before the command ever starts.
func (ExecRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Tracef("exec: %s", inv.String())
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case errors.Is(err, exec.ErrNotFound), os.IsNotExist(err):
		return res, fmt.Errorf("%w: %s", ErrNotFound, inv.Path)
	case os.IsPermission(err):
		return res, fmt.Errorf("%w: %s", ErrPermissionDenied, inv.Path)
	default:
		return res, fmt.Errorf("svcctl: exec %s: %w", inv.Path, err)
	}

	logger.Tracef("exec: %s: exit %d", inv.Path, res.ExitCode)
	if inv.okExit(res.ExitCode) || inv.benign(res.Stdout, res.Stderr) {
		return res, nil
	}
	return res, &CommandError{
		Path:     inv.Path,
		Args:     inv.Args,
		ExitCode: res.ExitCode,
		Stderr:   stderr.String(),
	}
}
