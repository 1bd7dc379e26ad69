package svcctl

import (
	"context"
	"strings"
	"sync"
	"testing"
)

// stubbedCall pairs a command-line substring with the outcome to script for
// invocations matching it
type stubbedCall struct {
	substr string
	res    Result
	err    error
}

// fakeRunner scripts outcomes for the invocations a test expects and records
// everything that was run. Scripted results pass through the invocation's
// own exit-code and benign-output rules, mirroring ExecRunner, so tests
// exercise the command metadata the encoders attach.
type fakeRunner struct {
	mu    sync.Mutex
	calls []Invocation
	stubs []stubbedCall
}

// stub scripts an outcome for invocations whose rendered command line
// contains substr; first match wins, unmatched invocations succeed
func (r *fakeRunner) stub(substr string, res Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stubs = append(r.stubs, stubbedCall{substr: substr, res: res, err: err})
}

func (r *fakeRunner) Run(_ context.Context, inv Invocation) (Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, inv)
	stubs := append([]stubbedCall(nil), r.stubs...)
	r.mu.Unlock()

	line := inv.String()
	for _, s := range stubs {
		if !strings.Contains(line, s.substr) {
			continue
		}
		if s.err != nil {
			return s.res, s.err
		}
		if inv.okExit(s.res.ExitCode) || inv.benign(s.res.Stdout, s.res.Stderr) {
			return s.res, nil
		}
		return s.res, &CommandError{
			Path:     inv.Path,
			Args:     inv.Args,
			ExitCode: s.res.ExitCode,
			Stderr:   string(s.res.Stderr),
		}
	}
	return Result{}, nil
}

// clearStubs drops all scripted outcomes so a test can re-script the runner
// for the next phase of a lifecycle
func (r *fakeRunner) clearStubs() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stubs = nil
}

// ran reports whether any recorded command line contains substr
func (r *fakeRunner) ran(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.calls {
		if strings.Contains(inv.String(), substr) {
			return true
		}
	}
	return false
}

// callCount returns the number of recorded invocations
func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// testConfig returns a backend config of the given kind pointed at temp
// directories so tests never touch real system paths
func testConfig(t *testing.T, kind Kind) *BackendConfig {
	t.Helper()
	cfg, err := ConfigForKind(kind)
	if err != nil {
		t.Fatalf("ConfigForKind(%v) error = %v", kind, err)
	}
	if cfg.SystemDir != "" || kind == KindWinSW {
		cfg.SystemDir = t.TempDir()
	}
	if cfg.UserDir != "" {
		cfg.UserDir = t.TempDir()
	}
	return cfg
}

// newTestManager builds a manager of the given kind backed by a fakeRunner
func newTestManager(t *testing.T, kind Kind) (*Manager, *fakeRunner) {
	t.Helper()
	runner := &fakeRunner{}
	mgr, err := NewManager(testConfig(t, kind), WithRunner(runner))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return mgr, runner
}

// testDescriptor returns a descriptor that passes validation without
// touching the search path
func testDescriptor() Descriptor {
	return Descriptor{
		Name:    "webapp",
		Program: "/usr/local/bin/webapp",
		Args:    []string{"--listen", ":8080"},
	}
}
