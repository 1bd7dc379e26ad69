package svcctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("svcctl")

// Manager is the uniform service-management facade bound to one backend.
// Every operation follows the same shape: translate through the backend's
// encoder, perform filesystem writes atomically, and funnel external
// commands through the Runner. A Manager holds no service state of its own;
// the OS backend is always authoritative.
type Manager struct {
	cfg    *BackendConfig
	runner Runner
	enc    encoder
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithRunner overrides the command runner used for backend invocations
func WithRunner(r Runner) ManagerOption {
	return func(m *Manager) {
		m.runner = r
	}
}

// NewManager binds a facade to a backend configuration
func NewManager(cfg *BackendConfig, opts ...ManagerOption) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("svcctl: nil backend config")
	}
	enc, err := newEncoder(cfg)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:    cfg,
		runner: ExecRunner{},
		enc:    enc,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Kind returns the backend kind this manager is bound to
func (m *Manager) Kind() Kind {
	return m.cfg.Kind
}

// Config returns the bound backend configuration
func (m *Manager) Config() *BackendConfig {
	return m.cfg
}

// ArtifactPath returns the path where the backend stores the generated
// native config for (name, level). It is empty for backends whose
// registration is not file-backed.
func (m *Manager) ArtifactPath(name string, level Level) (string, error) {
	return m.enc.artifactPath(name, level)
}

// Render validates the descriptor and returns the artifact and registration
// commands Install would produce, without writing or running anything. The
// artifact is nil for backends whose registration is not file-backed.
func (m *Manager) Render(d Descriptor) (*Artifact, []Invocation, error) {
	v, err := d.Validate()
	if err != nil {
		return nil, nil, &OpError{Op: OpInstall, Name: d.Name, Err: err}
	}
	art, post, err := m.enc.encode(v)
	if err != nil {
		return nil, nil, &OpError{Op: OpInstall, Name: v.Name, Err: err}
	}
	return art, post, nil
}

// Install validates the descriptor, renders the backend-native artifact,
// writes it atomically, and runs the backend's registration commands. The
// service is not started; use Start for that. If a registration command
// fails, the just-written artifact is removed again on a best-effort basis
// before the error is surfaced.
func (m *Manager) Install(ctx context.Context, d Descriptor) error {
	v, err := d.Validate()
	if err != nil {
		return &OpError{Op: OpInstall, Name: d.Name, Err: err}
	}

	art, post, err := m.enc.encode(v)
	if err != nil {
		return &OpError{Op: OpInstall, Name: v.Name, Err: err}
	}

	if art != nil {
		if err := writeArtifact(art); err != nil {
			return &OpError{Op: OpInstall, Name: v.Name, Err: err}
		}
		logger.Debugf("installed %s artifact at %s", m.cfg.Kind, art.Path)
	}

	for _, inv := range post {
		if _, err := m.runner.Run(ctx, inv); err != nil {
			if art != nil {
				if rmErr := os.Remove(art.Path); rmErr != nil && !os.IsNotExist(rmErr) {
					logger.Warningf("rollback of %s failed: %v", art.Path, rmErr)
				}
			}
			return &OpError{Op: OpInstall, Name: v.Name, Err: m.enc.classify(err)}
		}
	}

	return nil
}

// Uninstall stops the service on a best-effort basis, runs the backend's
// unregistration commands, and deletes the artifact. It fails with
// ErrNotFound when the service's artifact does not exist.
func (m *Manager) Uninstall(ctx context.Context, name string, level Level) error {
	path, err := m.enc.artifactPath(name, level)
	if err != nil {
		return &OpError{Op: OpUninstall, Name: name, Err: err}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return &OpError{Op: OpUninstall, Name: name, Err: fmt.Errorf("%w: %s", ErrNotFound, path)}
			}
			return &OpError{Op: OpUninstall, Name: name, Err: wrapIOErr(err)}
		}
	}

	// failure to stop is reported but never blocks removal
	if inv, err := m.enc.controlCommand(OpStop, name, level); err == nil {
		if _, err := m.runner.Run(ctx, inv); err != nil {
			logger.Warningf("stopping %s before uninstall: %v", name, err)
		}
	}

	for _, inv := range m.enc.uninstallCommands(name, level) {
		if _, err := m.runner.Run(ctx, inv); err != nil {
			return &OpError{Op: OpUninstall, Name: name, Err: m.enc.classify(err)}
		}
	}

	if path != "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return &OpError{Op: OpUninstall, Name: name, Err: wrapIOErr(err)}
		}
	}

	return nil
}

// Start starts the service. Starting an already-running service succeeds.
func (m *Manager) Start(ctx context.Context, name string, level Level) error {
	return m.control(ctx, OpStart, name, level)
}

// Stop stops the service. Stopping an already-stopped service succeeds.
func (m *Manager) Stop(ctx context.Context, name string, level Level) error {
	return m.control(ctx, OpStop, name, level)
}

// Restart stops the service and starts it again. Both phases tolerate the
// benign already-stopped and already-running conditions, so restarting a
// stopped service simply starts it.
func (m *Manager) Restart(ctx context.Context, name string, level Level) error {
	if err := m.Stop(ctx, name, level); err != nil {
		return err
	}
	return m.Start(ctx, name, level)
}

// Enable registers the service to start at boot (or login for user-level
// services), independent of its current run state. Backends without an
// independent autostart concept fail with ErrUnsupported.
func (m *Manager) Enable(ctx context.Context, name string, level Level) error {
	return m.control(ctx, OpEnable, name, level)
}

// Disable removes the service's autostart registration
func (m *Manager) Disable(ctx context.Context, name string, level Level) error {
	return m.control(ctx, OpDisable, name, level)
}

// Status queries the backend and normalizes the answer to Running, Stopped,
// or Unknown. A stopped service is not an error; ErrNotFound means the
// service is not installed, and any other error indicates the query itself
// failed.
func (m *Manager) Status(ctx context.Context, name string, level Level) (State, error) {
	path, err := m.enc.artifactPath(name, level)
	if err != nil {
		return StateUnknown, &OpError{Op: OpStatus, Name: name, Err: err}
	}

	// for file-backed backends a missing artifact is authoritative: the
	// backend may still answer for a deleted service it has loaded
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return StateUnknown, &OpError{Op: OpStatus, Name: name, Err: fmt.Errorf("%w: %s", ErrNotFound, path)}
			}
			return StateUnknown, &OpError{Op: OpStatus, Name: name, Err: wrapIOErr(err)}
		}
	}

	inv, err := m.enc.statusCommand(name, level)
	if err != nil {
		return StateUnknown, &OpError{Op: OpStatus, Name: name, Err: err}
	}

	res, err := m.runner.Run(ctx, inv)
	if err != nil {
		return StateUnknown, &OpError{Op: OpStatus, Name: name, Err: m.enc.classify(err)}
	}

	state, err := m.enc.parseStatus(res)
	if err != nil {
		return StateUnknown, &OpError{Op: OpStatus, Name: name, Err: err}
	}
	return state, nil
}

// WaitForState polls the service status until it reaches the target state or
// the timeout elapses. Status errors during the wait are retried rather than
// surfaced, since services in transition can produce transient query
// failures.
func (m *Manager) WaitForState(ctx context.Context, name string, level Level, target State, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(DefaultWaitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				return fmt.Errorf("svcctl: timeout waiting for %s to reach %s", name, target)
			}

			state, err := m.Status(ctx, name, level)
			if err != nil {
				continue // Keep trying
			}

			if state == target {
				return nil
			}
		}
	}
}

func (m *Manager) control(ctx context.Context, op Operation, name string, level Level) error {
	if !m.cfg.IsOperationSupported(op) {
		return &OpError{Op: op, Name: name, Err: fmt.Errorf("%w: %s for %s", ErrUnsupported, op, m.cfg.Kind)}
	}

	inv, err := m.enc.controlCommand(op, name, level)
	if err != nil {
		return &OpError{Op: op, Name: name, Err: err}
	}

	if _, err := m.runner.Run(ctx, inv); err != nil {
		return &OpError{Op: op, Name: name, Err: m.enc.classify(err)}
	}
	return nil
}

// writeArtifact creates the artifact's directory and writes the file
// atomically (write-then-rename) so the backend never observes a partial
// config
func writeArtifact(art *Artifact) error {
	if err := os.MkdirAll(filepath.Dir(art.Path), DirMode); err != nil {
		return wrapIOErr(err)
	}
	if err := renameio.WriteFile(art.Path, art.Data, art.Mode); err != nil {
		return wrapIOErr(err)
	}
	return nil
}

// wrapIOErr maps filesystem permission failures onto ErrPermissionDenied,
// which is how an unprivileged system-level install surfaces
func wrapIOErr(err error) error {
	if os.IsPermission(err) {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return err
}
