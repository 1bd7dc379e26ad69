// Package svcctl installs and controls long-running background services
// across heterogeneous service-management backends through one descriptor
// format.
//
// A Descriptor states what to run; the library translates it into the
// native configuration of the backend in use (a systemd unit, an OpenRC or
// BSD rc.d init script, a launchd property list, an sc.exe registration, or
// a WinSW wrapper config) and drives the backend's own control binary for
// lifecycle operations:
//
//	backend, err := svcctl.Detect(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mgr, err := svcctl.NewManager(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = mgr.Install(ctx, svcctl.Descriptor{
//	    Name:    "myapp",
//	    Program: "/usr/local/bin/myapp",
//	    Args:    []string{"--port", "8080"},
//	})
//
//	// Installing never starts the service; that is a separate step.
//	err = mgr.Start(ctx, "myapp", svcctl.LevelSystem)
//
//	state, err := mgr.Status(ctx, "myapp", svcctl.LevelSystem)
//
// # Backend Selection
//
// Detect probes the host's candidate backends in platform order and returns
// a BackendConfig bound to the first one present. DetectKind skips probing
// order and resolves one specific backend. Every Manager is bound to an
// explicit BackendConfig value, so independent sessions (for example one per
// backend under test) can coexist in one process.
//
// # Group for Bulk Operations
//
// The Group type is provided as a convenience for applications that manage
// fleets of services concurrently. It's particularly useful for:
//
//   - System initialization/shutdown sequences
//   - Health monitoring dashboards
//   - Service orchestration tools
//   - Testing frameworks that manage multiple services
//
// If your application already has its own concurrency framework or only
// manages single services, you may not need the Group. It's designed to be
// optional - the Manager type provides all core functionality.
//
//	group := svcctl.NewGroup(mgr,
//	    svcctl.WithConcurrency(5),
//	    svcctl.WithTimeout(10 * time.Second),
//	)
//
//	err = group.StartAll(ctx, svcctl.LevelSystem, "web", "db", "cache")
//
// # Design Philosophy
//
// This library prioritizes:
//
//   - One audited quoting routine per backend syntax, never ad hoc
//     concatenation of descriptor values into scripts
//   - Atomic artifact writes (write-then-rename), so a backend never
//     observes a half-written config
//   - Explicit backend handles instead of process-wide detection state
//   - Context-aware operations; command timeouts belong to the caller
//   - Uniform error classification across all backends
//
// The library holds no authoritative service state of its own. Every status
// answer is the OS backend's answer, normalized to Running, Stopped, or
// Unknown.
package svcctl
