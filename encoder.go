package svcctl

import (
	"fmt"
	"io/fs"
	"sort"
)

// Artifact is a generated native configuration file: where it goes, what it
// contains, and the mode it is created with. The facade writes artifacts
// atomically (write-then-rename) or not at all.
type Artifact struct {
	// Path is the resolved install path
	Path string
	// Data is the full artifact content
	Data []byte
	// Mode is the file mode for the created artifact
	Mode fs.FileMode
}

// encoder translates a descriptor into one backend's native artifact and
// command plans. Implementations are pure: they never execute commands and
// never touch the filesystem, which keeps every backend independently
// testable.
type encoder interface {
	// artifactPath computes the deterministic install path for (name, level);
	// empty for backends with no file artifact
	artifactPath(name string, level Level) (string, error)

	// encode produces the artifact (nil for command-only backends) and the
	// post-write registration commands for a validated descriptor
	encode(d Descriptor) (*Artifact, []Invocation, error)

	// uninstallCommands lists the unregistration commands run before the
	// artifact is deleted
	uninstallCommands(name string, level Level) []Invocation

	// controlCommand maps OpStart/OpStop/OpEnable/OpDisable onto the
	// backend's control binary
	controlCommand(op Operation, name string, level Level) (Invocation, error)

	// statusCommand builds the status query for (name, level)
	statusCommand(name string, level Level) (Invocation, error)

	// parseStatus normalizes a status query result; returns ErrNotFound when
	// the backend reports the service as not installed
	parseStatus(res Result) (State, error)

	// classify refines a command failure using backend-specific exit codes
	// and stderr, mapping onto ErrNotFound or ErrPermissionDenied where the
	// backend distinguishes them
	classify(err error) error
}

// newEncoder constructs the encoder for the configured kind. The switch is
// exhaustive over Kind: adding a backend means adding a tag and one encoder.
func newEncoder(cfg *BackendConfig) (encoder, error) {
	switch cfg.Kind {
	case KindSystemd:
		return &encoderSystemd{cfg: cfg}, nil
	case KindOpenRC:
		return &encoderOpenRC{cfg: cfg}, nil
	case KindRcd:
		return &encoderRcd{cfg: cfg}, nil
	case KindLaunchd:
		return &encoderLaunchd{cfg: cfg}, nil
	case KindSc:
		return &encoderSc{cfg: cfg}, nil
	case KindWinSW:
		return &encoderWinSW{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("svcctl: unsupported backend kind: %v", cfg.Kind)
	}
}

// levelDir resolves the artifact directory for an install level. Backends
// without a user scope reject LevelUser here, which is where unsupported
// level/backend combinations surface.
func (c *BackendConfig) levelDir(level Level) (string, error) {
	if level == LevelUser {
		if c.UserDir != "" {
			return c.UserDir, nil
		}
		switch c.Kind {
		case KindSystemd, KindLaunchd:
			return "", fmt.Errorf("svcctl: %s: user directory unresolved", c.Kind)
		default:
			return "", fmt.Errorf("%w: %s has no user-level scope", ErrUnsupported, c.Kind)
		}
	}
	if c.SystemDir == "" {
		return "", fmt.Errorf("svcctl: %s: system directory unset", c.Kind)
	}
	return c.SystemDir, nil
}

// envKeys returns the environment keys in sorted order so generated
// artifacts are deterministic
func envKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
