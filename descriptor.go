package svcctl

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
)

// maxNameLen caps service names at a length every supported backend accepts
const maxNameLen = 128

var (
	// nameRe matches backend-safe service names: no whitespace, path
	// separators, or shell metacharacters
	nameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

	// envKeyRe matches portable environment variable names
	envKeyRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Descriptor is the platform-neutral description of a service. Callers
// construct it, Validate normalizes it, and the facade translates it into
// the bound backend's native format. The library never mutates a caller's
// descriptor; durable state lives entirely in the OS config store after
// install.
type Descriptor struct {
	// Name identifies the service, unique within a (backend, level) scope
	Name string
	// Program is the executable path; relative values are resolved through
	// the search path during validation
	Program string
	// Args are passed to the program verbatim, order preserved
	Args []string
	// WorkingDirectory is the directory the service runs in (optional)
	WorkingDirectory string
	// Environment holds variables exported to the service process
	Environment map[string]string
	// Level selects user or system installation scope
	Level Level
	// Autostart requests start-at-boot/login registration, distinct from
	// the current run state
	Autostart bool
	// Dependencies lists service names this service is ordered after;
	// honored best-effort by backends that support ordering
	Dependencies []string
	// Restart selects the backend's restart behavior for the service
	Restart RestartPolicy
}

// Validate checks the descriptor against backend-agnostic rules and returns
// a copy with the program path resolved to an absolute path. Backend-specific
// conflicts (for example an unsupported install level) surface later at
// encode time.
func (d Descriptor) Validate() (Descriptor, error) {
	if d.Name == "" {
		return d, &DescriptorError{Field: "name", Reason: "must not be empty"}
	}
	if len(d.Name) > maxNameLen {
		return d, &DescriptorError{
			Field:  "name",
			Reason: fmt.Sprintf("longer than %d characters", maxNameLen),
		}
	}
	if !nameRe.MatchString(d.Name) {
		return d, &DescriptorError{
			Field:  "name",
			Reason: fmt.Sprintf("%q contains characters outside [A-Za-z0-9_.-]", d.Name),
		}
	}

	if d.Program == "" {
		return d, &DescriptorError{Field: "program", Reason: "must not be empty"}
	}
	program := d.Program
	if !filepath.IsAbs(program) {
		resolved, err := exec.LookPath(program)
		if err != nil {
			return d, &DescriptorError{
				Field:  "program",
				Reason: fmt.Sprintf("%q not resolvable: %v", program, err),
			}
		}
		abs, err := filepath.Abs(resolved)
		if err != nil {
			return d, &DescriptorError{
				Field:  "program",
				Reason: fmt.Sprintf("resolving %q: %v", resolved, err),
			}
		}
		program = abs
	}

	if d.WorkingDirectory != "" && !filepath.IsAbs(d.WorkingDirectory) {
		return d, &DescriptorError{
			Field:  "working_directory",
			Reason: fmt.Sprintf("%q is not absolute", d.WorkingDirectory),
		}
	}

	for key := range d.Environment {
		if !envKeyRe.MatchString(key) {
			return d, &DescriptorError{
				Field:  "environment",
				Reason: fmt.Sprintf("key %q is not a valid variable name", key),
			}
		}
	}

	for _, dep := range d.Dependencies {
		if !nameRe.MatchString(dep) {
			return d, &DescriptorError{
				Field:  "dependencies",
				Reason: fmt.Sprintf("%q is not a valid service name", dep),
			}
		}
	}

	switch d.Level {
	case LevelSystem, LevelUser:
	default:
		return d, &DescriptorError{
			Field:  "level",
			Reason: fmt.Sprintf("unknown install level %d", int(d.Level)),
		}
	}

	switch d.Restart {
	case RestartNever, RestartOnFailure, RestartAlways:
	default:
		return d, &DescriptorError{
			Field:  "restart_policy",
			Reason: fmt.Sprintf("unknown restart policy %d", int(d.Restart)),
		}
	}

	out := d
	out.Program = program
	return out, nil
}
