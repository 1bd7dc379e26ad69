package svcctl

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by service-management operations
var (
	// ErrInvalidDescriptor indicates the descriptor failed validation
	ErrInvalidDescriptor = errors.New("svcctl: invalid descriptor")

	// ErrNoBackendAvailable indicates no candidate backend probed successfully
	ErrNoBackendAvailable = errors.New("svcctl: no service manager available")

	// ErrNotFound indicates a missing backend binary, service, or artifact
	ErrNotFound = errors.New("svcctl: not found")

	// ErrPermissionDenied indicates the caller lacks the privileges the
	// requested install level requires
	ErrPermissionDenied = errors.New("svcctl: permission denied")

	// ErrUnsupported indicates the operation has no meaning for the
	// selected backend
	ErrUnsupported = errors.New("svcctl: operation not supported")
)

// DescriptorError describes a descriptor field that failed validation
type DescriptorError struct {
	// Field is the descriptor field that failed
	Field string
	// Reason is a human-readable explanation
	Reason string
}

// Error returns a formatted error message
func (e *DescriptorError) Error() string {
	return fmt.Sprintf("svcctl: invalid descriptor: %s: %s", e.Field, e.Reason)
}

// Unwrap links the error to ErrInvalidDescriptor for errors.Is checks
func (e *DescriptorError) Unwrap() error {
	return ErrInvalidDescriptor
}

// CommandError represents an external command that exited outside its
// expected exit-code set
type CommandError struct {
	// Path is the invoked binary
	Path string
	// Args are the arguments the binary was invoked with
	Args []string
	// ExitCode is the observed exit code
	ExitCode int
	// Stderr is the captured standard error output
	Stderr string
}

// Error returns a formatted error message including captured stderr
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("svcctl: command %s %s: exit status %d",
		e.Path, strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// OpError represents an error from a facade operation
type OpError struct {
	// Op is the operation that failed
	Op Operation
	// Name is the service name involved in the operation
	Name string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *OpError) Error() string {
	return fmt.Sprintf("svcctl %s %q: %v", e.Op.String(), e.Name, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *OpError) Unwrap() error {
	return e.Err
}

// MultiError aggregates multiple errors from bulk operations
type MultiError struct {
	// Errors contains all accumulated errors
	Errors []error
}

// Error returns a summary of the accumulated errors
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred", len(m.Errors))
}

// Add appends an error to the collection if it's not nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Err returns nil if no errors occurred, otherwise returns the MultiError itself
func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// Unwrap returns the accumulated errors for errors.Is/errors.As inspection
func (m *MultiError) Unwrap() []error {
	return m.Errors
}
