//go:build go1.18
// +build go1.18

package svcctl

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"
)

// FuzzDescriptorValidate tests descriptor validation with random inputs to
// ensure it doesn't panic or accept values the encoders cannot handle
func FuzzDescriptorValidate(f *testing.F) {
	// Add seed corpus with valid descriptors
	f.Add("webapp", "/usr/local/bin/webapp", "/srv/webapp")
	f.Add("web-app.v2", "/opt/webapp/bin/webapp", "")
	f.Add("db_sync", "sh", "")

	// Add edge cases
	f.Add("", "/bin/true", "")
	f.Add("bad name", "/bin/true", "")
	f.Add("-leading-dash", "/bin/true", "")
	f.Add("webapp", "", "")
	f.Add("webapp", "/bin/true", "relative/dir")
	f.Add(strings.Repeat("a", maxNameLen+1), "/bin/true", "")
	f.Add("web\x00app", "/bin/true", "")

	f.Fuzz(func(t *testing.T, name, program, workdir string) {
		d := Descriptor{
			Name:             name,
			Program:          program,
			WorkingDirectory: workdir,
		}

		// Test that Validate doesn't panic
		got, err := d.Validate()

		if err != nil {
			// Every validation failure must carry the sentinel and a
			// field-level detail
			if !errors.Is(err, ErrInvalidDescriptor) {
				t.Errorf("error %v does not match ErrInvalidDescriptor", err)
			}
			var dErr *DescriptorError
			if !errors.As(err, &dErr) {
				t.Errorf("error %v is not a *DescriptorError", err)
			}
			return
		}

		// If successful, verify the normalized copy is reasonable
		if !filepath.IsAbs(got.Program) {
			t.Errorf("Program = %q, want absolute path", got.Program)
		}
		if got.Name != name {
			t.Errorf("Name = %q, want %q", got.Name, name)
		}
		if got.WorkingDirectory != workdir {
			t.Errorf("WorkingDirectory = %q, want %q", got.WorkingDirectory, workdir)
		}
	})
}

// FuzzParseStatus tests every backend's status parser with random command
// output to ensure none of them panic or report an impossible state
func FuzzParseStatus(f *testing.F) {
	kinds := []Kind{KindSystemd, KindOpenRC, KindRcd, KindLaunchd, KindSc, KindWinSW}
	encoders := make([]encoder, 0, len(kinds))
	for _, kind := range kinds {
		cfg, err := ConfigForKind(kind)
		if err != nil {
			f.Fatal(err)
		}
		enc, err := newEncoder(cfg)
		if err != nil {
			f.Fatal(err)
		}
		encoders = append(encoders, enc)
	}

	// Add seed corpus with real backend output
	f.Add(0, []byte(""))
	f.Add(3, []byte(""))
	f.Add(4, []byte("Unit webapp.service could not be found.\n"))
	f.Add(0, []byte("        STATE              : 4  RUNNING\r\n"))
	f.Add(0, []byte("        STATE              : 1  STOPPED\r\n"))
	f.Add(1060, []byte(""))
	f.Add(0, []byte("{\n\t\"PID\" = 4321;\n\t\"Label\" = \"webapp\";\n};\n"))
	f.Add(0, []byte("Started"))
	f.Add(0, []byte("NonExistent"))

	// Add edge cases
	f.Add(-1, []byte{0x00, 0xFF, 0xFE})
	f.Add(255, []byte(strings.Repeat("STATE RUNNING STOPPED ", 64)))

	f.Fuzz(func(t *testing.T, exitCode int, stdout []byte) {
		res := Result{ExitCode: exitCode, Stdout: stdout}
		for i, enc := range encoders {
			// Test that parseStatus doesn't panic
			state, err := enc.parseStatus(res)

			// State must be one of the values Status can report
			switch state {
			case StateUnknown, StateRunning, StateStopped:
			default:
				t.Errorf("%v: state = %v, want Unknown, Running, or Stopped", kinds[i], state)
			}

			// The only error a parser may report is not-installed
			if err != nil && !errors.Is(err, ErrNotFound) {
				t.Errorf("%v: err = %v, want nil or ErrNotFound", kinds[i], err)
			}
		}
	})
}

// FuzzPosixQuoting tests the shell quoting routines with random values to
// ensure a POSIX shell would read back exactly the input
func FuzzPosixQuoting(f *testing.F) {
	// Add seed corpus with shell metacharacters
	f.Add("plain")
	f.Add("two words")
	f.Add(`say "hi"`)
	f.Add("a$b")
	f.Add("back\\slash")
	f.Add("tick`tock")
	f.Add("semi;colon")
	f.Add("")
	f.Add("newline\nin value")

	f.Fuzz(func(t *testing.T, s string) {
		// A double-quoted assignment value must parse back byte-identical
		words, err := shellquote.Split(posixDoubleQuote(s))
		if err != nil {
			t.Fatalf("Split(posixDoubleQuote(%q)) error: %v", s, err)
		}
		if len(words) != 1 || words[0] != s {
			t.Errorf("posixDoubleQuote round-trip = %q, want [%q]", words, s)
		}

		// A joined command line must split back into the original words
		words, err = shellquote.Split(posixJoin([]string{s, "fixed"}))
		if err != nil {
			t.Fatalf("Split(posixJoin) error: %v", err)
		}
		if len(words) != 2 || words[0] != s || words[1] != "fixed" {
			t.Errorf("posixJoin round-trip = %q, want [%q, \"fixed\"]", words, s)
		}
	})
}
