package svcctl

import (
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestDescriptorValidate(t *testing.T) {
	tests := []struct {
		name      string
		desc      Descriptor
		wantField string
	}{
		{
			name:      "empty name",
			desc:      Descriptor{Program: "/bin/true"},
			wantField: "name",
		},
		{
			name:      "name with spaces",
			desc:      Descriptor{Name: "my app", Program: "/bin/true"},
			wantField: "name",
		},
		{
			name:      "name with shell metacharacters",
			desc:      Descriptor{Name: "app;rm", Program: "/bin/true"},
			wantField: "name",
		},
		{
			name:      "name with path separator",
			desc:      Descriptor{Name: "../etc/cron", Program: "/bin/true"},
			wantField: "name",
		},
		{
			name:      "name too long",
			desc:      Descriptor{Name: strings.Repeat("a", maxNameLen+1), Program: "/bin/true"},
			wantField: "name",
		},
		{
			name:      "leading dot name",
			desc:      Descriptor{Name: ".hidden", Program: "/bin/true"},
			wantField: "name",
		},
		{
			name:      "empty program",
			desc:      Descriptor{Name: "app"},
			wantField: "program",
		},
		{
			name:      "unresolvable program",
			desc:      Descriptor{Name: "app", Program: "no-such-binary-xyzzy"},
			wantField: "program",
		},
		{
			name:      "relative working directory",
			desc:      Descriptor{Name: "app", Program: "/bin/true", WorkingDirectory: "var/lib"},
			wantField: "working_directory",
		},
		{
			name: "bad environment key",
			desc: Descriptor{
				Name:        "app",
				Program:     "/bin/true",
				Environment: map[string]string{"1BAD": "x"},
			},
			wantField: "environment",
		},
		{
			name: "env key with equals",
			desc: Descriptor{
				Name:        "app",
				Program:     "/bin/true",
				Environment: map[string]string{"A=B": "x"},
			},
			wantField: "environment",
		},
		{
			name: "bad dependency name",
			desc: Descriptor{
				Name:         "app",
				Program:      "/bin/true",
				Dependencies: []string{"net work"},
			},
			wantField: "dependencies",
		},
		{
			name:      "out of range level",
			desc:      Descriptor{Name: "app", Program: "/bin/true", Level: Level(7)},
			wantField: "level",
		},
		{
			name:      "out of range restart policy",
			desc:      Descriptor{Name: "app", Program: "/bin/true", Restart: RestartPolicy(7)},
			wantField: "restart_policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.desc.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}

			if !errors.Is(err, ErrInvalidDescriptor) {
				t.Errorf("error %v should match ErrInvalidDescriptor", err)
			}

			var descErr *DescriptorError
			if !errors.As(err, &descErr) {
				t.Fatalf("error %v is not a DescriptorError", err)
			}
			if descErr.Field != tt.wantField {
				t.Errorf("Field = %v, want %v", descErr.Field, tt.wantField)
			}
		})
	}
}

func TestDescriptorValidateOK(t *testing.T) {
	desc := Descriptor{
		Name:             "web-app.v2",
		Program:          "/usr/local/bin/webapp",
		Args:             []string{"--listen", ":8080", "hello world"},
		WorkingDirectory: "/var/lib/webapp",
		Environment:      map[string]string{"PORT": "8080", "_DEBUG": "1"},
		Level:            LevelUser,
		Autostart:        true,
		Dependencies:     []string{"postgres", "redis-cache"},
		Restart:          RestartOnFailure,
	}

	got, err := desc.Validate()
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got.Program != desc.Program {
		t.Errorf("Program = %v, want %v unchanged", got.Program, desc.Program)
	}
	if len(got.Args) != 3 || got.Args[2] != "hello world" {
		t.Errorf("Args = %v, want preserved verbatim", got.Args)
	}
}

func TestDescriptorValidateResolvesRelativeProgram(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not on PATH")
	}

	got, err := Descriptor{Name: "app", Program: "sh"}.Validate()
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !filepath.IsAbs(got.Program) {
		t.Errorf("Program = %v, want absolute path", got.Program)
	}
}

func TestDescriptorValidateDoesNotMutate(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not on PATH")
	}

	desc := Descriptor{Name: "app", Program: "sh"}
	if _, err := desc.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if desc.Program != "sh" {
		t.Errorf("caller's Program = %v, want sh untouched", desc.Program)
	}
}
