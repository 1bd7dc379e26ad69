package svcctl

import (
	"encoding/xml"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func newWinSWEncoder(t *testing.T) (*encoderWinSW, *BackendConfig) {
	t.Helper()
	cfg := testConfig(t, KindWinSW)
	return &encoderWinSW{cfg: cfg}, cfg
}

func TestWinSWEncode(t *testing.T) {
	enc, cfg := newWinSWEncoder(t)

	art, post, err := enc.encode(Descriptor{
		Name:             "webapp",
		Program:          `C:\Program Files\webapp\webapp.exe`,
		Args:             []string{"--listen", ":8080"},
		WorkingDirectory: `C:\ProgramData\webapp`,
		Environment:      map[string]string{"PORT": "8080", "MODE": "prod"},
		Dependencies:     []string{"Tcpip"},
		Autostart:        true,
		Restart:          RestartOnFailure,
	})
	if err != nil {
		t.Fatalf("encode() error = %v", err)
	}

	wantPath := filepath.Join(cfg.SystemDir, "webapp.xml")
	if art.Path != wantPath {
		t.Errorf("Path = %v, want %v", art.Path, wantPath)
	}
	if art.Mode != FileMode {
		t.Errorf("Mode = %o, want %o", art.Mode, FileMode)
	}

	var svc winswService
	if err := xml.Unmarshal(art.Data, &svc); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, art.Data)
	}
	if svc.ID != "webapp" || svc.Name != "webapp" {
		t.Errorf("id/name = %v/%v, want webapp/webapp", svc.ID, svc.Name)
	}
	if svc.Executable != `C:\Program Files\webapp\webapp.exe` {
		t.Errorf("executable = %v", svc.Executable)
	}
	if want := []string{"--listen", ":8080"}; !reflect.DeepEqual(svc.Arguments, want) {
		t.Errorf("arguments = %#v, want %#v", svc.Arguments, want)
	}
	wantEnv := []winswEnv{{Name: "MODE", Value: "prod"}, {Name: "PORT", Value: "8080"}}
	if !reflect.DeepEqual(svc.Environment, wantEnv) {
		t.Errorf("env = %#v, want sorted %#v", svc.Environment, wantEnv)
	}
	if svc.WorkingDirectory != `C:\ProgramData\webapp` {
		t.Errorf("workingdirectory = %v", svc.WorkingDirectory)
	}
	if svc.StartMode != "Automatic" {
		t.Errorf("startmode = %v, want Automatic", svc.StartMode)
	}
	if svc.OnFailure == nil || svc.OnFailure.Action != "restart" || svc.OnFailure.Delay != "5 sec" {
		t.Errorf("onfailure = %+v", svc.OnFailure)
	}
	if want := []string{"Tcpip"}; !reflect.DeepEqual(svc.Dependencies, want) {
		t.Errorf("depend = %#v, want %#v", svc.Dependencies, want)
	}

	// registration happens after the config lands; starting stays separate
	if len(post) != 1 {
		t.Fatalf("post = %d commands, want install", len(post))
	}
	if got := post[0].String(); got != cfg.CtlPath+" install "+wantPath {
		t.Errorf("post[0] = %v", got)
	}
	if !post[0].benign(nil, []byte(`A service with ID "webapp" already exists`)) {
		t.Error("reinstalling an existing service should be benign")
	}
}

func TestWinSWEncodeMinimal(t *testing.T) {
	enc, _ := newWinSWEncoder(t)

	art, _, err := enc.encode(Descriptor{
		Name:    "webapp",
		Program: `C:\webapp.exe`,
		Restart: RestartNever,
	})
	if err != nil {
		t.Fatalf("encode() error = %v", err)
	}

	var svc winswService
	if err := xml.Unmarshal(art.Data, &svc); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, art.Data)
	}
	if svc.StartMode != "Manual" {
		t.Errorf("startmode = %v, want Manual", svc.StartMode)
	}
	if svc.OnFailure != nil {
		t.Errorf("onfailure = %+v, want absent for RestartNever", svc.OnFailure)
	}
	if len(svc.Arguments) != 0 || len(svc.Environment) != 0 || len(svc.Dependencies) != 0 {
		t.Errorf("optional elements leaked into minimal config:\n%s", art.Data)
	}
}

func TestWinSWCommands(t *testing.T) {
	enc, cfg := newWinSWEncoder(t)

	path := filepath.Join(cfg.SystemDir, "webapp.xml")

	start, err := enc.controlCommand(OpStart, "webapp", LevelSystem)
	if err != nil {
		t.Fatalf("controlCommand(start) error = %v", err)
	}
	if got := start.String(); got != cfg.CtlPath+" start "+path {
		t.Errorf("start = %v", got)
	}
	if !start.benign(nil, []byte("The service has already been started")) {
		t.Error("starting a started service should be benign")
	}

	stop, err := enc.controlCommand(OpStop, "webapp", LevelSystem)
	if err != nil {
		t.Fatalf("controlCommand(stop) error = %v", err)
	}
	if !stop.benign(nil, []byte("The service has not been started")) {
		t.Error("stopping a stopped service should be benign")
	}

	// the wrapper has no enable/disable verbs
	for _, op := range []Operation{OpEnable, OpDisable} {
		if _, err := enc.controlCommand(op, "webapp", LevelSystem); !errors.Is(err, ErrUnsupported) {
			t.Errorf("controlCommand(%v) error = %v, want ErrUnsupported", op, err)
		}
	}

	cmds := enc.uninstallCommands("webapp", LevelSystem)
	if len(cmds) != 1 {
		t.Fatalf("uninstallCommands() = %d commands, want 1", len(cmds))
	}
	if got := cmds[0].String(); got != cfg.CtlPath+" uninstall "+path {
		t.Errorf("uninstall = %v", got)
	}

	status, err := enc.statusCommand("webapp", LevelSystem)
	if err != nil {
		t.Fatalf("statusCommand() error = %v", err)
	}
	if got := status.String(); got != cfg.CtlPath+" status "+path {
		t.Errorf("status = %v", got)
	}
}

func TestWinSWParseStatus(t *testing.T) {
	enc, _ := newWinSWEncoder(t)

	tests := []struct {
		stdout string
		want   State
	}{
		{"Started\n", StateRunning},
		{"Stopped\n", StateStopped},
		{"Active (running)\n", StateUnknown},
	}
	for _, tt := range tests {
		state, err := enc.parseStatus(Result{ExitCode: 0, Stdout: []byte(tt.stdout)})
		if err != nil {
			t.Errorf("parseStatus(%q) error = %v", tt.stdout, err)
		}
		if state != tt.want {
			t.Errorf("parseStatus(%q) = %v, want %v", tt.stdout, state, tt.want)
		}
	}

	_, err := enc.parseStatus(Result{ExitCode: 0, Stdout: []byte("NonExistent\n")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("parseStatus(NonExistent) error = %v, want ErrNotFound", err)
	}
}

func TestWinSWClassify(t *testing.T) {
	enc, _ := newWinSWEncoder(t)

	tests := []struct {
		stderr string
		want   error
	}{
		{`The service with ID "webapp" does not exist`, ErrNotFound},
		{"Access is denied.", ErrPermissionDenied},
	}
	for _, tt := range tests {
		err := enc.classify(&CommandError{Path: "winsw.exe", ExitCode: 1, Stderr: tt.stderr})
		if !errors.Is(err, tt.want) {
			t.Errorf("classify(%q) = %v, want %v", tt.stderr, err, tt.want)
		}
	}
}
