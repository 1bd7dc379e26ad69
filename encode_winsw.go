package svcctl

import (
	"encoding/xml"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// encoderWinSW renders WinSW wrapper configs. The artifact is an XML file next
// to which the WinSW binary registers a native Windows service; every command
// takes the config path so the wrapper can locate its own state.
type encoderWinSW struct {
	cfg *BackendConfig
}

// winswService mirrors the WinSW configuration schema for the subset of
// settings a descriptor can express
type winswService struct {
	XMLName          xml.Name      `xml:"service"`
	ID               string        `xml:"id"`
	Name             string        `xml:"name"`
	Executable       string        `xml:"executable"`
	Arguments        []string      `xml:"argument,omitempty"`
	Environment      []winswEnv    `xml:"env,omitempty"`
	WorkingDirectory string        `xml:"workingdirectory,omitempty"`
	StartMode        string        `xml:"startmode"`
	OnFailure        *winswFailure `xml:"onfailure,omitempty"`
	Dependencies     []string      `xml:"depend,omitempty"`
}

type winswEnv struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type winswFailure struct {
	Action string `xml:"action,attr"`
	Delay  string `xml:"delay,attr"`
}

func (e *encoderWinSW) artifactPath(name string, level Level) (string, error) {
	dir, err := e.cfg.levelDir(level)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".xml"), nil
}

func (e *encoderWinSW) encode(d Descriptor) (*Artifact, []Invocation, error) {
	path, err := e.artifactPath(d.Name, d.Level)
	if err != nil {
		return nil, nil, err
	}

	svc := winswService{
		ID:               d.Name,
		Name:             d.Name,
		Executable:       d.Program,
		Arguments:        d.Args,
		WorkingDirectory: d.WorkingDirectory,
		StartMode:        "Manual",
		Dependencies:     d.Dependencies,
	}
	if d.Autostart {
		svc.StartMode = "Automatic"
	}
	for _, k := range envKeys(d.Environment) {
		svc.Environment = append(svc.Environment, winswEnv{Name: k, Value: d.Environment[k]})
	}
	if d.Restart != RestartNever {
		svc.OnFailure = &winswFailure{Action: "restart", Delay: "5 sec"}
	}

	data, err := xml.MarshalIndent(svc, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("svcctl: marshal winsw config: %w", err)
	}
	data = append(data, '\n')

	post := []Invocation{{
		Path:         e.cfg.CtlPath,
		Args:         []string{"install", path},
		BenignOutput: []string{"already exists"},
	}}
	return &Artifact{Path: path, Data: data, Mode: FileMode}, post, nil
}

func (e *encoderWinSW) uninstallCommands(name string, level Level) []Invocation {
	path, err := e.artifactPath(name, level)
	if err != nil {
		return nil
	}
	return []Invocation{{
		Path:         e.cfg.CtlPath,
		Args:         []string{"uninstall", path},
		BenignOutput: []string{"does not exist", "already uninstalled"},
	}}
}

func (e *encoderWinSW) controlCommand(op Operation, name string, level Level) (Invocation, error) {
	path, err := e.artifactPath(name, level)
	if err != nil {
		return Invocation{}, err
	}
	switch op {
	case OpStart:
		return Invocation{
			Path:         e.cfg.CtlPath,
			Args:         []string{"start", path},
			BenignOutput: []string{"already started", "already running"},
		}, nil
	case OpStop:
		return Invocation{
			Path:         e.cfg.CtlPath,
			Args:         []string{"stop", path},
			BenignOutput: []string{"already stopped", "has not been started"},
		}, nil
	default:
		return Invocation{}, fmt.Errorf("%w: %s for %s", ErrUnsupported, op, e.cfg.Kind)
	}
}

func (e *encoderWinSW) statusCommand(name string, level Level) (Invocation, error) {
	path, err := e.artifactPath(name, level)
	if err != nil {
		return Invocation{}, err
	}
	return Invocation{Path: e.cfg.CtlPath, Args: []string{"status", path}}, nil
}

func (e *encoderWinSW) parseStatus(res Result) (State, error) {
	out := string(res.Stdout)
	switch {
	case strings.Contains(out, "NonExistent"):
		return StateUnknown, ErrNotFound
	case strings.Contains(out, "Started"):
		return StateRunning, nil
	case strings.Contains(out, "Stopped"):
		return StateStopped, nil
	}
	return StateUnknown, nil
}

func (e *encoderWinSW) classify(err error) error {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	out := cmdErr.Stderr
	switch {
	case strings.Contains(out, "does not exist"), strings.Contains(out, "NonExistent"):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case strings.Contains(out, "Access is denied"):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return err
}
