//go:build linux

package scc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Systemd controls systemd units through systemctl. It never blocks inside
// systemctl itself: start/stop requests are issued with --no-block and state
// transitions are observed by polling `systemctl show`.
type Systemd struct {
	// SystemctlPath is the path to the systemctl binary
	SystemctlPath string

	// UseSudo indicates whether to run systemctl through sudo
	UseSudo bool

	// SudoCommand is the sudo command to use (default: "sudo")
	SudoCommand string

	// PollInterval is the status poll period used by AwaitState
	PollInterval time.Duration

	// execCommand runs a command and returns its stdout. Overridable in
	// tests.
	execCommand func(ctx context.Context, name string, args ...string) (string, error)
}

// NewSystemd creates a Systemd manager with platform defaults
func NewSystemd() *Systemd {
	s := &Systemd{
		SystemctlPath: "systemctl",
		UseSudo:       os.Geteuid() != 0,
		SudoCommand:   "sudo",
		PollInterval:  250 * time.Millisecond,
	}
	s.execCommand = runCommand
	return s
}

func newSystemdManager(cfg Config) (Manager, error) {
	s := NewSystemd()
	if cfg.SystemctlPath != "" {
		s.SystemctlPath = cfg.SystemctlPath
	}
	if cfg.UseSudo {
		s.UseSudo = true
	}
	if cfg.PollInterval > 0 {
		s.PollInterval = cfg.PollInterval
	}
	return s, nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// unitName appends the .service suffix to bare names. Names that already
// carry a unit suffix (as returned by Requires/RequiredBy) pass through.
func unitName(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return name + ".service"
}

// systemctl executes a systemctl subcommand with optional sudo
func (s *Systemd) systemctl(ctx context.Context, args ...string) (string, error) {
	if s.UseSudo {
		return s.execCommand(ctx, s.SudoCommand, append([]string{s.SystemctlPath}, args...)...)
	}
	return s.execCommand(ctx, s.SystemctlPath, args...)
}

// show queries unit properties and parses the key=value output
func (s *Systemd) show(ctx context.Context, unit string, props ...string) (map[string]string, error) {
	args := []string{"show", "--no-page"}
	for _, p := range props {
		args = append(args, "-p", p)
	}
	args = append(args, unit)

	out, err := s.systemctl(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseShowOutput(out), nil
}

// parseShowOutput parses `systemctl show` key=value lines
func parseShowOutput(out string) map[string]string {
	values := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			values[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return values
}

// mapSystemdState maps ActiveState onto the State enum. SubState is
// accepted but currently unused.
func mapSystemdState(activeState, _ string) State {
	switch activeState {
	case "active", "reloading":
		return StateRunning
	case "activating":
		return StateStartPending
	case "deactivating":
		return StateStopPending
	case "inactive", "failed":
		return StateStopped
	default:
		return StateUnknown
	}
}

// Status reports the unit's current state
func (s *Systemd) Status(ctx context.Context, name string) (State, error) {
	props, err := s.show(ctx, unitName(name), "ActiveState", "SubState")
	if err != nil {
		return StateUnknown, &OpError{Op: "status", Service: name, Err: err}
	}
	return mapSystemdState(props["ActiveState"], props["SubState"]), nil
}

// Kind categorizes the unit by its suffix. Only .service units are
// process-backed and directly controllable; .device units map to drivers;
// anything else (targets, sockets, mounts, ...) is reported as other.
func (s *Systemd) Kind(ctx context.Context, name string) (Kind, error) {
	unit := unitName(name)

	props, err := s.show(ctx, unit, "LoadState")
	if err != nil {
		return KindUnknown, &OpError{Op: "kind", Service: name, Err: err}
	}
	if props["LoadState"] == "not-found" {
		return KindUnknown, &OpError{Op: "kind", Service: name, Err: ErrUnknownService}
	}

	switch {
	case strings.HasSuffix(unit, ".service"):
		return KindProcess, nil
	case strings.HasSuffix(unit, ".device"):
		return KindDriver, nil
	default:
		return KindOther, nil
	}
}

// DisplayName returns the unit's Description property, falling back to the
// unit name when no description is set
func (s *Systemd) DisplayName(ctx context.Context, name string) (string, error) {
	props, err := s.show(ctx, unitName(name), "Description")
	if err != nil {
		return "", &OpError{Op: "display-name", Service: name, Err: err}
	}
	if props["Description"] == "" {
		return name, nil
	}
	return props["Description"], nil
}

// Dependencies lists the units this unit requires, in systemd's order
func (s *Systemd) Dependencies(ctx context.Context, name string) ([]string, error) {
	props, err := s.show(ctx, unitName(name), "Requires")
	if err != nil {
		return nil, &OpError{Op: "dependencies", Service: name, Err: err}
	}
	return strings.Fields(props["Requires"]), nil
}

// Dependents lists the units that require this unit, in systemd's order
func (s *Systemd) Dependents(ctx context.Context, name string) ([]string, error) {
	props, err := s.show(ctx, unitName(name), "RequiredBy")
	if err != nil {
		return nil, &OpError{Op: "dependents", Service: name, Err: err}
	}
	return strings.Fields(props["RequiredBy"]), nil
}

// Start issues a non-blocking start request
func (s *Systemd) Start(ctx context.Context, name string) error {
	if _, err := s.systemctl(ctx, "start", "--no-block", unitName(name)); err != nil {
		return &OpError{Op: "start", Service: name, Err: err}
	}
	return nil
}

// Stop issues a non-blocking stop request
func (s *Systemd) Stop(ctx context.Context, name string) error {
	if _, err := s.systemctl(ctx, "stop", "--no-block", unitName(name)); err != nil {
		return &OpError{Op: "stop", Service: name, Err: err}
	}
	return nil
}

// AwaitState polls the unit's state until it reaches target or timeout
// elapses. On timeout the last observed state is returned with a nil error.
func (s *Systemd) AwaitState(ctx context.Context, name string, target State, timeout time.Duration) (State, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	last, err := s.Status(ctx, name)
	if err != nil {
		return StateUnknown, err
	}
	for last != target {
		if time.Now().After(deadline) {
			return last, nil
		}
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
		if last, err = s.Status(ctx, name); err != nil {
			return StateUnknown, err
		}
	}
	return last, nil
}
