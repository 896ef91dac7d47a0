//go:build linux || darwin

package scc

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// File modes for scaffolded service directories
const (
	// DirMode is the mode for created directories
	DirMode = 0o755

	// FileMode is the mode for created files
	FileMode = 0o644

	// ExecMode is the mode for executable scripts
	ExecMode = 0o755
)

// ServiceBuilder scaffolds one runit-style service directory inside a
// service tree: the run script, the depends file, and optionally a seeded
// supervise/status record. All file writes are atomic.
type ServiceBuilder struct {
	// Name is the service name (directory name under Root)
	Name string
	// Root is the service tree root
	Root string
	// Cmd is the command and arguments the run script executes
	Cmd []string
	// DependsOn lists required service names, in start order
	DependsOn []string
	// Supervised seeds a supervise directory with a status record
	Supervised bool
	// SeedState is the state encoded into the seeded status record
	SeedState State
	// SeedPID is the PID encoded into the seeded status record
	SeedPID int
}

// NewServiceBuilder creates a builder for a service under the given tree root
func NewServiceBuilder(name, root string) *ServiceBuilder {
	return &ServiceBuilder{
		Name: name,
		Root: root,
	}
}

// WithCmd sets the command the run script executes
func (b *ServiceBuilder) WithCmd(cmd ...string) *ServiceBuilder {
	b.Cmd = cmd
	return b
}

// WithDepends declares the services this service requires, in start order
func (b *ServiceBuilder) WithDepends(names ...string) *ServiceBuilder {
	b.DependsOn = names
	return b
}

// WithSupervise seeds a supervise/status record with the given state and PID
func (b *ServiceBuilder) WithSupervise(state State, pid int) *ServiceBuilder {
	b.Supervised = true
	b.SeedState = state
	b.SeedPID = pid
	return b
}

// Build creates the service directory structure
func (b *ServiceBuilder) Build() error {
	if b.Name == "" || b.Name != filepath.Base(b.Name) {
		return fmt.Errorf("invalid service name %q", b.Name)
	}
	if b.Root == "" {
		return fmt.Errorf("service tree root not specified")
	}

	serviceDir := filepath.Join(b.Root, b.Name)
	if err := os.MkdirAll(serviceDir, DirMode); err != nil {
		return fmt.Errorf("creating service directory: %w", err)
	}

	if len(b.Cmd) > 0 {
		script := "#!/bin/sh\nexec 2>&1\nexec " + strings.Join(b.Cmd, " ") + "\n"
		runFile := filepath.Join(serviceDir, "run")
		if err := renameio.WriteFile(runFile, []byte(script), ExecMode); err != nil {
			return fmt.Errorf("writing run script: %w", err)
		}
	}

	if len(b.DependsOn) > 0 {
		content := strings.Join(b.DependsOn, "\n") + "\n"
		dependsFile := filepath.Join(serviceDir, DependsFile)
		if err := renameio.WriteFile(dependsFile, []byte(content), FileMode); err != nil {
			return fmt.Errorf("writing depends file: %w", err)
		}
	}

	if b.Supervised {
		superviseDir := filepath.Join(serviceDir, SuperviseDir)
		if err := os.MkdirAll(superviseDir, DirMode); err != nil {
			return fmt.Errorf("creating supervise directory: %w", err)
		}
		statusFile := filepath.Join(superviseDir, StatusFile)
		record := EncodeStatusRecord(b.SeedState, b.SeedPID)
		if err := renameio.WriteFile(statusFile, record, FileMode); err != nil {
			return fmt.Errorf("writing status record: %w", err)
		}
	}

	return nil
}

// EncodeStatusRecord builds a 20-byte supervise status record representing
// the given state and PID. It is the inverse of the status decoder and is
// intended for fixtures and mock supervisors.
func EncodeStatusRecord(state State, pid int) []byte {
	record := make([]byte, StatusRecordSize)

	switch state {
	case StateStopped:
		record[offsetWant] = 'd'
	case StateStartPending:
		record[offsetWant] = 'u'
	case StateRunning:
		binary.BigEndian.PutUint32(record[offsetPID:offsetPID+4], uint32(pid))
		record[offsetWant] = 'u'
	case StateStopPending:
		binary.BigEndian.PutUint32(record[offsetPID:offsetPID+4], uint32(pid))
		record[offsetWant] = 'd'
		record[offsetTerm] = 1
	case StatePaused:
		binary.BigEndian.PutUint32(record[offsetPID:offsetPID+4], uint32(pid))
		record[offsetWant] = 'u'
		record[offsetPaused] = 1
	}

	return record
}
