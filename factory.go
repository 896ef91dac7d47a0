package scc

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Backend identifies a service-control subsystem
type Backend int

const (
	// BackendUnknown represents an unrecognized backend
	BackendUnknown Backend = iota
	// BackendAuto selects the platform default
	BackendAuto
	// BackendSystemd controls systemd units via systemctl
	BackendSystemd
	// BackendSvdir controls runit-style service directories
	BackendSvdir
	// BackendWinSCM controls services via the Windows service control manager
	BackendWinSCM
)

// Backend string constants
const (
	backendUnknownStr = "unknown"
	backendAutoStr    = "auto"
	backendSystemdStr = "systemd"
	backendSvdirStr   = "svdir"
	backendWinSCMStr  = "winscm"
)

// String returns the string representation of the backend
func (b Backend) String() string {
	switch b {
	case BackendAuto:
		return backendAutoStr
	case BackendSystemd:
		return backendSystemdStr
	case BackendSvdir:
		return backendSvdirStr
	case BackendWinSCM:
		return backendWinSCMStr
	default:
		return backendUnknownStr
	}
}

// ParseBackend maps a backend name to its Backend value. Matching is
// case-insensitive.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case backendAutoStr, "":
		return BackendAuto, nil
	case backendSystemdStr:
		return BackendSystemd, nil
	case backendSvdirStr:
		return BackendSvdir, nil
	case backendWinSCMStr:
		return BackendWinSCM, nil
	default:
		return BackendUnknown, fmt.Errorf("%w: %q", ErrUnsupportedBackend, s)
	}
}

// DetectBackend returns the default backend for the current platform
func DetectBackend() Backend {
	switch runtime.GOOS {
	case "windows":
		return BackendWinSCM
	case "linux":
		return BackendSystemd
	default:
		return BackendSvdir
	}
}

// Config carries backend construction parameters. Zero values select
// defaults.
type Config struct {
	// Backend selects the service-control subsystem (BackendAuto detects)
	Backend Backend
	// ServiceDir is the root of the service directory tree (svdir backend)
	ServiceDir string
	// SystemctlPath overrides the systemctl binary path (systemd backend)
	SystemctlPath string
	// UseSudo runs systemctl through sudo (systemd backend)
	UseSudo bool
	// PollInterval is the status poll period for backends that wait by
	// polling
	PollInterval time.Duration
}

// New constructs the Manager for the configured backend. Backends that are
// not compiled in on this platform return ErrUnsupportedBackend.
func New(cfg Config) (Manager, error) {
	backend := cfg.Backend
	if backend == BackendAuto || backend == BackendUnknown {
		backend = DetectBackend()
	}

	switch backend {
	case BackendSystemd:
		return newSystemdManager(cfg)
	case BackendSvdir:
		return newSvdirManager(cfg)
	case BackendWinSCM:
		return newWinSCMManager(cfg)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedBackend, backend)
	}
}
