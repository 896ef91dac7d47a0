package scc

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

// WinSCM controls services through the Windows service control manager. A
// single SCM connection is held for the manager's lifetime; individual
// service handles are opened per operation.
type WinSCM struct {
	// PollInterval is the status poll period used by AwaitState
	PollInterval time.Duration

	scm *mgr.Mgr
}

// NewWinSCM connects to the service control manager
func NewWinSCM() (*WinSCM, error) {
	scm, err := mgr.Connect()
	if err != nil {
		return nil, &OpError{Op: "connect", Service: "", Err: err}
	}
	return &WinSCM{
		PollInterval: 250 * time.Millisecond,
		scm:          scm,
	}, nil
}

func newWinSCMManager(cfg Config) (Manager, error) {
	w, err := NewWinSCM()
	if err != nil {
		return nil, err
	}
	if cfg.PollInterval > 0 {
		w.PollInterval = cfg.PollInterval
	}
	return w, nil
}

// Close disconnects from the service control manager
func (w *WinSCM) Close() error {
	return w.scm.Disconnect()
}

// open returns a handle to the named service
func (w *WinSCM) open(name string) (*mgr.Service, error) {
	s, err := w.scm.OpenService(name)
	if err != nil {
		if errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
			return nil, &OpError{Op: "open", Service: name, Err: ErrUnknownService}
		}
		return nil, &OpError{Op: "open", Service: name, Err: err}
	}
	return s, nil
}

// mapSCMState maps an SCM state onto the State enum
func mapSCMState(state svc.State) State {
	switch state {
	case svc.Stopped:
		return StateStopped
	case svc.StartPending:
		return StateStartPending
	case svc.StopPending:
		return StateStopPending
	case svc.Running:
		return StateRunning
	case svc.ContinuePending:
		return StateContinuePending
	case svc.PausePending:
		return StatePausePending
	case svc.Paused:
		return StatePaused
	default:
		return StateUnknown
	}
}

// Status queries the service's current state
func (w *WinSCM) Status(_ context.Context, name string) (State, error) {
	s, err := w.open(name)
	if err != nil {
		return StateUnknown, err
	}
	defer func() { _ = s.Close() }()

	status, err := s.Query()
	if err != nil {
		return StateUnknown, &OpError{Op: "status", Service: name, Err: err}
	}
	return mapSCMState(status.State), nil
}

// Kind categorizes the service by its declared service type. Win32 process
// services are controllable; kernel and filesystem drivers are not.
func (w *WinSCM) Kind(_ context.Context, name string) (Kind, error) {
	s, err := w.open(name)
	if err != nil {
		return KindUnknown, err
	}
	defer func() { _ = s.Close() }()

	cfg, err := s.Config()
	if err != nil {
		return KindUnknown, &OpError{Op: "kind", Service: name, Err: err}
	}

	switch cfg.ServiceType {
	case windows.SERVICE_WIN32_OWN_PROCESS, windows.SERVICE_WIN32_SHARE_PROCESS:
		return KindProcess, nil
	case windows.SERVICE_KERNEL_DRIVER, windows.SERVICE_FILE_SYSTEM_DRIVER:
		return KindDriver, nil
	default:
		return KindOther, nil
	}
}

// DisplayName returns the service's configured display name
func (w *WinSCM) DisplayName(_ context.Context, name string) (string, error) {
	s, err := w.open(name)
	if err != nil {
		return "", err
	}
	defer func() { _ = s.Close() }()

	cfg, err := s.Config()
	if err != nil {
		return "", &OpError{Op: "display-name", Service: name, Err: err}
	}
	if cfg.DisplayName == "" {
		return name, nil
	}
	return cfg.DisplayName, nil
}

// Dependencies lists the services this service requires, in SCM order
func (w *WinSCM) Dependencies(_ context.Context, name string) ([]string, error) {
	s, err := w.open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }()

	cfg, err := s.Config()
	if err != nil {
		return nil, &OpError{Op: "dependencies", Service: name, Err: err}
	}
	return cfg.Dependencies, nil
}

// Dependents enumerates the services that require this service, in SCM order
func (w *WinSCM) Dependents(_ context.Context, name string) ([]string, error) {
	s, err := w.open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }()

	deps, err := s.ListDependentServices(svc.AnyActivity)
	if err != nil {
		return nil, &OpError{Op: "dependents", Service: name, Err: err}
	}
	return deps, nil
}

// Start issues a start request without waiting for the transition
func (w *WinSCM) Start(_ context.Context, name string) error {
	s, err := w.open(name)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Start(); err != nil {
		return &OpError{Op: "start", Service: name, Err: err}
	}
	return nil
}

// Stop issues a stop request without waiting for the transition
func (w *WinSCM) Stop(_ context.Context, name string) error {
	s, err := w.open(name)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if _, err := s.Control(svc.Stop); err != nil {
		return &OpError{Op: "stop", Service: name, Err: err}
	}
	return nil
}

// AwaitState polls the service's state until it reaches target or timeout
// elapses. On timeout the last observed state is returned with a nil error.
func (w *WinSCM) AwaitState(ctx context.Context, name string, target State, timeout time.Duration) (State, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	last, err := w.Status(ctx, name)
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
		if last, err = w.Status(ctx, name); err != nil {
			return StateUnknown, err
		}
	}
	return last, nil
}
