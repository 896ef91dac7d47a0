//go:build linux || darwin

package scc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Service directory layout constants
const (
	// SuperviseDir is the subdirectory holding supervise control files
	SuperviseDir = "supervise"

	// ControlFile is the control socket/FIFO file name
	ControlFile = "control"

	// StatusFile is the binary status file name
	StatusFile = "status"

	// DependsFile lists the names of services this service requires,
	// one per line, in start order
	DependsFile = "depends"

	// StatusRecordSize is the exact size of the binary status record
	StatusRecordSize = 20
)

// Svdir defaults
const (
	// DefaultDialTimeout is the default timeout for control socket connections
	DefaultDialTimeout = 2 * time.Second

	// DefaultWriteTimeout is the default timeout for control write operations
	DefaultWriteTimeout = 1 * time.Second

	// DefaultBackoffMin is the minimum backoff duration for control retries
	DefaultBackoffMin = 10 * time.Millisecond

	// DefaultBackoffMax is the maximum backoff duration for control retries
	DefaultBackoffMax = 1 * time.Second

	// DefaultMaxAttempts is the default maximum number of control retry attempts
	DefaultMaxAttempts = 10

	// DefaultWatchDebounce is the debounce applied to status file events
	DefaultWatchDebounce = 10 * time.Millisecond
)

// Control bytes understood by the supervise process
const (
	controlUp   = 'u'
	controlDown = 'd'
)

// Svdir controls services laid out as runit-style service directories under
// a single root: <root>/<name>/supervise/{status,control}. Each service may
// declare the services it requires in a <root>/<name>/depends file; reverse
// edges are computed by scanning sibling depends files.
type Svdir struct {
	// Root is the canonical path to the service tree root
	Root string

	// DialTimeout is the timeout for control socket connections
	DialTimeout time.Duration

	// WriteTimeout is the timeout for writing control bytes
	WriteTimeout time.Duration

	// BackoffMin is the minimum duration between control retry attempts
	BackoffMin time.Duration

	// BackoffMax is the maximum duration between control retry attempts
	BackoffMax time.Duration

	// MaxAttempts is the maximum number of control retry attempts
	MaxAttempts int

	// WatchDebounce coalesces rapid status file changes during AwaitState
	WatchDebounce time.Duration

	// mu protects concurrent access to control sends
	mu sync.Mutex
}

// SvdirOption configures an Svdir manager
type SvdirOption func(*Svdir)

// WithDialTimeout sets the timeout for control socket connections
func WithDialTimeout(d time.Duration) SvdirOption {
	return func(s *Svdir) {
		s.DialTimeout = d
	}
}

// WithWriteTimeout sets the timeout for control write operations
func WithWriteTimeout(d time.Duration) SvdirOption {
	return func(s *Svdir) {
		s.WriteTimeout = d
	}
}

// WithBackoff sets the minimum and maximum backoff durations for control retries
func WithBackoff(minBackoff, maxBackoff time.Duration) SvdirOption {
	return func(s *Svdir) {
		s.BackoffMin = minBackoff
		s.BackoffMax = maxBackoff
	}
}

// WithMaxAttempts sets the maximum number of control retry attempts
func WithMaxAttempts(n int) SvdirOption {
	return func(s *Svdir) {
		s.MaxAttempts = n
	}
}

// WithWatchDebounce sets the debounce duration for status watch events
func WithWatchDebounce(d time.Duration) SvdirOption {
	return func(s *Svdir) {
		s.WatchDebounce = d
	}
}

// NewSvdir creates an Svdir manager rooted at the given directory
func NewSvdir(root string, opts ...SvdirOption) (*Svdir, error) {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving service tree root: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("service tree root: %w", err)
	}

	s := &Svdir{
		Root:          absPath,
		DialTimeout:   DefaultDialTimeout,
		WriteTimeout:  DefaultWriteTimeout,
		BackoffMin:    DefaultBackoffMin,
		BackoffMax:    DefaultBackoffMax,
		MaxAttempts:   DefaultMaxAttempts,
		WatchDebounce: DefaultWatchDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func newSvdirManager(cfg Config) (Manager, error) {
	root := cfg.ServiceDir
	if root == "" {
		root = "/etc/service"
	}
	return NewSvdir(root)
}

// serviceDir resolves a service name to its directory, rejecting names that
// escape the tree root
func (s *Svdir) serviceDir(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", &OpError{Op: "resolve", Service: name, Err: ErrUnknownService}
	}
	dir := filepath.Join(s.Root, name)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return "", &OpError{Op: "resolve", Service: name, Err: ErrUnknownService}
		}
		return "", &OpError{Op: "resolve", Service: name, Err: err}
	}
	return dir, nil
}

// Status decodes the service's binary status record
func (s *Svdir) Status(_ context.Context, name string) (State, error) {
	dir, err := s.serviceDir(name)
	if err != nil {
		return StateUnknown, err
	}

	statusPath := filepath.Join(dir, SuperviseDir, StatusFile)
	file, err := os.Open(statusPath)
	if err != nil {
		return StateUnknown, &OpError{Op: "status", Service: name, Err: err}
	}
	defer func() { _ = file.Close() }()

	var buf [StatusRecordSize]byte
	if _, err := io.ReadFull(file, buf[:]); err != nil {
		return StateUnknown, &OpError{Op: "status", Service: name, Err: ErrDecode}
	}
	return decodeStatusRecord(buf[:])
}

// Kind reports process for supervised directories and other for bare ones
func (s *Svdir) Kind(_ context.Context, name string) (Kind, error) {
	dir, err := s.serviceDir(name)
	if err != nil {
		return KindUnknown, err
	}
	if _, err := os.Stat(filepath.Join(dir, SuperviseDir)); err != nil {
		if os.IsNotExist(err) {
			return KindOther, nil
		}
		return KindUnknown, &OpError{Op: "kind", Service: name, Err: err}
	}
	return KindProcess, nil
}

// DisplayName returns the service's directory name
func (s *Svdir) DisplayName(_ context.Context, name string) (string, error) {
	if _, err := s.serviceDir(name); err != nil {
		return "", err
	}
	return name, nil
}

// Dependencies reads the service's depends file. A missing file means the
// service declares no dependencies.
func (s *Svdir) Dependencies(_ context.Context, name string) ([]string, error) {
	dir, err := s.serviceDir(name)
	if err != nil {
		return nil, err
	}
	deps, err := readDependsFile(filepath.Join(dir, DependsFile))
	if err != nil {
		return nil, &OpError{Op: "dependencies", Service: name, Err: err}
	}
	return deps, nil
}

// Dependents scans sibling services for depends files naming this service.
// Order follows the directory listing (lexical), which is the stable
// sibling order for this backend.
func (s *Svdir) Dependents(_ context.Context, name string) ([]string, error) {
	if _, err := s.serviceDir(name); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, &OpError{Op: "dependents", Service: name, Err: err}
	}

	var dependents []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == name {
			continue
		}
		deps, err := readDependsFile(filepath.Join(s.Root, entry.Name(), DependsFile))
		if err != nil {
			return nil, &OpError{Op: "dependents", Service: name, Err: err}
		}
		for _, dep := range deps {
			if dep == name {
				dependents = append(dependents, entry.Name())
				break
			}
		}
	}
	return dependents, nil
}

// readDependsFile parses a depends file: one service name per line, blank
// lines and #-comments ignored, order preserved
func readDependsFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var deps []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		deps = append(deps, line)
	}
	return deps, scanner.Err()
}

// Start requests the supervise process to bring the service up
func (s *Svdir) Start(ctx context.Context, name string) error {
	return s.send(ctx, name, controlUp)
}

// Stop requests the supervise process to take the service down
func (s *Svdir) Stop(ctx context.Context, name string) error {
	return s.send(ctx, name, controlDown)
}

// send writes a single control byte to the service's control socket/FIFO,
// retrying transient failures with capped exponential backoff
func (s *Svdir) send(ctx context.Context, name string, cmd byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.serviceDir(name)
	if err != nil {
		return err
	}
	controlPath := filepath.Join(dir, SuperviseDir, ControlFile)

	op := "start"
	if cmd == controlDown {
		op = "stop"
	}

	var lastErr error
	backoff := s.BackoffMin

	for attempt := 0; attempt < s.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > s.BackoffMax {
				backoff = s.BackoffMax
			}
		}

		conn, err := net.DialTimeout("unix", controlPath, s.DialTimeout)
		if err == nil {
			if s.WriteTimeout > 0 {
				_ = conn.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
			}
			_, err = conn.Write([]byte{cmd})
			_ = conn.Close()
			if err == nil {
				return nil
			}
			lastErr = err
			continue
		}

		file, err := os.OpenFile(controlPath, os.O_WRONLY|unix.O_NONBLOCK, 0)
		if err == nil {
			_, err = file.Write([]byte{cmd})
			_ = file.Close()
			if err == nil {
				return nil
			}
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = ErrControlNotReady
	}
	return &OpError{Op: op, Service: name, Err: lastErr}
}
