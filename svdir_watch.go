//go:build linux || darwin

package scc

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"
)

// StateEvent carries one state observation or an error from a Watch
type StateEvent struct {
	State State
	Err   error
}

// Watch monitors the service's status record for changes and emits each new
// state on the returned channel. The cleanup function stops the watch
// goroutine and must be called when the caller is done.
func (s *Svdir) Watch(ctx context.Context, name string) (<-chan StateEvent, func() error, error) {
	dir, err := s.serviceDir(name)
	if err != nil {
		return nil, nil, err
	}
	superviseDir := filepath.Join(dir, SuperviseDir)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, &OpError{Op: "watch", Service: name, Err: err}
	}
	if err := watcher.Add(superviseDir); err != nil {
		_ = watcher.Close()
		return nil, nil, &OpError{Op: "watch", Service: name, Err: err}
	}

	ch := make(chan StateEvent, 10)

	// Stopper context manages the watch goroutine lifecycle
	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
		close(ch)
	})

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}

	var mu sync.Mutex
	var debouncer *time.Timer
	var last State
	var haveLast bool

	readAndSend := func() {
		if sctx.IsStopping() {
			return
		}

		state, err := s.Status(ctx, name)
		if err != nil {
			if !sctx.IsStopping() {
				select {
				case ch <- StateEvent{Err: err}:
				case <-sctx.Stopping():
				}
			}
			return
		}

		mu.Lock()
		changed := !haveLast || state != last
		last, haveLast = state, true
		mu.Unlock()

		if changed && !sctx.IsStopping() {
			select {
			case ch <- StateEvent{State: state}:
			case <-sctx.Stopping():
			}
		}
	}

	// Initial observation
	readAndSend()

	sctx.Go(func(sctx *stopper.Context) error {
		sctx.Defer(func() {
			mu.Lock()
			if debouncer != nil {
				debouncer.Stop()
			}
			mu.Unlock()
		})

		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != StatusFile {
					continue
				}
				mu.Lock()
				if debouncer != nil {
					debouncer.Stop()
				}
				debouncer = time.AfterFunc(s.WatchDebounce, readAndSend)
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil && !sctx.IsStopping() {
					select {
					case ch <- StateEvent{Err: err}:
					case <-sctx.Stopping():
						return nil
					}
				}
			}
		}
		return nil
	})

	return ch, cleanup, nil
}

// AwaitState blocks until the service reaches target or timeout elapses,
// returning the state observed at return. Timeout is not an error.
func (s *Svdir) AwaitState(ctx context.Context, name string, target State, timeout time.Duration) (State, error) {
	last, err := s.Status(ctx, name)
	if err != nil {
		return StateUnknown, err
	}
	if last == target {
		return last, nil
	}

	events, cleanup, err := s.Watch(ctx, name)
	if err != nil {
		return last, err
	}
	defer func() { _ = cleanup() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return last, nil
			}
			if event.Err != nil {
				return last, event.Err
			}
			last = event.State
			if last == target {
				return last, nil
			}
		case <-timer.C:
			return last, nil
		case <-ctx.Done():
			return last, ctx.Err()
		}
	}
}
