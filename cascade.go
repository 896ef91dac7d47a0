package scc

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// neighborSet selects which of a service's related-service lists a rule
// walks.
type neighborSet int

const (
	neighborsNone neighborSet = iota
	neighborsDependencies
	neighborsDependents
)

// String returns the label used in traversal log lines
func (n neighborSet) String() string {
	switch n {
	case neighborsDependencies:
		return "dependencies"
	case neighborsDependents:
		return "dependents"
	default:
		return "none"
	}
}

// rule describes one cascading verb as data: the only status that triggers
// action, the state awaited afterwards, the neighbor lists walked before and
// after acting on the target, and the request to issue.
type rule struct {
	verb    Verb
	acting  string
	trigger State
	target  State
	before  neighborSet
	after   neighborSet
	act     func(ctx context.Context, m Manager, name string) error
}

var startRule = rule{
	verb:    VerbStart,
	acting:  "starting service",
	trigger: StateStopped,
	target:  StateRunning,
	before:  neighborsDependencies,
	after:   neighborsDependents,
	act: func(ctx context.Context, m Manager, name string) error {
		return m.Start(ctx, name)
	},
}

var stopRule = rule{
	verb:    VerbStop,
	acting:  "stopping service",
	trigger: StateRunning,
	target:  StateStopped,
	before:  neighborsDependents,
	after:   neighborsNone,
	act: func(ctx context.Context, m Manager, name string) error {
		return m.Stop(ctx, name)
	},
}

// Cascader executes control verbs against a Manager, recursing through the
// dependency graph depth-first and strictly sequentially. Each visited
// service fully completes (including its own recursion and its blocking wait
// for the target state) before the next sibling is touched.
type Cascader struct {
	mgr         Manager
	log         *slog.Logger
	waitTimeout time.Duration
}

// CascaderOption configures a Cascader
type CascaderOption func(*Cascader)

// WithLogger sets the logger used for traversal status lines
func WithLogger(l *slog.Logger) CascaderOption {
	return func(c *Cascader) {
		c.log = l
	}
}

// WithWaitTimeout bounds each AwaitState call
func WithWaitTimeout(d time.Duration) CascaderOption {
	return func(c *Cascader) {
		c.waitTimeout = d
	}
}

// NewCascader creates a Cascader bound to the given backend
func NewCascader(mgr Manager, opts ...CascaderOption) *Cascader {
	c := &Cascader{
		mgr:         mgr,
		log:         slog.Default(),
		waitTimeout: DefaultAwaitTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs the verb against the named service. Start and Stop cascade
// through the graph; Restart is a full Stop cascade followed by a full Start
// cascade of the same name, each beginning at depth 0. Any backend error
// aborts the run; already-completed actions are not rolled back.
func (c *Cascader) Execute(ctx context.Context, verb Verb, name string) error {
	switch verb {
	case VerbStart:
		return c.run(ctx, startRule, name, 0)
	case VerbStop:
		return c.run(ctx, stopRule, name, 0)
	case VerbRestart:
		c.log.Info("restarting service", "service", name)
		if err := c.run(ctx, stopRule, name, 0); err != nil {
			return err
		}
		return c.run(ctx, startRule, name, 0)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownVerb, verb)
	}
}

// run applies a rule to one service at the given traversal depth. Depth is
// presentation-only: it is attached to log records for indentation and never
// influences decisions.
func (c *Cascader) run(ctx context.Context, r rule, name string, depth int) error {
	kind, err := c.mgr.Kind(ctx, name)
	if err != nil {
		return fmt.Errorf("querying kind of %q: %w", name, err)
	}

	if !kind.Controllable() {
		display, err := c.mgr.DisplayName(ctx, name)
		if err != nil {
			return fmt.Errorf("querying display name of %q: %w", name, err)
		}
		c.log.Info("skipping service that cannot be controlled directly",
			"depth", depth, "service", display, "kind", kind.String())
		return nil
	}

	status, err := c.mgr.Status(ctx, name)
	if err != nil {
		return fmt.Errorf("querying status of %q: %w", name, err)
	}

	// Only the trigger status starts the full sequence. Pending states are
	// treated as already satisfied rather than handshaken.
	if status != r.trigger {
		c.log.Info("nothing to do",
			"depth", depth, "service", name, "status", status.String())
		return nil
	}

	if err := c.walk(ctx, r, r.before, name, depth); err != nil {
		return err
	}

	c.log.Info(r.acting, "depth", depth, "service", name)
	if err := r.act(ctx, c.mgr, name); err != nil {
		return fmt.Errorf("requesting %s of %q: %w", r.verb, name, err)
	}

	observed, err := c.mgr.AwaitState(ctx, name, r.target, c.waitTimeout)
	if err != nil {
		return fmt.Errorf("waiting for %q to reach %s: %w", name, r.target, err)
	}
	c.log.Info("service status", "depth", depth, "service", name, "status", observed.String())

	return c.walk(ctx, r, r.after, name, depth)
}

// walk applies the rule to each service in the selected neighbor list, in
// the order the backend supplied, one sibling after another at depth+1.
func (c *Cascader) walk(ctx context.Context, r rule, set neighborSet, name string, depth int) error {
	var names []string
	var err error

	switch set {
	case neighborsNone:
		return nil
	case neighborsDependencies:
		names, err = c.mgr.Dependencies(ctx, name)
	case neighborsDependents:
		names, err = c.mgr.Dependents(ctx, name)
	}
	if err != nil {
		return fmt.Errorf("listing %s of %q: %w", set, name, err)
	}

	c.log.Info(fmt.Sprintf("processing %d %s", len(names), set),
		"depth", depth, "service", name)

	for _, neighbor := range names {
		if err := c.run(ctx, r, neighbor, depth+1); err != nil {
			return err
		}
	}
	return nil
}
