// Package scc implements cascading control of OS-managed services: starting,
// stopping, or restarting a named service together with the services it
// depends on (for start) or the services that depend on it (for stop), in
// dependency-safe order.
//
// The core is the Cascader, which walks the dependency graph depth-first and
// strictly sequentially against any Manager backend:
//
//	mgr, err := scc.New(scc.Config{Backend: scc.BackendAuto})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c := scc.NewCascader(mgr, scc.WithWaitTimeout(time.Minute))
//	err = c.Execute(context.Background(), scc.VerbStart, "myapp")
//
// Start brings up a service's dependencies first, then the service, then its
// dependents. Stop takes dependents down first, then the service, and never
// touches the service's own dependencies (they may be shared). Restart is a
// full stop cascade followed by a full start cascade.
//
// # Backends
//
// Three Manager backends are provided behind one factory: systemd units via
// systemctl (linux), runit-style service directory trees (linux, darwin),
// and the Windows service control manager. Services that are not
// process-backed (drivers, targets, unsupervised directories) are reported
// and skipped, including their whole subtree.
//
// # Design notes
//
// The traversal is single-threaded: each visited service completes fully,
// including its blocking wait for the target state, before the next sibling
// is processed. Concurrent control of interdependent services would need
// in-flight reference counting that this design avoids. The dependency graph
// is assumed acyclic; the walker keeps no visited set.
package scc
