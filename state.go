package scc

// State represents the observed run state of a service as reported by the
// service-control backend. The set mirrors the states a service control
// manager exposes; backends that distinguish fewer states map onto the
// nearest member.
type State int

const (
	// StateUnknown indicates the state could not be determined
	StateUnknown State = iota
	// StateStopped indicates the service is not running
	StateStopped
	// StateStartPending indicates a start request was accepted but the
	// service is not running yet
	StateStartPending
	// StateStopPending indicates a stop request was accepted but the
	// service has not exited yet
	StateStopPending
	// StateRunning indicates the service is running
	StateRunning
	// StateContinuePending indicates the service is resuming from pause
	StateContinuePending
	// StatePausePending indicates the service is entering pause
	StatePausePending
	// StatePaused indicates the service is paused
	StatePaused
)

// State string constants
const (
	stateUnknownStr         = "unknown"
	stateStoppedStr         = "stopped"
	stateStartPendingStr    = "start-pending"
	stateStopPendingStr     = "stop-pending"
	stateRunningStr         = "running"
	stateContinuePendingStr = "continue-pending"
	statePausePendingStr    = "pause-pending"
	statePausedStr          = "paused"
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateStopped:
		return stateStoppedStr
	case StateStartPending:
		return stateStartPendingStr
	case StateStopPending:
		return stateStopPendingStr
	case StateRunning:
		return stateRunningStr
	case StateContinuePending:
		return stateContinuePendingStr
	case StatePausePending:
		return statePausePendingStr
	case StatePaused:
		return statePausedStr
	default:
		return stateUnknownStr
	}
}

// Kind categorizes a service's implementation type. Only process-backed
// services accept direct start/stop control; drivers and other unit
// categories are reported and skipped by the cascade.
type Kind int

const (
	// KindUnknown indicates the kind could not be determined
	KindUnknown Kind = iota
	// KindProcess is a user-mode, process-backed service
	KindProcess
	// KindDriver is a kernel driver or other device-backed unit
	KindDriver
	// KindOther covers unit categories that exist in the backend's
	// namespace but are not directly controllable (targets, sockets, ...)
	KindOther
)

// Kind string constants
const (
	kindUnknownStr = "unknown"
	kindProcessStr = "process"
	kindDriverStr  = "driver"
	kindOtherStr   = "other"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindProcess:
		return kindProcessStr
	case KindDriver:
		return kindDriverStr
	case KindOther:
		return kindOtherStr
	default:
		return kindUnknownStr
	}
}

// Controllable reports whether services of this kind accept direct
// start/stop requests.
func (k Kind) Controllable() bool {
	return k == KindProcess
}
