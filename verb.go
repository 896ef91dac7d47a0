package scc

import (
	"fmt"
	"strings"
)

// Verb is a validated control verb. Parsing happens once at the boundary;
// everything past ParseVerb operates on the enum.
type Verb int

const (
	// VerbUnknown represents an unrecognized verb
	VerbUnknown Verb = iota
	// VerbStart starts a service and, transitively, its dependencies and
	// dependents
	VerbStart
	// VerbStop stops a service and, transitively, its dependents
	VerbStop
	// VerbRestart stops then starts a service
	VerbRestart
)

// Verb string constants
const (
	verbUnknownStr = "unknown"
	verbStartStr   = "start"
	verbStopStr    = "stop"
	verbRestartStr = "restart"
)

// String returns the string representation of the verb
func (v Verb) String() string {
	switch v {
	case VerbStart:
		return verbStartStr
	case VerbStop:
		return verbStopStr
	case VerbRestart:
		return verbRestartStr
	default:
		return verbUnknownStr
	}
}

// ParseVerb maps a command-line verb to its Verb value. Matching is
// case-insensitive. Unrecognized input returns ErrUnknownVerb.
func ParseVerb(s string) (Verb, error) {
	switch strings.ToLower(s) {
	case verbStartStr:
		return VerbStart, nil
	case verbStopStr:
		return VerbStop, nil
	case verbRestartStr:
		return VerbRestart, nil
	default:
		return VerbUnknown, fmt.Errorf("%w: %q", ErrUnknownVerb, s)
	}
}
