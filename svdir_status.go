//go:build linux || darwin

package scc

import (
	"encoding/binary"
	"fmt"
)

// Status record layout offsets (runit supervise format)
const (
	offsetPID    = 12 // bytes 12-15: PID (big-endian uint32)
	offsetPaused = 16 // byte 16: paused flag
	offsetWant   = 17 // byte 17: want flag ('u' or 'd')
	offsetTerm   = 18 // byte 18: term flag (finish script running)
)

// decodeStatusRecord maps a 20-byte supervise status record onto the State
// enum. Bytes 0-11 carry the TAI64N state-change timestamp, which the
// cascade has no use for and skips.
func decodeStatusRecord(data []byte) (State, error) {
	if len(data) != StatusRecordSize {
		return StateUnknown, fmt.Errorf("%w: expected %d bytes, got %d", ErrDecode, StatusRecordSize, len(data))
	}

	pid := int(binary.BigEndian.Uint32(data[offsetPID : offsetPID+4]))
	isPaused := data[offsetPaused] != 0
	wantUp := data[offsetWant] == 'u'
	wantDown := data[offsetWant] == 'd'
	isFinishing := data[offsetTerm] != 0

	switch {
	case pid == 0 && isFinishing:
		// Finish script still running after the main process exited
		return StateStopPending, nil
	case pid == 0 && wantUp:
		// Supervise wants the service up but it is not running yet
		return StateStartPending, nil
	case pid == 0:
		return StateStopped, nil
	case isPaused:
		return StatePaused, nil
	case isFinishing || wantDown:
		return StateStopPending, nil
	default:
		return StateRunning, nil
	}
}
