//go:build linux || darwin

package scc

import (
	"encoding/binary"
	"errors"
	"testing"
)

func makeRecord(pid int, want byte, paused, term byte) []byte {
	record := make([]byte, StatusRecordSize)
	binary.BigEndian.PutUint32(record[offsetPID:offsetPID+4], uint32(pid))
	record[offsetPaused] = paused
	record[offsetWant] = want
	record[offsetTerm] = term
	return record
}

func TestDecodeStatusRecord(t *testing.T) {
	tests := []struct {
		name   string
		record []byte
		want   State
	}{
		{"down", makeRecord(0, 'd', 0, 0), StateStopped},
		{"zeroed", makeRecord(0, 0, 0, 0), StateStopped},
		{"starting", makeRecord(0, 'u', 0, 0), StateStartPending},
		{"running", makeRecord(5823, 'u', 0, 0), StateRunning},
		{"running no want", makeRecord(5823, 0, 0, 0), StateRunning},
		{"paused", makeRecord(5823, 'u', 1, 0), StatePaused},
		{"stopping", makeRecord(5823, 'd', 0, 0), StateStopPending},
		{"finishing with process", makeRecord(5823, 'u', 0, 1), StateStopPending},
		{"finish script running", makeRecord(0, 0, 0, 1), StateStopPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeStatusRecord(tt.record)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("decodeStatusRecord() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeStatusRecordSize(t *testing.T) {
	for _, size := range []int{0, 1, 19, 21, 64} {
		if _, err := decodeStatusRecord(make([]byte, size)); !errors.Is(err, ErrDecode) {
			t.Errorf("size %d: error = %v, want ErrDecode", size, err)
		}
	}
}

func TestEncodeDecodeAgreement(t *testing.T) {
	// The fixture encoder and the backend decoder must agree on every
	// state the encoder can express
	states := []State{StateStopped, StateStartPending, StateRunning, StateStopPending, StatePaused}
	for _, state := range states {
		t.Run(state.String(), func(t *testing.T) {
			got, err := decodeStatusRecord(EncodeStatusRecord(state, 123))
			if err != nil {
				t.Fatal(err)
			}
			if got != state {
				t.Errorf("decode(encode(%v)) = %v", state, got)
			}
		})
	}
}

func FuzzDecodeStatusRecord(f *testing.F) {
	f.Add(makeRecord(0, 'd', 0, 0))
	f.Add(makeRecord(917, 'u', 0, 0))
	f.Add(make([]byte, StatusRecordSize))

	f.Fuzz(func(t *testing.T, data []byte) {
		state, err := decodeStatusRecord(data)
		if len(data) != StatusRecordSize {
			if err == nil {
				t.Fatalf("decode accepted %d bytes", len(data))
			}
			return
		}
		if err != nil {
			t.Fatalf("decode rejected a full-size record: %v", err)
		}
		if state.String() == "" {
			t.Fatal("decoded state has no string form")
		}
	})
}

func BenchmarkDecodeStatusRecord(b *testing.B) {
	record := makeRecord(5823, 'u', 0, 0)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := decodeStatusRecord(record); err != nil {
			b.Fatal(err)
		}
	}
}
