package scc

import (
	"errors"
	"testing"
)

func TestParseVerb(t *testing.T) {
	tests := []struct {
		in      string
		want    Verb
		wantErr bool
	}{
		{"start", VerbStart, false},
		{"stop", VerbStop, false},
		{"restart", VerbRestart, false},
		{"Start", VerbStart, false},
		{"STOP", VerbStop, false},
		{"ReStArT", VerbRestart, false},
		{"", VerbUnknown, true},
		{"reload", VerbUnknown, true},
		{"star", VerbUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVerb(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseVerb(%q): expected error", tt.in)
				}
				if !errors.Is(err, ErrUnknownVerb) {
					t.Errorf("ParseVerb(%q) error = %v, want ErrUnknownVerb", tt.in, err)
				}
			} else if err != nil {
				t.Fatalf("ParseVerb(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseVerb(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVerbString(t *testing.T) {
	if VerbStart.String() != "start" || VerbStop.String() != "stop" || VerbRestart.String() != "restart" {
		t.Error("verb string representations changed")
	}
	if Verb(99).String() != "unknown" {
		t.Errorf("Verb(99).String() = %q, want unknown", Verb(99).String())
	}
}
