package recording

import (
	"errors"
	"testing"
	"time"
)

func TestShouldFlushBoundary(t *testing.T) {
	s := NewScheduler(15 * time.Second)
	last := epoch

	tests := []struct {
		after time.Duration
		want  bool
	}{
		{0, false},
		{14*time.Second + 999*time.Millisecond, false},
		{15 * time.Second, true},
		{40 * time.Second, true},
	}
	for _, tt := range tests {
		if got := s.ShouldFlush(last.Add(tt.after), last); got != tt.want {
			t.Errorf("ShouldFlush(+%v) = %v, want %v", tt.after, got, tt.want)
		}
	}
}

func TestNewSchedulerDefault(t *testing.T) {
	if got := NewScheduler(0).Interval; got != DefaultFlushInterval {
		t.Errorf("Interval = %v, want %v", got, DefaultFlushInterval)
	}
}

func TestElapsed(t *testing.T) {
	m, s := Elapsed(epoch.Add(75*time.Second+400*time.Millisecond), epoch)
	if m != 1 || s != 15 {
		t.Errorf("Elapsed = %d:%d, want 1:15", m, s)
	}

	m, s = Elapsed(epoch, epoch.Add(time.Second))
	if m != 0 || s != 0 {
		t.Errorf("negative Elapsed = %d:%d, want 0:0", m, s)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := map[time.Duration]string{
		0:                              "00:00",
		9 * time.Second:                "00:09",
		75 * time.Second:               "01:15",
		62*time.Minute + 5*time.Second: "62:05",
		-3 * time.Second:               "00:00",
	}
	for d, want := range tests {
		if got := FormatElapsed(d); got != want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestStateTransitions(t *testing.T) {
	var m stateMachine
	if m.Current() != Idle {
		t.Fatalf("initial state = %s, want idle", m.Current())
	}
	if err := m.Transition(Recording); err != nil {
		t.Fatalf("idle -> recording: %v", err)
	}
	if err := m.Transition(Idle); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("recording -> idle err = %v, want ErrInvalidTransition", err)
	}
	if err := m.Transition(Stopped); err != nil {
		t.Fatalf("recording -> stopped: %v", err)
	}
	if err := m.Transition(Recording); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("stopped -> recording err = %v, want ErrInvalidTransition", err)
	}
}
