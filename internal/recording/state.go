package recording

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidTransition is returned when a session is asked to move to a
// state it cannot reach from its current one.
var ErrInvalidTransition = errors.New("invalid state transition")

// State is the lifecycle position of a recording session.
type State int

const (
	Idle State = iota
	Recording
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var validTransitions = map[State][]State{
	Idle:      {Recording, Stopped},
	Recording: {Stopped},
}

type stateMachine struct {
	mu      sync.RWMutex
	current State
}

func (m *stateMachine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *stateMachine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range validTransitions[m.current] {
		if s == to {
			m.current = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, to)
}
