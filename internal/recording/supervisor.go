package recording

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/jwulff/minutes/internal/transport"
)

var (
	// ErrBusy is returned when a session is already recording.
	ErrBusy = errors.New("a session is already recording")
	// ErrNotRecording is returned by Stop when nothing is recording.
	ErrNotRecording = errors.New("no session is recording")
)

// Supervisor runs at most one session at a time and fans its updates out
// to subscribers.
type Supervisor struct {
	opts Options

	mu     sync.Mutex
	active *Session
	src    transport.Source
	done   chan struct{}
	last   Status
	subs   map[int]chan Status
	nextID int
}

// NewSupervisor returns a supervisor creating sessions with opts.
func NewSupervisor(opts Options) *Supervisor {
	return &Supervisor{
		opts: opts,
		subs: make(map[int]chan Status),
		last: Status{State: Idle},
	}
}

// Start records src in a new background session.
func (s *Supervisor) Start(ctx context.Context, src transport.Source) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return nil, ErrBusy
	}

	sess := NewSession(s.opts)
	done := make(chan struct{})
	s.active = sess
	s.src = src
	s.done = done

	go s.forward(sess, done)
	go func() {
		if err := sess.Run(ctx, src); err != nil {
			log.Printf("[RECORDER]: session ended with error: %v", err)
		}
	}()

	return sess, nil
}

// forward relays session updates until the session closes its channel.
func (s *Supervisor) forward(sess *Session, done chan struct{}) {
	for st := range sess.Updates() {
		s.broadcast(st)
	}

	final := sess.Snapshot()
	s.mu.Lock()
	s.last = final
	if s.active == sess {
		s.active = nil
		s.src = nil
	}
	s.mu.Unlock()
	close(done)
}

func (s *Supervisor) broadcast(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = st
	for _, ch := range s.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

// Active reports whether a session is recording.
func (s *Supervisor) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// Status returns the active session's snapshot, or the last status seen
// when idle.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	active := s.active
	last := s.last
	s.mu.Unlock()

	if active != nil {
		return active.Snapshot()
	}
	return last
}

// Stop ends the active session's stream. The session finishes its current
// iteration and stops; use Wait to block until it has.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	src := s.src
	s.mu.Unlock()

	if src == nil {
		return ErrNotRecording
	}
	stopper, ok := src.(transport.Stopper)
	if !ok {
		return errors.New("source cannot be stopped")
	}
	stopper.Stop()
	return nil
}

// Wait blocks until the active session, if any, has stopped.
func (s *Supervisor) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Subscribe returns a channel receiving every session update. Slow
// subscribers miss updates.
func (s *Supervisor) Subscribe() (int, <-chan Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	ch := make(chan Status, updateBuffer)
	s.subs[s.nextID] = ch
	return s.nextID, ch
}

// Unsubscribe removes and closes a subscription.
func (s *Supervisor) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}
