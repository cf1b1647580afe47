package recording

import (
	"time"

	"github.com/jwulff/minutes/internal/store"
)

// UpdateKind tells subscribers what changed.
type UpdateKind string

const (
	UpdateStatus  UpdateKind = "status"
	UpdateSegment UpdateKind = "segment"
	UpdateError   UpdateKind = "error"
	UpdateStopped UpdateKind = "stopped"
)

// Status is a point-in-time view of a session.
type Status struct {
	Kind      UpdateKind
	SessionID store.ID
	State     State
	StartedAt time.Time
	Elapsed   time.Duration
	// Recorded is the duration of audio captured so far.
	Recorded   time.Duration
	Transcript string
	// Segment is the text added by the flush that produced this update.
	Segment       string
	ChunksFlushed int
	ChunksFailed  int
	LastError     string
}

// ElapsedString renders Elapsed as MM:SS.
func (s Status) ElapsedString() string {
	return FormatElapsed(s.Elapsed)
}
