// Package daemon provides the server, client and protocol types for the
// minutes control socket, which speaks NDJSON over a Unix socket.
package daemon

// Commands accepted by the server.
const (
	CmdStatus    = "status"
	CmdSubscribe = "subscribe"
	CmdStop      = "stop"
	CmdSessions  = "sessions"
	CmdShow      = "show"
	CmdTitle     = "title"
	CmdSummarize = "summarize"
)

// Events streamed to subscribers.
const (
	EventStatus  = "status"
	EventSegment = "segment"
	EventError   = "error"
	EventStopped = "stopped"
)

// Command is sent from a client to the daemon.
type Command struct {
	Cmd       string   `json:"cmd"`
	SessionID string   `json:"sessionId,omitempty"`
	Title     string   `json:"title,omitempty"`
	Events    []string `json:"events,omitempty"`
}

// Response is returned by the daemon after processing a command.
type Response struct {
	OK         bool          `json:"ok"`
	Error      string        `json:"error,omitempty"`
	SessionID  string        `json:"sessionId,omitempty"`
	Recording  *bool         `json:"recording,omitempty"`
	State      string        `json:"state,omitempty"`
	Elapsed    string        `json:"elapsed,omitempty"`
	Transcript string        `json:"transcript,omitempty"`
	Chunks     *int          `json:"chunks,omitempty"`
	Failed     *int          `json:"failed,omitempty"`
	Sessions   []SessionInfo `json:"sessions,omitempty"`
	Session    *SessionView  `json:"session,omitempty"`
	Summary    string        `json:"summary,omitempty"`
}

// SessionInfo is one catalog entry.
type SessionInfo struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	Title         string `json:"title,omitempty"`
	NeedsTitle    bool   `json:"needsTitle"`
	HasTranscript bool   `json:"hasTranscript"`
	HasSummary    bool   `json:"hasSummary"`
}

// SessionView is an opened session.
type SessionView struct {
	ID         string `json:"id"`
	NeedsTitle bool   `json:"needsTitle"`
	Title      string `json:"title,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// Event is streamed from the daemon to subscribed clients.
type Event struct {
	Event          string `json:"event"`
	SessionID      string `json:"sessionId,omitempty"`
	Text           string `json:"text,omitempty"`
	Elapsed        string `json:"elapsed,omitempty"`
	SequenceNumber *int   `json:"sequenceNumber,omitempty"`
	Failed         *int   `json:"failed,omitempty"`
	Message        string `json:"message,omitempty"`
	Recording      *bool  `json:"recording,omitempty"`
}

// BoolPtr returns a pointer to a bool value. Convenience for building responses.
func BoolPtr(b bool) *bool { return &b }

// IntPtr returns a pointer to an int value.
func IntPtr(i int) *int { return &i }
