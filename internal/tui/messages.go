package tui

import "github.com/jwulff/minutes/internal/daemon"

// DaemonConnectedMsg is sent when both daemon connections are established.
type DaemonConnectedMsg struct {
	Client   *daemon.Client // commands
	EvClient *daemon.Client // event subscription
}

// DaemonConnectErrorMsg is sent when the daemon connection fails.
type DaemonConnectErrorMsg struct {
	Err error
}

// DaemonEventMsg wraps a streamed event from the daemon.
type DaemonEventMsg struct {
	Event daemon.Event
}

// DaemonEventErrorMsg is sent when a connection breaks.
type DaemonEventErrorMsg struct {
	Err error
}

// StatusResponseMsg carries the response to a status command.
type StatusResponseMsg struct {
	Response daemon.Response
}

// StopResponseMsg carries the response to a stop command.
type StopResponseMsg struct {
	Response daemon.Response
}

// SessionsLoadedMsg carries the catalog listing.
type SessionsLoadedMsg struct {
	Response daemon.Response
}

// SessionOpenedMsg carries an opened session.
type SessionOpenedMsg struct {
	Response daemon.Response
}

// SaveTitleMsg asks the daemon to title a session. Title is the submitted
// value, copied out of the input when it was confirmed.
type SaveTitleMsg struct {
	SessionID string
	Title     string
}

// TitleSavedMsg carries the response to a title command.
type TitleSavedMsg struct {
	SessionID string
	Response  daemon.Response
}

// SummaryResponseMsg carries the response to a summarize command.
type SummaryResponseMsg struct {
	SessionID string
	Response  daemon.Response
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}

// ReconnectTickMsg triggers a reconnection attempt.
type ReconnectTickMsg struct{}
