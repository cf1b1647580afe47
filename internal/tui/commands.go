package tui

import (
	"errors"
	"time"

	"github.com/jwulff/minutes/internal/daemon"

	tea "github.com/charmbracelet/bubbletea"
)

// connectCmd opens two connections to the daemon: one for commands, one
// for the event subscription.
func connectCmd(sockPath string) tea.Cmd {
	return func() tea.Msg {
		client, err := daemon.Connect(sockPath)
		if err != nil {
			return DaemonConnectErrorMsg{Err: err}
		}
		evClient, err := daemon.Connect(sockPath)
		if err != nil {
			client.Close()
			return DaemonConnectErrorMsg{Err: err}
		}
		return DaemonConnectedMsg{Client: client, EvClient: evClient}
	}
}

// subscribeCmd subscribes the event client and reads the first event.
func subscribeCmd(evClient *daemon.Client) tea.Cmd {
	return func() tea.Msg {
		resp, err := evClient.SendCommand(daemon.Command{Cmd: daemon.CmdSubscribe})
		if err != nil {
			return DaemonEventErrorMsg{Err: err}
		}
		if !resp.OK {
			return DaemonEventErrorMsg{Err: errorFromResponse(resp)}
		}
		return readEventCmd(evClient)()
	}
}

// readEventCmd reads the next event from the event client.
func readEventCmd(evClient *daemon.Client) tea.Cmd {
	return func() tea.Msg {
		ev, err := evClient.ReadEvent()
		if err != nil {
			return DaemonEventErrorMsg{Err: err}
		}
		return DaemonEventMsg{Event: ev}
	}
}

func statusCmd(client *daemon.Client) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.SendCommand(daemon.Command{Cmd: daemon.CmdStatus})
		if err != nil {
			return DaemonEventErrorMsg{Err: err}
		}
		return StatusResponseMsg{Response: resp}
	}
}

func stopCmd(client *daemon.Client) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.SendCommand(daemon.Command{Cmd: daemon.CmdStop})
		if err != nil {
			return DaemonEventErrorMsg{Err: err}
		}
		return StopResponseMsg{Response: resp}
	}
}

func sessionsCmd(client *daemon.Client) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.SendCommand(daemon.Command{Cmd: daemon.CmdSessions})
		if err != nil {
			return DaemonEventErrorMsg{Err: err}
		}
		return SessionsLoadedMsg{Response: resp}
	}
}

// showCmd opens a session. The daemon generates a missing summary before
// answering, so this can take a while for titled sessions.
func showCmd(client *daemon.Client, id string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.SendCommand(daemon.Command{Cmd: daemon.CmdShow, SessionID: id})
		if err != nil {
			return DaemonEventErrorMsg{Err: err}
		}
		return SessionOpenedMsg{Response: resp}
	}
}

// saveTitleCmd submits a title. Both values are captured when the command
// is built.
func saveTitleCmd(id, title string) tea.Cmd {
	return func() tea.Msg {
		return SaveTitleMsg{SessionID: id, Title: title}
	}
}

func titleCmd(client *daemon.Client, id, title string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.SendCommand(daemon.Command{Cmd: daemon.CmdTitle, SessionID: id, Title: title})
		if err != nil {
			return DaemonEventErrorMsg{Err: err}
		}
		return TitleSavedMsg{SessionID: id, Response: resp}
	}
}

func summarizeCmd(client *daemon.Client, id string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.SendCommand(daemon.Command{Cmd: daemon.CmdSummarize, SessionID: id})
		if err != nil {
			return DaemonEventErrorMsg{Err: err}
		}
		return SummaryResponseMsg{SessionID: id, Response: resp}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// reconnectDelay is 1s, 2s, 4s, 8s, then 16s.
func reconnectDelay(attempt int) time.Duration {
	delay := time.Duration(1<<min(attempt, 4)) * time.Second
	return min(delay, 30*time.Second)
}

// reconnectCmd schedules a reconnection attempt with exponential backoff.
func reconnectCmd(attempt int) tea.Cmd {
	return tea.Tick(reconnectDelay(attempt), func(time.Time) tea.Msg {
		return ReconnectTickMsg{}
	})
}

func errorFromResponse(resp daemon.Response) error {
	if resp.Error == "" {
		return errors.New("daemon refused the request")
	}
	return errors.New(resp.Error)
}
