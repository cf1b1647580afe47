package tui

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jwulff/minutes/internal/daemon"

	tea "github.com/charmbracelet/bubbletea"
)

// TestLiveTUIFlow drives the model against a running daemon. Skipped unless
// MINUTES_SOCKET_PATH points at a live socket.
func TestLiveTUIFlow(t *testing.T) {
	sockPath := os.Getenv("MINUTES_SOCKET_PATH")
	if sockPath == "" {
		t.Skip("MINUTES_SOCKET_PATH not set")
	}
	if _, err := os.Stat(sockPath); os.IsNotExist(err) {
		t.Skip("daemon not running")
	}

	m := New(sockPath)
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 120, Height: 40})

	client, err := daemon.Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()
	m, _ = applyUpdate(m, DaemonConnectedMsg{Client: client})
	if !m.connected {
		t.Fatal("expected connected")
	}

	resp, err := client.SendCommand(daemon.Command{Cmd: daemon.CmdStatus})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	m, _ = applyUpdate(m, StatusResponseMsg{Response: resp})
	fmt.Printf("Status: recording=%v elapsed=%s\n", m.recording, m.elapsed)

	resp, err = client.SendCommand(daemon.Command{Cmd: daemon.CmdSessions})
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	m, _ = applyUpdate(m, SessionsLoadedMsg{Response: resp})
	fmt.Printf("Sessions: %d\n", len(m.sessions))

	evClient, err := daemon.Connect(sockPath)
	if err != nil {
		t.Fatalf("connect event: %v", err)
	}
	defer evClient.Close()
	if sub, err := evClient.SendCommand(daemon.Command{Cmd: daemon.CmdSubscribe}); err != nil || !sub.OK {
		t.Fatalf("subscribe: %v %s", err, sub.Error)
	}

	// Collect whatever the daemon publishes for a few seconds.
	counts := map[string]int{}
	events := make(chan daemon.Event)
	go func() {
		defer close(events)
		for {
			ev, err := evClient.ReadEvent()
			if err != nil {
				return
			}
			events <- ev
		}
	}()

	deadline := time.After(3 * time.Second)
collect:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				break collect
			}
			counts[ev.Event]++
			m.handleEvent(ev)
		case <-deadline:
			break collect
		}
	}

	fmt.Println("=== View ===")
	fmt.Println(m.View())
	for ev, n := range counts {
		fmt.Printf("  %s: %d\n", ev, n)
	}
}

func applyUpdate(m Model, msg tea.Msg) (Model, tea.Cmd) {
	newModel, cmd := m.Update(msg)
	return newModel.(Model), cmd
}
