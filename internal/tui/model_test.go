package tui

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwulff/minutes/internal/daemon"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func withSessions(m Model) Model {
	m.connected = true
	m.width = 100
	m.height = 30
	m.focusedPanel = FocusSessions
	m.sessions = []daemon.SessionInfo{
		{ID: "2024_03_05_14_30_00", Label: "2024_03_05_14_30_00 - Weekly", Title: "Weekly"},
		{ID: "2024_03_04_09_00_00", Label: "2024_03_04_09_00_00", NeedsTitle: true},
		{ID: "2024_03_01_16_45_10", Label: "2024_03_01_16_45_10 - Retro", Title: "Retro"},
	}
	return m
}

func TestNewModel(t *testing.T) {
	m := New("/tmp/minutes.sock")
	if m.connected {
		t.Error("new model should not be connected")
	}
	if m.recording {
		t.Error("new model should not be recording")
	}
	if !m.transcriptLive {
		t.Error("new model should be in live mode")
	}
	if m.focusedPanel != FocusLive {
		t.Error("new model should focus the live panel")
	}
	if m.elapsed != "00:00" {
		t.Errorf("elapsed = %q, want 00:00", m.elapsed)
	}
}

func TestDaemonConnectError(t *testing.T) {
	m := New("/tmp/minutes.sock")

	model, cmd := apply(t, m, DaemonConnectErrorMsg{Err: fmt.Errorf("connection refused")})

	if model.connected {
		t.Error("should not be connected after error")
	}
	if !model.reconnecting {
		t.Error("should be reconnecting after connect error")
	}
	if cmd == nil {
		t.Error("connect error should schedule a reconnect")
	}
}

func TestReconnectDelay(t *testing.T) {
	want := []time.Duration{1, 2, 4, 8, 16, 16, 16}
	for attempt, w := range want {
		if got := reconnectDelay(attempt); got != w*time.Second {
			t.Errorf("attempt %d: delay = %v, want %v", attempt, got, w*time.Second)
		}
	}
}

func TestStatusResponse(t *testing.T) {
	m := New("/tmp/minutes.sock")
	m.connected = true

	model, _ := apply(t, m, StatusResponseMsg{Response: daemon.Response{
		OK:         true,
		SessionID:  "2024_03_05_14_30_00",
		Recording:  daemon.BoolPtr(true),
		State:      "recording",
		Elapsed:    "03:25",
		Transcript: "bom dia",
		Chunks:     daemon.IntPtr(2),
		Failed:     daemon.IntPtr(1),
	}})

	if !model.recording {
		t.Error("should be recording")
	}
	if model.sessionID != "2024_03_05_14_30_00" {
		t.Errorf("sessionID = %q", model.sessionID)
	}
	if model.elapsed != "03:25" {
		t.Errorf("elapsed = %q", model.elapsed)
	}
	if model.transcript != "bom dia" {
		t.Errorf("transcript = %q", model.transcript)
	}
	if model.chunks != 2 || model.failed != 1 {
		t.Errorf("chunks/failed = %d/%d, want 2/1", model.chunks, model.failed)
	}
}

func TestSegmentEventAppendsTranscript(t *testing.T) {
	m := New("/tmp/minutes.sock")
	m.connected = true
	m.width = 80
	m.height = 24

	m.handleEvent(daemon.Event{Event: daemon.EventSegment, SessionID: "s1", Text: "Olá ", Elapsed: "00:15", SequenceNumber: daemon.IntPtr(1)})
	m.handleEvent(daemon.Event{Event: daemon.EventSegment, SessionID: "s1", Text: "pessoal", Elapsed: "00:30", SequenceNumber: daemon.IntPtr(2)})

	if m.transcript != "Olá pessoal" {
		t.Errorf("transcript = %q", m.transcript)
	}
	if m.chunks != 2 {
		t.Errorf("chunks = %d, want 2", m.chunks)
	}
	if m.elapsed != "00:30" {
		t.Errorf("elapsed = %q, want 00:30", m.elapsed)
	}
}

func TestNewSessionResetsLivePanel(t *testing.T) {
	m := New("/tmp/minutes.sock")
	m.handleEvent(daemon.Event{Event: daemon.EventSegment, SessionID: "old", Text: "left over"})
	m.handleEvent(daemon.Event{Event: daemon.EventError, SessionID: "old", Message: "boom", Failed: daemon.IntPtr(1)})

	m.handleEvent(daemon.Event{Event: daemon.EventStatus, SessionID: "new", Recording: daemon.BoolPtr(true), Elapsed: "00:01"})

	if m.sessionID != "new" {
		t.Errorf("sessionID = %q", m.sessionID)
	}
	if m.transcript != "" || m.chunks != 0 || m.failed != 0 || m.lastError != "" {
		t.Errorf("live panel not reset: %q %d %d %q", m.transcript, m.chunks, m.failed, m.lastError)
	}
	if !m.recording {
		t.Error("should be recording")
	}
}

func TestErrorEvent(t *testing.T) {
	m := New("/tmp/minutes.sock")

	cmd := m.handleEvent(daemon.Event{
		Event:          daemon.EventError,
		Message:        "transcription failed",
		Failed:         daemon.IntPtr(1),
		SequenceNumber: daemon.IntPtr(3),
	})

	if m.errorMessage != "transcription failed" {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
	if m.lastError != "transcription failed" {
		t.Errorf("lastError = %q", m.lastError)
	}
	if m.failed != 1 {
		t.Errorf("failed = %d, want 1", m.failed)
	}
	if cmd == nil {
		t.Error("chunk errors should clear themselves")
	}
}

func TestStoppedEvent(t *testing.T) {
	m := New("/tmp/minutes.sock")
	m.recording = true

	m.handleEvent(daemon.Event{Event: daemon.EventStopped, Recording: daemon.BoolPtr(false)})

	if m.recording {
		t.Error("should not be recording after stopped")
	}
	if m.statusText != "Stopped" {
		t.Errorf("statusText = %q", m.statusText)
	}
}

func TestTabTogglesFocus(t *testing.T) {
	m := New("/tmp/minutes.sock")

	model, _ := apply(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if model.focusedPanel != FocusSessions {
		t.Error("tab should switch to sessions")
	}

	model, _ = apply(t, model, tea.KeyMsg{Type: tea.KeyTab})
	if model.focusedPanel != FocusLive {
		t.Error("tab again should switch back to live")
	}
}

func TestSessionNavigation(t *testing.T) {
	m := withSessions(New("/tmp/minutes.sock"))

	model, _ := apply(t, m, keyRunes("j"))
	if model.selected != 1 {
		t.Errorf("after j, selected = %d, want 1", model.selected)
	}
	model, _ = apply(t, model, keyRunes("j"))
	model, _ = apply(t, model, keyRunes("j"))
	if model.selected != 2 {
		t.Errorf("j past the end: selected = %d, want 2", model.selected)
	}
	model, _ = apply(t, model, keyRunes("k"))
	if model.selected != 1 {
		t.Errorf("after k, selected = %d, want 1", model.selected)
	}
}

func TestSessionsLoadedClampsSelection(t *testing.T) {
	m := withSessions(New("/tmp/minutes.sock"))
	m.selected = 2

	model, _ := apply(t, m, SessionsLoadedMsg{Response: daemon.Response{
		OK:       true,
		Sessions: []daemon.SessionInfo{{ID: "a", Label: "a"}},
	}})

	if len(model.sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(model.sessions))
	}
	if model.selected != 0 {
		t.Errorf("selected = %d, want 0", model.selected)
	}
}

func TestTitleEntryDispatchesValue(t *testing.T) {
	m := withSessions(New("/tmp/minutes.sock"))
	m.selected = 1

	model, _ := apply(t, m, keyRunes("t"))
	if !model.editingTitle {
		t.Fatal("t should open title entry")
	}

	model, _ = apply(t, model, keyRunes("  Planning   sync "))
	model, cmd := apply(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	if model.editingTitle {
		t.Error("enter should close title entry")
	}
	if cmd == nil {
		t.Fatal("enter should dispatch the title")
	}

	// The input is reset after submit; the message keeps the submitted value.
	if model.titleInput.Value() != "" {
		t.Errorf("input not reset: %q", model.titleInput.Value())
	}

	msg, ok := cmd().(SaveTitleMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want SaveTitleMsg", cmd())
	}
	if msg.SessionID != "2024_03_04_09_00_00" {
		t.Errorf("sessionID = %q", msg.SessionID)
	}
	if msg.Title != "Planning   sync" {
		t.Errorf("title = %q", msg.Title)
	}
}

func TestTitleEntryPrefillsExistingTitle(t *testing.T) {
	m := withSessions(New("/tmp/minutes.sock"))

	model, _ := apply(t, m, keyRunes("t"))
	if got := model.titleInput.Value(); got != "Weekly" {
		t.Errorf("input = %q, want Weekly", got)
	}
}

func TestBlankTitleRejected(t *testing.T) {
	m := withSessions(New("/tmp/minutes.sock"))

	model, _ := apply(t, m, keyRunes("t"))
	model.titleInput.SetValue("   ")
	model, _ = apply(t, model, tea.KeyMsg{Type: tea.KeyEnter})

	if !model.editingTitle {
		t.Error("blank title should keep the entry open")
	}
	if model.errorMessage == "" {
		t.Error("blank title should show an error")
	}
}

func TestEscCancelsTitle(t *testing.T) {
	m := withSessions(New("/tmp/minutes.sock"))

	model, _ := apply(t, m, keyRunes("t"))
	model, cmd := apply(t, model, tea.KeyMsg{Type: tea.KeyEsc})

	if model.editingTitle {
		t.Error("esc should close title entry")
	}
	if cmd != nil {
		t.Error("esc should not dispatch anything")
	}
}

func TestKeysGoToTitleInput(t *testing.T) {
	m := withSessions(New("/tmp/minutes.sock"))
	m.selected = 1

	model, _ := apply(t, m, keyRunes("t"))
	model, _ = apply(t, model, keyRunes("q"))

	if !model.editingTitle {
		t.Error("q while editing should type, not quit")
	}
	if model.titleInput.Value() != "q" {
		t.Errorf("input = %q, want q", model.titleInput.Value())
	}
}

func TestOpenedUntitledSessionPromptsForTitle(t *testing.T) {
	m := withSessions(New("/tmp/minutes.sock"))
	m.opening = true

	model, _ := apply(t, m, SessionOpenedMsg{Response: daemon.Response{
		OK:      true,
		Session: &daemon.SessionView{ID: "2024_03_04_09_00_00", NeedsTitle: true},
	}})

	if model.opening {
		t.Error("opening should be cleared")
	}
	if model.opened == nil || model.opened.ID != "2024_03_04_09_00_00" {
		t.Fatalf("opened = %+v", model.opened)
	}
	if !model.editingTitle || model.titleTarget != "2024_03_04_09_00_00" {
		t.Error("untitled session should open title entry")
	}
}

func TestOpenedSessionWithSummaryFailure(t *testing.T) {
	m := withSessions(New("/tmp/minutes.sock"))

	model, _ := apply(t, m, SessionOpenedMsg{Response: daemon.Response{
		Error: "summary generation failed: backend down",
		Session: &daemon.SessionView{
			ID:         "2024_03_05_14_30_00",
			Title:      "Weekly",
			Transcript: "texto",
		},
	}})

	if model.opened == nil {
		t.Fatal("view should still open")
	}
	if model.errorMessage == "" {
		t.Error("summary failure should be shown")
	}
	if model.editingTitle {
		t.Error("titled session should not prompt")
	}
}

func TestSummaryResponseUpdatesOpened(t *testing.T) {
	m := withSessions(New("/tmp/minutes.sock"))
	m.opened = &daemon.SessionView{ID: "2024_03_05_14_30_00", Title: "Weekly"}
	m.summarizing = true

	model, _ := apply(t, m, SummaryResponseMsg{
		SessionID: "2024_03_05_14_30_00",
		Response:  daemon.Response{OK: true, Summary: "Decidimos lançar."},
	})

	if model.summarizing {
		t.Error("summarizing should be cleared")
	}
	if model.opened.Summary != "Decidimos lançar." {
		t.Errorf("summary = %q", model.opened.Summary)
	}
}

func TestSaveTitleWithoutConnection(t *testing.T) {
	m := New("/tmp/minutes.sock")

	model, _ := apply(t, m, SaveTitleMsg{SessionID: "x", Title: "y"})

	if model.errorMessage != "not connected" {
		t.Errorf("errorMessage = %q", model.errorMessage)
	}
}

func TestSaveTitleSendsCommand(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "tui.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	got := make(chan daemon.Command, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		sc := bufio.NewScanner(conn)
		if !sc.Scan() {
			return
		}
		var cmd daemon.Command
		json.Unmarshal(sc.Bytes(), &cmd)
		got <- cmd
		data, _ := json.Marshal(daemon.Response{OK: true, SessionID: cmd.SessionID})
		conn.Write(append(data, '\n'))
	}()

	client, err := daemon.Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	m := New(sockPath)
	m.client = client
	m.connected = true

	_, cmd := apply(t, m, SaveTitleMsg{SessionID: "2024_03_04_09_00_00", Title: "Planning"})
	if cmd == nil {
		t.Fatal("expected a title command")
	}
	saved, ok := cmd().(TitleSavedMsg)
	if !ok {
		t.Fatal("expected TitleSavedMsg")
	}
	if !saved.Response.OK {
		t.Errorf("response = %+v", saved.Response)
	}

	sent := <-got
	if sent.Cmd != daemon.CmdTitle || sent.SessionID != "2024_03_04_09_00_00" || sent.Title != "Planning" {
		t.Errorf("daemon received %+v", sent)
	}
}

func TestStopKeyIgnoredWhenIdle(t *testing.T) {
	m := New("/tmp/minutes.sock")
	m.connected = true

	_, cmd := apply(t, m, keyRunes("x"))
	if cmd != nil {
		t.Error("x should do nothing when idle")
	}
}

func TestViewRendersWithSize(t *testing.T) {
	m := withSessions(New("/tmp/minutes.sock"))
	m.recording = true
	m.elapsed = "03:25"
	m.chunks = 2
	m.failed = 1
	m.transcript = "bom dia a todos"

	view := m.View()
	for _, want := range []string{"MINUTES", "REC", "03:25", "chunks 2", "failed 1", "SESSIONS (3)", "bom dia a todos"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewOpenedSession(t *testing.T) {
	m := withSessions(New("/tmp/minutes.sock"))
	m.opened = &daemon.SessionView{
		ID:         "2024_03_05_14_30_00",
		Title:      "Weekly",
		Summary:    "Resumo curto",
		Transcript: "texto completo",
	}

	view := m.View()
	for _, want := range []string{"Weekly", "Resumo curto", "texto completo"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewWithoutSize(t *testing.T) {
	m := New("/tmp/minutes.sock")
	if view := m.View(); view != "Initializing..." {
		t.Errorf("view without size = %q, want 'Initializing...'", view)
	}
}
