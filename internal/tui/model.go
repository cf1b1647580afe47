// Package tui is the terminal client for the minutes daemon: a live panel
// following the recording session and a catalog panel for past sessions.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/jwulff/minutes/internal/daemon"
	"github.com/jwulff/minutes/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// PanelFocus tracks which panel has keyboard focus.
type PanelFocus int

const (
	FocusSessions PanelFocus = iota
	FocusLive
)

// Model is the root bubbletea model for the minutes TUI.
type Model struct {
	sockPath string

	// Connection state
	client    *daemon.Client // command connection
	evClient  *daemon.Client // event subscription connection
	connected bool
	connError string

	// Live session
	recording  bool
	sessionID  string
	elapsed    string
	transcript string
	chunks     int
	failed     int
	lastError  string

	// Catalog
	sessions    []daemon.SessionInfo
	selected    int
	opened      *daemon.SessionView
	opening     bool
	summarizing bool
	spinner     spinner.Model

	// Title entry
	titleInput   textinput.Model
	editingTitle bool
	titleTarget  string

	// UI state
	focusedPanel     PanelFocus
	width            int
	height           int
	transcriptScroll int
	transcriptLive   bool

	// Errors
	errorMessage   string
	errorTransient bool

	statusText string

	// Reconnect
	reconnecting     bool
	reconnectAttempt int
}

// New creates a model that talks to the daemon at sockPath.
func New(sockPath string) Model {
	in := textinput.New()
	in.Placeholder = "Session title"
	in.CharLimit = 120
	in.Width = 50

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.SpinnerStyle

	return Model{
		sockPath:       sockPath,
		elapsed:        "00:00",
		titleInput:     in,
		spinner:        s,
		statusText:     "Connecting to minutes daemon...",
		transcriptLive: true,
		focusedPanel:   FocusLive,
	}
}

// Init connects to the daemon.
func (m Model) Init() tea.Cmd {
	return connectCmd(m.sockPath)
}

func (m Model) busy() bool {
	return m.opening || m.summarizing
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.editingTitle {
			return m.handleTitleKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case DaemonConnectedMsg:
		m.client = msg.Client
		m.evClient = msg.EvClient
		m.connected = true
		m.connError = ""
		m.reconnecting = false
		m.reconnectAttempt = 0
		m.statusText = "Connected"
		return m, tea.Batch(
			subscribeCmd(m.evClient),
			statusCmd(m.client),
			sessionsCmd(m.client),
		)

	case DaemonConnectErrorMsg:
		m.connected = false
		m.connError = msg.Err.Error()
		m.reconnecting = true
		m.statusText = "Daemon not running. Reconnecting..."
		return m, reconnectCmd(m.reconnectAttempt)

	case StatusResponseMsg:
		m.applyStatus(msg.Response)
		return m, nil

	case StopResponseMsg:
		if !msg.Response.OK {
			return m, m.showError(msg.Response.Error, true)
		}
		m.statusText = "Stopping..."
		return m, nil

	case SessionsLoadedMsg:
		if !msg.Response.OK {
			return m, m.showError(msg.Response.Error, true)
		}
		m.sessions = msg.Response.Sessions
		if m.selected >= len(m.sessions) {
			m.selected = max(0, len(m.sessions)-1)
		}
		return m, nil

	case SessionOpenedMsg:
		m.opening = false
		r := msg.Response
		if r.Session == nil {
			return m, m.showError(r.Error, true)
		}
		m.opened = r.Session
		var cmds []tea.Cmd
		if r.Error != "" {
			// The view is still usable; only the summary is missing.
			cmds = append(cmds, m.showError(r.Error, true))
		}
		if r.Session.NeedsTitle {
			cmds = append(cmds, m.beginTitle(r.Session.ID, ""))
		}
		return m, tea.Batch(cmds...)

	case SaveTitleMsg:
		if m.client == nil {
			return m, m.showError("not connected", true)
		}
		m.statusText = "Saving title..."
		return m, titleCmd(m.client, msg.SessionID, msg.Title)

	case TitleSavedMsg:
		if !msg.Response.OK {
			return m, m.showError(msg.Response.Error, true)
		}
		m.statusText = "Title saved"
		cmds := []tea.Cmd{sessionsCmd(m.client)}
		if m.opened != nil && m.opened.ID == msg.SessionID {
			// Reopen so the summary is generated now that the session has a title.
			m.opening = true
			cmds = append(cmds, showCmd(m.client, msg.SessionID), m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case SummaryResponseMsg:
		m.summarizing = false
		if !msg.Response.OK {
			return m, m.showError(msg.Response.Error, true)
		}
		if m.opened != nil && m.opened.ID == msg.SessionID {
			m.opened.Summary = msg.Response.Summary
		}
		m.statusText = "Summary ready"
		return m, sessionsCmd(m.client)

	case DaemonEventMsg:
		cmd := m.handleEvent(msg.Event)
		return m, tea.Batch(cmd, readEventCmd(m.evClient))

	case DaemonEventErrorMsg:
		m.connected = false
		m.connError = msg.Err.Error()
		m.statusText = "Disconnected. Reconnecting..."
		m.reconnecting = true
		m.opening = false
		m.summarizing = false
		if m.client != nil {
			m.client.Close()
			m.client = nil
		}
		if m.evClient != nil {
			m.evClient.Close()
			m.evClient = nil
		}
		return m, reconnectCmd(m.reconnectAttempt)

	case ReconnectTickMsg:
		m.reconnectAttempt++
		return m, connectCmd(m.sockPath)

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) applyStatus(r daemon.Response) {
	if !r.OK {
		m.errorMessage = r.Error
		return
	}
	if r.SessionID != "" && r.SessionID != m.sessionID {
		m.resetLive(r.SessionID)
	}
	if r.Recording != nil {
		m.recording = *r.Recording
	}
	if r.Elapsed != "" {
		m.elapsed = r.Elapsed
	}
	if r.Transcript != "" {
		m.transcript = r.Transcript
	}
	if r.Chunks != nil {
		m.chunks = *r.Chunks
	}
	if r.Failed != nil {
		m.failed = *r.Failed
	}
	if m.recording {
		m.statusText = "Recording"
	} else if r.State != "" {
		m.statusText = r.State
	}
}

// resetLive clears the live panel for a new session.
func (m *Model) resetLive(sessionID string) {
	m.sessionID = sessionID
	m.transcript = ""
	m.chunks = 0
	m.failed = 0
	m.lastError = ""
	m.elapsed = "00:00"
	m.transcriptScroll = 0
	m.transcriptLive = true
}

// handleEvent processes a daemon event and returns any resulting command.
func (m *Model) handleEvent(ev daemon.Event) tea.Cmd {
	if ev.SessionID != "" && ev.SessionID != m.sessionID {
		m.resetLive(ev.SessionID)
	}
	if ev.Elapsed != "" {
		m.elapsed = ev.Elapsed
	}

	switch ev.Event {
	case daemon.EventStatus:
		if ev.Recording != nil {
			m.recording = *ev.Recording
			if m.recording {
				m.statusText = "Recording"
			}
		}

	case daemon.EventSegment:
		m.transcript += ev.Text
		m.chunks++
		if m.transcriptLive {
			m.scrollToBottom()
		}

	case daemon.EventError:
		m.lastError = ev.Message
		if ev.Failed != nil {
			m.failed = *ev.Failed
		}
		return m.showError(ev.Message, true)

	case daemon.EventStopped:
		m.recording = false
		m.statusText = "Stopped"
		if m.client != nil {
			return sessionsCmd(m.client)
		}
	}

	return nil
}

// showError displays msg; transient errors clear themselves.
func (m *Model) showError(msg string, transient bool) tea.Cmd {
	if msg == "" {
		msg = "request failed"
	}
	m.errorMessage = msg
	m.errorTransient = transient
	if transient {
		return clearTransientErrorCmd()
	}
	return nil
}

func (m *Model) beginTitle(id, current string) tea.Cmd {
	m.editingTitle = true
	m.titleTarget = id
	m.titleInput.SetValue(current)
	m.titleInput.CursorEnd()
	return m.titleInput.Focus()
}

func (m *Model) endTitle() {
	m.editingTitle = false
	m.titleTarget = ""
	m.titleInput.Blur()
	m.titleInput.Reset()
}

// handleTitleKey routes keys to the title input while it is open.
func (m Model) handleTitleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyCtrlC:
		return m.quit()

	case KeyEsc:
		m.endTitle()
		return m, nil

	case KeyEnter:
		title := strings.TrimSpace(m.titleInput.Value())
		if title == "" {
			return m, m.showError("title cannot be blank", true)
		}
		id := m.titleTarget
		m.endTitle()
		return m, saveTitleCmd(id, title)
	}

	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.client != nil {
		m.client.Close()
	}
	if m.evClient != nil {
		m.evClient.Close()
	}
	return m, tea.Quit
}

func (m Model) selectedSession() (daemon.SessionInfo, bool) {
	if m.selected < 0 || m.selected >= len(m.sessions) {
		return daemon.SessionInfo{}, false
	}
	return m.sessions[m.selected], true
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		return m.quit()

	case KeyTab:
		if m.focusedPanel == FocusSessions {
			m.focusedPanel = FocusLive
		} else {
			m.focusedPanel = FocusSessions
		}
		return m, nil

	case KeyJ:
		if m.focusedPanel == FocusSessions && m.selected < len(m.sessions)-1 {
			m.selected++
		}
		return m, nil

	case KeyK:
		if m.focusedPanel == FocusSessions && m.selected > 0 {
			m.selected--
		}
		return m, nil

	case KeyEnter:
		sess, ok := m.selectedSession()
		if m.focusedPanel != FocusSessions || !ok || !m.connected {
			return m, nil
		}
		m.opening = true
		return m, tea.Batch(showCmd(m.client, sess.ID), m.spinner.Tick)

	case KeyEsc:
		m.opened = nil
		return m, nil

	case KeyTitle:
		sess, ok := m.selectedSession()
		if m.focusedPanel != FocusSessions || !ok {
			return m, nil
		}
		return m, m.beginTitle(sess.ID, sess.Title)

	case KeySummarize:
		if !m.connected || m.summarizing {
			return m, nil
		}
		id := ""
		if m.opened != nil {
			id = m.opened.ID
		} else if sess, ok := m.selectedSession(); ok {
			id = sess.ID
		}
		if id == "" {
			return m, nil
		}
		m.summarizing = true
		return m, tea.Batch(summarizeCmd(m.client, id), m.spinner.Tick)

	case KeyStop:
		if !m.connected || !m.recording {
			return m, nil
		}
		return m, stopCmd(m.client)

	case KeyRefresh:
		if !m.connected {
			return m, nil
		}
		return m, sessionsCmd(m.client)

	case KeyUp:
		if m.focusedPanel == FocusLive {
			m.transcriptLive = false
			if m.transcriptScroll > 0 {
				m.transcriptScroll--
			}
		}
		return m, nil

	case KeyDown:
		if m.focusedPanel == FocusLive {
			maxScroll := m.maxTranscriptScroll()
			m.transcriptScroll++
			if m.transcriptScroll >= maxScroll {
				m.transcriptScroll = maxScroll
				m.transcriptLive = true
			}
		}
		return m, nil
	}

	return m, nil
}
