package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwulff/minutes/internal/ui"
)

func (m *Model) scrollToBottom() {
	m.transcriptScroll = m.maxTranscriptScroll()
}

func (m Model) transcriptLines() []string {
	return wrapText(m.transcript, max(10, m.livePanelWidth()-2))
}

func (m Model) maxTranscriptScroll() int {
	total := len(m.transcriptLines())
	visible := m.contentHeight() - 1
	if total <= visible {
		return 0
	}
	return total - visible
}

func (m Model) contentHeight() int {
	if m.height == 0 {
		return 20
	}
	// header, status, two dividers, error, title entry, footer
	reserved := 8
	return max(5, m.height-reserved)
}

func (m Model) sessionPanelWidth() int {
	if m.width == 0 {
		return 30
	}
	return max(20, m.width*30/100)
}

func (m Model) livePanelWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(30, m.width-m.sessionPanelWidth()-3)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	sections := []string{
		m.renderHeader(),
		m.renderStatusBar(),
		ui.DividerStyle.Render(strings.Repeat("─", m.width)),
		m.renderMainContent(),
		ui.DividerStyle.Render(strings.Repeat("─", m.width)),
	}

	if m.editingTitle {
		sections = append(sections, ui.PanelTitleActiveStyle.Render("Title: ")+m.titleInput.View())
	}
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("MINUTES")
	if m.sessionID != "" {
		title += ui.DimStyle.Render("  " + m.sessionID)
	}
	return title
}

func (m Model) renderStatusBar() string {
	var dot string
	if m.recording {
		dot = ui.RecordingDotStyle.Render("● REC")
	} else {
		dot = ui.IdleDotStyle.Render("○ IDLE")
	}

	parts := []string{
		dot,
		ui.ElapsedStyle.Render(m.elapsed),
		ui.DimStyle.Render(fmt.Sprintf("chunks %d", m.chunks)),
	}
	if m.failed > 0 {
		parts = append(parts, ui.ErrorTextStyle.Render(fmt.Sprintf("failed %d", m.failed)))
	}
	if m.busy() {
		parts = append(parts, m.spinner.View())
	}
	if m.statusText != "" {
		parts = append(parts, ui.StatusStyle.Render(m.statusText))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderMainContent() string {
	leftW := m.sessionPanelWidth()
	rightW := m.livePanelWidth()
	h := m.contentHeight()

	left := strings.Split(m.renderSessionsPanel(leftW, h), "\n")
	var right []string
	if m.opened != nil {
		right = strings.Split(m.renderOpenedPanel(rightW, h), "\n")
	} else {
		right = strings.Split(m.renderLivePanel(rightW, h), "\n")
	}

	divider := ui.DividerStyle.Render("│")
	rows := make([]string, 0, h)
	for i := 0; i < h; i++ {
		l := strings.Repeat(" ", leftW)
		if i < len(left) {
			l = left[i]
		}
		r := ""
		if i < len(right) {
			r = right[i]
		}
		rows = append(rows, l+divider+r)
	}
	return strings.Join(rows, "\n")
}

func (m Model) panelHeader(title string, focused bool) string {
	if focused {
		return ui.PanelTitleActiveStyle.Render(title)
	}
	return ui.PanelTitleStyle.Render(title)
}

func (m Model) renderSessionsPanel(width, height int) string {
	lines := []string{m.panelHeader(fmt.Sprintf("SESSIONS (%d)", len(m.sessions)), m.focusedPanel == FocusSessions)}

	if len(m.sessions) == 0 {
		lines = append(lines, ui.DimStyle.Render("  No sessions yet"))
	}
	for i, s := range m.sessions {
		marker := "  "
		if s.NeedsTitle {
			marker = ui.NeedsTitleStyle.Render("* ")
		}
		var line string
		if i == m.selected && m.focusedPanel == FocusSessions {
			line = ui.SelectedStyle.Render("> ") + marker + ui.SelectedStyle.Render(s.Label)
		} else {
			line = "  " + marker + s.Label
		}
		lines = append(lines, truncateToWidth(line, width))
	}

	return fitLines(lines, width, height)
}

func (m Model) renderLivePanel(width, height int) string {
	badge := ui.ScrollBadgeStyle.Render(" SCROLL")
	if m.transcriptLive {
		badge = ui.LiveBadgeStyle.Render(" LIVE")
	}
	lines := []string{m.panelHeader("TRANSCRIPT", m.focusedPanel == FocusLive) + badge}
	contentHeight := height - 1

	switch {
	case !m.connected && m.reconnecting:
		lines = append(lines, "", ui.ErrorTextStyle.Render("  Daemon disconnected. Reconnecting..."))
		lines = append(lines, ui.DimStyle.Render("  Start with: minutes serve"))
	case !m.connected:
		lines = append(lines, ui.DimStyle.Render("  Connecting to minutes daemon..."))
	case m.transcript == "":
		lines = append(lines, "")
		if m.recording {
			lines = append(lines, ui.DimStyle.Render("  Listening. Text appears after each chunk."))
		} else {
			lines = append(lines, ui.DimStyle.Render("  Waiting for an audio stream"))
		}
	default:
		display := m.transcriptLines()
		start := m.transcriptScroll
		if m.transcriptLive {
			start = len(display) - contentHeight
		}
		start = max(0, min(start, len(display)))
		end := min(len(display), start+contentHeight)
		for _, l := range display[start:end] {
			lines = append(lines, "  "+l)
		}
	}

	if m.lastError != "" && len(lines) < height {
		lines = append(lines, ui.ErrorTextStyle.Render("  last chunk failed: "+m.lastError))
	}
	return fitLines(lines, 0, height)
}

func (m Model) renderOpenedPanel(width, height int) string {
	v := m.opened
	lines := []string{m.panelHeader("SESSION "+v.ID, m.focusedPanel == FocusSessions)}
	textWidth := max(10, width-4)

	if v.NeedsTitle {
		lines = append(lines, ui.NeedsTitleStyle.Render("  Untitled. Press t to add a title."))
		return fitLines(lines, 0, height)
	}

	lines = append(lines, ui.SelectedStyle.Render("  "+v.Title), "")
	lines = append(lines, ui.PanelTitleStyle.Render("  Summary"))
	switch {
	case m.summarizing || m.opening:
		lines = append(lines, "  "+m.spinner.View()+ui.DimStyle.Render(" generating..."))
	case v.Summary == "":
		lines = append(lines, ui.DimStyle.Render("  (none, press s to generate)"))
	default:
		for _, l := range wrapText(v.Summary, textWidth) {
			lines = append(lines, "  "+l)
		}
	}
	lines = append(lines, "", ui.PanelTitleStyle.Render("  Transcript"))
	for _, l := range wrapText(v.Transcript, textWidth) {
		lines = append(lines, ui.DimStyle.Render("  "+l))
	}

	return fitLines(lines, 0, height)
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	key := func(k, desc string) string {
		return ui.FooterKeyStyle.Render(k) + ui.FooterDescStyle.Render(" "+desc)
	}

	if m.editingTitle {
		return strings.Join([]string{key("Enter", "Save"), key("Esc", "Cancel")}, "  ")
	}

	var parts []string
	if m.connected {
		if m.recording {
			parts = append(parts, key("x", "Stop"))
		}
		parts = append(parts,
			key("Tab", "Focus"),
			key("j/k", "Nav"),
			key("Enter", "Open"),
			key("t", "Title"),
			key("s", "Summary"),
			key("↑↓", "Scroll"),
		)
		if m.opened != nil {
			parts = append(parts, key("Esc", "Close"))
		}
	}
	parts = append(parts, key("q", "Quit"))

	return strings.Join(parts, "  ")
}

// Helpers

// fitLines pads or trims lines to height. A positive width pads each line.
func fitLines(lines []string, width, height int) string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	if width > 0 {
		for i, l := range lines {
			lines[i] = padRight(l, width)
		}
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
