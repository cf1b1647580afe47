package output

import (
	"fmt"
	"io"
	"strings"
	"time"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) Listening(addr, socket string) {
	fmt.Fprintf(f.w, "🎙️  Listening for audio on ws://%s/api/stream\n", addr)
	fmt.Fprintf(f.w, "🔌 Control socket: %s\n", socket)
}

func (f *Formatter) Streaming(path string) {
	fmt.Fprintf(f.w, "📤 Streaming %s...\n", path)
}

func (f *Formatter) RecordingStatus(state, elapsed string, chunks, failed int) {
	fmt.Fprintf(f.w, "⏺️  %s %s (chunks: %d, failed: %d)\n", state, elapsed, chunks, failed)
}

func (f *Formatter) RecordingStopped(duration time.Duration) {
	fmt.Fprintf(f.w, "⏹️  Recording stopped (%s)\n", formatDuration(duration))
}

func (f *Formatter) Segment(elapsed, text string) {
	fmt.Fprintf(f.w, "📝 [%s] %s\n", elapsed, strings.TrimSpace(text))
}

func (f *Formatter) ChunkFailed(elapsed, msg string) {
	fmt.Fprintf(f.w, "⚠️  [%s] chunk skipped: %s\n", elapsed, msg)
}

func (f *Formatter) Summarizing() {
	fmt.Fprintf(f.w, "🤖 Generating summary...\n")
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) SessionListHeader() {
	fmt.Fprintf(f.w, "📁 Sessions:\n\n")
}

// SessionListItem prints one catalog entry. Untitled sessions are flagged.
func (f *Formatter) SessionListItem(label string, needsTitle, hasTranscript, hasSummary bool) {
	status := ""
	switch {
	case needsTitle:
		status = " 🏷️  needs title"
	case hasTranscript && hasSummary:
		status = " ✅"
	case hasTranscript:
		status = " 📝"
	}
	fmt.Fprintf(f.w, "  %s%s\n", label, status)
}

func (f *Formatter) SessionTitle(id, title string) {
	fmt.Fprintf(f.w, "📁 %s - %s\n", id, title)
}

func (f *Formatter) Section(name, body string) {
	fmt.Fprintf(f.w, "\n%s:\n%s\n", name, body)
}

func (f *Formatter) ChunkLine(seq int, status string, duration time.Duration, detail string) {
	mark := "✅"
	if status != "ok" {
		mark = "❌"
	}
	fmt.Fprintf(f.w, "  %s #%d %s %s\n", mark, seq, formatDuration(duration), detail)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
