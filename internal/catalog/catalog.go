// Package catalog lists recorded sessions and serves their title,
// transcript and lazily generated summary.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jwulff/minutes/internal/store"
	"github.com/jwulff/minutes/internal/summarize"
)

// NoTranscript is shown, and stored as the summary, when a session has no
// transcribed text.
const NoTranscript = "No transcript yet."

var (
	// ErrSummary wraps summarizer failures.
	ErrSummary = errors.New("summary failure")
	// ErrBlankTitle is returned when setting an empty title.
	ErrBlankTitle = errors.New("title must not be blank")
	// ErrNotFound is returned for sessions without a directory.
	ErrNotFound = errors.New("session not found")
)

// Entry is one session in the listing.
type Entry struct {
	ID            store.ID
	Label         string
	Title         string
	NeedsTitle    bool
	HasTranscript bool
	HasSummary    bool
}

// View is an opened session. A session that needs a title carries nothing
// else.
type View struct {
	ID         store.ID
	NeedsTitle bool
	Title      string
	Summary    string
	Transcript string
}

// Catalog reads sessions from a store.
type Catalog struct {
	store      *store.Store
	summarizer summarize.Summarizer
	prompt     string
}

// New returns a catalog. prompt may be empty for the default template.
func New(st *store.Store, s summarize.Summarizer, prompt string) *Catalog {
	return &Catalog{store: st, summarizer: s, prompt: prompt}
}

// List returns all sessions, most recent first.
func (c *Catalog) List() ([]Entry, error) {
	ids, err := c.store.List()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		title, err := c.store.Load(id, store.Title)
		if err != nil {
			return nil, err
		}
		title = strings.TrimSpace(title)

		e := Entry{
			ID:         id,
			Label:      store.Label(id),
			Title:      title,
			NeedsTitle: title == "",
		}
		if title != "" {
			e.Label += " - " + title
		}
		e.HasTranscript = c.nonBlank(id, store.Transcript)
		e.HasSummary = c.nonBlank(id, store.Summary)
		entries = append(entries, e)
	}
	return entries, nil
}

func (c *Catalog) nonBlank(id store.ID, a store.Artifact) bool {
	s, err := c.store.Load(id, a)
	return err == nil && strings.TrimSpace(s) != ""
}

// Open returns a session's content, generating the summary first when it
// is missing. A summary failure is returned together with the rest of the
// view so callers can still show the transcript.
func (c *Catalog) Open(ctx context.Context, id store.ID) (View, error) {
	if err := c.exists(id); err != nil {
		return View{}, err
	}

	title, err := c.store.Load(id, store.Title)
	if err != nil {
		return View{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return View{ID: id, NeedsTitle: true}, nil
	}

	summary, sumErr := c.Summarize(ctx, id)

	transcript, err := c.store.Load(id, store.Transcript)
	if err != nil {
		return View{}, err
	}
	if strings.TrimSpace(transcript) == "" {
		transcript = NoTranscript
	}

	return View{
		ID:         id,
		Title:      title,
		Summary:    summary,
		Transcript: transcript,
	}, sumErr
}

// SetTitle stores a session's title. Surrounding whitespace is trimmed and
// line breaks are folded into spaces.
func (c *Catalog) SetTitle(id store.ID, title string) error {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return ErrBlankTitle
	}
	if err := c.exists(id); err != nil {
		return err
	}
	return c.store.Save(id, store.Title, title)
}

// Summarize returns the session's summary, generating and storing it when
// none exists yet or when only the no-transcript placeholder is stored and
// the transcript has since filled in. A failed generation stores nothing.
func (c *Catalog) Summarize(ctx context.Context, id store.ID) (string, error) {
	if err := c.exists(id); err != nil {
		return "", err
	}
	existing, err := c.store.Load(id, store.Summary)
	if err != nil {
		return "", err
	}
	transcript, err := c.store.Load(id, store.Transcript)
	if err != nil {
		return "", err
	}
	blank := strings.TrimSpace(transcript) == ""

	// The placeholder only holds until the first chunk lands.
	if strings.TrimSpace(existing) != "" && (existing != NoTranscript || blank) {
		return existing, nil
	}

	if blank {
		if err := c.store.Save(id, store.Summary, NoTranscript); err != nil {
			return "", err
		}
		return NoTranscript, nil
	}

	if c.summarizer == nil {
		return "", fmt.Errorf("%w: no summarizer configured", ErrSummary)
	}

	log.Printf("[CATALOG]: summarizing %s (%d chars)", id, len(transcript))
	summary, err := c.summarizer.Summarize(ctx, summarize.BuildPrompt(c.prompt, transcript))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSummary, err)
	}
	if err := c.store.Save(id, store.Summary, summary); err != nil {
		return "", err
	}
	return summary, nil
}

func (c *Catalog) exists(id store.ID) error {
	ids, err := c.store.List()
	if err != nil {
		return err
	}
	for _, known := range ids {
		if known == id {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
