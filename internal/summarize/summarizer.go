// Package summarize turns a meeting transcript into a short summary with the
// agreements made and who proposed them.
package summarize

import (
	"context"
	"strings"
)

// Placeholder marks where the transcript goes in a prompt template.
const Placeholder = "{{transcript}}"

// DefaultPrompt asks for a short running-text summary followed by the
// agreements and their authors.
const DefaultPrompt = `Summarize the text delimited by ###.
The text is the transcript of a meeting.
The summary must cover the main subjects discussed.
The summary must be at most 300 characters.
The summary must be written as running text.
At the end, list every agreement made in the meeting as bullet points.
Below each agreement, state who proposed it.

Format:
Meeting summary:
- ...

Meeting agreements:
- agreement 1;
  - author.
- agreement 2;
  - author.

text: ###` + Placeholder + `###
`

// Summarizer produces a completion for a prompt.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// BuildPrompt embeds transcript in template. A blank template uses
// DefaultPrompt; a template without the placeholder gets the transcript
// appended in the same delimiters.
func BuildPrompt(template, transcript string) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultPrompt
	}
	if !strings.Contains(template, Placeholder) {
		return template + "\n\ntext: ###" + transcript + "###\n"
	}
	return strings.ReplaceAll(template, Placeholder, transcript)
}
