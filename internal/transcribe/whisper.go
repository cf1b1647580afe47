package transcribe

import (
	"context"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
)

// Defaults match the hosted Whisper endpoint.
const (
	DefaultModel    = openai.Whisper1
	DefaultLanguage = "pt"
	DefaultFormat   = string(openai.AudioResponseFormatText)
)

// Whisper transcribes through the OpenAI audio transcription API.
type Whisper struct {
	client *openai.Client
	model  string
}

// NewWhisper returns a Whisper transcriber using client. An empty model
// selects whisper-1.
func NewWhisper(client *openai.Client, model string) *Whisper {
	if model == "" {
		model = DefaultModel
	}
	return &Whisper{client: client, model: model}
}

// Transcribe uploads the file at req.Path and returns the recognized text.
func (w *Whisper) Transcribe(ctx context.Context, req Request) (string, error) {
	info, err := os.Stat(req.Path)
	if err != nil {
		return "", &Error{Backend: "whisper", Err: fmt.Errorf("open audio: %w", err)}
	}
	if info.Size() == 0 {
		return "", &Error{Backend: "whisper", Err: ErrEmptyAudio}
	}

	format := req.Format
	if format == "" {
		format = DefaultFormat
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: req.Path,
		Language: req.Language,
		Format:   openai.AudioResponseFormat(format),
	})
	if err != nil {
		return "", &Error{Backend: "whisper", Err: err}
	}

	return resp.Text, nil
}
