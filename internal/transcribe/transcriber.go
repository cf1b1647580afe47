// Package transcribe defines the speech-to-text contract used by the
// recorder and its OpenAI Whisper implementation.
package transcribe

import (
	"context"
	"errors"
	"fmt"
)

// ErrTranscription marks every failure reported by a transcription backend.
var ErrTranscription = errors.New("transcription failure")

// ErrEmptyAudio is returned for requests without audio.
var ErrEmptyAudio = errors.New("no audio to transcribe")

// Request describes one bounded chunk of encoded audio.
type Request struct {
	// Path points at an encoded (WAV) export of the chunk.
	Path string
	// Language is an ISO-639-1 code such as "pt" or "en".
	Language string
	// Format is the backend response format, e.g. "text".
	Format string
}

// Transcriber converts an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}

// Error is a backend failure for a single request.
type Error struct {
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s transcription: %v", e.Backend, e.Err)
}

// Unwrap exposes both the cause and ErrTranscription to errors.Is.
func (e *Error) Unwrap() []error {
	return []error{ErrTranscription, e.Err}
}

// Func adapts a function to the Transcriber interface.
type Func func(ctx context.Context, req Request) (string, error)

// Transcribe calls f.
func (f Func) Transcribe(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
