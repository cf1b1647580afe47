package transcribe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func writeChunk(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunk.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF----WAVEfmt "), 0o644))
	return path
}

func TestWhisperSendsLanguageAndFormat(t *testing.T) {
	var gotLanguage, gotFormat, gotModel, gotFile string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotLanguage = r.FormValue("language")
		gotFormat = r.FormValue("response_format")
		gotModel = r.FormValue("model")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		io.Copy(io.Discard, f)
		gotFile = hdr.Filename

		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "Bom dia a todos. ")
	})

	text, err := NewWhisper(client, "").Transcribe(context.Background(), Request{
		Path:     writeChunk(t),
		Language: "pt",
		Format:   "text",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bom dia a todos. ", text)
	assert.Equal(t, "pt", gotLanguage)
	assert.Equal(t, "text", gotFormat)
	assert.Equal(t, openai.Whisper1, gotModel)
	assert.Equal(t, "chunk.wav", gotFile)
}

func TestWhisperBackendErrorIsTranscriptionFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	})

	_, err := NewWhisper(client, "").Transcribe(context.Background(), Request{Path: writeChunk(t)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTranscription))

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "whisper", terr.Backend)
}

func TestWhisperMissingFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend should not be called")
	})

	_, err := NewWhisper(client, "").Transcribe(context.Background(), Request{
		Path: filepath.Join(t.TempDir(), "missing.wav"),
	})
	assert.True(t, errors.Is(err, ErrTranscription))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWhisperEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewWhisper(nil, "").Transcribe(context.Background(), Request{Path: path})
	assert.True(t, errors.Is(err, ErrEmptyAudio))
}
