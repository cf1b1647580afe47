// Package app builds the collaborators shared by every minutes command.
package app

import (
	"fmt"

	"github.com/jwulff/minutes/config"
	"github.com/jwulff/minutes/internal/catalog"
	"github.com/jwulff/minutes/internal/db"
	"github.com/jwulff/minutes/internal/recording"
	"github.com/jwulff/minutes/internal/store"
	"github.com/jwulff/minutes/internal/summarize"
	"github.com/jwulff/minutes/internal/transcribe"
	openai "github.com/sashabaranov/go-openai"
)

// App holds the handles a command needs. Nothing here is global; commands
// receive it explicitly.
type App struct {
	Config      *config.Config
	Store       *store.Store
	Transcriber transcribe.Transcriber
	Summarizer  summarize.Summarizer
	Catalog     *catalog.Catalog

	ledger *db.Store
}

// New wires the store, OpenAI adapters and catalog from cfg. The ledger is
// opened lazily by Ledger since read-only commands do not need it.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}

	st := store.New(cfg.SessionsDir)
	client := newOpenAIClient(cfg)
	summarizer := summarize.NewOpenAI(client, cfg.SummaryModel)

	return &App{
		Config:      cfg,
		Store:       st,
		Transcriber: transcribe.NewWhisper(client, cfg.TranscriptionModel),
		Summarizer:  summarizer,
		Catalog:     catalog.New(st, summarizer, cfg.SummaryPrompt),
	}, nil
}

func newOpenAIClient(cfg *config.Config) *openai.Client {
	oc := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = cfg.OpenAIBaseURL
	}
	return openai.NewClientWithConfig(oc)
}

// Ledger opens the chunk ledger on first use.
func (a *App) Ledger() (*db.Store, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	l, err := db.Open(db.DefaultDBPath(a.Config.SessionsDir))
	if err != nil {
		return nil, err
	}
	a.ledger = l
	return l, nil
}

// SessionOptions returns recording options built from the configuration.
func (a *App) SessionOptions() (recording.Options, error) {
	ledger, err := a.Ledger()
	if err != nil {
		return recording.Options{}, err
	}
	return recording.Options{
		Store:          a.Store,
		Transcriber:    a.Transcriber,
		Ledger:         ledger,
		FlushInterval:  a.Config.FlushInterval,
		FrameTimeout:   a.Config.FrameTimeout,
		Language:       a.Config.Language,
		ResponseFormat: a.Config.ResponseFormat,
		FlushOnStop:    a.Config.FlushOnStop,
	}, nil
}

// Close releases the ledger.
func (a *App) Close() error {
	if a.ledger == nil {
		return nil
	}
	err := a.ledger.Close()
	a.ledger = nil
	return err
}
