// Package mcpserver exposes the session catalog as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/jwulff/minutes/internal/catalog"
	"github.com/jwulff/minutes/internal/db"
	"github.com/jwulff/minutes/internal/store"
	"github.com/jwulff/minutes/internal/version"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server serves catalog tools. The ledger is optional and only adds chunk
// statistics to get_session.
type Server struct {
	cat    *catalog.Catalog
	ledger *db.Store
	mcp    *server.MCPServer
}

type sessionJSON struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	Title         string `json:"title,omitempty"`
	NeedsTitle    bool   `json:"needs_title"`
	HasTranscript bool   `json:"has_transcript"`
	HasSummary    bool   `json:"has_summary"`
}

type sessionViewJSON struct {
	ID           string      `json:"id"`
	NeedsTitle   bool        `json:"needs_title"`
	Title        string      `json:"title,omitempty"`
	Summary      string      `json:"summary,omitempty"`
	SummaryError string      `json:"summary_error,omitempty"`
	Transcript   string      `json:"transcript,omitempty"`
	Chunks       *chunksJSON `json:"chunks,omitempty"`
}

type chunksJSON struct {
	Total        int     `json:"total"`
	Failed       int     `json:"failed"`
	AudioSeconds float64 `json:"audio_seconds"`
}

// New registers the tools on a fresh MCP server.
func New(cat *catalog.Catalog, ledger *db.Store) *Server {
	s := &Server{
		cat:    cat,
		ledger: ledger,
		mcp:    server.NewMCPServer("minutes", version.Version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List recorded meeting sessions, newest first. Untitled sessions have needs_title set."),
	), s.listSessions)

	s.mcp.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get a session's title, summary and transcript. Generates the summary if it is missing."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID in YYYY_MM_DD_HH_MM_SS form"),
		),
	), s.getSession)

	s.mcp.AddTool(mcp.NewTool("summarize_session",
		mcp.WithDescription("Return the session summary, generating and saving it first if needed."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID in YYYY_MM_DD_HH_MM_SS form"),
		),
	), s.summarizeSession)

	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks serving requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Printf("[MCP]: serving on stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.cat.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]sessionJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, sessionJSON{
			ID:            string(e.ID),
			Label:         e.Label,
			Title:         e.Title,
			NeedsTitle:    e.NeedsTitle,
			HasTranscript: e.HasTranscript,
			HasSummary:    e.HasSummary,
		})
	}
	return jsonResult(out)
}

func (s *Server) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	v, err := s.cat.Open(ctx, store.ID(id))
	if err != nil && !errors.Is(err, catalog.ErrSummary) {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := sessionViewJSON{
		ID:         string(v.ID),
		NeedsTitle: v.NeedsTitle,
		Title:      v.Title,
		Summary:    v.Summary,
		Transcript: v.Transcript,
	}
	if err != nil {
		out.SummaryError = err.Error()
	}
	if s.ledger != nil {
		stats, lerr := s.ledger.StatsForSession(ctx, id)
		if lerr != nil {
			log.Printf("[MCP]: ledger stats for %s: %v", id, lerr)
		} else if stats.Chunks > 0 {
			out.Chunks = &chunksJSON{
				Total:        stats.Chunks,
				Failed:       stats.Failed,
				AudioSeconds: stats.Audio.Seconds(),
			}
		}
	}
	return jsonResult(out)
}

func (s *Server) summarizeSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summary, err := s.cat.Summarize(ctx, store.ID(id))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(summary), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
