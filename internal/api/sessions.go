package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwulff/minutes/internal/catalog"
	"github.com/jwulff/minutes/internal/store"
)

// SessionDTO is a catalog entry on the wire.
type SessionDTO struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	Title         string `json:"title,omitempty"`
	NeedsTitle    bool   `json:"needs_title"`
	HasTranscript bool   `json:"has_transcript"`
	HasSummary    bool   `json:"has_summary"`
}

// SessionViewDTO is an opened session on the wire.
type SessionViewDTO struct {
	ID         string `json:"id"`
	NeedsTitle bool   `json:"needs_title"`
	Title      string `json:"title,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// TitleRequest is the body of PUT /sessions/:id/title.
type TitleRequest struct {
	Title string `json:"title" binding:"required"`
}

func (s *Server) listSessions(c *gin.Context) {
	entries, err := s.cat.List()
	if err != nil {
		c.JSON(failure(http.StatusInternalServerError, "Failed to list sessions", err).AsGinResponse())
		return
	}

	out := make([]SessionDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, SessionDTO{
			ID:            string(e.ID),
			Label:         e.Label,
			Title:         e.Title,
			NeedsTitle:    e.NeedsTitle,
			HasTranscript: e.HasTranscript,
			HasSummary:    e.HasSummary,
		})
	}
	c.JSON(success("Sessions retrieved successfully", out).AsGinResponse())
}

func (s *Server) getSession(c *gin.Context) {
	v, err := s.cat.Open(c.Request.Context(), store.ID(c.Param("id")))
	if err != nil && v.ID == "" {
		c.JSON(failure(statusFor(err), "Failed to open session", err).AsGinResponse())
		return
	}

	dto := SessionViewDTO{
		ID:         string(v.ID),
		NeedsTitle: v.NeedsTitle,
		Title:      v.Title,
		Summary:    v.Summary,
		Transcript: v.Transcript,
	}
	if err != nil {
		// Summary failed; the rest of the view is still useful.
		r := success("Session retrieved without summary", dto)
		r.Error = err.Error()
		c.JSON(r.AsGinResponse())
		return
	}
	c.JSON(success("Session retrieved successfully", dto).AsGinResponse())
}

func (s *Server) putTitle(c *gin.Context) {
	var req TitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(failure(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	if err := s.cat.SetTitle(store.ID(c.Param("id")), req.Title); err != nil {
		c.JSON(failure(statusFor(err), "Failed to set title", err).AsGinResponse())
		return
	}
	c.JSON(success[any]("Title saved", nil).AsGinResponse())
}

func (s *Server) postSummary(c *gin.Context) {
	summary, err := s.cat.Summarize(c.Request.Context(), store.ID(c.Param("id")))
	if err != nil {
		c.JSON(failure(statusFor(err), "Failed to summarize session", err).AsGinResponse())
		return
	}
	c.JSON(success("Summary ready", gin.H{"summary": summary}).AsGinResponse())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrBlankTitle), errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrSummary):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
