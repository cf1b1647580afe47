package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jwulff/minutes/internal/recording"
	"github.com/jwulff/minutes/internal/transport"
)

// StatusDTO is the live session status on the wire.
type StatusDTO struct {
	Recording  bool   `json:"recording"`
	SessionID  string `json:"session_id,omitempty"`
	State      string `json:"state"`
	Elapsed    string `json:"elapsed"`
	Transcript string `json:"transcript,omitempty"`
	Chunks     int    `json:"chunks"`
	Failed     int    `json:"failed"`
	LastError  string `json:"last_error,omitempty"`
}

func (s *Server) getStatus(c *gin.Context) {
	st := s.sup.Status()
	c.JSON(success("Status retrieved successfully", StatusDTO{
		Recording:  s.sup.Active(),
		SessionID:  string(st.SessionID),
		State:      st.State.String(),
		Elapsed:    st.ElapsedString(),
		Transcript: st.Transcript,
		Chunks:     st.ChunksFlushed,
		Failed:     st.ChunksFailed,
		LastError:  st.LastError,
	}).AsGinResponse())
}

// getStream upgrades to a WebSocket and records the audio it carries.
func (s *Server) getStream(c *gin.Context) {
	if s.sup.Active() {
		c.JSON(failure(http.StatusConflict, "A session is already recording", recording.ErrBusy).AsGinResponse())
		return
	}

	conn, err := transport.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[API]: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	format, err := transport.ReadStart(conn)
	if err != nil {
		log.Printf("[API]: rejected stream: %v", err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseUnsupportedData, err.Error()))
		return
	}

	q := transport.NewQueue(s.queueSize)
	if _, err := s.sup.Start(s.ctx, q); err != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		return
	}
	log.Printf("[API]: ingest started (%s) from %s", format, c.ClientIP())

	if err := transport.Pump(conn, format, q); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		log.Printf("[API]: ingest ended: %v", err)
	}
	if n := q.Dropped(); n > 0 {
		log.Printf("[API]: %d frame batches dropped on overflow", n)
	}
}
