package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jwulff/minutes/internal/audio"
)

// Control events exchanged as text messages on the ingest socket.
const (
	EventStart = "start"
	EventStop  = "stop"
)

// ErrNoStart is returned when a stream does not open with a start event.
var ErrNoStart = errors.New("stream must begin with a start event")

// Control is a text message on the ingest socket. Binary messages carry raw
// PCM in the format announced by the start event.
type Control struct {
	Event       string `json:"event"`
	SampleRate  int    `json:"sampleRate,omitempty"`
	Channels    int    `json:"channels,omitempty"`
	SampleWidth int    `json:"sampleWidth,omitempty"`
}

// Format returns the audio format announced by a start event.
func (c Control) Format() audio.Format {
	return audio.Format{SampleRate: c.SampleRate, Channels: c.Channels, SampleWidth: c.SampleWidth}
}

// Upgrader accepts ingest connections from any origin; the API has no
// authentication.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ReadStart reads the start event that opens an ingest stream.
func ReadStart(conn *websocket.Conn) (audio.Format, error) {
	mt, data, err := conn.ReadMessage()
	if err != nil {
		return audio.Format{}, fmt.Errorf("read start: %w", err)
	}
	if mt != websocket.TextMessage {
		return audio.Format{}, ErrNoStart
	}
	var c Control
	if err := json.Unmarshal(data, &c); err != nil {
		return audio.Format{}, fmt.Errorf("decode start: %w", err)
	}
	if c.Event != EventStart {
		return audio.Format{}, ErrNoStart
	}
	f := c.Format()
	if err := f.Validate(); err != nil {
		return audio.Format{}, err
	}
	return f, nil
}

// Pump copies binary frames from conn into q until a stop event or the
// connection closes. The queue is stopped on return.
func Pump(conn *websocket.Conn, format audio.Format, q *Queue) error {
	defer q.Stop()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		switch mt {
		case websocket.BinaryMessage:
			frame := audio.Frame{
				Data:        data,
				SampleRate:  format.SampleRate,
				Channels:    format.Channels,
				SampleWidth: format.SampleWidth,
			}
			if !q.Push(frame) {
				log.Printf("[INGEST]: queue full, dropped %d bytes", len(data))
			}
		case websocket.TextMessage:
			var c Control
			if err := json.Unmarshal(data, &c); err != nil {
				log.Printf("[INGEST]: ignoring malformed control message: %v", err)
				continue
			}
			if c.Event == EventStop {
				return nil
			}
		}
	}
}

// Sender streams PCM to an ingest endpoint.
type Sender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to url and announces format.
func Dial(ctx context.Context, url string, format audio.Format) (*Sender, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	start := Control{
		Event:       EventStart,
		SampleRate:  format.SampleRate,
		Channels:    format.Channels,
		SampleWidth: format.SampleWidth,
	}
	if err := conn.WriteJSON(start); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send start: %w", err)
	}
	return &Sender{conn: conn}, nil
}

// Send writes one frame of PCM.
func (s *Sender) Send(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}

// Close sends the stop event and closes the connection.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stopErr := s.conn.WriteJSON(Control{Event: EventStop})
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	closeErr := s.conn.Close()
	if stopErr != nil {
		return fmt.Errorf("send stop: %w", stopErr)
	}
	return closeErr
}
