package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/jwulff/minutes/internal/catalog"
	"github.com/jwulff/minutes/internal/recording"
	"github.com/jwulff/minutes/internal/store"
)

// ErrAlreadyRunning is returned by Listen when another daemon answers on
// the socket.
var ErrAlreadyRunning = errors.New("daemon already running")

// Server answers control commands for one supervisor and catalog.
type Server struct {
	sup *recording.Supervisor
	cat *catalog.Catalog

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewServer returns a server. cat may be nil when only the live session is
// exposed.
func NewServer(sup *recording.Supervisor, cat *catalog.Catalog) *Server {
	return &Server{
		sup:   sup,
		cat:   cat,
		conns: make(map[net.Conn]struct{}),
	}
}

// Listen opens the Unix socket at path, replacing a stale socket file left
// by a crashed daemon.
func Listen(path string) (net.Listener, error) {
	if _, err := os.Stat(path); err == nil {
		if conn, err := net.Dial("unix", path); err == nil {
			conn.Close()
			return nil, fmt.Errorf("%w at %s", ErrAlreadyRunning, path)
		}
		os.Remove(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return ln, nil
}

// Serve accepts connections until ctx is cancelled, then closes the
// listener and every open connection.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
		s.closeAll()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.track(conn, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
		return
	}
	delete(s.conns, conn)
	conn.Close()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	scanner := newScanner(conn)
	for scanner.Scan() {
		var cmd Command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			writeLine(conn, Response{Error: fmt.Sprintf("invalid command: %v", err)})
			continue
		}

		if cmd.Cmd == CmdSubscribe {
			s.stream(ctx, conn, scanner, cmd.Events)
			return
		}

		if err := writeLine(conn, s.execute(ctx, cmd)); err != nil {
			log.Printf("[DAEMON]: write response: %v", err)
			return
		}
	}
}

// stream turns the connection into an event feed until the client hangs up.
func (s *Server) stream(ctx context.Context, conn net.Conn, scanner *bufio.Scanner, filter []string) {
	id, updates := s.sup.Subscribe()
	defer s.sup.Unsubscribe(id)

	if err := writeLine(conn, Response{OK: true}); err != nil {
		return
	}

	// Detect hangup; further input is ignored.
	gone := make(chan struct{})
	go func() {
		for scanner.Scan() {
		}
		close(gone)
	}()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			ev := eventFromStatus(st)
			if len(filter) > 0 && !slices.Contains(filter, ev.Event) {
				continue
			}
			if err := writeLine(conn, ev); err != nil {
				return
			}
		case <-gone:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) execute(ctx context.Context, cmd Command) Response {
	switch cmd.Cmd {
	case CmdStatus:
		return statusResponse(s.sup.Status(), s.sup.Active())

	case CmdStop:
		if err := s.sup.Stop(); err != nil {
			return errorResponse(err)
		}
		return Response{OK: true, Recording: BoolPtr(false)}

	case CmdSessions:
		if s.cat == nil {
			return errorResponse(errors.New("catalog unavailable"))
		}
		entries, err := s.cat.List()
		if err != nil {
			return errorResponse(err)
		}
		infos := make([]SessionInfo, 0, len(entries))
		for _, e := range entries {
			infos = append(infos, SessionInfo{
				ID:            string(e.ID),
				Label:         e.Label,
				Title:         e.Title,
				NeedsTitle:    e.NeedsTitle,
				HasTranscript: e.HasTranscript,
				HasSummary:    e.HasSummary,
			})
		}
		return Response{OK: true, Sessions: infos}

	case CmdShow:
		if s.cat == nil {
			return errorResponse(errors.New("catalog unavailable"))
		}
		v, err := s.cat.Open(ctx, store.ID(cmd.SessionID))
		resp := Response{
			OK:        err == nil,
			SessionID: cmd.SessionID,
			Session: &SessionView{
				ID:         string(v.ID),
				NeedsTitle: v.NeedsTitle,
				Title:      v.Title,
				Summary:    v.Summary,
				Transcript: v.Transcript,
			},
		}
		if err != nil {
			resp.Error = err.Error()
			if v.ID == "" {
				resp.Session = nil
			}
		}
		return resp

	case CmdTitle:
		if s.cat == nil {
			return errorResponse(errors.New("catalog unavailable"))
		}
		if err := s.cat.SetTitle(store.ID(cmd.SessionID), cmd.Title); err != nil {
			return errorResponse(err)
		}
		return Response{OK: true, SessionID: cmd.SessionID}

	case CmdSummarize:
		if s.cat == nil {
			return errorResponse(errors.New("catalog unavailable"))
		}
		summary, err := s.cat.Summarize(ctx, store.ID(cmd.SessionID))
		if err != nil {
			return errorResponse(err)
		}
		return Response{OK: true, SessionID: cmd.SessionID, Summary: summary}

	default:
		return Response{Error: fmt.Sprintf("unknown command %q", cmd.Cmd)}
	}
}

func errorResponse(err error) Response {
	return Response{Error: err.Error()}
}

func statusResponse(st recording.Status, active bool) Response {
	return Response{
		OK:         true,
		SessionID:  string(st.SessionID),
		Recording:  BoolPtr(active),
		State:      st.State.String(),
		Elapsed:    st.ElapsedString(),
		Transcript: st.Transcript,
		Chunks:     IntPtr(st.ChunksFlushed),
		Failed:     IntPtr(st.ChunksFailed),
	}
}

func eventFromStatus(st recording.Status) Event {
	ev := Event{
		SessionID: string(st.SessionID),
		Elapsed:   st.ElapsedString(),
	}
	switch st.Kind {
	case recording.UpdateSegment:
		ev.Event = EventSegment
		ev.Text = st.Segment
		ev.SequenceNumber = IntPtr(st.ChunksFlushed + st.ChunksFailed)
	case recording.UpdateError:
		ev.Event = EventError
		ev.Message = st.LastError
		ev.Failed = IntPtr(st.ChunksFailed)
		ev.SequenceNumber = IntPtr(st.ChunksFlushed + st.ChunksFailed)
	case recording.UpdateStopped:
		ev.Event = EventStopped
		ev.Recording = BoolPtr(false)
	default:
		ev.Event = EventStatus
		ev.Recording = BoolPtr(st.State == recording.Recording)
	}
	return ev
}
