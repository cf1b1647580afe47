package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwulff/minutes/internal/audio"
	"github.com/jwulff/minutes/internal/catalog"
	"github.com/jwulff/minutes/internal/recording"
	"github.com/jwulff/minutes/internal/store"
	"github.com/jwulff/minutes/internal/transcribe"
	"github.com/jwulff/minutes/internal/transport"
)

type testDaemon struct {
	sock  string
	sup   *recording.Supervisor
	store *store.Store
}

func startTestDaemon(t *testing.T) *testDaemon {
	t.Helper()

	st := store.New(t.TempDir())
	sup := recording.NewSupervisor(recording.Options{
		Store: st,
		Transcriber: transcribe.Func(func(ctx context.Context, req transcribe.Request) (string, error) {
			return "chunk text", nil
		}),
		FlushInterval: time.Millisecond,
		FrameTimeout:  20 * time.Millisecond,
		IdleBackoff:   time.Millisecond,
	})
	srv := NewServer(sup, catalog.New(st, nil, ""))

	sock := filepath.Join(t.TempDir(), "d.sock")
	ln, err := Listen(sock)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("serve: %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Error("server did not shut down")
		}
	})

	return &testDaemon{sock: sock, sup: sup, store: st}
}

func (d *testDaemon) connect(t *testing.T) *Client {
	t.Helper()
	c, err := Connect(d.sock)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestServerStatusIdle(t *testing.T) {
	d := startTestDaemon(t)
	c := d.connect(t)

	resp, err := c.SendCommand(Command{Cmd: CmdStatus})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !resp.OK {
		t.Fatalf("status not ok: %s", resp.Error)
	}
	if resp.Recording == nil || *resp.Recording {
		t.Errorf("recording = %v, want false", resp.Recording)
	}
	if resp.State != "idle" {
		t.Errorf("state = %q, want idle", resp.State)
	}
}

func TestServerUnknownCommand(t *testing.T) {
	d := startTestDaemon(t)
	c := d.connect(t)

	resp, err := c.SendCommand(Command{Cmd: "devices"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if resp.OK || resp.Error == "" {
		t.Errorf("resp = %+v, want error", resp)
	}

	// The connection stays usable.
	if resp, err = c.SendCommand(Command{Cmd: CmdStatus}); err != nil || !resp.OK {
		t.Errorf("status after error: %+v, %v", resp, err)
	}
}

func TestServerStopWhenIdle(t *testing.T) {
	d := startTestDaemon(t)
	c := d.connect(t)

	resp, err := c.SendCommand(Command{Cmd: CmdStop})
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if resp.OK {
		t.Error("stop with nothing recording should fail")
	}
}

func TestServerStreamsSessionEvents(t *testing.T) {
	d := startTestDaemon(t)
	ev := d.connect(t)

	if resp, err := ev.SendCommand(Command{Cmd: CmdSubscribe, Events: []string{EventSegment, EventStopped}}); err != nil || !resp.OK {
		t.Fatalf("subscribe: %+v, %v", resp, err)
	}

	q := transport.NewQueue(16)
	if _, err := d.sup.Start(context.Background(), q); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Let the flush interval pass before the only batch arrives.
	time.Sleep(50 * time.Millisecond)
	q.Push(audio.Frame{Data: make([]byte, 3200), SampleRate: 16000, Channels: 1, SampleWidth: 2})

	got := make(chan Event, 16)
	go func() {
		for {
			e, err := ev.ReadEvent()
			if err != nil {
				close(got)
				return
			}
			got <- e
		}
	}()

	var segment Event
	select {
	case segment = <-got:
	case <-time.After(3 * time.Second):
		t.Fatal("no segment event")
	}
	if segment.Event != EventSegment || segment.Text != "chunk text" {
		t.Fatalf("first event = %+v, want segment", segment)
	}

	cmd := d.connect(t)
	if resp, err := cmd.SendCommand(Command{Cmd: CmdStop}); err != nil || !resp.OK {
		t.Fatalf("stop: %+v, %v", resp, err)
	}

	select {
	case e := <-got:
		if e.Event != EventStopped {
			t.Errorf("event = %+v, want stopped", e)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no stopped event")
	}

	d.sup.Wait()
	resp, err := cmd.SendCommand(Command{Cmd: CmdStatus})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if resp.Transcript != "chunk text" {
		t.Errorf("transcript = %q, want %q", resp.Transcript, "chunk text")
	}
	if resp.Chunks == nil || *resp.Chunks != 1 {
		t.Errorf("chunks = %v, want 1", resp.Chunks)
	}
}

func TestServerCatalogCommands(t *testing.T) {
	d := startTestDaemon(t)
	c := d.connect(t)

	id := store.ID("2024_01_01_10_00_00")
	if err := os.MkdirAll(d.store.Dir(id), 0o755); err != nil {
		t.Fatal(err)
	}

	resp, err := c.SendCommand(Command{Cmd: CmdSessions})
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(resp.Sessions) != 1 || !resp.Sessions[0].NeedsTitle {
		t.Fatalf("sessions = %+v", resp.Sessions)
	}

	resp, _ = c.SendCommand(Command{Cmd: CmdShow, SessionID: string(id)})
	if resp.Session == nil || !resp.Session.NeedsTitle {
		t.Errorf("show untitled = %+v", resp.Session)
	}

	resp, _ = c.SendCommand(Command{Cmd: CmdTitle, SessionID: string(id), Title: "   "})
	if resp.OK {
		t.Error("blank title should be rejected")
	}

	resp, _ = c.SendCommand(Command{Cmd: CmdTitle, SessionID: string(id), Title: "Retro"})
	if !resp.OK {
		t.Fatalf("title: %s", resp.Error)
	}

	resp, _ = c.SendCommand(Command{Cmd: CmdShow, SessionID: string(id)})
	if !resp.OK || resp.Session == nil {
		t.Fatalf("show: %+v", resp)
	}
	if resp.Session.Title != "Retro" {
		t.Errorf("title = %q, want Retro", resp.Session.Title)
	}
	if resp.Session.Summary != catalog.NoTranscript {
		t.Errorf("summary = %q, want sentinel", resp.Session.Summary)
	}

	resp, _ = c.SendCommand(Command{Cmd: CmdShow, SessionID: "missing"})
	if resp.OK || resp.Session != nil {
		t.Errorf("show missing = %+v", resp)
	}
}

func TestListenRefusesRunningDaemon(t *testing.T) {
	d := startTestDaemon(t)

	if _, err := Listen(d.sock); err == nil {
		t.Error("second Listen on a live socket should fail")
	}
}

func TestListenReplacesStaleSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "stale.sock")
	if err := os.WriteFile(sock, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	ln, err := Listen(sock)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ln.Close()
}
