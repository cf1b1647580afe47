// Package recording runs the capture loop that turns a live frame stream
// into a recording and an incrementally growing transcript.
package recording

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jwulff/minutes/internal/audio"
	"github.com/jwulff/minutes/internal/db"
	"github.com/jwulff/minutes/internal/store"
	"github.com/jwulff/minutes/internal/transcribe"
	"github.com/jwulff/minutes/internal/transport"
)

// Defaults for the capture loop.
const (
	DefaultFrameTimeout = time.Second
	DefaultIdleBackoff  = 50 * time.Millisecond

	updateBuffer = 64
)

// Ledger records flush attempts.
type Ledger interface {
	RecordChunk(ctx context.Context, c db.Chunk) error
}

// Options configures a Session.
type Options struct {
	Store       *store.Store
	Transcriber transcribe.Transcriber
	// Ledger is optional.
	Ledger Ledger

	FlushInterval time.Duration
	FrameTimeout  time.Duration
	IdleBackoff   time.Duration

	Language       string
	ResponseFormat string

	// FlushOnStop transcribes residual pending audio when the stream ends.
	FlushOnStop bool

	// Now overrides the clock in tests.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.FrameTimeout <= 0 {
		o.FrameTimeout = DefaultFrameTimeout
	}
	if o.IdleBackoff <= 0 {
		o.IdleBackoff = DefaultIdleBackoff
	}
	if o.Language == "" {
		o.Language = transcribe.DefaultLanguage
	}
	if o.ResponseFormat == "" {
		o.ResponseFormat = transcribe.DefaultFormat
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Session is one recording. It is driven by Run and observed through
// Snapshot and Updates.
type Session struct {
	opts  Options
	sched Scheduler
	state stateMachine
	buf   *audio.FrameBuffer

	updates chan Status

	// Owned by the Run goroutine.
	id         store.ID
	transcript string
	startedAt  time.Time
	lastFlush  time.Time
	seq        int

	mu   sync.RWMutex
	snap Status
}

// NewSession returns an idle session.
func NewSession(opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		opts:    opts,
		sched:   NewScheduler(opts.FlushInterval),
		buf:     audio.NewFrameBuffer(),
		updates: make(chan Status, updateBuffer),
		snap:    Status{State: Idle},
	}
}

// Updates delivers status changes. Updates are dropped when the reader
// falls behind; Snapshot always has the latest. The channel is closed when
// Run returns.
func (s *Session) Updates() <-chan Status {
	return s.updates
}

// Snapshot returns the latest published status.
func (s *Session) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state.Current()
}

// Run captures src until it ends or ctx is cancelled. A session runs once.
func (s *Session) Run(ctx context.Context, src transport.Source) error {
	if err := s.state.Transition(Recording); err != nil {
		return err
	}
	defer close(s.updates)

	s.startedAt = s.opts.Now()
	s.lastFlush = s.startedAt

	for src.Active() && ctx.Err() == nil {
		now := s.opts.Now()
		s.publish(UpdateStatus, now, "", "")

		frames, err := src.Frames(ctx, s.opts.FrameTimeout)
		if err != nil {
			if errors.Is(err, transport.ErrClosed) || ctx.Err() != nil {
				break
			}
			if !errors.Is(err, transport.ErrTimeout) {
				log.Printf("[RECORDER]: frame receive failed: %v", err)
			}
			s.sleep(ctx)
			continue
		}
		if len(frames) == 0 {
			continue
		}

		s.ingest(frames, now)

		if s.buf.Pending().Empty() {
			continue
		}
		s.exportRecording()

		if s.sched.ShouldFlush(now, s.lastFlush) {
			s.lastFlush = now
			s.flush(ctx, now)
		}
	}

	if s.opts.FlushOnStop && !s.buf.Pending().Empty() {
		s.flush(context.WithoutCancel(ctx), s.opts.Now())
	}

	if err := s.state.Transition(Stopped); err != nil {
		return err
	}
	log.Printf("[RECORDER]: session %s stopped after %d chunks", s.id, s.seq)
	s.publish(UpdateStopped, s.opts.Now(), "", "")
	return nil
}

func (s *Session) sleep(ctx context.Context) {
	t := time.NewTimer(s.opts.IdleBackoff)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (s *Session) ingest(frames []audio.Frame, now time.Time) {
	if s.id == "" {
		id, err := s.opts.Store.Create(store.NewID(now))
		if err != nil {
			log.Printf("[RECORDER]: %v", err)
		}
		s.id = id
		log.Printf("[RECORDER]: session %s started", s.id)
	}

	// Pending only takes what the full recording accepted, so every
	// transcribed chunk is also in recording.wav.
	var dropped int
	var firstErr error
	for _, f := range frames {
		one := []audio.Frame{f}
		if err := s.buf.Append(one, audio.Full); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			dropped++
			continue
		}
		if err := s.buf.Append(one, audio.Pending); err != nil {
			log.Printf("[RECORDER]: pending rejected frame: %v", err)
		}
	}
	if dropped > 0 {
		log.Printf("[RECORDER]: dropped %d of %d frames: %v", dropped, len(frames), firstErr)
	}
}

func (s *Session) exportRecording() {
	if err := s.buf.ExportFull(s.opts.Store.Path(s.id, store.Recording)); err != nil {
		log.Printf("[RECORDER]: %v: export recording: %v", store.ErrPersistence, err)
	}
}

func (s *Session) flush(ctx context.Context, now time.Time) {
	chunk := s.buf.DrainPending()
	if chunk.Empty() {
		return
	}
	s.seq++

	rec := db.Chunk{
		SessionID:      string(s.id),
		SequenceNumber: s.seq,
		StartedAt:      now,
		Duration:       chunk.Duration(),
	}

	text, err := s.transcribeChunk(ctx, chunk)
	if err != nil {
		log.Printf("[RECORDER]: chunk %d skipped: %v", s.seq, err)
		rec.Status = db.ChunkFailed
		rec.Error = err.Error()
		s.record(ctx, rec)
		s.publish(UpdateError, now, "", err.Error())
		return
	}

	s.transcript += text
	if err := s.opts.Store.Save(s.id, store.Transcript, s.transcript); err != nil {
		log.Printf("[RECORDER]: save transcript: %v", err)
	}

	rec.Status = db.ChunkOK
	rec.Text = text
	s.record(ctx, rec)
	s.publish(UpdateSegment, now, text, "")
}

func (s *Session) transcribeChunk(ctx context.Context, chunk *audio.Segment) (string, error) {
	path := s.opts.Store.Path(s.id, store.Chunk)
	if err := chunk.Export(path); err != nil {
		// The session directory is unusable; the chunk can still be
		// transcribed from a scratch directory.
		log.Printf("[RECORDER]: %v: export chunk: %v", store.ErrPersistence, err)
		dir, terr := os.MkdirTemp("", "minutes-chunk-")
		if terr != nil {
			return "", err
		}
		defer os.RemoveAll(dir)
		path = filepath.Join(dir, store.Chunk.FileName())
		if err := chunk.Export(path); err != nil {
			return "", err
		}
	}
	return s.opts.Transcriber.Transcribe(ctx, transcribe.Request{
		Path:     path,
		Language: s.opts.Language,
		Format:   s.opts.ResponseFormat,
	})
}

func (s *Session) record(ctx context.Context, c db.Chunk) {
	if s.opts.Ledger == nil {
		return
	}
	if err := s.opts.Ledger.RecordChunk(context.WithoutCancel(ctx), c); err != nil {
		log.Printf("[RECORDER]: ledger: %v", err)
	}
}

func (s *Session) publish(kind UpdateKind, now time.Time, segment, errMsg string) {
	s.mu.Lock()
	st := s.snap
	st.Kind = kind
	st.SessionID = s.id
	st.State = s.state.Current()
	st.StartedAt = s.startedAt
	st.Elapsed = now.Sub(s.startedAt)
	st.Transcript = s.transcript
	st.Recorded = s.buf.Full().Duration()
	st.Segment = segment
	switch kind {
	case UpdateSegment:
		st.ChunksFlushed++
	case UpdateError:
		st.ChunksFailed++
		st.LastError = errMsg
	}
	s.snap = st
	s.mu.Unlock()

	select {
	case s.updates <- st:
	default:
	}
}
