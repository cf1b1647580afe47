package transport

import (
	"context"
	"sync"
	"time"

	"github.com/jwulff/minutes/internal/audio"
)

// DefaultQueueSize is the number of frame batches buffered before new
// batches are dropped.
const DefaultQueueSize = 1024

// Queue is a bounded in-memory Source fed by a producer goroutine.
type Queue struct {
	ch chan []audio.Frame

	mu      sync.Mutex
	closed  bool
	dropped int
	pushed  int
	done    chan struct{}
}

// NewQueue returns a queue holding up to size batches. A size <= 0 uses
// DefaultQueueSize.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		ch:   make(chan []audio.Frame, size),
		done: make(chan struct{}),
	}
}

// Push enqueues a batch. It reports false when the batch was dropped
// because the queue is full or closed.
func (q *Queue) Push(frames ...audio.Frame) bool {
	if len(frames) == 0 {
		return true
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- frames:
		q.pushed++
		return true
	default:
		q.dropped++
		return false
	}
}

// Stop marks the end of the stream. Batches already queued are still
// delivered.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Active reports whether the stream is producing or still has queued
// batches.
func (q *Queue) Active() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.closed || len(q.ch) > 0
}

// Dropped returns the number of batches discarded on overflow.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Pushed returns the number of batches accepted.
func (q *Queue) Pushed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushed
}

// Frames waits for the first available batch, then drains every other
// batch queued at that moment without blocking.
func (q *Queue) Frames(ctx context.Context, timeout time.Duration) ([]audio.Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var frames []audio.Frame
	select {
	case batch := <-q.ch:
		frames = append(frames, batch...)
	case <-q.done:
		// Stopped, but batches pushed before Stop still count.
		select {
		case batch := <-q.ch:
			frames = append(frames, batch...)
		default:
			return nil, ErrClosed
		}
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for {
		select {
		case batch := <-q.ch:
			frames = append(frames, batch...)
		default:
			return frames, nil
		}
	}
}
