// Package transport delivers audio frames from a live media stream to the
// recorder.
package transport

import (
	"context"
	"errors"
	"time"

	"github.com/jwulff/minutes/internal/audio"
)

var (
	// ErrTimeout means no frames arrived within the poll timeout. It is
	// expected while the stream is idle.
	ErrTimeout = errors.New("frame receive timed out")
	// ErrClosed means the stream has ended and no frames remain.
	ErrClosed = errors.New("stream closed")
)

// Source is a live frame stream.
type Source interface {
	// Frames waits up to timeout for the next batch of frames.
	Frames(ctx context.Context, timeout time.Duration) ([]audio.Frame, error)
	// Active reports whether the stream is still producing.
	Active() bool
}

// Stopper is implemented by sources that can be ended from outside.
type Stopper interface {
	Stop()
}
