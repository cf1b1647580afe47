package recording

import (
	"fmt"
	"time"
)

// DefaultFlushInterval is how much wall-clock time passes between chunk
// transcriptions.
const DefaultFlushInterval = 15 * time.Second

// Scheduler decides when pending audio is sliced off for transcription.
type Scheduler struct {
	Interval time.Duration
}

// NewScheduler returns a scheduler flushing every interval. A non-positive
// interval uses DefaultFlushInterval.
func NewScheduler(interval time.Duration) Scheduler {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return Scheduler{Interval: interval}
}

// ShouldFlush reports whether at least one interval has passed since the
// last flush. It does not look at how much audio is pending.
func (s Scheduler) ShouldFlush(now, lastFlush time.Time) bool {
	return now.Sub(lastFlush) >= s.Interval
}

// Elapsed splits the time since start into whole minutes and seconds.
func Elapsed(now, start time.Time) (minutes, seconds int) {
	d := now.Sub(start)
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return total / 60, total % 60
}

// FormatElapsed renders a duration as MM:SS. Minutes keep counting past 59.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
