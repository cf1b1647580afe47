package audio

import "errors"

// Target selects which running segment an append goes to.
type Target int

const (
	// Full is the whole-session recording. It only ever grows.
	Full Target = iota
	// Pending is the audio not yet flushed for transcription.
	Pending
)

func (t Target) String() string {
	switch t {
	case Full:
		return "full"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// FrameBuffer holds the two running segments of a recording session.
//
// It is not safe for concurrent use. The capture loop is its only writer and
// DrainPending is atomic with respect to Append by sequencing alone.
type FrameBuffer struct {
	full    *Segment
	pending *Segment
}

// NewFrameBuffer returns a buffer with both segments empty.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		full:    NewSegment(),
		pending: NewSegment(),
	}
}

// Append decodes each frame and concatenates it onto the target segment in
// order. A frame that cannot be decoded is skipped; the remaining frames are
// still appended and the joined errors are returned.
func (b *FrameBuffer) Append(frames []Frame, target Target) error {
	seg := b.segment(target)

	var errs []error
	for _, f := range frames {
		s, err := SegmentFromFrame(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := seg.Append(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DrainPending returns the pending segment and leaves an empty one in its
// place.
func (b *FrameBuffer) DrainPending() *Segment {
	drained := b.pending
	b.pending = NewSegment()
	return drained
}

// ExportFull writes the full recording to path as WAV, replacing any
// previous export.
func (b *FrameBuffer) ExportFull(path string) error {
	return b.full.Export(path)
}

// Full returns the whole-session segment.
func (b *FrameBuffer) Full() *Segment {
	return b.full
}

// Pending returns the segment awaiting the next flush.
func (b *FrameBuffer) Pending() *Segment {
	return b.pending
}

func (b *FrameBuffer) segment(target Target) *Segment {
	if target == Pending {
		return b.pending
	}
	return b.full
}
