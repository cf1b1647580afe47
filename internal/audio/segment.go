package audio

import (
	"errors"
	"fmt"
	"time"
)

// ErrFormatMismatch is returned when appending audio whose layout differs
// from the segment's established format.
var ErrFormatMismatch = errors.New("audio format mismatch")

// Segment is a growable run of contiguous PCM audio. The first non-empty
// append fixes its format.
type Segment struct {
	format Format
	data   []byte
}

// NewSegment returns an empty segment.
func NewSegment() *Segment {
	return &Segment{}
}

// SegmentFromFrame decodes a single frame into a segment.
func SegmentFromFrame(f Frame) (*Segment, error) {
	format := f.Format()
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if len(f.Data)%format.BytesPerFrame() != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrInvalidFormat, len(f.Data), format.BytesPerFrame())
	}

	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	return &Segment{format: format, data: data}, nil
}

// Append concatenates other onto the end of s.
func (s *Segment) Append(other *Segment) error {
	if other == nil || other.Empty() {
		return nil
	}
	if s.Empty() {
		s.format = other.format
	} else if s.format != other.format {
		return fmt.Errorf("%w: have %s, got %s", ErrFormatMismatch, s.format, other.format)
	}
	s.data = append(s.data, other.data...)
	return nil
}

// Format returns the segment's sample layout. It is the zero Format while
// the segment is empty.
func (s *Segment) Format() Format {
	return s.format
}

// Bytes returns a copy of the raw PCM data.
func (s *Segment) Bytes() []byte {
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

// Len returns the segment length in bytes.
func (s *Segment) Len() int {
	return len(s.data)
}

// Empty reports whether the segment holds no audio.
func (s *Segment) Empty() bool {
	return len(s.data) == 0
}

// SampleFrames returns the number of multi-channel sample frames.
func (s *Segment) SampleFrames() int {
	if s.Empty() {
		return 0
	}
	return len(s.data) / s.format.BytesPerFrame()
}

// Duration returns the playback length of the segment.
func (s *Segment) Duration() time.Duration {
	if s.Empty() {
		return 0
	}
	return time.Duration(s.SampleFrames()) * time.Second / time.Duration(s.format.SampleRate)
}

// samples decodes the PCM bytes into one int per channel sample, the layout
// the WAV encoder expects. 8-bit audio stays unsigned as in the WAV format.
func (s *Segment) samples() []int {
	width := s.format.SampleWidth
	out := make([]int, 0, len(s.data)/width)
	for i := 0; i+width <= len(s.data); i += width {
		b := s.data[i : i+width]
		switch width {
		case 1:
			out = append(out, int(b[0]))
		case 2:
			out = append(out, int(int16(uint16(b[0])|uint16(b[1])<<8)))
		case 3:
			v := int32(uint32(b[0])<<8|uint32(b[1])<<16|uint32(b[2])<<24) >> 8
			out = append(out, int(v))
		case 4:
			out = append(out, int(int32(uint32(b[0])|uint32(b[1])<<8|uint32(b[2])<<16|uint32(b[3])<<24)))
		}
	}
	return out
}
