// Package audio accumulates raw PCM frames into segments and writes them out
// as WAV files.
package audio

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is returned for frames whose layout cannot be decoded.
var ErrInvalidFormat = errors.New("invalid audio format")

// Frame is one block of interleaved little-endian PCM samples as delivered
// by the media transport. Frames are treated as immutable once produced.
type Frame struct {
	Data        []byte
	SampleRate  int
	Channels    int
	SampleWidth int // bytes per sample
}

// Format describes the sample layout shared by every frame in a segment.
type Format struct {
	SampleRate  int
	Channels    int
	SampleWidth int
}

// Format returns the frame's sample layout.
func (f Frame) Format() Format {
	return Format{
		SampleRate:  f.SampleRate,
		Channels:    f.Channels,
		SampleWidth: f.SampleWidth,
	}
}

// BytesPerFrame is the size of one sample across all channels.
func (f Format) BytesPerFrame() int {
	return f.SampleWidth * f.Channels
}

// BitDepth returns the sample width in bits.
func (f Format) BitDepth() int {
	return f.SampleWidth * 8
}

// Validate checks that the format can be encoded.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("%w: channels %d", ErrInvalidFormat, f.Channels)
	}
	if f.SampleWidth < 1 || f.SampleWidth > 4 {
		return fmt.Errorf("%w: sample width %d", ErrInvalidFormat, f.SampleWidth)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.BitDepth())
}
