package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrEmptySegment is returned when exporting a segment with no audio.
var ErrEmptySegment = errors.New("empty audio segment")

const wavPCMFormat = 1

// Export encodes the segment as a PCM WAV file and overwrites path. The file
// is written next to path first and renamed into place so readers never see
// a half-written recording.
func (s *Segment) Export(path string) error {
	if s.Empty() {
		return ErrEmptySegment
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(tmp), err)
	}

	if err := s.encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", filepath.Base(tmp), err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Segment) encode(f *os.File) error {
	format := s.format
	enc := wav.NewEncoder(f, format.SampleRate, format.BitDepth(), format.Channels, wavPCMFormat)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: format.Channels,
			SampleRate:  format.SampleRate,
		},
		Data:           s.samples(),
		SourceBitDepth: format.BitDepth(),
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// ReadWAV decodes a PCM WAV file into a segment.
func ReadWAV(path string) (*Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a PCM wav file", ErrInvalidFormat, filepath.Base(path))
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	width := int(dec.BitDepth) / 8
	data := make([]byte, 0, len(buf.Data)*width)
	for _, v := range buf.Data {
		data = appendSample(data, v, width)
	}

	return SegmentFromFrame(Frame{
		Data:        data,
		SampleRate:  int(dec.SampleRate),
		Channels:    int(dec.NumChans),
		SampleWidth: width,
	})
}

// appendSample writes v little-endian in width bytes.
func appendSample(dst []byte, v, width int) []byte {
	u := uint32(v)
	for i := 0; i < width; i++ {
		dst = append(dst, byte(u>>(8*i)))
	}
	return dst
}
