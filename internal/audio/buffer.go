// Package audio provides in-memory PCM buffers and the segment reassembly
// engine that stitches remotely processed regions back into a continuous
// track.
package audio

import (
	"errors"
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Static errors for buffer operations.
var (
	// ErrInvalidWAV is returned when the input is not a decodable WAV file.
	ErrInvalidWAV = errors.New("audio: invalid WAV file")
	// ErrEmptyBuffer is returned when an operation requires a non-empty buffer.
	ErrEmptyBuffer = errors.New("audio: empty buffer")
)

// Buffer holds interleaved PCM samples at a fixed sample rate. Frame indices
// address one sample per channel.
type Buffer struct {
	// SampleRate in Hz.
	SampleRate int
	// Channels is the number of interleaved channels.
	Channels int
	// BitDepth of the source PCM data.
	BitDepth int
	// Data is the interleaved sample data, len = frames * Channels.
	Data []int
}

// ReadFile decodes a WAV file into a Buffer.
func ReadFile(path string) (*Buffer, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return nil, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidWAV, path, err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}

	return &Buffer{
		SampleRate: pcm.Format.SampleRate,
		Channels:   pcm.Format.NumChannels,
		BitDepth:   bitDepth,
		Data:       pcm.Data,
	}, nil
}

// WriteFile encodes the buffer as a PCM WAV file.
func (b *Buffer) WriteFile(path string) error {
	if b.Channels == 0 {
		return ErrEmptyBuffer
	}

	f, err := os.Create(path) // #nosec G304 - path is constructed internally
	if err != nil {
		return fmt.Errorf("audio: create %s: %w", path, err)
	}

	enc := wav.NewEncoder(f, b.SampleRate, b.BitDepth, b.Channels, 1)
	if err := enc.Write(&gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: b.Channels, SampleRate: b.SampleRate},
		SourceBitDepth: b.BitDepth,
		Data:           b.Data,
	}); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("audio: write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("audio: finalize %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("audio: close %s: %w", path, err)
	}
	return nil
}

// Frames returns the number of frames in the buffer.
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Clone returns an independent full copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	data := make([]int, len(b.Data))
	copy(data, b.Data)
	return &Buffer{
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
		BitDepth:   b.BitDepth,
		Data:       data,
	}
}

// FrameSlice returns an independent copy of frames [start, end). Bounds are
// clamped to the buffer.
func (b *Buffer) FrameSlice(start, end int) *Buffer {
	start = clamp(start, 0, b.Frames())
	end = clamp(end, start, b.Frames())

	data := make([]int, (end-start)*b.Channels)
	copy(data, b.Data[start*b.Channels:end*b.Channels])
	return &Buffer{
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
		BitDepth:   b.BitDepth,
		Data:       data,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
