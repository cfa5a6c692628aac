package audio

import (
	"context"
	"errors"
	"fmt"
)

// ErrChannelMismatch is returned when a processed segment comes back with a
// different channel layout than the original buffer.
var ErrChannelMismatch = errors.New("audio: processed segment channel layout mismatch")

// SegmentProcessor runs one extracted segment through a remote removal job
// and returns the processed replacement. index is the zero-based position of
// the region in the detection output.
type SegmentProcessor func(ctx context.Context, index int, segment *Buffer) (*Buffer, error)

// Reassemble builds the processed track: a full copy of original whose
// detected regions are overwritten by remotely processed replacements.
//
// Regions are handled strictly in the order supplied, with no re-sorting or
// overlap merging; if regions overlap, later writes overwrite earlier ones.
// Region times are truncated to integer frame indices. The returned buffer
// always has exactly the original's frame count.
//
// When a replacement's length differs from the region's, only the first
// min(target, actual) frames are copied from the replacement's prefix; a
// shortfall leaves the region's tail forced to silence, and excess frames
// are discarded. This asymmetric policy shapes the audible artifacts at
// region boundaries and is deliberate.
func Reassemble(ctx context.Context, original *Buffer, regions []TimeRegion, process SegmentProcessor) (*Buffer, error) {
	if original.Channels == 0 {
		return nil, ErrEmptyBuffer
	}

	processed := original.Clone()
	ch := processed.Channels

	for i, region := range regions {
		startFrame := clamp(int(region.Start*float64(processed.SampleRate)), 0, processed.Frames())
		endFrame := clamp(int(region.End*float64(processed.SampleRate)), startFrame, processed.Frames())
		targetFrames := endFrame - startFrame
		if targetFrames == 0 {
			continue
		}

		// Segments are cut from the processed buffer, so an earlier
		// overlapping region's output feeds the later job, matching
		// last-write-wins semantics all the way through.
		segment := processed.FrameSlice(startFrame, endFrame)

		replacement, err := process(ctx, i, segment)
		if err != nil {
			return nil, fmt.Errorf("audio: process segment %d [%gs, %gs]: %w", i, region.Start, region.End, err)
		}
		if replacement.Channels != ch {
			return nil, fmt.Errorf("%w: segment %d has %d channels, want %d",
				ErrChannelMismatch, i, replacement.Channels, ch)
		}

		copied := targetFrames
		if actual := replacement.Frames(); actual < copied {
			copied = actual
		}

		copy(processed.Data[startFrame*ch:(startFrame+copied)*ch], replacement.Data[:copied*ch])
		for s := (startFrame + copied) * ch; s < endFrame*ch; s++ {
			processed.Data[s] = 0
		}
	}

	return processed, nil
}
