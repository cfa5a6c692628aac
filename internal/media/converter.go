// Package media normalizes input files to the canonical raw-audio container
// using the ffmpeg CLI.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// CanonicalExt is the canonical raw-audio container every input is
// normalized to before processing.
const CanonicalExt = ".wav"

// Static errors for media operations.
var (
	// ErrUnsupportedFormat is returned for input containers outside the allow-list.
	ErrUnsupportedFormat = errors.New("media: unsupported input format")
	// ErrConversionFailed is returned when ffmpeg exits with an error.
	ErrConversionFailed = errors.New("media: conversion failed")
)

// supportedExtensions is the fixed allow-list of input containers.
var supportedExtensions = map[string]struct{}{
	".wav":  {},
	".mp3":  {},
	".flac": {},
	".m4a":  {},
	".aac":  {},
	".ogg":  {},
	".mp4":  {},
	".mov":  {},
	".mkv":  {},
}

// Supported reports whether the path's extension is in the input allow-list.
func Supported(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Converter defines the interface for normalizing inputs to the canonical
// container.
type Converter interface {
	// ConvertToCanonical converts src to the canonical WAV container,
	// writing the result into outputDir. If src is already canonical it
	// is returned unchanged.
	ConvertToCanonical(ctx context.Context, src, outputDir string) (string, error)
}

// FFmpegConverter implements Converter using the ffmpeg CLI.
type FFmpegConverter struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
}

// NewFFmpegConverter creates a new FFmpegConverter.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegConverter(ffmpegPath string) *FFmpegConverter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegConverter{ffmpegPath: ffmpegPath}
}

// ConvertToCanonical converts src to a PCM WAV file in outputDir.
func (c *FFmpegConverter) ConvertToCanonical(ctx context.Context, src, outputDir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(src))
	if _, ok := supportedExtensions[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if ext == CanonicalExt {
		return src, nil
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dst := filepath.Join(outputDir, base+CanonicalExt)

	if err := c.runFFmpeg(ctx, buildConvertArgs(src, dst)); err != nil {
		return "", err
	}
	return dst, nil
}

// buildConvertArgs builds the ffmpeg arguments for decoding any supported
// container to signed 16-bit PCM WAV, dropping video streams.
func buildConvertArgs(src, dst string) []string {
	return []string{
		"-y", // Overwrite output file without asking
		"-i", src,
		"-vn", // Drop any video stream
		"-acodec", "pcm_s16le",
		"-map_metadata", "-1", // Strip container metadata
		dst,
	}
}

// runFFmpeg executes ffmpeg with the given args, capturing stderr for
// error reporting.
func (c *FFmpegConverter) runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %w, stderr: %s", ErrConversionFailed, err, lastLine(stderr.String()))
	}
	return nil
}

// lastLine returns the last non-empty line of ffmpeg's stderr, which is
// where it reports the actual failure.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

// Compile-time check that FFmpegConverter implements Converter.
var _ Converter = (*FFmpegConverter)(nil)
