// Package pipeline composes the detection job, the segment reassembly
// engine, and per-segment removal jobs into the smart-mute workflow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maauso/smartmute/internal/audio"
	"github.com/maauso/smartmute/internal/audioshake"
	"github.com/maauso/smartmute/internal/job"
	"github.com/maauso/smartmute/internal/media"
	"github.com/maauso/smartmute/internal/runid"
	"github.com/maauso/smartmute/internal/storage"
)

// outputSuffix is appended to the input stem for the processed file.
const outputSuffix = "_smart_mute"

// Static errors for pipeline input validation.
var (
	// ErrInputNotFound is returned when the input path does not exist.
	ErrInputNotFound = errors.New("pipeline: input file not found")
	// ErrInputIsDir is returned when a single-file run is given a directory.
	ErrInputIsDir = errors.New("pipeline: input is a directory")
)

// Metadata profiles for the two remote models the pipeline drives.
var (
	detectionMeta = audioshake.Metadata{Name: "music_detection", Format: "json"}
	removalMeta   = audioshake.Metadata{Name: "music_removal", Format: "wav"}
)

// Pipeline runs the smart-mute workflow for one input file: normalize the
// container, detect music regions remotely, strip music from each region
// remotely, reassemble, and write the output next to the input.
type Pipeline struct {
	driver    *job.Driver
	converter media.Converter
	publisher storage.Publisher
	logger    *slog.Logger

	workDir      string
	pollInterval time.Duration
	jobTimeout   time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPollInterval sets the wait between remote status polls.
func WithPollInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// WithJobTimeout bounds the wall-clock wait for each remote job.
func WithJobTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.jobTimeout = d
		}
	}
}

// WithWorkDir sets the base directory for per-run workspaces.
func WithWorkDir(dir string) Option {
	return func(p *Pipeline) {
		p.workDir = dir
	}
}

// WithPublisher publishes the final output file after a successful run.
func WithPublisher(pub storage.Publisher) Option {
	return func(p *Pipeline) {
		p.publisher = pub
	}
}

// New creates a Pipeline.
func New(driver *job.Driver, converter media.Converter, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		driver:       driver,
		converter:    converter,
		logger:       logger,
		pollInterval: job.DefaultPollInterval,
		jobTimeout:   job.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the smart-mute workflow over inputPath and returns the path
// of the processed file, written next to the input as
// {stem}_smart_mute.wav. The temporary workspace is removed on every exit
// path.
func (p *Pipeline) Process(ctx context.Context, inputPath string) (string, error) {
	absPath, err := filepath.Abs(inputPath)
	if err != nil {
		return "", fmt.Errorf("pipeline: resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrInputNotFound, absPath)
		}
		return "", fmt.Errorf("pipeline: inspect input: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrInputIsDir, absPath)
	}

	runID := runid.Generate()
	logger := p.logger.With(
		slog.String("run_id", runID),
		slog.String("input", filepath.Base(absPath)),
	)

	ws, err := storage.NewWorkspace(p.workDir, "smart_mute_")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			logger.Warn("workspace cleanup failed", slog.String("error", err.Error()))
		}
	}()

	normalized, err := p.converter.ConvertToCanonical(ctx, absPath, ws.Dir())
	if err != nil {
		return "", fmt.Errorf("pipeline: normalize input: %w", err)
	}

	regions, err := p.detectRegions(ctx, normalized, ws, logger)
	if err != nil {
		return "", err
	}

	original, err := audio.ReadFile(normalized)
	if err != nil {
		return "", err
	}

	processed, err := audio.Reassemble(ctx, original, regions, p.segmentProcessor(ws, logger))
	if err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	outputPath := filepath.Join(filepath.Dir(absPath), stem+outputSuffix+media.CanonicalExt)
	if err := processed.WriteFile(outputPath); err != nil {
		return "", err
	}

	if p.publisher != nil {
		url, err := p.publisher.Publish(ctx, outputPath)
		if err != nil {
			return "", fmt.Errorf("pipeline: publish output: %w", err)
		}
		logger.Info("output published", slog.String("url", url))
	}

	logger.Info("smart mute complete",
		slog.String("output", outputPath),
		slog.Int("regions", len(regions)),
	)

	return outputPath, nil
}

// detectRegions runs the music detection job and parses its JSON output.
func (p *Pipeline) detectRegions(ctx context.Context, normalized string, ws *storage.Workspace, logger *slog.Logger) ([]audio.TimeRegion, error) {
	res, err := p.driver.Run(ctx, normalized, detectionMeta, job.Options{
		OutputDir:    ws.Dir(),
		PollInterval: p.pollInterval,
		Timeout:      p.jobTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: music detection: %w", err)
	}
	if res.OutputPath == "" {
		return nil, fmt.Errorf("pipeline: music detection job %s returned %d outputs, want 1",
			res.Job.ID, len(res.OutputPaths))
	}

	f, err := os.Open(res.OutputPath) // #nosec G304 - path is constructed internally
	if err != nil {
		return nil, fmt.Errorf("pipeline: open detection output: %w", err)
	}
	defer func() { _ = f.Close() }()

	regions, err := audio.ParseRegions(f)
	if err != nil {
		return nil, err
	}

	logger.Info("music regions detected", slog.Int("regions", len(regions)))
	return regions, nil
}

// segmentProcessor returns the per-region hook for the reassembly engine:
// write the segment slice into the workspace, run a removal job on it, and
// read the processed replacement back.
func (p *Pipeline) segmentProcessor(ws *storage.Workspace, logger *slog.Logger) audio.SegmentProcessor {
	return func(ctx context.Context, index int, segment *audio.Buffer) (*audio.Buffer, error) {
		slicePath := ws.Path(fmt.Sprintf("slice_%03d.wav", index))
		if err := segment.WriteFile(slicePath); err != nil {
			return nil, err
		}

		logger.Debug("removing music from segment",
			slog.Int("segment", index),
			slog.Float64("seconds", segment.Duration()),
		)

		res, err := p.driver.Run(ctx, slicePath, removalMeta, job.Options{
			OutputDir:    ws.Dir(),
			PollInterval: p.pollInterval,
			Timeout:      p.jobTimeout,
		})
		if err != nil {
			return nil, err
		}

		return audio.ReadFile(res.OutputPath)
	}
}
