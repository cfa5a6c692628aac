// Package job drives asynchronous AudioShake jobs to completion: submit an
// input, poll until a terminal status, and materialize output assets locally.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maauso/smartmute/internal/audioshake"
)

// Default polling parameters, matching the service's recommended cadence.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultTimeout      = 10 * time.Minute
)

// defaultOutputExt is used when an output asset name carries no extension.
const defaultOutputExt = "wav"

// Options configures a single driver run.
type Options struct {
	// OutputDir is where materialized outputs are written. Created if absent.
	OutputDir string
	// CallbackURL is passed through to the service. Optional.
	CallbackURL string
	// PollInterval is the wait between status polls. Defaults to 5s.
	PollInterval time.Duration
	// Timeout bounds the wall-clock time spent waiting for a terminal
	// status. Defaults to 10m. On expiry the job is abandoned locally.
	Timeout time.Duration
}

// withDefaults fills in zero-valued options.
func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.OutputDir == "" {
		o.OutputDir = "."
	}
	return o
}

// Result is the outcome of a completed driver run.
//
// Callers branch on output count: OutputPath is set when the job produced
// exactly one materialized output, OutputPaths when it produced several.
// This single-vs-plural contract is intentional.
type Result struct {
	// Job is the terminal remote job observation.
	Job audioshake.Job
	// Metadata is the profile the job ran with.
	Metadata audioshake.Metadata
	// OutputPath is the resolved local path when exactly one output exists.
	OutputPath string
	// OutputPaths holds the ordered local paths when multiple outputs exist.
	OutputPaths []string
}

// Driver owns the submit → poll → collect state machine for a single remote
// job. A Driver is stateless and safe for concurrent use.
type Driver struct {
	client audioshake.Client
	logger *slog.Logger
}

// NewDriver creates a Driver backed by the given client.
func NewDriver(client audioshake.Client, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{client: client, logger: logger}
}

// Run uploads the input file, submits a job with the given metadata, polls
// until terminal status or timeout, and materializes the outputs under
// opts.OutputDir.
func (d *Driver) Run(ctx context.Context, inputPath string, meta audioshake.Metadata, opts Options) (*Result, error) {
	asset, err := d.client.Upload(ctx, inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	d.logger.Debug("input uploaded",
		slog.String("asset_id", asset.ID),
		slog.String("input", filepath.Base(inputPath)),
	)

	return d.RunAsset(ctx, asset.ID, inputStem(inputPath), meta, opts)
}

// RunAsset submits a job against an already uploaded asset and drives it to
// completion. stem is the input base name used for output filenames. Fan-out
// callers use this to share one upload across several jobs.
func (d *Driver) RunAsset(ctx context.Context, assetID, stem string, meta audioshake.Metadata, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	created, err := d.client.CreateJob(ctx, assetID, meta, opts.CallbackURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmission, err)
	}

	d.logger.Info("job submitted",
		slog.String("job_id", created.ID),
		slog.String("model", meta.Name),
	)

	start := time.Now()
	for {
		observed, err := d.client.GetJob(ctx, created.ID)
		if err != nil {
			return nil, fmt.Errorf("job: poll %s: %w", created.ID, err)
		}

		switch observed.Status {
		case audioshake.StatusCompleted:
			return d.collect(ctx, observed, stem, meta, opts.OutputDir)
		case audioshake.StatusFailed, audioshake.StatusError:
			return nil, NewRemoteError(observed)
		}

		if elapsed := time.Since(start); elapsed > opts.Timeout {
			// Best-effort local abandonment: the remote job keeps
			// running and is not cancelled.
			return nil, &TimeoutError{JobID: created.ID, Elapsed: elapsed}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("job: wait for %s: %w", created.ID, ctx.Err())
		case <-time.After(opts.PollInterval):
		}
	}
}

// collect downloads every output asset with a non-empty link into outputDir
// using the deterministic name {stem}_{metadata.name}.{ext}.
func (d *Driver) collect(ctx context.Context, j audioshake.Job, stem string, meta audioshake.Metadata, outputDir string) (*Result, error) {
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("job: create output directory: %w", err)
	}

	modelName := meta.Name
	if modelName == "" {
		modelName = "output"
	}

	var paths []string
	for _, a := range j.OutputAssets {
		if a.Link == "" {
			continue
		}

		ext := strings.TrimPrefix(filepath.Ext(a.Name), ".")
		if ext == "" {
			ext = defaultOutputExt
		}

		dest := filepath.Join(outputDir, fmt.Sprintf("%s_%s.%s", stem, modelName, ext))
		if err := d.client.Download(ctx, a.Link, dest); err != nil {
			return nil, fmt.Errorf("job: download output for %s: %w", j.ID, err)
		}
		paths = append(paths, dest)
	}

	d.logger.Info("job completed",
		slog.String("job_id", j.ID),
		slog.Int("outputs", len(paths)),
	)

	res := &Result{Job: j, Metadata: meta}
	if len(paths) == 1 {
		res.OutputPath = paths[0]
	} else {
		res.OutputPaths = paths
	}
	return res, nil
}

// inputStem returns the base name of a path without its extension.
func inputStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
