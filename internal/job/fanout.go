package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/smartmute/internal/audioshake"
)

// DefaultFanOutWorkers bounds concurrent jobs in a fan-out run.
const DefaultFanOutWorkers = 5

// Coordinator runs several independent jobs concurrently against one shared
// uploaded asset, one job per metadata profile.
type Coordinator struct {
	driver     *Driver
	logger     *slog.Logger
	maxWorkers int
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMaxWorkers bounds the worker pool size.
func WithMaxWorkers(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// NewCoordinator creates a Coordinator on top of the given driver.
func NewCoordinator(driver *Driver, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		driver:     driver,
		logger:     logger,
		maxWorkers: DefaultFanOutWorkers,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run uploads the input exactly once, then submits one job per metadata
// entry against the shared asset, each driven by its own poll loop inside a
// bounded worker pool.
//
// Results are collected in completion order, not submission order; each
// Result carries its originating Metadata so callers can match them back.
// On the first worker failure that error is returned to the caller
// immediately; in-flight siblings continue to completion in the background
// and their results are discarded.
func (c *Coordinator) Run(ctx context.Context, inputPath string, metas []audioshake.Metadata, opts Options) ([]*Result, error) {
	if len(metas) == 0 {
		return nil, ErrNoMetadata
	}

	asset, err := c.driver.client.Upload(ctx, inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}
	stem := inputStem(inputPath)

	c.logger.Info("fan-out started",
		slog.String("asset_id", asset.ID),
		slog.Int("jobs", len(metas)),
		slog.Int("max_workers", c.maxWorkers),
	)

	type outcome struct {
		res *Result
		err error
	}

	// Buffered so abandoned workers never block after the caller returns.
	outcomes := make(chan outcome, len(metas))
	sem := make(chan struct{}, c.maxWorkers)

	for _, meta := range metas {
		go func(meta audioshake.Metadata) {
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := c.driver.RunAsset(ctx, asset.ID, stem, meta, opts)
			if err != nil {
				outcomes <- outcome{err: fmt.Errorf("model %q: %w", meta.Name, err)}
				return
			}
			outcomes <- outcome{res: res}
		}(meta)
	}

	results := make([]*Result, 0, len(metas))
	for range metas {
		o := <-outcomes
		if o.err != nil {
			return nil, o.err
		}
		results = append(results, o.res)
	}

	return results, nil
}
