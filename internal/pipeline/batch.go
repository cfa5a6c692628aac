package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/maauso/smartmute/internal/media"
)

// DefaultBatchWorkers bounds concurrent file runs in a batch.
const DefaultBatchWorkers = 5

// ErrNoSupportedFiles is returned when a directory contains no files in the
// supported-container allow-list.
var ErrNoSupportedFiles = errors.New("pipeline: no supported audio files in directory")

// FileResult is the outcome of one file in a batch run.
type FileResult struct {
	InputPath  string
	OutputPath string
	Err        error
}

// ProcessDir runs the full pipeline over every supported file in dir, each
// in its own workspace, under a bounded worker pool. Results come back in
// input order. The returned error aggregates all per-file failures; a
// single file's failure does not stop its siblings.
func (p *Pipeline) ProcessDir(ctx context.Context, dir string, maxWorkers int) ([]FileResult, error) {
	if maxWorkers <= 0 {
		maxWorkers = DefaultBatchWorkers
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read directory: %w", err)
	}

	var inputs []string
	for _, entry := range entries {
		if entry.IsDir() || !media.Supported(entry.Name()) {
			continue
		}
		inputs = append(inputs, filepath.Join(dir, entry.Name()))
	}
	if len(inputs) == 0 {
		return nil, ErrNoSupportedFiles
	}

	p.logger.Info("batch started",
		slog.String("dir", dir),
		slog.Int("files", len(inputs)),
		slog.Int("max_workers", maxWorkers),
	)

	results := make([]FileResult, len(inputs))
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			out, err := p.Process(ctx, input)
			results[i] = FileResult{InputPath: input, OutputPath: out, Err: err}
		}(i, input)
	}
	wg.Wait()

	var merr *multierror.Error
	for _, r := range results {
		if r.Err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", filepath.Base(r.InputPath), r.Err))
		}
	}

	return results, merr.ErrorOrNil()
}
