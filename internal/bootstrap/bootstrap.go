// Package bootstrap provides dependency initialization for the smartmute CLI.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/maauso/smartmute/internal/audioshake"
	"github.com/maauso/smartmute/internal/config"
	"github.com/maauso/smartmute/internal/job"
	"github.com/maauso/smartmute/internal/media"
	"github.com/maauso/smartmute/internal/pipeline"
	"github.com/maauso/smartmute/internal/storage"
)

// Dependencies holds all initialized dependencies for the CLI commands.
type Dependencies struct {
	Client      audioshake.Client
	Driver      *job.Driver
	Coordinator *job.Coordinator
	Pipeline    *pipeline.Pipeline
}

// NewDependencies creates and initializes all dependencies.
// token takes precedence over cfg.Token when non-empty.
func NewDependencies(cfg *config.Config, token string, logger *slog.Logger) (*Dependencies, error) {
	if token == "" {
		token = cfg.Token
	}

	client, err := audioshake.NewClient(token, audioshake.WithBaseURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("create AudioShake client: %w", err)
	}

	driver := job.NewDriver(client, logger)
	coordinator := job.NewCoordinator(driver, logger, job.WithMaxWorkers(cfg.MaxConcurrentJobs))
	converter := media.NewFFmpegConverter("")

	opts := []pipeline.Option{
		pipeline.WithPollInterval(cfg.PollInterval),
		pipeline.WithJobTimeout(cfg.JobTimeout),
		pipeline.WithWorkDir(cfg.WorkDir),
	}

	if cfg.S3Enabled() {
		publisher, err := storage.NewS3Publisher(storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 publisher: %w", err)
		}
		logger.Info("S3 publishing configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		opts = append(opts, pipeline.WithPublisher(publisher))
	}

	return &Dependencies{
		Client:      client,
		Driver:      driver,
		Coordinator: coordinator,
		Pipeline:    pipeline.New(driver, converter, logger, opts...),
	}, nil
}
