package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maauso/smartmute/internal/audioshake"
	"github.com/maauso/smartmute/internal/job"
)

var errNoModels = errors.New("at least one --model is required")

func newStemsCommand(ctx *commandContext) *cobra.Command {
	var models []string
	var format string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "stems <path> [token]",
		Short: "Run several remote models concurrently over one uploaded file",
		Long: "Uploads the input once and runs one remote job per --model against the " +
			"shared asset, downloading every output. Results are reported as they " +
			"complete, not in --model order.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(models) == 0 {
				return errNoModels
			}

			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			deps, err := ctx.dependencies(tokenArg(args))
			if err != nil {
				return err
			}

			metas := make([]audioshake.Metadata, 0, len(models))
			for _, m := range models {
				metas = append(metas, audioshake.Metadata{Name: m, Format: format})
			}

			dir := outputDir
			if dir == "" {
				dir = filepath.Dir(absPath)
			}

			results, err := deps.Coordinator.Run(cmd.Context(), absPath, metas, job.Options{
				OutputDir:    dir,
				PollInterval: ctx.cfg.PollInterval,
				Timeout:      ctx.cfg.JobTimeout,
			})
			if err != nil {
				return err
			}

			for _, r := range results {
				if r.OutputPath != "" {
					fmt.Fprintln(cmd.OutOrStdout(), r.OutputPath)
					continue
				}
				for _, p := range r.OutputPaths {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&models, "model", nil, "Remote model to run (repeatable)")
	cmd.Flags().StringVar(&format, "format", "wav", "Expected output container")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for downloaded outputs (default: alongside input)")

	return cmd
}
