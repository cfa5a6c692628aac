package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maauso/smartmute/internal/media"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process <path> [token]",
		Short: "Remove detected music from an audio file or a directory of files",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("input does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect input: %w", err)
			}

			deps, err := ctx.dependencies(tokenArg(args))
			if err != nil {
				return err
			}

			if info.IsDir() {
				results, err := deps.Pipeline.ProcessDir(cmd.Context(), absPath, ctx.cfg.MaxConcurrentFiles)
				for _, r := range results {
					if r.Err == nil {
						fmt.Fprintln(cmd.OutOrStdout(), r.OutputPath)
					}
				}
				return err
			}

			if !media.Supported(absPath) {
				return fmt.Errorf("unsupported file extension %q", filepath.Ext(absPath))
			}

			output, err := deps.Pipeline.Process(cmd.Context(), absPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
}

// tokenArg returns the optional positional token argument.
func tokenArg(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return ""
}
