package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/maauso/smartmute/internal/bootstrap"
	"github.com/maauso/smartmute/internal/config"
)

// commandContext carries lazily loaded configuration and flag values shared
// by every subcommand.
type commandContext struct {
	baseURLFlag *string

	cfg    *config.Config
	logger *slog.Logger
}

// ensureConfig loads the environment configuration once and builds the
// logger. The --base-url flag overrides BASE_URL.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.baseURLFlag != nil && *c.baseURLFlag != "" {
		cfg.BaseURL = *c.baseURLFlag
	}

	c.cfg = cfg
	c.logger = cfg.NewLogger()
	slog.SetDefault(c.logger)
	return cfg, nil
}

// dependencies wires the full dependency graph for a command invocation.
// token comes from the optional positional argument and overrides TOKEN.
func (c *commandContext) dependencies(token string) (*bootstrap.Dependencies, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	deps, err := bootstrap.NewDependencies(cfg, token, c.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize dependencies: %w", err)
	}
	return deps, nil
}

func newRootCommand() *cobra.Command {
	var baseURLFlag string

	ctx := &commandContext{baseURLFlag: &baseURLFlag}

	rootCmd := &cobra.Command{
		Use:           "smartmute",
		Short:         "Detect and remove music segments from audio files via AudioShake",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Override the AudioShake base URL")

	rootCmd.AddCommand(newProcessCommand(ctx))
	rootCmd.AddCommand(newStemsCommand(ctx))

	return rootCmd
}
