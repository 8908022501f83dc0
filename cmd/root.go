// Copyright (c) 2025 Redisgate
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for redisgate.
// It implements the gateway server and the client subcommands that probe a
// Redis-protocol server and run guarded command batches against it, either in
// process or through a remote gateway.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"redisgate/cli/internal/config"
	"redisgate/cli/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	showVersion bool
	configPath  string
	logLevel    string
)

// errReported is returned by commands that already presented their failure.
// Execute exits non-zero without printing it again.
var errReported = errors.New("failure already reported")

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "redisgate",
	Short: "Guarded command gateway for Redis-protocol servers",
	Long: `redisgate verifies connectivity to a Redis-protocol key-value server and runs
small batches of commands against it. Every batch is checked against a denylist
of dangerous commands before a connection is opened.

Run it as a server with 'redisgate serve', or use 'probe' and 'exec' directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion(cmd.Context(), "")
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application. SIGINT and SIGTERM cancel the command
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, logging.Mask(err.Error()))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML or YAML config file (default: $XDG_CONFIG_HOME/redisgate/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (trace, debug, info, warn, error, disabled)")
}

// loadConfig loads the effective configuration and applies --log-level.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg. Client commands only log at
// warn and above unless a level was asked for explicitly, so their output
// stays readable.
func newLogger(cfg config.Config, client bool) zerolog.Logger {
	level := cfg.LogLevel
	if client && logLevel == "" && os.Getenv(config.EnvLogLevel) == "" {
		level = "warn"
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: cfg.LogFormat,
		Writer: os.Stderr,
		App:    "redisgate",
	})
}
