package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"depwiki/internal/config"
	"depwiki/internal/logging"
	"depwiki/internal/version"
)

var (
	// repoFlag is the CLI --repo flag value
	repoFlag string
	// logLevelFlag overrides the configured log level
	logLevelFlag string
	// logFormatFlag overrides the configured log format
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "depwiki",
	Short: "depwiki - multi-language dependency graph extractor",
	Long: `depwiki turns a source repository into a navigable dependency graph of
semantic code components (functions, classes, methods, tables) spanning
multiple programming languages, then exposes leaf components and module
processing order for documentation generation.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("depwiki version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", ".", "Repository root to analyze")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format: json, human")
}

// mustRepoRoot resolves the --repo flag to an absolute path.
func mustRepoRoot() string {
	abs, err := filepath.Abs(repoFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving repository root: %v\n", err)
		os.Exit(1)
	}
	return abs
}

// mustConfig loads the configuration for repoRoot, exiting on failure.
func mustConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds a logger from config, with CLI flags taking precedence.
func newLogger(cfg *config.Config) *logging.Logger {
	level := cfg.Logging.Level
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	format := logging.Format(cfg.Logging.Format)
	if logFormatFlag != "" {
		format = logging.Format(logFormatFlag)
	}
	return logging.NewLogger(logging.Config{
		Level:  logging.ParseLevel(level),
		Format: format,
	})
}
