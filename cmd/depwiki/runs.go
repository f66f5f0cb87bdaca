package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"depwiki/internal/config"
	"depwiki/internal/store"
)

var (
	runsLimit             int
	runsCleanup           bool
	runsRetention         time.Duration
	runsClearFingerprints bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded analysis runs",
	Run:   runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	runsCmd.Flags().BoolVar(&runsCleanup, "cleanup", false, "Delete finished runs older than the retention window")
	runsCmd.Flags().DurationVar(&runsRetention, "retention", 30*24*time.Hour, "Retention window used with --cleanup")
	runsCmd.Flags().BoolVar(&runsClearFingerprints, "clear-fingerprints", false, "Forget stored file fingerprints so the next run reports every file as changed")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) {
	repoRoot := mustRepoRoot()
	cfg := mustConfig(repoRoot)
	logger := newLogger(cfg)

	runs, err := store.Open(filepath.Join(repoRoot, config.DepwikiDir), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening run store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = runs.Close() }()

	if runsCleanup {
		removed, err := runs.CleanupOldRuns(runsRetention)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error cleaning up runs: %v\n", err)
			os.Exit(1)
		}
		logger.Info("removed old runs", map[string]interface{}{"count": removed})
	}

	if runsClearFingerprints {
		if err := runs.ClearFingerprints(); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing fingerprints: %v\n", err)
			os.Exit(1)
		}
		logger.Info("cleared file fingerprints", nil)
	}

	list, err := runs.ListRuns(runsLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing runs: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
