package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"depwiki/internal/builder"
	"depwiki/internal/callgraph"
	"depwiki/internal/config"
	"depwiki/internal/graph"
	"depwiki/internal/moduletree"
	"depwiki/internal/store"
)

var (
	analyzeMaxFiles int
	analyzeWorkers  int
	analyzeCompress bool
	analyzeOutput   string
)

// GraphFileName is the dependency graph artifact written per run.
const GraphFileName = "dependency_graph.json"

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the repository and persist its dependency graph",
	Long: `Run the full analysis pipeline: scan the file tree, parse every
supported source file, resolve cross-file call relationships, persist the
dependency graph, and write the initial module tree.

Examples:
  depwiki analyze
  depwiki analyze --workers=8 --compress
  depwiki analyze --max-files=500 --output=/tmp/graphs`,
	Run: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeMaxFiles, "max-files", 0, "Cap on analyzed files (0 = config value)")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "Parse worker count (0 = config value)")
	analyzeCmd.Flags().BoolVar(&analyzeCompress, "compress", false, "Also write a zstd-compressed graph snapshot")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "Output directory (default: configured graph dir)")
	rootCmd.AddCommand(analyzeCmd)
}

// analyzeSummary is the result document printed after a run.
type analyzeSummary struct {
	RunID     string            `json:"run_id"`
	GraphPath string            `json:"graph_path"`
	Modules   []string          `json:"modules"`
	Leaves    []string          `json:"leaves"`
	Readme    string            `json:"readme,omitempty"`
	Summary   callgraph.Summary `json:"summary"`
	// ChangedFiles counts files whose content digest differs from the
	// previous run
	ChangedFiles int   `json:"changed_files"`
	Duration     int64 `json:"duration_ms"`
}

func runAnalyze(cmd *cobra.Command, args []string) {
	start := time.Now()
	repoRoot := mustRepoRoot()
	cfg := mustConfig(repoRoot)
	logger := newLogger(cfg)
	ctx := context.Background()

	maxFiles := cfg.Analysis.MaxFiles
	if analyzeMaxFiles > 0 {
		maxFiles = analyzeMaxFiles
	}
	workers := cfg.Analysis.Workers
	if analyzeWorkers > 0 {
		workers = analyzeWorkers
	}
	outputDir := analyzeOutput
	if outputDir == "" {
		outputDir = cfg.Output.GraphDir
	}
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(repoRoot, outputDir)
	}

	runs, err := store.Open(filepath.Join(repoRoot, config.DepwikiDir), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening run store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = runs.Close() }()

	run, err := runs.BeginRun(repoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording run: %v\n", err)
		os.Exit(1)
	}

	b := builder.New(repoRoot, builder.Options{
		IncludePatterns: cfg.Analysis.IncludePatterns,
		ExcludePatterns: cfg.Analysis.ExcludePatterns,
		MaxFiles:        maxFiles,
		Workers:         workers,
		FileTimeout:     time.Duration(cfg.Analysis.FileTimeoutSeconds) * time.Second,
	}, logger)

	output, err := b.Build(ctx)
	if err != nil {
		_ = runs.FailRun(run, err.Error())
		fmt.Fprintf(os.Stderr, "Error analyzing repository: %v\n", err)
		os.Exit(1)
	}

	graphPath := filepath.Join(outputDir, GraphFileName)
	compress := analyzeCompress || cfg.Output.CompressSnapshots
	if err := builder.SaveGraph(output.Components, graphPath, compress); err != nil {
		_ = runs.FailRun(run, err.Error())
		fmt.Fprintf(os.Stderr, "Error persisting dependency graph: %v\n", err)
		os.Exit(1)
	}

	adj := graph.BuildAdjacency(output.Components)
	leaves := graph.LeafNodes(adj, output.Components, logger)

	tree, err := moduletree.PathClusterer{}.Cluster(ctx, leaves, output.Components)
	if err != nil {
		_ = runs.FailRun(run, err.Error())
		fmt.Fprintf(os.Stderr, "Error clustering modules: %v\n", err)
		os.Exit(1)
	}
	overrides, err := moduletree.LoadOverrides(filepath.Join(repoRoot, config.DepwikiDir, moduletree.OverridesFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading module overrides: %v\n", err)
		os.Exit(1)
	}
	overrides.Apply(tree)
	if err := tree.SaveSnapshots(outputDir); err != nil {
		_ = runs.FailRun(run, err.Error())
		fmt.Fprintf(os.Stderr, "Error writing module tree: %v\n", err)
		os.Exit(1)
	}

	changed, err := runs.RecordFingerprints(output.Files)
	if err != nil {
		logger.Warn("failed to record file fingerprints", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := runs.CompleteRun(run, output.Summary); err != nil {
		logger.Warn("failed to finalize run record", map[string]interface{}{
			"runId": run.ID,
			"error": err.Error(),
		})
	}

	summary := analyzeSummary{
		RunID:        run.ID,
		GraphPath:    graphPath,
		Modules:      output.Modules,
		Leaves:       leaves,
		Readme:       output.ReadmePath,
		Summary:      output.Summary,
		ChangedFiles: changed,
		Duration:     time.Since(start).Milliseconds(),
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
