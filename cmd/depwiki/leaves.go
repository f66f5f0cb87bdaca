package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"depwiki/internal/builder"
	"depwiki/internal/graph"
)

var leavesGraphPath string

var leavesCmd = &cobra.Command{
	Use:   "leaves",
	Short: "Compute leaf components and processing order from a saved graph",
	Long: `Load a persisted dependency graph, build the adjacency structure, and
print the leaf components (atomic documentation units) together with the
dependency-first processing order.`,
	Run: runLeaves,
}

func init() {
	leavesCmd.Flags().StringVar(&leavesGraphPath, "graph", "", "Path to a dependency graph JSON (default: configured location)")
	rootCmd.AddCommand(leavesCmd)
}

func runLeaves(cmd *cobra.Command, args []string) {
	repoRoot := mustRepoRoot()
	cfg := mustConfig(repoRoot)
	logger := newLogger(cfg)

	graphPath := leavesGraphPath
	if graphPath == "" {
		graphPath = filepath.Join(repoRoot, cfg.Output.GraphDir, GraphFileName)
	}

	components, err := builder.LoadGraph(graphPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading dependency graph: %v\n", err)
		os.Exit(1)
	}

	adj := graph.BuildAdjacency(components)
	result := struct {
		Leaves []string `json:"leaves"`
		Order  []string `json:"processing_order"`
	}{
		Leaves: graph.LeafNodes(adj, components, logger),
		Order:  graph.ProcessingOrder(adj, components),
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
