package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"depwiki/internal/scanner"
)

var (
	scanFormat   string
	scanIncludes []string
	scanExcludes []string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Walk the repository and print the filtered file tree",
	Long: `Walk the repository file tree, applying include/exclude glob filtering
and symlink protection, and print the resulting structure.

Examples:
  depwiki scan
  depwiki scan --format=yaml
  depwiki scan --exclude='*.generated.js' --include='*.py'`,
	Run: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "json", "Output format (json, yaml)")
	scanCmd.Flags().StringSliceVar(&scanIncludes, "include", nil, "Include glob patterns (replaces defaults)")
	scanCmd.Flags().StringSliceVar(&scanExcludes, "exclude", nil, "Extra exclude glob patterns")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	repoRoot := mustRepoRoot()
	cfg := mustConfig(repoRoot)
	logger := newLogger(cfg)

	includes := scanIncludes
	if len(includes) == 0 {
		includes = cfg.Analysis.IncludePatterns
	}
	excludes := append(append([]string{}, cfg.Analysis.ExcludePatterns...), scanExcludes...)

	scan := scanner.New(includes, excludes, logger)
	tree, err := scan.Scan(repoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning repository: %v\n", err)
		os.Exit(1)
	}

	var output []byte
	switch scanFormat {
	case "yaml":
		output, err = yaml.Marshal(tree)
	default:
		output, err = json.MarshalIndent(tree, "", "  ")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(output))
}
