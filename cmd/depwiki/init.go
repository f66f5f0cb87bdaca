package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"depwiki/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default .depwiki configuration in the repository",
	Run:   runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) {
	repoRoot := mustRepoRoot()
	configPath := filepath.Join(repoRoot, config.DepwikiDir, config.ConfigFile)

	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Fprintf(os.Stderr, "Configuration already exists at %s (use --force to overwrite)\n", configPath)
		os.Exit(1)
	}

	cfg := config.Default(repoRoot)
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Initialized depwiki configuration at %s\n", configPath)
}
