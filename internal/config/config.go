// Package config loads and persists the depwiki configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DepwikiDir is the per-repo directory holding config and artifacts.
const DepwikiDir = ".depwiki"

// ConfigFile is the config filename inside DepwikiDir.
const ConfigFile = "config.json"

// Config represents the complete depwiki configuration.
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis"`
	Output   OutputConfig   `json:"output" mapstructure:"output"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// AnalysisConfig bounds and filters the analysis pass.
type AnalysisConfig struct {
	// IncludePatterns replaces the default include set when non-empty
	IncludePatterns []string `json:"includePatterns" mapstructure:"includePatterns"`
	// ExcludePatterns merges with the built-in ignore set
	ExcludePatterns []string `json:"excludePatterns" mapstructure:"excludePatterns"`
	// MaxFiles caps the number of files analyzed; 0 means unlimited
	MaxFiles int `json:"maxFiles" mapstructure:"maxFiles"`
	// FileTimeoutSeconds bounds a single file's parse; 0 means no timeout
	FileTimeoutSeconds int `json:"fileTimeoutSeconds" mapstructure:"fileTimeoutSeconds"`
	// Workers is the parse fan-out width; 0 means sequential
	Workers int `json:"workers" mapstructure:"workers"`
}

// OutputConfig controls where artifacts are written.
type OutputConfig struct {
	// GraphDir is where dependency graph JSON documents land
	GraphDir string `json:"graphDir" mapstructure:"graphDir"`
	// CompressSnapshots also writes a zstd-compressed copy of the graph
	CompressSnapshots bool `json:"compressSnapshots" mapstructure:"compressSnapshots"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// Default returns the default configuration for a repo root.
func Default(repoRoot string) *Config {
	return &Config{
		Version:  1,
		RepoRoot: repoRoot,
		Analysis: AnalysisConfig{
			FileTimeoutSeconds: 30,
			Workers:            4,
		},
		Output: OutputConfig{
			GraphDir: filepath.Join(DepwikiDir, "graphs"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "human",
		},
	}
}

// Load reads the configuration for repoRoot, merging the config file (if
// present) and DEPWIKI_* environment variables over defaults.
func Load(repoRoot string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(repoRoot, DepwikiDir, ConfigFile))
	v.SetConfigType("json")
	v.SetEnvPrefix("DEPWIKI")
	v.AutomaticEnv()

	def := Default(repoRoot)
	v.SetDefault("version", def.Version)
	v.SetDefault("analysis.fileTimeoutSeconds", def.Analysis.FileTimeoutSeconds)
	v.SetDefault("analysis.workers", def.Analysis.Workers)
	v.SetDefault("output.graphDir", def.Output.GraphDir)
	v.SetDefault("output.compressSnapshots", def.Output.CompressSnapshots)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.RepoRoot == "" {
		cfg.RepoRoot = repoRoot
	}
	return cfg, nil
}

// Save writes the configuration to its canonical location under repoRoot.
func (c *Config) Save() error {
	dir := filepath.Join(c.RepoRoot, DepwikiDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ConfigFile), data, 0o644)
}
