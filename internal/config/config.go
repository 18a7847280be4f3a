package config

import (
	"fmt"
)

// Config represents the main Engram configuration
type Config struct {
	// Workspace path containing the memory/ directory
	WorkspacePath string `json:"workspace_path" mapstructure:"workspace_path"`

	// Data directory for index persistence and logs
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Index
	Index IndexConfig `json:"index" mapstructure:"index"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// IndexConfig holds semantic index configuration
type IndexConfig struct {
	// Backend selects the vector backend: "sqlite", "chromem" or "none"
	Backend string `json:"backend" mapstructure:"backend"`

	// Path is the index persistence location: a database file for the
	// sqlite backend, a directory for chromem. Defaults under DataDir.
	Path string `json:"path" mapstructure:"path"`

	Embedding EmbeddingConfig `json:"embedding" mapstructure:"embedding"`
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	Provider  string `json:"provider" mapstructure:"provider"` // openai
	Model     string `json:"model" mapstructure:"model"`
	APIKey    string `json:"api_key" mapstructure:"api_key"`
	Dimension int    `json:"dimension" mapstructure:"dimension"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns a config with sane defaults. Semantic search is
// disabled until an index backend is configured explicitly.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Backend: "none",
			Embedding: EmbeddingConfig{
				Provider: "openai",
				Model:    "text-embedding-3-small",
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
	}
}

// Validate checks the configuration for invalid combinations
func (c *Config) Validate() error {
	if c.WorkspacePath == "" {
		return fmt.Errorf("workspace_path is required")
	}

	switch c.Index.Backend {
	case "", "none", "sqlite", "chromem":
	default:
		return fmt.Errorf("unknown index backend: %q", c.Index.Backend)
	}

	if c.Index.Backend == "sqlite" || c.Index.Backend == "chromem" {
		switch c.Index.Embedding.Provider {
		case "openai":
			if c.Index.Embedding.APIKey == "" {
				return fmt.Errorf("index.embedding.api_key is required for provider %q", c.Index.Embedding.Provider)
			}
		default:
			return fmt.Errorf("unknown embedding provider: %q", c.Index.Embedding.Provider)
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	return nil
}
