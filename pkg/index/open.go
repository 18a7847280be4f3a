package index

import (
	"github.com/rs/zerolog"
)

// Config selects and configures the index backend
type Config struct {
	// Backend is "sqlite", "chromem" or "none"
	Backend string
	// Path is the database file (sqlite) or persistence directory (chromem)
	Path string
	// Provider supplies embeddings; required for any real backend
	Provider EmbeddingProvider
	Logger   zerolog.Logger
}

// Open constructs the configured backend once, at workspace
// initialization. Any failure downgrades to the no-op index with a single
// warning, so callers always receive a usable Index and never branch on
// availability per call.
func Open(cfg Config) Index {
	switch cfg.Backend {
	case "", "none":
		cfg.Logger.Info().Msg("No index backend configured, semantic search disabled")
		return NewNoop()

	case "sqlite":
		if cfg.Provider == nil {
			cfg.Logger.Warn().Msg("No embedding provider configured, semantic search disabled")
			return NewNoop()
		}
		idx, err := NewSQLite(SQLiteConfig{Path: cfg.Path, Provider: cfg.Provider, Logger: cfg.Logger})
		if err != nil {
			cfg.Logger.Warn().Err(err).Msg("Failed to open sqlite index, semantic search disabled")
			return NewNoop()
		}
		return idx

	case "chromem":
		if cfg.Provider == nil {
			cfg.Logger.Warn().Msg("No embedding provider configured, semantic search disabled")
			return NewNoop()
		}
		idx, err := NewChromem(ChromemConfig{Path: cfg.Path, Provider: cfg.Provider, Logger: cfg.Logger})
		if err != nil {
			cfg.Logger.Warn().Err(err).Msg("Failed to open chromem index, semantic search disabled")
			return NewNoop()
		}
		return idx

	default:
		cfg.Logger.Warn().Str("backend", cfg.Backend).Msg("Unknown index backend, semantic search disabled")
		return NewNoop()
	}
}
