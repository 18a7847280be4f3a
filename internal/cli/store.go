package cli

import (
	"fmt"

	"github.com/rowan/engram/internal/config"
	"github.com/rowan/engram/internal/logger"
	"github.com/rowan/engram/pkg/index"
	"github.com/rowan/engram/pkg/memory"
)

// openStore wires config, logger, index and store for a command run.
// The returned cleanup closes the store (and its index) and the logger.
func openStore() (*memory.Store, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	lg, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	zl := lg.GetZerolog()

	var provider index.EmbeddingProvider
	if cfg.Index.Embedding.APIKey != "" {
		provider = index.NewOpenAIProvider(
			cfg.Index.Embedding.APIKey,
			cfg.Index.Embedding.Model,
			cfg.Index.Embedding.Dimension,
		)
	}

	idx := index.Open(index.Config{
		Backend:  cfg.Index.Backend,
		Path:     cfg.Index.Path,
		Provider: provider,
		Logger:   zl,
	})

	store, err := memory.NewStore(memory.Config{
		WorkspacePath: cfg.WorkspacePath,
		Index:         idx,
		Logger:        zl,
	})
	if err != nil {
		idx.Close()
		lg.Close()
		return nil, nil, fmt.Errorf("failed to open memory store: %w", err)
	}

	cleanup := func() {
		store.Close()
		lg.Close()
	}
	return store, cleanup, nil
}
