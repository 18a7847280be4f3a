package index

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"
)

// ChromemIndex stores chunks in chromem-go, a pure Go embedded vector
// database persisted to a directory.
type ChromemIndex struct {
	db       *chromem.DB
	col      *chromem.Collection
	provider EmbeddingProvider
	logger   zerolog.Logger
}

// ChromemConfig holds chromem index configuration
type ChromemConfig struct {
	Path     string
	Provider EmbeddingProvider
	Logger   zerolog.Logger
}

// NewChromem opens or creates a chromem-backed index
func NewChromem(cfg ChromemConfig) (*ChromemIndex, error) {
	if cfg.Path == "" {
		return nil, errors.New("persistence path is required")
	}
	if cfg.Provider == nil {
		return nil, errors.New("embedding provider is required")
	}

	db, err := chromem.NewPersistentDB(cfg.Path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open chromem db: %w", err)
	}

	embedFn := func(ctx context.Context, text string) ([]float32, error) {
		return cfg.Provider.GenerateEmbedding(ctx, text)
	}

	col, err := db.GetOrCreateCollection("memory", nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	return &ChromemIndex{
		db:       db,
		col:      col,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}, nil
}

// Upsert replaces all chunks for source with the paragraphs of text
func (c *ChromemIndex) Upsert(ctx context.Context, source, text string, docType DocType) (int, error) {
	chunks := SplitParagraphs(text)
	if len(chunks) == 0 {
		return 0, nil
	}

	// Full replace so stale high-index chunks never survive a shrink
	if c.col.Count() > 0 {
		if err := c.col.Delete(ctx, map[string]string{"source": source}, nil); err != nil {
			return 0, fmt.Errorf("failed to delete previous chunks: %w", err)
		}
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:      ChunkID(source, i),
			Content: chunk,
			Metadata: map[string]string{
				"source": source,
				"type":   string(docType),
			},
		}
	}

	if err := c.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("failed to add documents: %w", err)
	}

	c.logger.Debug().
		Str("source", source).
		Str("doc_type", string(docType)).
		Int("chunks", len(chunks)).
		Msg("Upserted document")

	return len(chunks), nil
}

// Search returns the most similar chunk texts for query. The chromem
// where clause only supports equality, so ExcludeSource is applied
// client-side over an over-fetched candidate set.
func (c *ChromemIndex) Search(ctx context.Context, query string, limit int, filter *Filter) ([]string, error) {
	if query == "" || limit <= 0 {
		return nil, nil
	}

	var where map[string]string
	exclude := ""
	if filter != nil {
		if filter.Type != "" {
			where = map[string]string{"type": string(filter.Type)}
		}
		exclude = filter.ExcludeSource
	}

	total := c.col.Count()
	if total == 0 {
		return nil, nil
	}

	fetch := limit
	if exclude != "" {
		fetch = limit * 2
	}

	for {
		if fetch > total {
			fetch = total
		}

		results, err := c.queryAtMost(ctx, query, fetch, where)
		if err != nil {
			return nil, err
		}

		var texts []string
		for _, result := range results {
			if exclude != "" && result.Metadata["source"] == exclude {
				continue
			}
			texts = append(texts, result.Content)
			if len(texts) == limit {
				break
			}
		}

		// Excluded hits can crowd out the candidate set; widen to the
		// whole collection once before settling for fewer results
		if len(texts) < limit && fetch < total {
			fetch = total
			continue
		}
		return texts, nil
	}
}

// queryAtMost queries for up to n results. chromem rejects nResults
// larger than the number of matching documents, which the where clause
// can reduce below Count(), so n steps down until the query succeeds.
func (c *ChromemIndex) queryAtMost(ctx context.Context, query string, n int, where map[string]string) ([]chromem.Result, error) {
	for ; n >= 1; n-- {
		results, err := c.col.Query(ctx, query, n, where, nil)
		if err == nil {
			return results, nil
		}
		if !isInsufficientDocsError(err) {
			return nil, fmt.Errorf("chromem query: %w", err)
		}
	}
	return nil, nil
}

// DeleteBySource removes all chunks whose source matches
func (c *ChromemIndex) DeleteBySource(ctx context.Context, source string) error {
	if c.col.Count() == 0 {
		return nil
	}
	return c.col.Delete(ctx, map[string]string{"source": source}, nil)
}

// Count returns the total number of chunks stored
func (c *ChromemIndex) Count(ctx context.Context) (int, error) {
	return c.col.Count(), nil
}

func (c *ChromemIndex) Available() bool {
	return true
}

func (c *ChromemIndex) Close() error {
	// chromem persists on write, nothing to flush
	return nil
}

// isInsufficientDocsError reports whether a query failed only because it
// asked for more results than documents exist.
func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
