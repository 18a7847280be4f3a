// Package index provides the semantic index over agent memory documents.
//
// Invariants:
// - Chunk identity is source + positional index; re-upserting the same
//   identity replaces prior content instead of duplicating it.
// - Upsert replaces all chunks of a source, so the index never retains
//   stale chunks from an earlier, longer version of a document.
// - A no-op implementation stands in when no vector backend is configured,
//   so callers hold the Index interface and never branch per call.
//
// Usage:
//
//	idx := index.Open(index.Config{Backend: "sqlite", Path: "/data/index.db", Provider: provider, Logger: logger})
//	defer idx.Close()
//	_, _ = idx.Upsert(ctx, "2026-08-31", text, index.DocTypeDaily)
//	results, _ := idx.Search(ctx, "deploy checklist", 5, nil)
//	_ = results
package index
