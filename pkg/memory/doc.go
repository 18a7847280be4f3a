// Package memory owns the agent's on-disk memory documents and composes
// recall context from exact reads and semantic search.
//
// Invariants:
// - Daily notes live in memory/YYYY-MM-DD.md, long-term memory in
//   memory/MEMORY.md; the store is their only writer.
// - A write and its re-index complete, or fail and log, before the write
//   call returns; no read or write ever fails because indexing failed.
// - Missing files and directories read as empty content, never as errors.
//
// Usage:
//
//	s, _ := memory.NewStore(memory.Config{WorkspacePath: "/workspace", Index: idx, Logger: logger})
//	_ = s.AppendToday(ctx, "decided to ship on friday")
//	context, _ := s.MemoryContext(ctx, "shipping date")
//	_ = context
package memory
