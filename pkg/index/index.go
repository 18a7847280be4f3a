package index

import (
	"context"
	"fmt"
)

// DocType classifies a memory document
type DocType string

const (
	// DocTypeDaily marks chunks from per-date note files
	DocTypeDaily DocType = "daily"
	// DocTypeLongTerm marks chunks from the long-term memory document
	DocTypeLongTerm DocType = "long_term"
)

// Filter restricts a search by chunk metadata. A zero field is ignored.
type Filter struct {
	// Type matches the chunk's document type exactly
	Type DocType
	// ExcludeSource drops chunks whose source equals this value
	ExcludeSource string
}

// Index is the semantic store over document chunks. Implementations:
// SQLiteIndex, ChromemIndex and Noop.
type Index interface {
	// Upsert splits text into chunks and writes them under deterministic
	// identities derived from source and position, replacing any previous
	// chunks for the source. Returns the number of chunks written; zero
	// chunks is a valid, non-error outcome.
	Upsert(ctx context.Context, source, text string, docType DocType) (int, error)

	// Search returns up to limit chunk texts, best match first
	Search(ctx context.Context, query string, limit int, filter *Filter) ([]string, error)

	// DeleteBySource removes all chunks whose source matches
	DeleteBySource(ctx context.Context, source string) error

	// Count returns the total number of chunks stored
	Count(ctx context.Context) (int, error)

	// Available reports whether a real vector backend is behind this index
	Available() bool

	Close() error
}

// ChunkID builds the stable identity for a chunk of a source document
func ChunkID(source string, i int) string {
	return fmt.Sprintf("%s::%d", source, i)
}
