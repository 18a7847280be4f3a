package index

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

func init() {
	// Auto-register sqlite-vec extension
	sqlite_vec.Auto()
}

// SQLiteIndex stores chunks and their embeddings in SQLite with the
// sqlite-vec extension providing cosine distance.
type SQLiteIndex struct {
	db       *sql.DB
	provider EmbeddingProvider
	logger   zerolog.Logger
}

// SQLiteConfig holds sqlite index configuration
type SQLiteConfig struct {
	Path     string
	Provider EmbeddingProvider
	Logger   zerolog.Logger
}

// NewSQLite opens or creates a sqlite-backed index
func NewSQLite(cfg SQLiteConfig) (*SQLiteIndex, error) {
	if cfg.Path == "" {
		return nil, errors.New("database path is required")
	}
	if cfg.Provider == nil {
		return nil, errors.New("embedding provider is required")
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteIndex{
		db:       db,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteIndex) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			seq INTEGER NOT NULL,
			doc_type TEXT NOT NULL,
			content TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
		CREATE INDEX IF NOT EXISTS idx_chunks_type ON chunks(doc_type);

		CREATE TABLE IF NOT EXISTS embedding_cache (
			content_hash TEXT PRIMARY KEY,
			embedding BLOB NOT NULL,
			dimension INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	vectorSchema := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS embeddings USING vec0(
			chunk_id TEXT PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		);
	`, s.provider.Dimension())

	if _, err := s.db.Exec(vectorSchema); err != nil {
		return fmt.Errorf("failed to create vector table: %w", err)
	}

	return nil
}

// Upsert replaces all chunks for source with the paragraphs of text.
// Deleting before insert keeps the index free of stale chunks when a
// document shrinks below its previous chunk count.
func (s *SQLiteIndex) Upsert(ctx context.Context, source, text string, docType DocType) (int, error) {
	chunks := SplitParagraphs(text)
	if len(chunks) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := deleteSourceTx(tx, source); err != nil {
		return 0, err
	}

	now := time.Now().Unix()
	for i, chunk := range chunks {
		chunkID := ChunkID(source, i)

		_, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (id, source, seq, doc_type, content, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			chunkID, source, i, string(docType), chunk, now,
		)
		if err != nil {
			return 0, err
		}

		embedding, err := s.embedCached(ctx, tx, chunk)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %s: %w", chunkID, err)
		}

		embeddingJSON, err := json.Marshal(embedding)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal embedding: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO embeddings (chunk_id, embedding) VALUES (?, ?)",
			chunkID, string(embeddingJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to store embedding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.logger.Debug().
		Str("source", source).
		Str("doc_type", string(docType)).
		Int("chunks", len(chunks)).
		Msg("Upserted document")

	return len(chunks), nil
}

// embedCached returns the embedding for content, consulting the
// sha256-keyed cache before calling the provider.
func (s *SQLiteIndex) embedCached(ctx context.Context, tx *sql.Tx, content string) ([]float32, error) {
	hash := sha256.Sum256([]byte(content))
	contentHash := hex.EncodeToString(hash[:])

	var cached []byte
	err := tx.QueryRowContext(ctx,
		"SELECT embedding FROM embedding_cache WHERE content_hash = ?", contentHash,
	).Scan(&cached)

	switch {
	case err == nil:
		var embedding []float32
		if err := json.Unmarshal(cached, &embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached embedding: %w", err)
		}
		return embedding, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to query embedding cache: %w", err)
	}

	embedding, err := s.provider.GenerateEmbedding(ctx, content)
	if err != nil {
		return nil, err
	}

	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO embedding_cache (content_hash, embedding, dimension, created_at) VALUES (?, ?, ?, ?)",
		contentHash, embeddingJSON, len(embedding), time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to cache embedding: %w", err)
	}

	return embedding, nil
}

// Search embeds the query and returns the closest chunk texts by cosine
// distance, optionally restricted by filter.
func (s *SQLiteIndex) Search(ctx context.Context, query string, limit int, filter *Filter) ([]string, error) {
	if query == "" || limit <= 0 {
		return nil, nil
	}

	embedding, err := s.provider.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding: %w", err)
	}

	querySQL := `
		SELECT c.content, vec_distance_cosine(e.embedding, ?) AS distance
		FROM embeddings e
		JOIN chunks c ON c.id = e.chunk_id
	`
	args := []interface{}{string(embeddingJSON)}

	var where []string
	if filter != nil {
		if filter.Type != "" {
			where = append(where, "c.doc_type = ?")
			args = append(args, string(filter.Type))
		}
		if filter.ExcludeSource != "" {
			where = append(where, "c.source != ?")
			args = append(args, filter.ExcludeSource)
		}
	}
	for i, clause := range where {
		if i == 0 {
			querySQL += " WHERE " + clause
		} else {
			querySQL += " AND " + clause
		}
	}
	querySQL += " ORDER BY distance ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var content string
		var distance float64
		if err := rows.Scan(&content, &distance); err != nil {
			return nil, err
		}
		results = append(results, content)
	}

	return results, rows.Err()
}

// DeleteBySource removes all chunks whose source matches
func (s *SQLiteIndex) DeleteBySource(ctx context.Context, source string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteSourceTx(tx, source); err != nil {
		return err
	}

	return tx.Commit()
}

// deleteSourceTx removes a source's rows from both tables. The vec0
// virtual table does not support subquery deletes, so embeddings go one
// chunk id at a time.
func deleteSourceTx(tx *sql.Tx, source string) error {
	rows, err := tx.Query("SELECT id FROM chunks WHERE source = ?", source)
	if err != nil {
		return err
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM embeddings WHERE chunk_id = ?", id); err != nil {
			return err
		}
	}

	_, err = tx.Exec("DELETE FROM chunks WHERE source = ?", source)
	return err
}

// Count returns the total number of chunks stored
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count)
	return count, err
}

func (s *SQLiteIndex) Available() bool {
	return true
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
