package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSQLite(t *testing.T) *SQLiteIndex {
	t.Helper()

	s, err := NewSQLite(SQLiteConfig{
		Path:     filepath.Join(t.TempDir(), "index.db"),
		Provider: NewMockEmbeddingProvider(64),
		Logger:   zerolog.New(os.Stdout).Level(zerolog.Disabled),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func paragraph(seed string) string {
	return seed + ": " + strings.Repeat("memory detail ", 8)
}

func TestNewSQLite_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  SQLiteConfig
	}{
		{"empty path", SQLiteConfig{Provider: NewMockEmbeddingProvider(8)}},
		{"nil provider", SQLiteConfig{Path: "/tmp/test.db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSQLite(tt.cfg)
			assert.Error(t, err)
			assert.Nil(t, s)
		})
	}
}

func TestSQLiteUpsert_SingleParagraph(t *testing.T) {
	s := createTestSQLite(t)
	ctx := context.Background()

	text := strings.Repeat("a note about the deployment pipeline ", 4)
	require.Greater(t, len(text), 120)

	n, err := s.Upsert(ctx, "2026-08-30", text, DocTypeDaily)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLiteUpsert_ZeroChunks(t *testing.T) {
	s := createTestSQLite(t)

	n, err := s.Upsert(context.Background(), "2026-08-30", "too short", DocTypeDaily)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSQLiteUpsert_Idempotent(t *testing.T) {
	s := createTestSQLite(t)
	ctx := context.Background()

	text := paragraph("first") + "\n\n" + paragraph("second")

	n1, err := s.Upsert(ctx, "MEMORY", text, DocTypeLongTerm)
	require.NoError(t, err)
	n2, err := s.Upsert(ctx, "MEMORY", text, DocTypeLongTerm)
	require.NoError(t, err)
	assert.Equal(t, n1, n2)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n1, count)
}

func TestSQLiteUpsert_ShrinkRemovesStaleChunks(t *testing.T) {
	s := createTestSQLite(t)
	ctx := context.Background()

	long := paragraph("one") + "\n\n" + paragraph("two") + "\n\n" + paragraph("three")
	n, err := s.Upsert(ctx, "2026-08-29", long, DocTypeDaily)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	short := paragraph("only")
	n, err = s.Upsert(ctx, "2026-08-29", short, DocTypeDaily)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := s.Search(ctx, "memory detail", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "only")
}

func TestSQLiteSearch_FilterByType(t *testing.T) {
	s := createTestSQLite(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, "2026-08-28", paragraph("daily note"), DocTypeDaily)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "MEMORY", paragraph("long term fact"), DocTypeLongTerm)
	require.NoError(t, err)

	results, err := s.Search(ctx, "memory detail", 10, &Filter{Type: DocTypeDaily})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "daily note")
}

func TestSQLiteSearch_ExcludeSource(t *testing.T) {
	s := createTestSQLite(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, "2026-08-30", paragraph("today"), DocTypeDaily)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "2026-08-29", paragraph("yesterday"), DocTypeDaily)
	require.NoError(t, err)

	results, err := s.Search(ctx, "memory detail", 10, &Filter{
		Type:          DocTypeDaily,
		ExcludeSource: "2026-08-30",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "yesterday")
}

func TestSQLiteSearch_LimitAndEmptyQuery(t *testing.T) {
	s := createTestSQLite(t)
	ctx := context.Background()

	for _, src := range []string{"2026-08-25", "2026-08-26", "2026-08-27"} {
		_, err := s.Upsert(ctx, src, paragraph(src), DocTypeDaily)
		require.NoError(t, err)
	}

	results, err := s.Search(ctx, "memory detail", 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = s.Search(ctx, "", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteDeleteBySource(t *testing.T) {
	s := createTestSQLite(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, "2026-08-30", paragraph("a")+"\n\n"+paragraph("b"), DocTypeDaily)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "2026-08-29", paragraph("c"), DocTypeDaily)
	require.NoError(t, err)

	require.NoError(t, s.DeleteBySource(ctx, "2026-08-30"))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLite_EmbeddingCacheReused(t *testing.T) {
	s := createTestSQLite(t)
	ctx := context.Background()

	text := paragraph("cached")
	_, err := s.Upsert(ctx, "2026-08-30", text, DocTypeDaily)
	require.NoError(t, err)

	// Same content under a different source hits the cache path
	_, err = s.Upsert(ctx, "2026-08-29", text, DocTypeDaily)
	require.NoError(t, err)

	var cacheRows int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM embedding_cache").Scan(&cacheRows))
	assert.Equal(t, 1, cacheRows)
}

func TestSQLite_CacheLookupFailurePropagates(t *testing.T) {
	s := createTestSQLite(t)
	ctx := context.Background()

	// A broken cache table is a real database error, not a cache miss
	_, err := s.db.Exec("DROP TABLE embedding_cache")
	require.NoError(t, err)

	_, err = s.Upsert(ctx, "2026-08-30", paragraph("uncacheable"), DocTypeDaily)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding cache")
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "index.db")
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	provider := NewMockEmbeddingProvider(64)

	s, err := NewSQLite(SQLiteConfig{Path: dbPath, Provider: provider, Logger: logger})
	require.NoError(t, err)
	_, err = s.Upsert(context.Background(), "MEMORY", paragraph("durable"), DocTypeLongTerm)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := NewSQLite(SQLiteConfig{Path: dbPath, Provider: provider, Logger: logger})
	require.NoError(t, err)
	defer s2.Close()

	count, err := s2.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
