package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowan/engram/pkg/index"
)

func TestHandleFileChangeUpserts(t *testing.T) {
	idx := newFakeIndex()
	s := newTestStore(t, idx)

	path := filepath.Join(s.memoryDir, "2025-03-10.md")
	require.NoError(t, os.WriteFile(path, []byte(note("edited outside the store")), 0644))

	s.handleFileChange(path, false)

	assert.Len(t, idx.sources["2025-03-10"], 1)
	assert.Equal(t, index.DocTypeDaily, idx.types["2025-03-10"])
}

func TestHandleFileChangeLongTerm(t *testing.T) {
	idx := newFakeIndex()
	s := newTestStore(t, idx)

	require.NoError(t, os.WriteFile(s.longTermPath, []byte(note("durable fact added by hand")), 0644))

	s.handleFileChange(s.longTermPath, false)

	assert.Equal(t, index.DocTypeLongTerm, idx.types[LongTermSource])
}

func TestHandleFileChangeRemove(t *testing.T) {
	idx := newFakeIndex()
	s := newTestStore(t, idx)
	ctx := context.Background()

	_, err := idx.Upsert(ctx, "2025-03-10", note("to be deleted"), index.DocTypeDaily)
	require.NoError(t, err)

	s.handleFileChange(filepath.Join(s.memoryDir, "2025-03-10.md"), true)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHandleFileChangeIgnoresUnknownFiles(t *testing.T) {
	idx := newFakeIndex()
	s := newTestStore(t, idx)

	path := filepath.Join(s.memoryDir, "scratch.md")
	require.NoError(t, os.WriteFile(path, []byte(note("not a memory document")), 0644))

	s.handleFileChange(path, false)

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWatchReindexesExternalEdit(t *testing.T) {
	idx := newFakeIndex()
	s := newTestStore(t, idx)

	require.NoError(t, s.Watch())

	path := filepath.Join(s.memoryDir, "2025-03-11.md")
	require.NoError(t, os.WriteFile(path, []byte(note("written behind the store's back")), 0644))

	assert.Eventually(t, func() bool {
		idx.mu.Lock()
		defer idx.mu.Unlock()
		return len(idx.sources["2025-03-11"]) == 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatchNoopWithoutIndex(t *testing.T) {
	s := newTestStore(t, index.NewNoop())

	require.NoError(t, s.Watch())
	assert.Nil(t, s.watcher)
}

func TestFileWatcherStopIdempotent(t *testing.T) {
	fw, err := NewFileWatcher(zerolog.Nop(), func(string, bool) {})
	require.NoError(t, err)

	require.NoError(t, fw.Stop())
	// Second stop must not panic on the closed channel
	_ = fw.Stop()
}
