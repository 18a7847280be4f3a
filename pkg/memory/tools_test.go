package memory

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowan/engram/pkg/index"
	"github.com/rowan/engram/pkg/toolexecutor"
)

func newToolFixture(t *testing.T, idx index.Index) *toolexecutor.ToolExecutor {
	t.Helper()

	s := newTestStore(t, idx)
	executor := toolexecutor.New(zerolog.Nop())
	require.NoError(t, s.RegisterTools(executor))
	return executor
}

func TestMemorySearchTool(t *testing.T) {
	idx := newFakeIndex()
	_, err := idx.Upsert(context.Background(), "2025-03-10", note("shipped the billing fix"), index.DocTypeDaily)
	require.NoError(t, err)

	executor := newToolFixture(t, idx)

	result, err := executor.Execute(context.Background(), "memory_search", map[string]interface{}{
		"query": "billing",
	})
	require.NoError(t, err)
	assert.Contains(t, result.(string), "Found 1 relevant memory fragments:")
	assert.Contains(t, result.(string), "shipped the billing fix")
}

func TestMemorySearchToolUnavailable(t *testing.T) {
	executor := newToolFixture(t, index.NewNoop())

	result, err := executor.Execute(context.Background(), "memory_search", map[string]interface{}{
		"query": "anything",
	})
	require.NoError(t, err)
	assert.Equal(t, SearchUnavailableMessage, result)
}

func TestMemorySearchToolValidation(t *testing.T) {
	executor := newToolFixture(t, newFakeIndex())
	ctx := context.Background()

	_, err := executor.Execute(ctx, "memory_search", map[string]interface{}{})
	assert.Error(t, err, "query is required")

	_, err = executor.Execute(ctx, "memory_search", map[string]interface{}{
		"query": "x", "count": float64(0),
	})
	assert.Error(t, err, "count below minimum")

	_, err = executor.Execute(ctx, "memory_search", map[string]interface{}{
		"query": "x", "count": float64(21),
	})
	assert.Error(t, err, "count above maximum")
}

func TestMemorySearchToolCountLimit(t *testing.T) {
	idx := newFakeIndex()
	_, err := idx.Upsert(context.Background(), "2025-03-10",
		note("first")+"\n\n"+note("second")+"\n\n"+note("third"), index.DocTypeDaily)
	require.NoError(t, err)

	executor := newToolFixture(t, idx)

	result, err := executor.Execute(context.Background(), "memory_search", map[string]interface{}{
		"query": "anything", "count": float64(2),
	})
	require.NoError(t, err)
	assert.Contains(t, result.(string), "Found 2 relevant memory fragments:")
}
