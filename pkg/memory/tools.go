package memory

import (
	"context"
	"fmt"

	"github.com/rowan/engram/internal/observability"
	"github.com/rowan/engram/pkg/toolexecutor"
)

// RegisterTools registers the memory tool surface on the executor.
// Currently that is memory_search; file reads and writes go through the
// generic file tools instead.
func (s *Store) RegisterTools(executor *toolexecutor.ToolExecutor) error {
	minCount := float64(1)
	maxCount := float64(20)

	return executor.RegisterTool(toolexecutor.ToolDefinition{
		Name:        "memory_search",
		Description: "Search long-term and daily memory semantically. Returns the most relevant memory fragments for a query.",
		Parameters: []toolexecutor.ToolParameter{
			{
				Name:        "query",
				Type:        "string",
				Description: "What to search memory for",
				Required:    true,
			},
			{
				Name:        "count",
				Type:        "integer",
				Description: "Maximum number of fragments to return",
				Default:     float64(defaultSearchLimit),
				Minimum:     &minCount,
				Maximum:     &maxCount,
			},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			query, ok := params["query"].(string)
			if !ok {
				return nil, fmt.Errorf("query must be a string")
			}

			limit := defaultSearchLimit
			if raw, ok := params["count"].(float64); ok {
				limit = int(raw)
			}

			result, err := s.SearchMemory(ctx, query, limit)
			observability.RecordToolExecution("memory_search", err == nil)
			if err != nil {
				return nil, err
			}
			return result, nil
		},
	})
}
