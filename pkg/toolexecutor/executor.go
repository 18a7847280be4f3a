package toolexecutor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// ToolParameter defines a parameter for a tool
type ToolParameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
	Minimum     *float64    `json:"minimum,omitempty"`
	Maximum     *float64    `json:"maximum,omitempty"`
}

// ToolDefinition defines a tool's metadata and handler
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
	Handler     ToolHandler     `json:"-"`
}

// ToolHandler is the function signature for tool execution
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// ToolExecutor manages and executes tools
type ToolExecutor struct {
	tools   map[string]*ToolDefinition
	schemas map[string]*gojsonschema.Schema
	logger  zerolog.Logger
	mu      sync.RWMutex
}

// New creates a new ToolExecutor
func New(logger zerolog.Logger) *ToolExecutor {
	return &ToolExecutor{
		tools:   make(map[string]*ToolDefinition),
		schemas: make(map[string]*gojsonschema.Schema),
		logger:  logger,
	}
}

// RegisterTool registers a tool and compiles its parameter schema
func (te *ToolExecutor) RegisterTool(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %s has no handler", def.Name)
	}

	schema, err := compileSchema(def.Parameters)
	if err != nil {
		return fmt.Errorf("failed to compile schema for %s: %w", def.Name, err)
	}

	te.mu.Lock()
	defer te.mu.Unlock()

	if _, exists := te.tools[def.Name]; exists {
		return fmt.Errorf("tool %s already registered", def.Name)
	}

	te.tools[def.Name] = &def
	te.schemas[def.Name] = schema

	te.logger.Debug().Str("tool", def.Name).Msg("Tool registered")
	return nil
}

// Execute validates params against the tool's schema, applies defaults
// and invokes the handler.
func (te *ToolExecutor) Execute(ctx context.Context, name string, params map[string]interface{}) (interface{}, error) {
	te.mu.RLock()
	def, ok := te.tools[name]
	schema := te.schemas[name]
	te.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	if params == nil {
		params = map[string]interface{}{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return nil, fmt.Errorf("failed to validate parameters: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("invalid parameters for %s: %s", name, strings.Join(problems, "; "))
	}

	// Fill defaults for omitted optional parameters
	for _, p := range def.Parameters {
		if _, present := params[p.Name]; !present && p.Default != nil {
			params[p.Name] = p.Default
		}
	}

	return def.Handler(ctx, params)
}

// Tools returns the registered tool definitions
func (te *ToolExecutor) Tools() []ToolDefinition {
	te.mu.RLock()
	defer te.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(te.tools))
	for _, def := range te.tools {
		defs = append(defs, *def)
	}
	return defs
}

// compileSchema builds a JSON schema from the parameter list
func compileSchema(params []ToolParameter) (*gojsonschema.Schema, error) {
	properties := make(map[string]interface{}, len(params))
	var required []string

	for _, p := range params {
		prop := map[string]interface{}{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Minimum != nil {
			prop["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			prop["maximum"] = *p.Maximum
		}
		properties[p.Name] = prop

		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
}
