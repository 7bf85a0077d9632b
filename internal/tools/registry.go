package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bankassist/banking-agent/internal/llm"
)

// Registry manages available tools for the agent
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string // registration order, keeps Specs output stable
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry
// Returns an error if a tool with the same name already exists
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tool names in registration order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Count returns the number of registered tools
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Specs converts all registered tools to OpenAI tool definitions, in
// registration order so request payloads stay stable across calls.
func (r *Registry) Specs() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definitions := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		definitions = append(definitions, llm.ToolDefinition{
			Type: "function",
			Function: llm.Function{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Parameters(),
			},
		})
	}
	return definitions
}

// Invoke dispatches a model-requested tool call. Unknown tools, invalid
// arguments and execution failures all come back as failure results the
// model can read; Invoke never surfaces a Go error to the loop. Arguments
// are validated against the tool's schema before the handler runs, so a
// bad call never reaches tool code.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) ToolResult {
	tool, ok := r.Get(name)
	if !ok {
		return failure("Tool %q not found", name)
	}

	if err := validateArgs(tool.Parameters(), args); err != nil {
		return failure("Invalid arguments for %s: %v", name, err)
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		return failure("Tool %s failed: %v", name, err)
	}
	return result
}
