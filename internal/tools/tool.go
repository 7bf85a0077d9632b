package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// ToolResult represents the result of a tool execution
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Tool defines the interface for tools that can be called by the agent
type Tool interface {
	// Name returns the unique name of the tool
	Name() string

	// Description returns a description of what the tool does
	Description() string

	// Parameters returns the JSON Schema for the tool's parameters
	Parameters() json.RawMessage

	// Execute runs the tool with the given arguments and returns the result
	Execute(ctx context.Context, args json.RawMessage) (ToolResult, error)
}

// jsonResult marshals payload into a successful tool result
func jsonResult(payload interface{}) (ToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return ToolResult{}, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return ToolResult{Content: string(data)}, nil
}

// failure renders a domain failure as a result the model can read and
// recover from
func failure(format string, args ...interface{}) ToolResult {
	payload := struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{Success: false, Error: fmt.Sprintf(format, args...)}

	data, _ := json.Marshal(payload)
	return ToolResult{Content: string(data), IsError: true}
}
