package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probeTool records whether its handler ran
type probeTool struct {
	name     string
	executed bool
	result   ToolResult
	err      error
}

func (p *probeTool) Name() string        { return p.name }
func (p *probeTool) Description() string { return "probe tool for registry tests" }

func (p *probeTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"account_id": {"type": "string"},
			"days": {"type": "integer"}
		},
		"required": ["account_id"]
	}`)
}

func (p *probeTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	p.executed = true
	return p.result, p.err
}

func TestRegistryRegisterDuplicate(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&probeTool{name: "probe"}))

	err := registry.Register(&probeTool{name: "probe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `tool "probe" already registered`)
	assert.Equal(t, 1, registry.Count())
}

func TestRegistrySpecsOrder(t *testing.T) {
	registry := NewRegistry()

	// Deliberately not alphabetical: order must follow registration.
	names := []string{"zeta", "alpha", "mid"}
	for _, name := range names {
		require.NoError(t, registry.Register(&probeTool{name: name}))
	}

	specs := registry.Specs()
	require.Len(t, specs, 3)
	for i, name := range names {
		assert.Equal(t, "function", specs[i].Type)
		assert.Equal(t, name, specs[i].Function.Name)
	}
	assert.Equal(t, names, registry.List())

	// Repeated calls keep the same order.
	again := registry.Specs()
	for i := range specs {
		assert.Equal(t, specs[i].Function.Name, again[i].Function.Name)
	}
}

func TestRegistryInvokeUnknownTool(t *testing.T) {
	registry := NewRegistry()
	probe := &probeTool{name: "known"}
	require.NoError(t, registry.Register(probe))

	result := registry.Invoke(context.Background(), "unknown_tool", json.RawMessage(`{}`))

	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, `Tool "unknown_tool" not found`)
	assert.False(t, probe.executed, "no handler may run for an unknown tool")
}

func TestRegistryInvokeInvalidArguments(t *testing.T) {
	registry := NewRegistry()
	probe := &probeTool{name: "probe"}
	require.NoError(t, registry.Register(probe))

	t.Run("missing required field", func(t *testing.T) {
		result := registry.Invoke(context.Background(), "probe", json.RawMessage(`{"days": 7}`))
		assert.True(t, result.IsError)
		assert.Contains(t, result.Content, "missing required field: account_id")
		assert.False(t, probe.executed, "validation failures must not reach the handler")
	})

	t.Run("wrong type", func(t *testing.T) {
		result := registry.Invoke(context.Background(), "probe", json.RawMessage(`{"account_id": "ACC001", "days": "seven"}`))
		assert.True(t, result.IsError)
		assert.Contains(t, result.Content, "field days must be an integer")
		assert.False(t, probe.executed)
	})

	t.Run("not an object", func(t *testing.T) {
		result := registry.Invoke(context.Background(), "probe", json.RawMessage(`[1, 2]`))
		assert.True(t, result.IsError)
		assert.Contains(t, result.Content, "arguments are not a JSON object")
		assert.False(t, probe.executed)
	})
}

func TestRegistryInvokeExecutionError(t *testing.T) {
	registry := NewRegistry()
	probe := &probeTool{name: "probe", err: errors.New("store unavailable")}
	require.NoError(t, registry.Register(probe))

	result := registry.Invoke(context.Background(), "probe", json.RawMessage(`{"account_id": "ACC001"}`))

	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "Tool probe failed")
	assert.Contains(t, result.Content, "store unavailable")
}

func TestRegistryInvokeSuccess(t *testing.T) {
	registry := NewRegistry()
	probe := &probeTool{name: "probe", result: ToolResult{Content: `{"success": true}`}}
	require.NoError(t, registry.Register(probe))

	result := registry.Invoke(context.Background(), "probe", json.RawMessage(`{"account_id": "ACC001"}`))

	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"success": true}`, result.Content)
	assert.True(t, probe.executed)
}

func TestValidateArgs(t *testing.T) {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"count": {"type": "integer"},
			"ratio": {"type": "number"},
			"flag": {"type": "boolean"}
		},
		"required": ["name"]
	}`)

	tests := []struct {
		name    string
		args    string
		wantErr string
	}{
		{"all valid", `{"name": "x", "count": 3, "ratio": 0.5, "flag": true}`, ""},
		{"only required", `{"name": "x"}`, ""},
		{"missing required", `{"count": 3}`, "missing required field: name"},
		{"string mismatch", `{"name": 42}`, "field name must be a string"},
		{"integer mismatch", `{"name": "x", "count": 1.5}`, "field count must be an integer"},
		{"number mismatch", `{"name": "x", "ratio": "high"}`, "field ratio must be a number"},
		{"boolean mismatch", `{"name": "x", "flag": "yes"}`, "field flag must be a boolean"},
		{"unknown field passes", `{"name": "x", "extra": "ignored"}`, ""},
		{"integer-valued float ok", `{"name": "x", "count": 7}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateArgs(schema, json.RawMessage(tt.args))
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateArgsEmptySchemaRequirements(t *testing.T) {
	schema := json.RawMessage(`{"type": "object", "properties": {}}`)

	assert.NoError(t, validateArgs(schema, nil))
	assert.NoError(t, validateArgs(schema, json.RawMessage(`{}`)))
}

func TestAllToolSchemasParse(t *testing.T) {
	registry := newBankingTestRegistry(t, nil)

	for _, spec := range registry.Specs() {
		params, ok := spec.Function.Parameters.(json.RawMessage)
		require.True(t, ok, fmt.Sprintf("%s parameters", spec.Function.Name))

		var schema map[string]interface{}
		require.NoError(t, json.Unmarshal(params, &schema), spec.Function.Name)
		assert.Equal(t, "object", schema["type"], spec.Function.Name)
	}
}
