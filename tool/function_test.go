package tool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/internal/util"
)

func TestFunctionToolSuccess(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ *core.ExecContext, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	})

	result, err := sumTool.Call(execContext(), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionToolValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []string{"a"},
	}
	tTool := NewFunctionTool("test", "Test", params, func(_ *core.ExecContext, _ map[string]any) (any, error) {
		return 0, nil
	})

	_, err := tTool.Call(execContext(), map[string]any{})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionToolExecutionError(t *testing.T) {
	tTool := NewFunctionTool("test", "Test", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ *core.ExecContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := tTool.Call(execContext(), map[string]any{})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Contains(t, toolErr.Message, "boom")
}

func TestFunctionToolCustomErrorPassthrough(t *testing.T) {
	custom := NewToolError("test", "rate limited", "RATE_LIMITED")
	tTool := NewFunctionTool("test", "Test", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ *core.ExecContext, _ map[string]any) (any, error) {
		return nil, custom
	})

	_, err := tTool.Call(execContext(), map[string]any{})
	require.Error(t, err)
	toolErr, ok := err.(*ToolError)
	require.True(t, ok)
	assert.Equal(t, "RATE_LIMITED", toolErr.Code)
}

type weatherArgs struct {
	City string   `json:"city" description:"City name"`
	Days *float64 `json:"days" description:"Optional forecast length"`
}

func TestFunctionToolFromStruct(t *testing.T) {
	tTool := NewFunctionToolFromStruct("weather", "Get the weather", weatherArgs{},
		func(_ *core.ExecContext, args map[string]any) (any, error) {
			return "sunny in " + args["city"].(string), nil
		})

	schema := tTool.Parameters()
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "city")
	assert.Contains(t, props, "days")

	// Pointer fields are optional; only "city" is required.
	require.NoError(t, util.ValidateParameters(map[string]any{"city": "berlin"}, schema))
	assert.Error(t, util.ValidateParameters(map[string]any{}, schema))

	result, err := tTool.Call(execContext(), map[string]any{"city": "berlin"})
	require.NoError(t, err)
	assert.Equal(t, "sunny in berlin", result)
}
