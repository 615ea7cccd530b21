package tool

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloop/agentloop/core"
)

func execContext() *core.ExecContext {
	return core.NewExecContext(context.Background(), "sess-1", "msg-1")
}

func TestExecutorSuccess(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))
	e := NewExecutor(r, nil)

	result := e.Execute(execContext(), core.ToolCallBlock{ID: "c1", Name: "echo", Arguments: `{"text":"hi"}`})
	assert.False(t, result.IsError)
	assert.Equal(t, "c1", result.CallID)
	assert.Equal(t, "hi", result.Content)
}

func TestExecutorStringifiesStructuredResults(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewFunctionTool("pair", "Return a pair", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ *core.ExecContext, _ map[string]any) (any, error) {
		return map[string]any{"a": 1}, nil
	})))
	e := NewExecutor(r, nil)

	result := e.Execute(execContext(), core.ToolCallBlock{ID: "c1", Name: "pair"})
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"a":1}`, result.Content)
}

func TestExecutorToolNotFound(t *testing.T) {
	e := NewExecutor(NewRegistry(), nil)

	result := e.Execute(execContext(), core.ToolCallBlock{ID: "c1", Name: "lookup_weather"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "tool not found")
	assert.Contains(t, result.Content, "lookup_weather")
}

func TestExecutorToolError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewFunctionTool("fail", "Always fails", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ *core.ExecContext, _ map[string]any) (any, error) {
		return nil, fmt.Errorf("upstream unavailable")
	})))
	e := NewExecutor(r, nil)

	result := e.Execute(execContext(), core.ToolCallBlock{ID: "c1", Name: "fail"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "upstream unavailable")
}

func TestExecutorInvalidArguments(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))
	e := NewExecutor(r, nil)

	result := e.Execute(execContext(), core.ToolCallBlock{ID: "c1", Name: "echo", Arguments: "{broken"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "invalid tool arguments")
}

func TestExecutorSanitizesPanicFault(t *testing.T) {
	// A fault message of 2000 characters across multiple lines must be
	// reduced to its first line's prefix, bounded well under the original.
	firstLine := strings.Repeat("x", 1000)
	message := firstLine + "\n" + strings.Repeat("stack frame gibberish\n", 50)

	r := NewRegistry()
	require.NoError(t, r.Register(NewFunctionTool("boom", "Panics", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ *core.ExecContext, _ map[string]any) (any, error) {
		panic(message)
	})))
	e := NewExecutor(r, nil)

	result := e.Execute(execContext(), core.ToolCallBlock{ID: "c1", Name: "boom"})
	assert.True(t, result.IsError)
	assert.LessOrEqual(t, len(result.Content), 520)
	assert.NotContains(t, result.Content, "\n")
	assert.Contains(t, result.Content, firstLine[:maxFaultLen])
}

func TestExecuteManyCorrelation(t *testing.T) {
	// Later calls finish first; results must still be addressable by the
	// originating call's identity and aligned with the input order.
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		idx := i
		name := fmt.Sprintf("sleepy_%d", i)
		require.NoError(t, r.Register(NewFunctionTool(name, "Sleeps inversely to index", map[string]any{
			"type": "object", "properties": map[string]any{},
		}, func(_ *core.ExecContext, _ map[string]any) (any, error) {
			time.Sleep(time.Duration(5-idx) * 10 * time.Millisecond)
			return fmt.Sprintf("result_%d", idx), nil
		})))
	}
	e := NewExecutor(r, nil)

	calls := make([]core.ToolCallBlock, 5)
	for i := range calls {
		calls[i] = core.ToolCallBlock{ID: fmt.Sprintf("call_%d", i), Name: fmt.Sprintf("sleepy_%d", i)}
	}

	results := e.ExecuteMany(execContext(), calls)
	require.Len(t, results, 5)

	byID := map[string]core.ToolResultBlock{}
	for _, res := range results {
		byID[res.CallID] = res
	}
	for i := range calls {
		res, ok := byID[calls[i].ID]
		require.True(t, ok, "missing result for %s", calls[i].ID)
		assert.Equal(t, fmt.Sprintf("result_%d", i), res.Content)
		assert.Equal(t, calls[i].ID, results[i].CallID)
	}
}

func TestExecuteManyIsolatesFailures(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewFunctionTool("ok", "Succeeds", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ *core.ExecContext, _ map[string]any) (any, error) {
		return "fine", nil
	})))
	require.NoError(t, r.Register(NewFunctionTool("boom", "Panics", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ *core.ExecContext, _ map[string]any) (any, error) {
		panic("kaboom")
	})))
	e := NewExecutor(r, nil)

	results := e.ExecuteMany(execContext(), []core.ToolCallBlock{
		{ID: "c1", Name: "boom"},
		{ID: "c2", Name: "ok"},
		{ID: "c3", Name: "missing"},
	})
	require.Len(t, results, 3)
	assert.True(t, results[0].IsError)
	assert.False(t, results[1].IsError)
	assert.Equal(t, "fine", results[1].Content)
	assert.True(t, results[2].IsError)
}

func TestExecuteManyCancelledBeforeDispatch(t *testing.T) {
	var invoked atomic.Int32

	r := NewRegistry()
	require.NoError(t, r.Register(NewFunctionTool("count", "Counts invocations", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(_ *core.ExecContext, _ map[string]any) (any, error) {
		invoked.Add(1)
		return "ran", nil
	})))
	e := NewExecutor(r, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	execCtx := core.NewExecContext(ctx, "sess-1", "msg-1")

	calls := make([]core.ToolCallBlock, 5)
	for i := range calls {
		calls[i] = core.ToolCallBlock{ID: fmt.Sprintf("call_%d", i), Name: "count"}
	}

	results := e.ExecuteMany(execCtx, calls)
	require.Len(t, results, 5)
	for i, res := range results {
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content, "aborted")
		assert.Equal(t, calls[i].ID, res.CallID)
	}
	assert.Equal(t, int32(0), invoked.Load())
}

func TestExecuteManyEmpty(t *testing.T) {
	e := NewExecutor(NewRegistry(), nil)
	assert.Nil(t, e.ExecuteMany(execContext(), nil))
}
