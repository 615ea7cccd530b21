package tool

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/logging"
)

// maxFaultLen bounds the sanitized message of an unexpected tool fault.
const maxFaultLen = 500

// Executor dispatches model-requested tool calls against a Registry.
//
// Contract:
//   - Exactly one result per call, addressable by the call's ID
//   - Failures are absorbed into error-flagged results, never returned as
//     errors and never propagated as panics
//   - Cancellation is checked before each invocation starts; it does not
//     interrupt an invocation already in progress
//   - No retries; a failed call is terminal for that call within the step
type Executor struct {
	registry *Registry
	logger   logging.Logger
}

// NewExecutor constructs an Executor over the given registry. A nil logger
// defaults to NoOpLogger.
func NewExecutor(registry *Registry, logger logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Executor{registry: registry, logger: logger}
}

// Execute resolves and invokes a single tool call, returning its result.
func (e *Executor) Execute(execCtx *core.ExecContext, call core.ToolCallBlock) core.ToolResultBlock {
	result := core.ToolResultBlock{CallID: call.ID, Name: call.Name}

	impl, ok := e.registry.Get(call.Name)
	if !ok {
		result.IsError = true
		result.Content = fmt.Sprintf("tool not found: %s", call.Name)
		e.logger.Warn("tool.call.not_found", "tool", call.Name, "call_id", call.ID)
		return result
	}

	if err := execCtx.Err(); err != nil {
		result.IsError = true
		result.Content = fmt.Sprintf("aborted: %v", err)
		e.logger.Warn("tool.call.aborted", "tool", call.Name, "call_id", call.ID)
		return result
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			result.IsError = true
			result.Content = fmt.Sprintf("invalid tool arguments: %v", err)
			e.logger.Warn("tool.call.bad_arguments", "tool", call.Name, "call_id", call.ID, "error", err.Error())
			return result
		}
	}

	start := time.Now()
	output, err := e.invoke(impl, execCtx, args)
	dur := time.Since(start)

	if err != nil {
		result.IsError = true
		result.Content = err.Error()
	} else {
		result.Content = stringify(output)
	}

	e.logger.Info(
		"tool.call.executed",
		"tool", call.Name,
		"call_id", call.ID,
		"duration_ms", dur.Milliseconds(),
		"error", result.IsError,
	)

	return result
}

// ExecuteMany dispatches all calls concurrently and returns results aligned
// with the calls slice. Each result carries the originating call's ID, so
// callers must associate by identity, not position; positional alignment is
// provided for convenience only. A single slow or failing tool does not
// block or poison the others, but the batch joins on the slowest call.
func (e *Executor) ExecuteMany(execCtx *core.ExecContext, calls []core.ToolCallBlock) []core.ToolResultBlock {
	n := len(calls)
	if n == 0 {
		return nil
	}

	// Fast path: single call, execute inline.
	if n == 1 {
		return []core.ToolResultBlock{e.Execute(execCtx, calls[0])}
	}

	results := make([]core.ToolResultBlock, n)
	var wg sync.WaitGroup

	batchStart := time.Now()
	for i := range calls {
		wg.Add(1)
		go func(idx int, call core.ToolCallBlock) {
			defer wg.Done()
			results[idx] = e.Execute(execCtx, call)
		}(i, calls[i])
	}
	wg.Wait()

	e.logger.Debug(
		"tool.batch.complete",
		"count", n,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results
}

// invoke calls the tool with panic safety. A recovered panic is sanitized
// so tool internals never leak raw diagnostics into the transcript.
func (e *Executor) invoke(impl Tool, execCtx *core.ExecContext, args map[string]any) (output any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool fault: %s", sanitizeFault(fmt.Sprint(r)))
			e.logger.Error("tool.call.panic", "tool", impl.Name(), "recover", sanitizeFault(fmt.Sprint(r)))
		}
	}()
	return impl.Call(execCtx, args)
}

// sanitizeFault reduces an unexpected fault message to its first line and
// truncates it to maxFaultLen characters. Stack traces and filesystem paths
// must never reach the model or the transcript.
func sanitizeFault(msg string) string {
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	if len(msg) > maxFaultLen {
		msg = msg[:maxFaultLen]
	}
	return msg
}

// stringify converts a tool's return value to the transcript payload form:
// strings pass through, anything else is JSON-marshaled.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
