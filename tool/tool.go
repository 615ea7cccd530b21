// Package tool implements the tool calling subsystem: the Tool interface and
// FunctionTool adapter, the Registry cataloging callable capabilities, and
// the Executor that dispatches model-requested calls concurrently with
// failure isolation and fault sanitization.
package tool

import (
	"fmt"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/internal/util"
)

// Tool defines a callable capability an agent can expose to the model.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case recommended) and descriptions
//   - Define a proper JSON schema for parameters
//   - Return ordinary validation failures as errors rather than panicking
//   - Be safe for concurrent use; calls within one step run in parallel
//
// A tool has no persisted state of its own; any state it needs is closed
// over at registration time.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description provided to the
	// model so it can decide when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with parsed arguments. The returned value is
	// stringified by the executor (strings pass through, other values are
	// JSON-marshaled); a returned error is recorded as an error-flagged
	// result without aborting the run.
	Call(execCtx *core.ExecContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
