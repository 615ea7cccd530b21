package model

import (
	"context"

	"github.com/agentloop/agentloop/core"
)

// ToolDefinition declaratively exposes a callable tool to the model. It is
// the wire-facing projection of a registered tool: name, description and
// parameter schema only, never the invocation capability.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema (minimal subset)
}

// Request captures the normalized input for one model invocation.
type Request struct {
	Model    string           `json:"model"`
	Messages []core.Message   `json:"messages"` // Full ordered transcript
	System   string           `json:"system,omitempty"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// FinishReason describes why a model response ended.
type FinishReason string

const (
	// FinishStop indicates the model produced a complete answer.
	FinishStop FinishReason = "stop"
	// FinishToolCalls indicates the model requested tool invocations.
	FinishToolCalls FinishReason = "tool_calls"
	// FinishMaxTokens indicates the response was cut by the token limit.
	FinishMaxTokens FinishReason = "max_tokens"
	// FinishError indicates the backend reported a terminal fault.
	FinishError FinishReason = "error"
)

// TokenUsage captures token accounting for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a complete one-shot model response: ordered content blocks
// (text then/or tool call requests), a finish reason and token usage.
type Response struct {
	Blocks       []core.ContentBlock `json:"blocks"`
	FinishReason FinishReason        `json:"finish_reason"`
	Usage        TokenUsage          `json:"usage"`
}

// Backend is the port the orchestrator consumes. Implementations translate
// to and from a concrete provider's wire format; this boundary is the sole
// place backend-specific types appear.
type Backend interface {
	// Call performs a one-shot completion. Any error (network, backend
	// fault, malformed response shape) is fatal to the current run.
	Call(ctx context.Context, req Request) (*Response, error)

	// Stream performs an incremental completion. The returned channel is
	// ordered and closed after exactly one terminal event (FinishEvent or
	// ErrorEvent); a channel that closes without a terminal event is
	// treated by callers as a backend fault.
	Stream(ctx context.Context, req Request) (<-chan StreamEvent, error)
}
