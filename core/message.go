package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message. The set is closed; the
// orchestrator only ever appends messages with one of these three roles.
type Role string

const (
	// RoleUser marks a message authored by the caller.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the model backend.
	RoleAssistant Role = "assistant"
	// RoleTool marks a message carrying tool invocation results.
	RoleTool Role = "tool"
)

// Message is one entry of a session transcript. Its content sequence is
// fixed once the message has been appended to a session; treat appended
// messages as immutable.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   []ContentBlock `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewMessage creates a bare message with a fresh id and UTC timestamp.
// Prefer the role-specific constructors for common shapes.
func NewMessage(role Role, blocks ...ContentBlock) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   blocks,
		CreatedAt: time.Now().UTC(),
	}
}

// NewUserMessage creates a user message with a single text block.
func NewUserMessage(text string) Message {
	return NewMessage(RoleUser, TextBlock{Text: text})
}

// NewAssistantMessage creates an assistant message from ordered blocks.
func NewAssistantMessage(blocks ...ContentBlock) Message {
	return NewMessage(RoleAssistant, blocks...)
}

// NewToolMessage creates a tool message wrapping a set of results.
func NewToolMessage(results []ToolResultBlock) Message {
	blocks := make([]ContentBlock, len(results))
	for i, r := range results {
		blocks[i] = r
	}
	return NewMessage(RoleTool, blocks...)
}

// ToolCalls returns the tool call blocks of the message preserving their
// original order.
func (m Message) ToolCalls() []ToolCallBlock {
	var calls []ToolCallBlock
	for _, b := range m.Content {
		if tc, ok := b.(ToolCallBlock); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// ToolResults returns the tool result blocks of the message preserving their
// original order.
func (m Message) ToolResults() []ToolResultBlock {
	var results []ToolResultBlock
	for _, b := range m.Content {
		if tr, ok := b.(ToolResultBlock); ok {
			results = append(results, tr)
		}
	}
	return results
}

// Text concatenates all text blocks of the message.
func (m Message) Text() string {
	var sb strings.Builder
	for _, b := range m.Content {
		if tb, ok := b.(TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	return sb.String()
}

// NewID generates a new unique identifier for sessions and messages.
func NewID() string { return uuid.NewString() }
