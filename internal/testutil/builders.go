// Package testutil provides fluent builders shared by package tests.
package testutil

import (
	"github.com/agentloop/agentloop/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("sess-1").UserText("hi").Build()
type SessionBuilder struct {
	id       string
	model    string
	system   string
	messages []core.Message
}

// NewSessionBuilder creates a new builder for a session with the given id.
// Use chainable methods then call Build.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{id: id}
}

// Model sets the session's resolved model id (chainable).
func (b *SessionBuilder) Model(model string) *SessionBuilder {
	b.model = model
	return b
}

// System sets the session's resolved system prompt (chainable).
func (b *SessionBuilder) System(system string) *SessionBuilder {
	b.system = system
	return b
}

// Message appends a prebuilt message to the transcript (chainable).
func (b *SessionBuilder) Message(msg core.Message) *SessionBuilder {
	b.messages = append(b.messages, msg)
	return b
}

// UserText appends a user message with a single text block (chainable).
func (b *SessionBuilder) UserText(text string) *SessionBuilder {
	return b.Message(core.NewUserMessage(text))
}

// Build returns a *core.Session with the pre-populated transcript.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.id)
	s.Model = b.model
	s.SystemPrompt = b.system
	for _, msg := range b.messages {
		s.AppendMessage(msg)
	}
	return s
}

// ToolCall builds a tool call block with the given identity and raw
// JSON arguments.
func ToolCall(id, name, args string) core.ToolCallBlock {
	return core.ToolCallBlock{ID: id, Name: name, Arguments: args}
}
