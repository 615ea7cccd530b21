package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionAppendAndCopy(t *testing.T) {
	sess := NewSession("s1")
	assert.Equal(t, StatusIdle, sess.GetStatus())
	assert.Equal(t, 0, sess.Len())

	sess.AppendMessage(NewUserMessage("hello"))
	sess.AppendMessage(NewAssistantMessage(TextBlock{Text: "hi"}))

	msgs := sess.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleAssistant, msgs[1].Role)

	// Mutating the returned slice must not affect the session.
	msgs[0] = NewUserMessage("tampered")
	assert.Equal(t, "hello", sess.GetMessages()[0].Text())
}

func TestSessionStatusTransitions(t *testing.T) {
	sess := NewSession("s1")
	sess.SetStatus(StatusRunning)
	assert.Equal(t, StatusRunning, sess.GetStatus())
	sess.SetStatus(StatusCompleted)
	assert.Equal(t, StatusCompleted, sess.GetStatus())

	// A completed session re-enters running on a new invocation.
	sess.SetStatus(StatusRunning)
	sess.SetStatus(StatusError)
	assert.Equal(t, StatusError, sess.GetStatus())
}

func TestSessionResolveDefaults(t *testing.T) {
	sess := NewSession("s1")
	model, system := sess.ResolveDefaults("m-default", "be brief")
	assert.Equal(t, "m-default", model)
	assert.Equal(t, "be brief", system)

	// Session overrides win over defaults.
	override := NewSession("s2")
	override.Model = "m-override"
	model, system = override.ResolveDefaults("m-default", "be brief")
	assert.Equal(t, "m-override", model)
	assert.Equal(t, "be brief", system)
}

func TestSessionClone(t *testing.T) {
	sess := NewSession("s1")
	sess.AppendMessage(NewUserMessage("hello"))
	clone := sess.Clone()

	clone.AppendMessage(NewUserMessage("divergent"))
	assert.Equal(t, 1, sess.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestSessionLastMessage(t *testing.T) {
	sess := NewSession("s1")
	_, ok := sess.LastMessage()
	assert.False(t, ok)

	sess.AppendMessage(NewUserMessage("hello"))
	last, ok := sess.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "hello", last.Text())
}

func TestMessageHelpers(t *testing.T) {
	msg := NewAssistantMessage(
		TextBlock{Text: "let me check "},
		ToolCallBlock{ID: "c1", Name: "lookup", Arguments: `{"q":"x"}`},
		TextBlock{Text: "that"},
		ToolCallBlock{ID: "c2", Name: "lookup", Arguments: `{"q":"y"}`},
	)

	calls := msg.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "c1", calls[0].ID)
	assert.Equal(t, "c2", calls[1].ID)
	assert.Equal(t, "let me check that", msg.Text())

	toolMsg := NewToolMessage([]ToolResultBlock{
		{CallID: "c1", Name: "lookup", Content: "ok"},
	})
	assert.Equal(t, RoleTool, toolMsg.Role)
	require.Len(t, toolMsg.ToolResults(), 1)
	assert.Equal(t, "c1", toolMsg.ToolResults()[0].CallID)
}
