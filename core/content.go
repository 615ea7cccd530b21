package core

// ContentBlock represents a polymorphic segment of message content. Concrete
// block types implement the unexported isContentBlock marker enabling a
// closed set that callers can switch over exhaustively.
type ContentBlock interface{ isContentBlock() }

// TextBlock is a plain text content segment.
type TextBlock struct {
	Text string // Plain UTF-8 text
}

// isContentBlock implements the ContentBlock interface for TextBlock.
func (TextBlock) isContentBlock() {}

// ToolCallBlock is a model-proposed tool invocation. Arguments carries the
// serialized JSON argument payload exactly as produced (or reassembled) from
// the backend; parsing is deferred to the executor.
type ToolCallBlock struct {
	ID        string `json:"id"`                  // Correlates to exactly one ToolResultBlock
	Name      string `json:"name"`                // Registered tool name
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument payload
}

// isContentBlock implements the ContentBlock interface for ToolCallBlock.
func (ToolCallBlock) isContentBlock() {}

// ToolResultBlock records the outcome of a tool invocation. Exactly one
// result exists for every ToolCallBlock handed to the executor; the pairing
// is by CallID, never by position.
type ToolResultBlock struct {
	CallID  string `json:"call_id"`  // Matches the originating ToolCallBlock ID
	Name    string `json:"name"`     // Tool name (for transcript readability)
	Content string `json:"content"`  // Result payload or error description
	IsError bool   `json:"is_error"` // True when Content describes a failure
}

// isContentBlock implements the ContentBlock interface for ToolResultBlock.
func (ToolResultBlock) isContentBlock() {}
