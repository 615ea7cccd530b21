package model

// StreamEvent represents one fragment of an incremental model response.
// Concrete event types implement the unexported isStreamEvent marker
// enabling a closed set that consumers can switch over exhaustively.
type StreamEvent interface{ isStreamEvent() }

// TextDeltaEvent appends a fragment of assistant text.
type TextDeltaEvent struct {
	Text string
}

// isStreamEvent implements the StreamEvent interface for TextDeltaEvent.
func (TextDeltaEvent) isStreamEvent() {}

// ToolCallStartEvent announces a new tool call identified by id and name.
// Argument fragments for the call follow as ToolCallDeltaEvents.
type ToolCallStartEvent struct {
	ID   string
	Name string
}

// isStreamEvent implements the StreamEvent interface for ToolCallStartEvent.
func (ToolCallStartEvent) isStreamEvent() {}

// ToolCallDeltaEvent appends a fragment of a call's serialized argument
// string, keyed by the call id announced in ToolCallStartEvent.
type ToolCallDeltaEvent struct {
	ID       string
	Fragment string
}

// isStreamEvent implements the StreamEvent interface for ToolCallDeltaEvent.
func (ToolCallDeltaEvent) isStreamEvent() {}

// ToolCallEndEvent signals that a call's argument string is complete.
type ToolCallEndEvent struct {
	ID string
}

// isStreamEvent implements the StreamEvent interface for ToolCallEndEvent.
func (ToolCallEndEvent) isStreamEvent() {}

// FinishEvent terminates a well-formed stream with the final reason and
// token usage.
type FinishEvent struct {
	Reason FinishReason
	Usage  TokenUsage
}

// isStreamEvent implements the StreamEvent interface for FinishEvent.
func (FinishEvent) isStreamEvent() {}

// ErrorEvent terminates a stream with a backend fault. Consumers treat it
// exactly like a one-shot call error.
type ErrorEvent struct {
	Err error
}

// isStreamEvent implements the StreamEvent interface for ErrorEvent.
func (ErrorEvent) isStreamEvent() {}
