package core

import "context"

// ExecContext carries the per-step scope handed to tool execution. It is an
// ephemeral value created for one round of tool dispatch and discarded at
// step end; it is never persisted.
//
// Context carries the cancellation signal checked at the start of each tool
// invocation. Cancellation does not interrupt an invocation already in
// progress; it only prevents invocations that have not started yet.
type ExecContext struct {
	Context   context.Context
	SessionID string
	MessageID string // Assistant message that produced the calls
}

// NewExecContext constructs an ExecContext. A nil ctx defaults to
// context.Background so callers can always consult Context.Err.
func NewExecContext(ctx context.Context, sessionID, messageID string) *ExecContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ExecContext{Context: ctx, SessionID: sessionID, MessageID: messageID}
}

// Err returns the cancellation error (if any) from the underlying context.
func (ec *ExecContext) Err() error { return ec.Context.Err() }
