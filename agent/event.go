package agent

import (
	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/model"
)

// Event represents one entry of the lifecycle sequence an orchestrator
// publishes while a run progresses. Concrete event types implement the
// unexported isEvent marker enabling a closed set that observers can switch
// over exhaustively.
type Event interface{ isEvent() }

// StepEvent marks the beginning of one loop iteration (model invocation
// plus, if requested, one round of tool dispatch).
type StepEvent struct {
	N int // Zero-based step index
}

// isEvent implements the Event interface for StepEvent.
func (StepEvent) isEvent() {}

// MessageStartEvent marks the beginning of a new transcript message.
type MessageStartEvent struct {
	MessageID string
	Role      core.Role
}

// isEvent implements the Event interface for MessageStartEvent.
func (MessageStartEvent) isEvent() {}

// TextEvent carries assistant text. In streaming mode one event is published
// per delta in receipt order; in one-shot mode one event per text block.
type TextEvent struct {
	Text string
}

// isEvent implements the Event interface for TextEvent.
func (TextEvent) isEvent() {}

// ToolCallEvent announces a fully formed tool call request.
type ToolCallEvent struct {
	ID        string
	Name      string
	Arguments string
}

// isEvent implements the Event interface for ToolCallEvent.
func (ToolCallEvent) isEvent() {}

// ToolResultEvent carries the outcome of one tool invocation.
type ToolResultEvent struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// isEvent implements the Event interface for ToolResultEvent.
func (ToolResultEvent) isEvent() {}

// MessageEndEvent marks the end of an assistant turn with its finish reason
// ("tool_calls" when the turn requested tools).
type MessageEndEvent struct {
	MessageID string
	Reason    model.FinishReason
}

// isEvent implements the Event interface for MessageEndEvent.
func (MessageEndEvent) isEvent() {}

// ErrorEvent reports a fault fatal to the run.
type ErrorEvent struct {
	Err error
}

// isEvent implements the Event interface for ErrorEvent.
func (ErrorEvent) isEvent() {}

// emitter decouples the loop from a potentially slow observer: events flow
// through a buffered channel consumed by a dedicated goroutine, preserving
// emission order. A panicking observer is recovered and never cancels the
// run. close drains the channel before returning so callers see a complete
// sequence once a run ends.
type emitter struct {
	ch   chan Event
	done chan struct{}
}

// newEmitter starts the observer goroutine. A nil observer yields a nil
// emitter whose methods are no-ops.
func newEmitter(observer func(Event), buffer int) *emitter {
	if observer == nil {
		return nil
	}
	if buffer <= 0 {
		buffer = 64
	}
	em := &emitter{ch: make(chan Event, buffer), done: make(chan struct{})}
	go func() {
		defer close(em.done)
		for ev := range em.ch {
			func() {
				defer func() { _ = recover() }()
				observer(ev)
			}()
		}
	}()
	return em
}

// emit publishes an event. When the buffer is full the loop accepts
// serialized backpressure rather than dropping events.
func (e *emitter) emit(ev Event) {
	if e == nil {
		return
	}
	e.ch <- ev
}

// close stops the observer goroutine after all queued events are delivered.
func (e *emitter) close() {
	if e == nil {
		return
	}
	close(e.ch)
	<-e.done
}
