package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/logging"
	"github.com/agentloop/agentloop/model"
	"github.com/agentloop/agentloop/tool"
)

// ErrStreamTruncated is returned when a backend stream ends without a
// terminal finish or error event.
var ErrStreamTruncated = errors.New("model stream ended without terminal event")

// Options configures an Orchestrator. All fields have safe defaults; supply
// overrides through functional options passed to New.
type Options struct {
	// Model is the default model id; a session's own Model field takes
	// precedence when set.
	Model string
	// SystemPrompt is the default system instruction; a session's own
	// SystemPrompt field takes precedence when set.
	SystemPrompt string
	// MaxSteps bounds the number of loop iterations per run. Reaching the
	// bound without a terminal response is soft exhaustion, not an error.
	MaxSteps int
	// Registry catalogs the tools exposed to the model. Defaults to an
	// empty registry.
	Registry *tool.Registry
	// Observer receives the lifecycle event sequence. It runs on a
	// dedicated goroutine; emission order is preserved and a panicking
	// observer never cancels the run.
	Observer func(Event)
	// EventBufferSize sets the observer channel buffer. A full buffer
	// applies serialized backpressure to the loop.
	EventBufferSize int
	// Logger receives structured progress logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Orchestrator runs the step-bounded agentic loop against a model backend.
//
// A single run per session is sequential and non-reentrant: a session must
// not be passed to a second concurrent Run/Stream invocation while one is in
// flight. The runner package provides a serialized entry point; direct
// callers carry that responsibility themselves.
type Orchestrator struct {
	backend  model.Backend
	executor *tool.Executor
	opts     Options
}

// New constructs an Orchestrator over the given backend.
func New(backend model.Backend, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxSteps:        10,
		EventBufferSize: 64,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Registry == nil {
		opts.Registry = tool.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.MaxSteps < 1 {
		opts.MaxSteps = 1
	}
	return &Orchestrator{
		backend:  backend,
		executor: tool.NewExecutor(opts.Registry, opts.Logger),
		opts:     opts,
	}
}

// Registry exposes the tool catalog for registration before a run begins.
func (o *Orchestrator) Registry() *tool.Registry { return o.opts.Registry }

// Run executes the loop in one-shot mode: each step consumes a complete
// backend response. userText, when non-empty, is appended as a user message
// before the first step. The session transcript is retained as-is on error;
// nothing is rolled back.
func (o *Orchestrator) Run(ctx context.Context, sess *core.Session, userText string) error {
	em := newEmitter(o.opts.Observer, o.opts.EventBufferSize)
	defer em.close()

	req := o.begin(sess, userText)

	for step := 0; step < o.opts.MaxSteps; step++ {
		em.emit(StepEvent{N: step})
		o.opts.Logger.Debug("agent.step.start", "session_id", sess.ID, "step", step)

		req.Messages = sess.GetMessages()
		resp, err := o.backend.Call(ctx, req)
		if err != nil {
			return o.fail(sess, em, fmt.Errorf("model backend: %w", err))
		}

		asst := core.NewAssistantMessage(resp.Blocks...)
		sess.AppendMessage(asst)
		em.emit(MessageStartEvent{MessageID: asst.ID, Role: core.RoleAssistant})
		for _, b := range asst.Content {
			switch block := b.(type) {
			case core.TextBlock:
				em.emit(TextEvent{Text: block.Text})
			case core.ToolCallBlock:
				em.emit(ToolCallEvent{ID: block.ID, Name: block.Name, Arguments: block.Arguments})
			}
		}

		calls := asst.ToolCalls()
		if len(calls) == 0 {
			em.emit(MessageEndEvent{MessageID: asst.ID, Reason: resp.FinishReason})
			sess.SetStatus(core.StatusCompleted)
			o.opts.Logger.Info("agent.run.completed", "session_id", sess.ID, "steps", step+1)
			return nil
		}

		o.dispatchTools(ctx, sess, em, asst, calls)
	}

	// Soft exhaustion: the budget ran out without a terminal response.
	sess.SetStatus(core.StatusCompleted)
	o.opts.Logger.Info("agent.run.exhausted", "session_id", sess.ID, "max_steps", o.opts.MaxSteps)
	return nil
}

// Stream executes the loop in streaming mode: each step's assistant turn is
// reassembled from the backend's delta stream through a per-step
// accumulator. Semantics otherwise mirror Run.
func (o *Orchestrator) Stream(ctx context.Context, sess *core.Session, userText string) error {
	em := newEmitter(o.opts.Observer, o.opts.EventBufferSize)
	defer em.close()

	req := o.begin(sess, userText)

	for step := 0; step < o.opts.MaxSteps; step++ {
		em.emit(StepEvent{N: step})
		o.opts.Logger.Debug("agent.step.start", "session_id", sess.ID, "step", step, "stream", true)

		req.Messages = sess.GetMessages()
		events, err := o.backend.Stream(ctx, req)
		if err != nil {
			return o.fail(sess, em, fmt.Errorf("model backend: %w", err))
		}

		msgID := core.NewID()
		em.emit(MessageStartEvent{MessageID: msgID, Role: core.RoleAssistant})

		acc := newStepAccumulator()
		var finish *model.FinishEvent
		var streamErr error

	consume:
		for ev := range events {
			switch ev := ev.(type) {
			case model.TextDeltaEvent:
				acc.addText(ev.Text)
				em.emit(TextEvent{Text: ev.Text})
			case model.ToolCallStartEvent:
				acc.start(ev.ID, ev.Name)
			case model.ToolCallDeltaEvent:
				if !acc.appendArgs(ev.ID, ev.Fragment) {
					o.opts.Logger.Warn("agent.stream.orphan_delta", "session_id", sess.ID, "call_id", ev.ID)
				}
			case model.ToolCallEndEvent:
				if block, ok := acc.end(ev.ID); ok {
					em.emit(ToolCallEvent{ID: block.ID, Name: block.Name, Arguments: block.Arguments})
				}
			case model.FinishEvent:
				finish = &ev
			case model.ErrorEvent:
				streamErr = ev.Err
				break consume
			}
		}

		if streamErr != nil {
			return o.fail(sess, em, fmt.Errorf("model backend: %w", streamErr))
		}
		if finish == nil {
			return o.fail(sess, em, fmt.Errorf("model backend: %w", ErrStreamTruncated))
		}

		asst := core.NewAssistantMessage(acc.assemble()...)
		asst.ID = msgID
		sess.AppendMessage(asst)

		calls := asst.ToolCalls()
		if len(calls) == 0 {
			em.emit(MessageEndEvent{MessageID: asst.ID, Reason: finish.Reason})
			sess.SetStatus(core.StatusCompleted)
			o.opts.Logger.Info("agent.run.completed", "session_id", sess.ID, "steps", step+1, "stream", true)
			return nil
		}

		o.dispatchTools(ctx, sess, em, asst, calls)
	}

	sess.SetStatus(core.StatusCompleted)
	o.opts.Logger.Info("agent.run.exhausted", "session_id", sess.ID, "max_steps", o.opts.MaxSteps, "stream", true)
	return nil
}

// begin transitions the session to running, appends the optional user
// message and prepares the invariant part of the model request.
func (o *Orchestrator) begin(sess *core.Session, userText string) model.Request {
	sess.SetStatus(core.StatusRunning)
	if userText != "" {
		sess.AppendMessage(core.NewUserMessage(userText))
	}
	modelID, system := sess.ResolveDefaults(o.opts.Model, o.opts.SystemPrompt)
	return model.Request{
		Model:  modelID,
		System: system,
		Tools:  o.opts.Registry.Definitions(),
	}
}

// dispatchTools fans the step's tool calls out through the executor, appends
// the resulting tool message and emits the per-result events plus the
// closing message_end tagged "tool_calls".
func (o *Orchestrator) dispatchTools(
	ctx context.Context,
	sess *core.Session,
	em *emitter,
	asst core.Message,
	calls []core.ToolCallBlock,
) {
	execCtx := core.NewExecContext(ctx, sess.ID, asst.ID)
	results := o.executor.ExecuteMany(execCtx, calls)

	sess.AppendMessage(core.NewToolMessage(results))
	for _, r := range results {
		em.emit(ToolResultEvent{CallID: r.CallID, Name: r.Name, Content: r.Content, IsError: r.IsError})
	}
	em.emit(MessageEndEvent{MessageID: asst.ID, Reason: model.FinishToolCalls})
}

// fail records a fatal backend fault: status error, error event, error
// returned to the caller. The transcript appended so far is preserved.
func (o *Orchestrator) fail(sess *core.Session, em *emitter, err error) error {
	sess.SetStatus(core.StatusError)
	em.emit(ErrorEvent{Err: err})
	o.opts.Logger.Error("agent.run.failed", "session_id", sess.ID, "error", err.Error())
	return err
}
