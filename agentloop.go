// Package agentloop provides a high-level façade over the orchestrator and
// its collaborators (tool registry, session store, logging) enabling rapid
// construction of tool-calling agents. Most applications interact with this
// package by:
//  1. Creating an AgentLoop via New() with a model backend
//  2. Registering one or more tools
//  3. Invoking Run (one-shot) or Stream (incremental) per session
//
// The façade delegates orchestration to agent.Orchestrator while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing.
package agentloop

import (
	"context"

	"github.com/agentloop/agentloop/agent"
	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/logging"
	"github.com/agentloop/agentloop/model"
	"github.com/agentloop/agentloop/runner"
	"github.com/agentloop/agentloop/session"
	"github.com/agentloop/agentloop/tool"
)

// Version is the current agentloop release.
const Version = "0.1.0"

// Options configures an AgentLoop instance.
type Options struct {
	// Model is the default model id applied to sessions without their own.
	Model string
	// SystemPrompt is the default system instruction.
	SystemPrompt string
	// MaxSteps bounds loop iterations per run.
	MaxSteps int
	// Tools are registered before the first run; duplicates are rejected.
	Tools []tool.Tool
	// Observer receives the lifecycle event sequence.
	Observer func(agent.Event)
	// Store persists sessions (defaults to in-memory).
	Store session.Store
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// AgentLoop is the high-level façade aggregating orchestrator, registry and
// session handling.
type AgentLoop struct {
	registry *tool.Registry
	orch     *agent.Orchestrator
	runner   *runner.Runner
}

// New creates an AgentLoop over the given backend with optional overrides.
// Registration errors for the initial tool set are surfaced synchronously.
func New(backend model.Backend, optFns ...func(o *Options)) (*AgentLoop, error) {
	opts := Options{
		MaxSteps: 10,
		Store:    session.NewInMemoryStore(),
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewRegistry()
	for _, t := range opts.Tools {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}

	orch := agent.New(backend, func(o *agent.Options) {
		o.Model = opts.Model
		o.SystemPrompt = opts.SystemPrompt
		o.MaxSteps = opts.MaxSteps
		o.Registry = registry
		o.Observer = opts.Observer
		o.Logger = opts.Logger
	})

	run := runner.New(orch, func(o *runner.Options) {
		o.Store = opts.Store
		o.Logger = opts.Logger
	})

	return &AgentLoop{registry: registry, orch: orch, runner: run}, nil
}

// RegisterTool adds a tool to the catalog. Registration concurrent with an
// in-flight run should be avoided.
func (a *AgentLoop) RegisterTool(t tool.Tool) error { return a.registry.Register(t) }

// Registry exposes the underlying tool catalog.
func (a *AgentLoop) Registry() *tool.Registry { return a.registry }

// Run executes one-shot mode for the given session id and returns the
// resulting session snapshot.
func (a *AgentLoop) Run(ctx context.Context, sessionID, userText string) (*core.Session, error) {
	return a.runner.Run(ctx, sessionID, userText)
}

// Stream executes streaming mode for the given session id and returns the
// resulting session snapshot.
func (a *AgentLoop) Stream(ctx context.Context, sessionID, userText string) (*core.Session, error) {
	return a.runner.Stream(ctx, sessionID, userText)
}
