// Package runner provides the serialized entry point over a session store
// and an orchestrator. The orchestrator itself is non-reentrant per session;
// Runner enforces that contract with a per-session mutex so callers can
// invoke it concurrently without coordinating themselves.
package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentloop/agentloop/agent"
	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/logging"
	"github.com/agentloop/agentloop/session"
)

// Options holds dependency overrides passed to New.
type Options struct {
	// Store resolves and persists sessions. Defaults to an in-memory store.
	Store session.Store
	// Logger receives structured progress logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Runner coordinates orchestrator execution: resolves the session, appends
// the user input, runs the loop and persists the resulting transcript.
// Public methods are safe for concurrent use; invocations targeting the same
// session are serialized.
type Runner struct {
	orch   *agent.Orchestrator
	store  session.Store
	logger logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs a Runner with optional overrides.
func New(orch *agent.Orchestrator, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Store:  session.NewInMemoryStore(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{
		orch:   orch,
		store:  opts.Store,
		logger: opts.Logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Run executes the orchestrator in one-shot mode for the given session id
// and returns the session snapshot after the run. The snapshot is returned
// even when the run failed, so callers can inspect the retained transcript.
func (r *Runner) Run(ctx context.Context, sessionID, userText string) (*core.Session, error) {
	return r.invoke(ctx, sessionID, userText, r.orch.Run)
}

// Stream executes the orchestrator in streaming mode for the given session
// id; semantics otherwise mirror Run.
func (r *Runner) Stream(ctx context.Context, sessionID, userText string) (*core.Session, error) {
	return r.invoke(ctx, sessionID, userText, r.orch.Stream)
}

func (r *Runner) invoke(
	ctx context.Context,
	sessionID, userText string,
	mode func(context.Context, *core.Session, string) error,
) (*core.Session, error) {
	lock := r.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := r.store.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	runErr := mode(ctx, sess, userText)

	if err := r.store.Save(sess); err != nil {
		r.logger.Error("runner.session.save_failed", "session_id", sessionID, "error", err.Error())
		if runErr == nil {
			runErr = fmt.Errorf("save session: %w", err)
		}
	}

	return sess, runErr
}

// sessionLock returns the mutex serializing invocations for one session.
func (r *Runner) sessionLock(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[sessionID] = lock
	}
	return lock
}
