// Package agent implements the step-bounded agentic loop. The Orchestrator
// drives a conversation between a model backend and registered tools in two
// execution modes: Run consumes complete one-shot responses, Stream
// reassembles each assistant turn from the backend's fragmented delta
// stream. Both modes append strictly ordered assistant/tool message pairs to
// the session transcript and publish a typed lifecycle event sequence to an
// optional observer.
package agent
