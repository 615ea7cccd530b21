// Package model defines the vendor-neutral port between the orchestrator and
// language-model backends. It normalizes requests (transcript + tool
// definitions), one-shot responses, and the incremental event stream emitted
// in place of a complete response, so the core never sees backend-native
// wire types. Concrete adapters live in the anthropic and openai
// subpackages; MockBackend provides a scripted in-memory implementation for
// tests and examples.
package model
