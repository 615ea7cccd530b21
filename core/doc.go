// Package core provides the foundational domain types used by agentloop. It
// defines the transcript model shared by every other package:
//
//   - Sessions (ordered, append-only conversation transcripts with status)
//   - Messages (role-tagged content containers, immutable once appended)
//   - ContentBlock (closed sum over text, tool call requests and results)
//   - ExecContext (per-step scope handed to tool execution)
//
// The package intentionally keeps implementation concerns (model backends,
// tool dispatch, orchestration) out of scope so those layers can depend on a
// small, stable vocabulary of types.
package core
