package agent

import (
	"encoding/json"
	"strings"

	"github.com/agentloop/agentloop/core"
)

// pendingCall aggregates the fragmented argument string of one streamed tool
// call between its start and end events.
type pendingCall struct {
	id    string
	name  string
	args  strings.Builder
	ended bool
}

// stepAccumulator reassembles one assistant turn from a delta stream: a
// growing text buffer plus a table keyed by call id. It is scoped to a
// single step and discarded at step end; it is never promoted to
// session-level state.
type stepAccumulator struct {
	text  strings.Builder
	order []string
	calls map[string]*pendingCall
}

func newStepAccumulator() *stepAccumulator {
	return &stepAccumulator{calls: make(map[string]*pendingCall)}
}

// addText appends a text delta to the turn's text buffer.
func (a *stepAccumulator) addText(s string) { a.text.WriteString(s) }

// start creates the accumulator entry for a newly announced call. A
// duplicate start for a known id is ignored.
func (a *stepAccumulator) start(id, name string) {
	if _, exists := a.calls[id]; exists {
		return
	}
	a.calls[id] = &pendingCall{id: id, name: name}
	a.order = append(a.order, id)
}

// appendArgs appends an argument fragment to the matching entry. Fragments
// for an unknown id are dropped; the return reports whether the fragment was
// applied.
func (a *stepAccumulator) appendArgs(id, fragment string) bool {
	pc, ok := a.calls[id]
	if !ok {
		return false
	}
	pc.args.WriteString(fragment)
	return true
}

// end marks a call's argument string complete and returns the finalized
// block. The second return is false for an unknown id.
func (a *stepAccumulator) end(id string) (core.ToolCallBlock, bool) {
	pc, ok := a.calls[id]
	if !ok {
		return core.ToolCallBlock{}, false
	}
	pc.ended = true
	return finalize(pc), true
}

// finalize normalizes a call's accumulated argument string. Arguments that
// concatenate to valid JSON pass through untouched; anything else is wrapped
// as {"raw": <unparsed>} so the call block stays well-formed. Malformed
// model output degrades leniently instead of aborting the step.
func finalize(pc *pendingCall) core.ToolCallBlock {
	raw := pc.args.String()
	if raw != "" && !json.Valid([]byte(raw)) {
		wrapped, err := json.Marshal(map[string]string{"raw": raw})
		if err == nil {
			raw = string(wrapped)
		}
	}
	return core.ToolCallBlock{ID: pc.id, Name: pc.name, Arguments: raw}
}

// assemble builds the assistant message content for the turn: any text
// first, then tool call blocks in start order. Calls never explicitly ended
// are finalized here rather than dropped. If the stream produced no content
// at all, a single empty text block keeps the message non-contentless.
func (a *stepAccumulator) assemble() []core.ContentBlock {
	blocks := make([]core.ContentBlock, 0, len(a.order)+1)
	if a.text.Len() > 0 {
		blocks = append(blocks, core.TextBlock{Text: a.text.String()})
	}
	for _, id := range a.order {
		blocks = append(blocks, finalize(a.calls[id]))
	}
	if len(blocks) == 0 {
		blocks = append(blocks, core.TextBlock{})
	}
	return blocks
}
