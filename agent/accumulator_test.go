package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloop/agentloop/core"
)

func TestAccumulatorRoundTrip(t *testing.T) {
	acc := newStepAccumulator()
	acc.start("c1", "lookup")
	for _, frag := range []string{`{"city":`, `"ber`, `lin","days":3`, `}`} {
		assert.True(t, acc.appendArgs("c1", frag))
	}

	block, ok := acc.end("c1")
	require.True(t, ok)
	assert.Equal(t, "c1", block.ID)
	assert.Equal(t, "lookup", block.Name)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(block.Arguments), &got))
	assert.Equal(t, map[string]any{"city": "berlin", "days": 3.0}, got)
}

func TestAccumulatorMalformedArgumentsFallback(t *testing.T) {
	acc := newStepAccumulator()
	acc.start("c1", "lookup")
	acc.appendArgs("c1", `{"city": "ber`) // never completed

	block, ok := acc.end("c1")
	require.True(t, ok)

	// The raw string is wrapped so the block stays well-formed.
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(block.Arguments), &got))
	assert.Equal(t, `{"city": "ber`, got["raw"])
}

func TestAccumulatorDropsUnknownDeltas(t *testing.T) {
	acc := newStepAccumulator()
	assert.False(t, acc.appendArgs("ghost", `{"a":1}`))

	_, ok := acc.end("ghost")
	assert.False(t, ok)
}

func TestAccumulatorInterleavedCalls(t *testing.T) {
	acc := newStepAccumulator()
	acc.start("c1", "alpha")
	acc.start("c2", "beta")
	acc.appendArgs("c2", `{"b":`)
	acc.appendArgs("c1", `{"a":`)
	acc.appendArgs("c2", `2}`)
	acc.appendArgs("c1", `1}`)
	acc.end("c1")
	acc.end("c2")
	acc.addText("thinking")

	blocks := acc.assemble()
	require.Len(t, blocks, 3)

	// Text first, then calls in start order.
	assert.Equal(t, core.TextBlock{Text: "thinking"}, blocks[0])
	first, ok := blocks[1].(core.ToolCallBlock)
	require.True(t, ok)
	assert.Equal(t, "c1", first.ID)
	assert.JSONEq(t, `{"a":1}`, first.Arguments)
	second, ok := blocks[2].(core.ToolCallBlock)
	require.True(t, ok)
	assert.Equal(t, "c2", second.ID)
	assert.JSONEq(t, `{"b":2}`, second.Arguments)
}

func TestAccumulatorEmptyTurn(t *testing.T) {
	acc := newStepAccumulator()

	blocks := acc.assemble()
	require.Len(t, blocks, 1)
	assert.Equal(t, core.TextBlock{}, blocks[0])
}

func TestAccumulatorFinalizesUnendedCalls(t *testing.T) {
	acc := newStepAccumulator()
	acc.start("c1", "lookup")
	acc.appendArgs("c1", `{"q":"x"}`)
	// No end event before the stream finished.

	blocks := acc.assemble()
	require.Len(t, blocks, 1)
	block, ok := blocks[0].(core.ToolCallBlock)
	require.True(t, ok)
	assert.JSONEq(t, `{"q":"x"}`, block.Arguments)
}
