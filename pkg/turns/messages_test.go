package turns

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessages_AlternatesRequestAndResponse(t *testing.T) {
	turn := NewTurnBuilder().WithID("t").WithSystemPrompt("sys").WithUserPrompt("hello").Build()
	AppendBlocks(turn,
		NewToolCallBlock("c1", "geocode_address", map[string]any{"address": "Paris"}),
		NewToolCallBlock("c2", "search_web", map[string]any{"query": "Paris"}),
		NewToolUseBlock("c1", "geocode_address", "[]"),
		NewToolUseBlock("c2", "search_web", "{}"),
		NewAssistantTextBlock("answer"),
	)

	msgs := SplitMessages(turn)
	require.Len(t, msgs, 4)

	sides := []string{}
	sizes := []int{}
	for _, m := range msgs {
		sides = append(sides, m.Metadata[MetaKeyMessage].(string))
		sizes = append(sizes, len(m.Blocks))
	}
	assert.Equal(t, []string{MessageRequest, MessageResponse, MessageRequest, MessageResponse}, sides)
	assert.Equal(t, []int{2, 2, 2, 1}, sizes)
	assert.Equal(t, "t/0", msgs[0].ID)
}

func TestSplitMessages_EmptyTurn(t *testing.T) {
	assert.Nil(t, SplitMessages(nil))
	assert.Nil(t, SplitMessages(&Turn{}))
}

func TestTurnClone_IsDeep(t *testing.T) {
	turn := NewTurnBuilder().WithUserPrompt("hi").Build()
	AppendBlock(turn, NewToolCallBlock("c1", "find_places", map[string]any{"query": "museums"}))

	cp := turn.Clone()
	cp.Blocks[1].Payload[PayloadKeyArgs].(map[string]any)["query"] = "parks"
	cp.Blocks = append(cp.Blocks, NewAssistantTextBlock("extra"))

	assert.Len(t, turn.Blocks, 2)
	assert.Equal(t, "museums", turn.Blocks[1].Payload[PayloadKeyArgs].(map[string]any)["query"])
}

func TestLastAssistantText(t *testing.T) {
	turn := NewTurnBuilder().WithUserPrompt("hi").Build()
	_, ok := LastAssistantText(turn)
	assert.False(t, ok)

	AppendBlocks(turn, NewAssistantTextBlock("first"), NewAssistantTextBlock("second"))
	txt, ok := LastAssistantText(turn)
	assert.True(t, ok)
	assert.Equal(t, "second", txt)
}

func TestFprintRun(t *testing.T) {
	turn := NewTurnBuilder().WithID("r").WithUserPrompt("Paris").Build()
	AppendBlocks(turn,
		NewToolCallBlock("c1", "geocode_address", map[string]any{"address": "Paris"}),
		NewToolUseBlock("c1", "geocode_address", `[{"lat":48.85}]`),
		NewAssistantTextBlock("Found it."),
	)

	var buf bytes.Buffer
	FprintRun(&buf, NewRun("r", "travel_agent", turn))
	assert.Equal(t, "--- message 0 (request)\n"+
		"user: Paris\n"+
		"--- message 1 (response)\n"+
		"tool_call: geocode_address {\"address\":\"Paris\"}\n"+
		"--- message 2 (request)\n"+
		"tool_use: geocode_address -> [{\"lat\":48.85}]\n"+
		"--- message 3 (response)\n"+
		"assistant: Found it.\n", buf.String())
}
