package toolblocks

import (
	"encoding/json"

	"github.com/go-go-golems/itinerant/pkg/turns"
)

// ToolCall represents a pending tool invocation described by a Turn block.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// RawArguments returns the arguments as JSON.
func (c ToolCall) RawArguments() json.RawMessage {
	b, err := json.Marshal(c.Arguments)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}

// ToolResult represents the outcome of executing a tool call.
type ToolResult struct {
	ID      string
	Name    string
	Content string
	Error   string
}

// ExtractPendingToolCalls finds tool_call blocks that don't yet have a matching tool_use block.
func ExtractPendingToolCalls(t *turns.Turn) []ToolCall {
	if t == nil {
		return nil
	}
	used := make(map[string]bool)
	for _, b := range t.Blocks {
		if b.Kind == turns.BlockKindToolUse {
			if id, ok := b.Payload[turns.PayloadKeyID].(string); ok && id != "" {
				used[id] = true
			}
		}
	}
	var calls []ToolCall
	for _, b := range t.Blocks {
		if b.Kind != turns.BlockKindToolCall {
			continue
		}
		id, _ := b.Payload[turns.PayloadKeyID].(string)
		if id == "" || used[id] {
			continue
		}
		name, _ := b.Payload[turns.PayloadKeyName].(string)
		calls = append(calls, ToolCall{ID: id, Name: name, Arguments: ArgumentsOf(b)})
	}
	return calls
}

// ArgumentsOf decodes the arguments of a tool_call block into a map,
// whatever shape the engine stored them in.
func ArgumentsOf(b turns.Block) map[string]any {
	var args map[string]any
	switch v := b.Payload[turns.PayloadKeyArgs].(type) {
	case nil:
	case map[string]any:
		args = v
	case string:
		_ = json.Unmarshal([]byte(v), &args)
	case json.RawMessage:
		_ = json.Unmarshal(v, &args)
	case []byte:
		_ = json.Unmarshal(v, &args)
	default:
		if bts, err := json.Marshal(v); err == nil {
			_ = json.Unmarshal(bts, &args)
		}
	}
	if args == nil {
		args = map[string]any{}
	}
	return args
}

// AppendToolResultsBlocks appends tool_use blocks to the Turn from provided results.
func AppendToolResultsBlocks(t *turns.Turn, results []ToolResult) {
	for _, r := range results {
		if r.Error != "" {
			turns.AppendBlock(t, turns.NewToolErrorBlock(r.ID, r.Name, r.Error))
			continue
		}
		turns.AppendBlock(t, turns.NewToolUseBlock(r.ID, r.Name, r.Content))
	}
}

// LastToolCall returns the last tool_call block whose name is one of names.
func LastToolCall(t *turns.Turn, names ...string) (turns.Block, bool) {
	if t == nil {
		return turns.Block{}, false
	}
	lookup := make(map[string]bool, len(names))
	for _, n := range names {
		lookup[n] = true
	}
	for i := len(t.Blocks) - 1; i >= 0; i-- {
		b := t.Blocks[i]
		if b.Kind != turns.BlockKindToolCall {
			continue
		}
		if name, _ := b.Payload[turns.PayloadKeyName].(string); lookup[name] {
			return b, true
		}
	}
	return turns.Block{}, false
}

// LastToolResult decodes the JSON object returned by the last successful
// execution of the named tool.
func LastToolResult(t *turns.Turn, name string) (map[string]any, bool) {
	if t == nil {
		return nil, false
	}
	for i := len(t.Blocks) - 1; i >= 0; i-- {
		b := t.Blocks[i]
		if b.Kind != turns.BlockKindToolUse {
			continue
		}
		if n, _ := b.Payload[turns.PayloadKeyName].(string); n != name {
			continue
		}
		if _, failed := b.Payload[turns.PayloadKeyError]; failed {
			continue
		}
		var out map[string]any
		switch v := b.Payload[turns.PayloadKeyResult].(type) {
		case map[string]any:
			out = v
		case string:
			if err := json.Unmarshal([]byte(v), &out); err != nil {
				continue
			}
		default:
			continue
		}
		return out, out != nil
	}
	return nil, false
}
