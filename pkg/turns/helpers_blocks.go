package turns

import "github.com/google/uuid"

// Convenience constructors for commonly used Block shapes.

// Role string constants used for human roles in blocks.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// NewUserTextBlock returns a Block representing a user text message.
func NewUserTextBlock(text string) Block {
	return Block{
		ID:      uuid.NewString(),
		Kind:    BlockKindUser,
		Role:    RoleUser,
		Payload: map[string]any{PayloadKeyText: text},
	}
}

// NewAssistantTextBlock returns a Block representing assistant LLM text output.
func NewAssistantTextBlock(text string) Block {
	return Block{
		ID:      uuid.NewString(),
		Kind:    BlockKindLLMText,
		Role:    RoleAssistant,
		Payload: map[string]any{PayloadKeyText: text},
	}
}

// NewSystemTextBlock returns a Block representing a system directive.
func NewSystemTextBlock(text string) Block {
	return Block{
		ID:      uuid.NewString(),
		Kind:    BlockKindSystem,
		Role:    RoleSystem,
		Payload: map[string]any{PayloadKeyText: text},
	}
}

// NewToolCallBlock returns a Block requesting invocation of a tool.
// id is a provider- or runtime-assigned identifier used to correlate tool_use results.
// name is the tool/function name. args contains the structured input (any JSON-serializable value).
func NewToolCallBlock(id string, name string, args any) Block {
	return Block{
		ID:   id,
		Kind: BlockKindToolCall,
		Role: RoleAssistant,
		Payload: map[string]any{
			PayloadKeyID:   id,
			PayloadKeyName: name,
			PayloadKeyArgs: args,
		},
	}
}

// NewToolUseBlock returns a Block capturing the result of a tool execution.
// id must match the corresponding tool_call id.
// result holds the execution output (any JSON-serializable value or string).
func NewToolUseBlock(id string, name string, result any) Block {
	return Block{
		ID:   uuid.NewString(),
		Kind: BlockKindToolUse,
		Role: RoleTool,
		Payload: map[string]any{
			PayloadKeyID:     id,
			PayloadKeyName:   name,
			PayloadKeyResult: result,
		},
	}
}

// NewToolErrorBlock returns a tool_use Block recording a failed tool execution.
func NewToolErrorBlock(id string, name string, errMsg string) Block {
	b := NewToolUseBlock(id, name, "Error: "+errMsg)
	b.Payload[PayloadKeyError] = errMsg
	return b
}

// WithBlockMetadata sets key/value pairs on a copy of the block's Metadata and returns it.
func WithBlockMetadata(b Block, kvs map[string]any) Block {
	if len(kvs) == 0 {
		return b
	}
	cloned := make(map[string]any, len(b.Metadata)+len(kvs))
	for k, v := range b.Metadata {
		cloned[k] = v
	}
	for k, v := range kvs {
		cloned[k] = v
	}
	b.Metadata = cloned
	return b
}

// HasBlockMetadata returns true if the block's Metadata contains key==value.
func HasBlockMetadata(b Block, key string, value string) bool {
	if b.Metadata == nil {
		return false
	}
	v, ok := b.Metadata[key]
	if !ok {
		return false
	}
	if sv, ok := v.(string); ok {
		return sv == value
	}
	return false
}
