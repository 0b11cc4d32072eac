package turns

import "github.com/google/uuid"

// TurnBuilder helps construct an initial Turn with ordered Blocks.
type TurnBuilder struct {
	id       string
	blocks   []Block
	metadata map[string]any
}

func NewTurnBuilder() *TurnBuilder {
	return &TurnBuilder{blocks: []Block{}}
}

func (tb *TurnBuilder) WithID(id string) *TurnBuilder {
	tb.id = id
	return tb
}

func (tb *TurnBuilder) WithSystemPrompt(systemText string) *TurnBuilder {
	if systemText != "" {
		tb.blocks = append(tb.blocks, NewSystemTextBlock(systemText))
	}
	return tb
}

func (tb *TurnBuilder) WithUserPrompt(userText string) *TurnBuilder {
	if userText != "" {
		tb.blocks = append(tb.blocks, NewUserTextBlock(userText))
	}
	return tb
}

func (tb *TurnBuilder) WithMetadata(key string, value any) *TurnBuilder {
	if tb.metadata == nil {
		tb.metadata = map[string]any{}
	}
	tb.metadata[key] = value
	return tb
}

func (tb *TurnBuilder) Build() *Turn {
	t := &Turn{ID: tb.id, Metadata: tb.metadata}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if len(tb.blocks) > 0 {
		AppendBlocks(t, tb.blocks...)
	}
	return t
}
