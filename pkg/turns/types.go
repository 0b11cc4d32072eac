package turns

import (
	clone "github.com/huandu/go-clone"
)

// BlockKind represents the kind of a Block.
type BlockKind string

const (
	BlockKindUser      BlockKind = "user"
	BlockKindLLMText   BlockKind = "llm_text"
	BlockKindToolCall  BlockKind = "tool_call"
	BlockKindToolUse   BlockKind = "tool_use"
	BlockKindSystem    BlockKind = "system"
	BlockKindReasoning BlockKind = "reasoning"
	BlockKindOther     BlockKind = "other"
)

func (k BlockKind) String() string {
	return string(k)
}

// IsResponse reports whether blocks of this kind are produced by the model
// (as opposed to being sent to it).
func (k BlockKind) IsResponse() bool {
	switch k {
	case BlockKindLLMText, BlockKindToolCall, BlockKindReasoning:
		return true
	case BlockKindUser, BlockKindToolUse, BlockKindSystem, BlockKindOther:
		return false
	default:
		return false
	}
}

// Block represents a single atomic unit within a Turn.
type Block struct {
	ID      string         `yaml:"id,omitempty" json:"id,omitempty"`
	Kind    BlockKind      `yaml:"kind" json:"kind"`
	Role    string         `yaml:"role,omitempty" json:"role,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty" json:"payload,omitempty"`
	// Metadata stores arbitrary metadata about the block
	Metadata map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Turn contains an ordered list of Blocks and associated metadata.
type Turn struct {
	ID     string  `yaml:"id,omitempty" json:"id,omitempty"`
	Blocks []Block `yaml:"blocks" json:"blocks"`
	// Metadata stores arbitrary metadata about the turn
	Metadata map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Clone returns a deep copy of the Turn suitable for mutation without affecting the original.
func (t *Turn) Clone() *Turn {
	if t == nil {
		return nil
	}
	return clone.Clone(t).(*Turn)
}

// Run captures the ordered messages exchanged during one agent run.
//
// Each entry of Messages is one model request or one model response, which is
// the unit the trace formatter turns into a span.
type Run struct {
	ID       string         `yaml:"id,omitempty" json:"id,omitempty"`
	Name     string         `yaml:"name,omitempty" json:"name,omitempty"`
	Messages []Turn         `yaml:"messages" json:"messages"`
	Metadata map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// AppendBlock appends a Block to a Turn.
func AppendBlock(t *Turn, b Block) {
	t.Blocks = append(t.Blocks, b)
}

// AppendBlocks appends multiple Blocks in order.
func AppendBlocks(t *Turn, blocks ...Block) {
	for _, b := range blocks {
		AppendBlock(t, b)
	}
}

// PrependBlock inserts a block at the beginning of the Turn's block slice.
func PrependBlock(t *Turn, b Block) {
	if t == nil {
		return
	}
	t.Blocks = append([]Block{b}, t.Blocks...)
}

// FindLastBlocksByKind returns blocks of the requested kinds from the Turn in order.
func FindLastBlocksByKind(t Turn, kinds ...BlockKind) []Block {
	lookup := map[BlockKind]bool{}
	for _, k := range kinds {
		lookup[k] = true
	}
	ret := make([]Block, 0, len(t.Blocks))
	for _, b := range t.Blocks {
		if lookup[b.Kind] {
			ret = append(ret, b)
		}
	}
	return ret
}

// LastAssistantText returns the text of the last llm_text block, if any.
func LastAssistantText(t *Turn) (string, bool) {
	if t == nil {
		return "", false
	}
	for i := len(t.Blocks) - 1; i >= 0; i-- {
		b := t.Blocks[i]
		if b.Kind != BlockKindLLMText {
			continue
		}
		if txt, ok := b.Payload[PayloadKeyText].(string); ok {
			return txt, true
		}
	}
	return "", false
}
