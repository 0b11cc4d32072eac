package turns

import "fmt"

// SplitMessages groups the blocks of a Turn into alternating request and
// response messages, in order.
//
// Contiguous system, user and tool_use blocks form one request message;
// contiguous llm_text, tool_call and reasoning blocks form one response
// message. Blocks of any other kind stay in the message they appear in so that
// downstream consumers can reject them.
func SplitMessages(t *Turn) []Turn {
	if t == nil || len(t.Blocks) == 0 {
		return nil
	}

	var out []Turn
	var current *Turn
	currentSide := ""
	for _, b := range t.Blocks {
		side := currentSide
		switch {
		case b.Kind.IsResponse():
			side = MessageResponse
		case b.Kind == BlockKindSystem, b.Kind == BlockKindUser, b.Kind == BlockKindToolUse:
			side = MessageRequest
		}
		if side == "" {
			side = MessageRequest
		}
		if current == nil || side != currentSide {
			out = append(out, Turn{
				ID: fmt.Sprintf("%s/%d", t.ID, len(out)),
				Metadata: map[string]any{
					MetaKeyMessage: side,
				},
			})
			current = &out[len(out)-1]
			currentSide = side
		}
		AppendBlock(current, b)
	}
	return out
}

// NewRun wraps the messages of a finished Turn into a Run.
func NewRun(id string, name string, t *Turn) *Run {
	r := &Run{ID: id, Name: name, Messages: SplitMessages(t)}
	if t != nil && len(t.Metadata) > 0 {
		r.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			r.Metadata[k] = v
		}
	}
	return r
}
