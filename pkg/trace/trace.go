// Package trace turns the recorded messages of an agent run into spans, the
// audit record written next to every plan.
package trace

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/go-go-golems/itinerant/pkg/turns"
)

// ErrUnknownPart is returned for message parts the trace cannot represent.
var ErrUnknownPart = errors.New("unknown message part")

const (
	KindSystemPrompt = "system_prompt"
	KindToolCall     = "tool_call"
	KindText         = "text"
	KindUserInput    = "user_input"
	KindToolReturn   = "tool_return"
)

// Span holds the parts of one request or response message.
type Span struct {
	SpanID   int    `json:"span_id" yaml:"span_id"`
	Messages []Part `json:"messages" yaml:"messages"`
}

// Part is a tagged record: exactly one field is set.
type Part struct {
	SystemPrompt *Content    `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	ToolCall     *ToolCall   `json:"tool_call,omitempty" yaml:"tool_call,omitempty"`
	Text         *Content    `json:"text,omitempty" yaml:"text,omitempty"`
	UserInput    *Content    `json:"user_input,omitempty" yaml:"user_input,omitempty"`
	ToolReturn   *ToolReturn `json:"tool_return,omitempty" yaml:"tool_return,omitempty"`
}

type Content struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

type ToolCall struct {
	Role      string `json:"role" yaml:"role"`
	Name      string `json:"name" yaml:"name"`
	Arguments any    `json:"arguments" yaml:"arguments"`
}

type ToolReturn struct {
	Role    string `json:"role" yaml:"role"`
	Name    string `json:"name" yaml:"name"`
	Content any    `json:"content" yaml:"content"`
}

// Kind returns the tag of the part, or "" when no field or several fields are set.
func (p Part) Kind() string {
	kind := ""
	n := 0
	if p.SystemPrompt != nil {
		kind, n = KindSystemPrompt, n+1
	}
	if p.ToolCall != nil {
		kind, n = KindToolCall, n+1
	}
	if p.Text != nil {
		kind, n = KindText, n+1
	}
	if p.UserInput != nil {
		kind, n = KindUserInput, n+1
	}
	if p.ToolReturn != nil {
		kind, n = KindToolReturn, n+1
	}
	if n != 1 {
		return ""
	}
	return kind
}

// FromMessages converts messages into spans, one per message, with span ids
// counting from 0. A block of any kind without a part representation fails
// the whole conversion.
func FromMessages(messages []turns.Turn) ([]Span, error) {
	spans := make([]Span, 0, len(messages))
	for i, m := range messages {
		span := Span{SpanID: i, Messages: make([]Part, 0, len(m.Blocks))}
		for j, b := range m.Blocks {
			p, err := FromBlock(b)
			if err != nil {
				return nil, errors.Wrapf(err, "span %d, block %d", i, j)
			}
			span.Messages = append(span.Messages, p)
		}
		spans = append(spans, span)
	}
	return spans, nil
}

// FromRun converts the messages of a recorded run.
func FromRun(r *turns.Run) ([]Span, error) {
	if r == nil {
		return []Span{}, nil
	}
	return FromMessages(r.Messages)
}

// FromBlock converts a single block into its part.
func FromBlock(b turns.Block) (Part, error) {
	switch b.Kind {
	case turns.BlockKindSystem:
		return Part{SystemPrompt: &Content{Role: turns.RoleSystem, Content: text(b)}}, nil
	case turns.BlockKindUser:
		return Part{UserInput: &Content{Role: turns.RoleUser, Content: text(b)}}, nil
	case turns.BlockKindLLMText:
		return Part{Text: &Content{Role: turns.RoleAssistant, Content: text(b)}}, nil
	case turns.BlockKindToolCall:
		name, _ := b.Payload[turns.PayloadKeyName].(string)
		return Part{ToolCall: &ToolCall{Role: turns.RoleTool, Name: name, Arguments: b.Payload[turns.PayloadKeyArgs]}}, nil
	case turns.BlockKindToolUse:
		name, _ := b.Payload[turns.PayloadKeyName].(string)
		return Part{ToolReturn: &ToolReturn{Role: turns.RoleTool, Name: name, Content: b.Payload[turns.PayloadKeyResult]}}, nil
	case turns.BlockKindReasoning, turns.BlockKindOther:
		return Part{}, errors.Wrapf(ErrUnknownPart, "block kind %q", b.Kind)
	default:
		return Part{}, errors.Wrapf(ErrUnknownPart, "block kind %q", b.Kind)
	}
}

func text(b turns.Block) string {
	switch v := b.Payload[turns.PayloadKeyText].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
