package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type EventType string

const (
	EventTypeAgentStart EventType = "agent-start"
	EventTypeAgentFinal EventType = "agent-final"

	// Execution-phase events (we are actually executing tools locally)
	EventTypeToolCallExecute         EventType = "tool-call-execute"
	EventTypeToolCallExecutionResult EventType = "tool-call-execution-result"

	EventTypeDelegationStart  EventType = "delegation-start"
	EventTypeDelegationResult EventType = "delegation-result"

	EventTypeError EventType = "error"
)

type Event interface {
	Type() EventType
	Metadata() EventMetadata
}

// EventMetadata identifies where an event originated.
type EventMetadata struct {
	ID    uuid.UUID `json:"message_id" yaml:"message_id"`
	RunID string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Agent string    `json:"agent,omitempty" yaml:"agent,omitempty"`
	Model string    `json:"model,omitempty" yaml:"model,omitempty"`
	Time  time.Time `json:"time" yaml:"time"`
}

func (em EventMetadata) MarshalZerologObject(e *zerolog.Event) {
	e.Str("message_id", em.ID.String())
	if em.RunID != "" {
		e.Str("run_id", em.RunID)
	}
	if em.Agent != "" {
		e.Str("agent", em.Agent)
	}
	if em.Model != "" {
		e.Str("model", em.Model)
	}
}

type EventImpl struct {
	Type_     EventType     `json:"type"`
	Metadata_ EventMetadata `json:"meta"`
}

func (e *EventImpl) Type() EventType {
	return e.Type_
}

func (e *EventImpl) Metadata() EventMetadata {
	return e.Metadata_
}

func newImpl(t EventType, metadata EventMetadata) EventImpl {
	if metadata.ID == uuid.Nil {
		metadata.ID = uuid.New()
	}
	if metadata.Time.IsZero() {
		metadata.Time = time.Now()
	}
	return EventImpl{Type_: t, Metadata_: metadata}
}

type EventAgentStart struct {
	EventImpl
	Task string `json:"task"`
}

func NewAgentStartEvent(metadata EventMetadata, task string) *EventAgentStart {
	return &EventAgentStart{EventImpl: newImpl(EventTypeAgentStart, metadata), Task: task}
}

type EventAgentFinal struct {
	EventImpl
	Text string `json:"text,omitempty"`
	// Output names the output tool that ended the run, if any.
	Output string `json:"output,omitempty"`
}

func NewAgentFinalEvent(metadata EventMetadata, text string, output string) *EventAgentFinal {
	return &EventAgentFinal{EventImpl: newImpl(EventTypeAgentFinal, metadata), Text: text, Output: output}
}

type ToolCall struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Input string `json:"input"`
}

type EventToolCallExecute struct {
	EventImpl
	ToolCall ToolCall `json:"tool_call"`
}

func NewToolCallExecuteEvent(metadata EventMetadata, toolCall ToolCall) *EventToolCallExecute {
	return &EventToolCallExecute{EventImpl: newImpl(EventTypeToolCallExecute, metadata), ToolCall: toolCall}
}

type ToolResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

type EventToolCallExecutionResult struct {
	EventImpl
	ToolResult ToolResult `json:"tool_result"`
}

func NewToolCallExecutionResultEvent(metadata EventMetadata, toolResult ToolResult) *EventToolCallExecutionResult {
	return &EventToolCallExecutionResult{EventImpl: newImpl(EventTypeToolCallExecutionResult, metadata), ToolResult: toolResult}
}

type Delegation struct {
	Agent   string `json:"agent"`
	Query   string `json:"query"`
	Task    string `json:"task,omitempty"`
	Success bool   `json:"success"`
}

type EventDelegation struct {
	EventImpl
	Delegation Delegation `json:"delegation"`
}

func NewDelegationStartEvent(metadata EventMetadata, d Delegation) *EventDelegation {
	return &EventDelegation{EventImpl: newImpl(EventTypeDelegationStart, metadata), Delegation: d}
}

func NewDelegationResultEvent(metadata EventMetadata, d Delegation) *EventDelegation {
	return &EventDelegation{EventImpl: newImpl(EventTypeDelegationResult, metadata), Delegation: d}
}

type EventError struct {
	EventImpl
	ErrorString string `json:"error_string"`
}

func NewErrorEvent(metadata EventMetadata, err error) *EventError {
	return &EventError{EventImpl: newImpl(EventTypeError, metadata), ErrorString: err.Error()}
}

var (
	_ Event = &EventAgentStart{}
	_ Event = &EventAgentFinal{}
	_ Event = &EventToolCallExecute{}
	_ Event = &EventToolCallExecutionResult{}
	_ Event = &EventDelegation{}
	_ Event = &EventError{}
)

// NewEventFromJson decodes an event serialized by a sink back into its concrete type.
func NewEventFromJson(b []byte) (Event, error) {
	var impl EventImpl
	if err := json.Unmarshal(b, &impl); err != nil {
		return nil, errors.Wrap(err, "decode event header")
	}

	var ev Event
	switch impl.Type_ {
	case EventTypeAgentStart:
		ev = &EventAgentStart{}
	case EventTypeAgentFinal:
		ev = &EventAgentFinal{}
	case EventTypeToolCallExecute:
		ev = &EventToolCallExecute{}
	case EventTypeToolCallExecutionResult:
		ev = &EventToolCallExecutionResult{}
	case EventTypeDelegationStart, EventTypeDelegationResult:
		ev = &EventDelegation{}
	case EventTypeError:
		ev = &EventError{}
	default:
		return nil, errors.Errorf("unknown event type: %s", impl.Type_)
	}
	if err := json.Unmarshal(b, ev); err != nil {
		return nil, errors.Wrapf(err, "decode %s event", impl.Type_)
	}
	return ev, nil
}
