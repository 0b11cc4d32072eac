package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTopic is the topic run events are published on.
const DefaultTopic = "itinerant.events"

// EventRouter owns an in-process pub/sub and a watermill router that
// dispatches published events to handlers.
type EventRouter struct {
	logger     watermill.LoggerAdapter
	Publisher  message.Publisher
	Subscriber message.Subscriber
	router     *message.Router
	verbose    bool
}

type EventRouterOption func(*EventRouter)

func WithLogger(logger watermill.LoggerAdapter) EventRouterOption {
	return func(r *EventRouter) {
		r.logger = logger
	}
}

func WithVerbose(verbose bool) EventRouterOption {
	return func(r *EventRouter) {
		r.verbose = verbose
		if verbose {
			r.logger = NewWatermillLogger(log.Logger)
		}
	}
}

func NewEventRouter(options ...EventRouterOption) (*EventRouter, error) {
	ret := &EventRouter{
		logger: watermill.NopLogger{},
	}
	for _, o := range options {
		o(ret)
	}

	goPubSub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, ret.logger)
	ret.Publisher = goPubSub
	ret.Subscriber = goPubSub

	router, err := message.NewRouter(message.RouterConfig{}, ret.logger)
	if err != nil {
		return nil, err
	}
	ret.router = router

	return ret, nil
}

// Sink returns an EventSink publishing into this router on topic.
func (e *EventRouter) Sink(topic string) *WatermillSink {
	return NewWatermillSink(e.Publisher, topic)
}

func (e *EventRouter) AddHandler(name string, topic string, f func(msg *message.Message) error) {
	e.router.AddNoPublisherHandler(name, topic, e.Subscriber, f)
}

// LogEvents is a handler that writes every event to the given zerolog logger.
func LogEvents(logger zerolog.Logger) func(msg *message.Message) error {
	return func(msg *message.Message) error {
		ev, err := NewEventFromJson(msg.Payload)
		if err != nil {
			logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("could not decode event")
			return nil
		}
		entry := logger.Info().Str("event", string(ev.Type())).Object("meta", ev.Metadata())
		switch e := ev.(type) {
		case *EventAgentStart:
			entry = entry.Str("task", e.Task)
		case *EventAgentFinal:
			entry = entry.Str("output", e.Output)
		case *EventToolCallExecute:
			entry = entry.Str("tool", e.ToolCall.Name).Str("input", e.ToolCall.Input)
		case *EventToolCallExecutionResult:
			entry = entry.Str("tool", e.ToolResult.Name)
			if e.ToolResult.Error != "" {
				entry = entry.Str("error", e.ToolResult.Error)
			}
		case *EventDelegation:
			entry = entry.Str("delegate", e.Delegation.Agent).Str("query", e.Delegation.Query).
				Bool("success", e.Delegation.Success)
		case *EventError:
			entry = entry.Str("error", e.ErrorString)
		}
		entry.Msg("run event")
		return nil
	}
}

// DumpRawEvents returns a handler printing each event as indented JSON to w.
// Unless the router is verbose, the metadata block is collapsed to its id.
func (e *EventRouter) DumpRawEvents(w io.Writer) func(msg *message.Message) error {
	return func(msg *message.Message) error {
		var s map[string]interface{}
		if err := json.Unmarshal(msg.Payload, &s); err != nil {
			return err
		}
		if !e.verbose {
			if meta, ok := s["meta"].(map[string]interface{}); ok {
				s["id"] = meta["message_id"]
				if agent, ok := meta["agent"]; ok {
					s["agent"] = agent
				}
			}
			delete(s, "meta")
		}
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
}

func (e *EventRouter) Running() chan struct{} {
	return e.router.Running()
}

func (e *EventRouter) Run(ctx context.Context) error {
	return e.router.Run(ctx)
}

func (e *EventRouter) Close() error {
	if err := e.Publisher.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close pubsub")
	}
	if err := e.router.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close router")
	}
	return nil
}
