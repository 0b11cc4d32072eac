package events

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ctxKey is an unexported type for keys defined in this package.
type ctxKey int

const (
	ctxKeyEventSinks ctxKey = iota
	ctxKeyMetadata
)

// EventSink receives events published during a run.
type EventSink interface {
	PublishEvent(event Event) error
}

// WithEventSinks attaches one or more EventSink instances to the context.
// Downstream code can retrieve the sinks and publish events without
// requiring access to engine configuration.
func WithEventSinks(ctx context.Context, sinks ...EventSink) context.Context {
	if len(sinks) == 0 {
		return ctx
	}
	existing := GetEventSinks(ctx)
	combined := append([]EventSink{}, existing...)
	combined = append(combined, sinks...)
	return context.WithValue(ctx, ctxKeyEventSinks, combined)
}

// GetEventSinks returns the list of EventSinks attached to the context.
func GetEventSinks(ctx context.Context) []EventSink {
	if v := ctx.Value(ctxKeyEventSinks); v != nil {
		if sinks, ok := v.([]EventSink); ok {
			return sinks
		}
	}
	return nil
}

// WithMetadata stores the metadata template used by MetadataFromContext.
// Empty fields of metadata inherit the values already stored in ctx.
func WithMetadata(ctx context.Context, metadata EventMetadata) context.Context {
	parent := MetadataFromContext(ctx)
	if metadata.RunID == "" {
		metadata.RunID = parent.RunID
	}
	if metadata.Agent == "" {
		metadata.Agent = parent.Agent
	}
	if metadata.Model == "" {
		metadata.Model = parent.Model
	}
	return context.WithValue(ctx, ctxKeyMetadata, metadata)
}

// MetadataFromContext returns the metadata template of ctx. IDs and times are
// filled in when the event is constructed.
func MetadataFromContext(ctx context.Context) EventMetadata {
	if ctx == nil {
		return EventMetadata{}
	}
	if md, ok := ctx.Value(ctxKeyMetadata).(EventMetadata); ok {
		return md
	}
	return EventMetadata{}
}

// PublishEventToContext publishes the provided event to all EventSinks stored in the context.
// If no sinks are present, this is a no-op.
func PublishEventToContext(ctx context.Context, event Event) {
	sinks := GetEventSinks(ctx)
	if len(sinks) == 0 {
		return
	}
	for _, sink := range sinks {
		if err := sink.PublishEvent(event); err != nil {
			log.Debug().Err(err).Str("event_type", string(event.Type())).Msg("event sink failed")
		}
	}
}
