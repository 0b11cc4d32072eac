package observability

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "github.com/go-go-golems/itinerant"

type TracerConfig struct {
	Enabled     bool      `yaml:"enabled"`
	ServiceName string    `yaml:"service_name"`
	Writer      io.Writer `yaml:"-"`
}

// Runtime holds the configured tracer provider and its shutdown hook.
type Runtime struct {
	Provider trace.TracerProvider
	Shutdown func(context.Context) error
}

// InitGlobalTracer installs a tracer provider exporting spans to cfg.Writer
// (stderr by default). When tracing is disabled the global no-op provider is kept.
func InitGlobalTracer(ctx context.Context, cfg TracerConfig) (Runtime, error) {
	noop := Runtime{
		Provider: otel.GetTracerProvider(),
		Shutdown: func(context.Context) error { return nil },
	}
	if !cfg.Enabled {
		return noop, nil
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return Runtime{}, errors.Wrap(err, "otel stdout exporter")
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "itinerant"
	}
	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", serviceName)))
	if err != nil {
		return Runtime{}, errors.Wrap(err, "otel resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return Runtime{Provider: tp, Shutdown: tp.Shutdown}, nil
}

// Tracer returns the package tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartSpan starts a span named name with string attributes given as key/value pairs.
func StartSpan(ctx context.Context, name string, kv ...string) (context.Context, trace.Span) {
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, attribute.String(kv[i], kv[i+1]))
	}
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
