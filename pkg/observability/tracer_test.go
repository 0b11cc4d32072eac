package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitGlobalTracer_ExportsSpansToWriter(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	var buf bytes.Buffer
	rt, err := InitGlobalTracer(context.Background(), TracerConfig{Enabled: true, Writer: &buf})
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "agent.run", "agent", "hotel")
	EndSpan(span, errors.New("no hotels"))
	require.NoError(t, rt.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name": "agent.run"`)
	assert.Contains(t, out, "no hotels")
	assert.Contains(t, out, "hotel")
}

func TestInitGlobalTracer_DisabledIsNoop(t *testing.T) {
	rt, err := InitGlobalTracer(context.Background(), TracerConfig{})
	require.NoError(t, err)
	require.NoError(t, rt.Shutdown(context.Background()))
}
