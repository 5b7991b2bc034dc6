package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestIDs(t *testing.T) {
	tid, sid := IDs(context.Background())
	assert.Empty(t, tid)
	assert.Empty(t, sid)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	tid, sid = IDs(ctx)
	assert.Equal(t, sc.TraceID().String(), tid)
	assert.Equal(t, sc.SpanID().String(), sid)
}

func TestStartEndWithoutProvider(t *testing.T) {
	ctx, span := Start(context.Background(), "op")
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() { End(span, errors.New("boom")) })
}
