package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"syncauth/internal/auth/tracer"
)

func TestNoopTracer_Start(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanAuthorizeKey,
		tracer.String(tracer.AttrAddress, "203.0.113.7"),
		tracer.Bool(tracer.AttrSuccess, true),
	)

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.String("another", "attr"))
	span.AddEvent(tracer.EventGuardRejected, tracer.Int64("count", 42))
	span.End(errors.New("boom"))
}

func TestOTelTracer_WithInjectedProvider(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), tracer.SpanAuthorizeLinked,
		tracer.String(tracer.AttrPrimaryUID, "P1"),
		tracer.Float64("ratio", 0.5),
		tracer.Duration("latency", 150*time.Millisecond),
	)
	require.NotNil(t, ctx)
	require.NotPanics(t, func() {
		span.SetAttributes(tracer.Bool(tracer.AttrTempBlocked, false))
		span.AddEvent(tracer.EventFailureRecord)
		span.End(errors.New("registry unavailable"))
	})
}

func TestHashCredential(t *testing.T) {
	assert.Empty(t, tracer.HashCredential(""))
	assert.Len(t, tracer.HashCredential("abc"), 16)
	assert.Equal(t, tracer.HashCredential("abc"), tracer.HashCredential("abc"))
	assert.NotEqual(t, tracer.HashCredential("abc"), tracer.HashCredential("abd"))
}

func TestDurationAttributeIsMilliseconds(t *testing.T) {
	attr := tracer.Duration("latency", 150*time.Millisecond)
	assert.Equal(t, "latency", attr.Key)
	assert.Equal(t, int64(150), attr.Value)
}
