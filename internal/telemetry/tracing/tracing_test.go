package tracing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/2beens/gymfatigue/internal/telemetry/tracing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestEndSpanWithErrCheck(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	_, okSpan := tracer.Start(context.Background(), "ok")
	tracing.EndSpanWithErrCheck(okSpan, nil)
	_, errSpan := tracer.Start(context.Background(), "failed")
	tracing.EndSpanWithErrCheck(errSpan, errors.New("boom"))

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "boom", ended[1].Status().Description)
	assert.Len(t, ended[1].Events(), 1)
}

func TestHoneycombSetup_Disabled(t *testing.T) {
	shutdown, err := tracing.HoneycombSetup(false, "test", nil)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
}
