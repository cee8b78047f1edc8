package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupWithoutExporters(t *testing.T) {
	ctx := context.Background()

	err := Setup(ctx, "odpn-test", config{})
	require.NoError(t, err)
	require.NotNil(t, tracerProvider)
	require.NotNil(t, meterProvider)

	_, span := otel.Tracer("test").Start(ctx, "span")
	span.End()

	require.NoError(t, Shutdown(ctx))
	require.Nil(t, tracerProvider)
	require.Nil(t, meterProvider)

	// a second shutdown has nothing left to stop
	require.NoError(t, Shutdown(ctx))
}
