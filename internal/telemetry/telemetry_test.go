package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailycast/dailycast/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	p, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "dailycast-preflight",
		Enabled:     false,
	})
	require.NoError(t, err)
	require.NotNil(t, p)

	// Disabled telemetry still hands out usable instruments.
	assert.NotNil(t, p.Tracer)
	assert.NotNil(t, p.Meter)
	assert.Nil(t, p.TracerProvider)
	assert.Nil(t, p.MeterProvider)

	counter, err := p.Meter.Int64Counter("preflight.checks")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	assert.NoError(t, p.Shutdown(context.Background()))
}
