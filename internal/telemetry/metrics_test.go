package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.ConnectionOpened(ctx)
		m.RoomOpened(ctx)
		m.RoundStarted(ctx, "1")
		m.SendDropped(ctx)
		m.GameCompleted(ctx, "1")
	})
}

func TestMetricsRecords(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	m, err := NewMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RoundStarted(ctx, "1")
	m.RoundStarted(ctx, "1")
	m.SendDropped(ctx)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[md.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), totals["drawsync.rounds.started"])
	assert.Equal(t, int64(1), totals["drawsync.sends.dropped"])
}
