package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ca-srg/kwsearch/internal/types"
)

func TestObserveRuns(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
		otel.SetMeterProvider(prev)
	})

	store, _ := newTestStore(t)
	ctx := context.Background()
	_, err := store.Record(ctx, &types.RunRecord{Directory: "/d", Strategy: types.StrategyProcess, Workers: 2})
	require.NoError(t, err)

	reg, err := store.ObserveRuns()
	require.NoError(t, err)
	defer func() { _ = reg.Unregister() }()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "kwsearch.runs.total" {
				continue
			}
			gauge, ok := m.Data.(metricdata.Gauge[int64])
			require.True(t, ok)
			for _, dp := range gauge.DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key("strategy"))
				got[v.AsString()] = dp.Value
			}
		}
	}

	assert.Equal(t, map[string]int64{"thread": 0, "process": 1}, got)
}
