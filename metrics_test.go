package xref

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/xref/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}
	m.RecordProcess(RecordStats{}, time.Millisecond)
	m.RecordProcess(RecordStats{Tracked: true, IDs: 2, Redirects: 1, PropertyIDs: 3, Skipped: 1, Conflicts: 2}, 3*time.Millisecond)
	m.RecordFlush(7, time.Second, nil)
	m.RecordFlush(0, time.Second, errors.New("disk full"))

	assert.Equal(t, BasicMetricsStats{
		Records:         2,
		TrackedRecords:  1,
		IDs:             2,
		Redirects:       1,
		PropertyIDs:     3,
		Skipped:         1,
		Conflicts:       2,
		ProcessAvgNanos: (2 * time.Millisecond).Nanoseconds(),
		FlushCount:      2,
		FlushErrors:     1,
		FlushClusters:   7,
	}, m.GetStats())
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	want := attribute.NewSet(attrs...)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, name)
			for _, dp := range sum.DataPoints {
				if dp.Attributes.Equals(&want) {
					return dp.Value
				}
			}
		}
	}
	return 0
}

func TestOTelMetricsCollector(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	collector, err := NewOTelMetricsCollector(provider.Meter("xref"))
	require.NoError(t, err)

	b := newStartedBuilder(t, testConfig(), WithMetricsCollector(collector), WithStrictPrimaryIDs(true))
	process(t, b,
		item("Q1"),
		item("Q1", "Q2"),
		item("Q3").Add("P214", frame.String("1")),
	)
	_, err = b.Build(context.Background())
	require.NoError(t, err)
	collector.RecordFlush(3, time.Millisecond, nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	assert.Equal(t, int64(1), sumOf(t, rm, "xref.records", attribute.Bool("tracked", false)))
	assert.Equal(t, int64(2), sumOf(t, rm, "xref.records", attribute.Bool("tracked", true)))
	assert.Equal(t, int64(3), sumOf(t, rm, "xref.ids", attribute.String("kind", "id")))
	assert.Equal(t, int64(1), sumOf(t, rm, "xref.ids", attribute.String("kind", "property")))
	assert.Equal(t, int64(1), sumOf(t, rm, "xref.merges.refused", attribute.String("outcome", "conflict")))
	assert.Equal(t, int64(3), sumOf(t, rm, "xref.clusters"))
}
