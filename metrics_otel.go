package xref

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector reports metrics through OpenTelemetry instruments.
type OTelMetricsCollector struct {
	records   metric.Int64Counter
	ids       metric.Int64Counter
	merges    metric.Int64Counter
	flushes   metric.Int64Counter
	clusters  metric.Int64Counter
	flushTime metric.Float64Histogram
}

// NewOTelMetricsCollector creates the instruments on meter.
//
// Instruments:
//   - xref.records: input records, attribute tracked
//   - xref.ids: identifiers seen, attribute kind (id, redirect, property)
//   - xref.merges.refused: refused merges, attribute outcome (skipped, conflict)
//   - xref.flushes: flushes, attribute error
//   - xref.clusters: canonical records written
//   - xref.flush.duration: flush duration in milliseconds
func NewOTelMetricsCollector(meter metric.Meter) (*OTelMetricsCollector, error) {
	c := &OTelMetricsCollector{}
	var err error
	if c.records, err = meter.Int64Counter("xref.records",
		metric.WithDescription("Input records processed"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	if c.ids, err = meter.Int64Counter("xref.ids",
		metric.WithDescription("Identifiers folded into the cross reference"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	if c.merges, err = meter.Int64Counter("xref.merges.refused",
		metric.WithDescription("Merges refused by the cross reference"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	if c.flushes, err = meter.Int64Counter("xref.flushes",
		metric.WithDescription("Output flushes"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	if c.clusters, err = meter.Int64Counter("xref.clusters",
		metric.WithDescription("Canonical records written"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	if c.flushTime, err = meter.Float64Histogram("xref.flush.duration",
		metric.WithDescription("Flush duration in milliseconds"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return c, nil
}

// RecordProcess implements MetricsCollector.
func (c *OTelMetricsCollector) RecordProcess(stats RecordStats, _ time.Duration) {
	ctx := context.Background()
	c.records.Add(ctx, 1, metric.WithAttributes(attribute.Bool("tracked", stats.Tracked)))
	if !stats.Tracked {
		return
	}
	c.addKind(ctx, c.ids, "kind", "id", stats.IDs)
	c.addKind(ctx, c.ids, "kind", "redirect", stats.Redirects)
	c.addKind(ctx, c.ids, "kind", "property", stats.PropertyIDs)
	c.addKind(ctx, c.merges, "outcome", "skipped", stats.Skipped)
	c.addKind(ctx, c.merges, "outcome", "conflict", stats.Conflicts)
}

func (c *OTelMetricsCollector) addKind(ctx context.Context, counter metric.Int64Counter, key, value string, n int) {
	if n == 0 {
		return
	}
	counter.Add(ctx, int64(n), metric.WithAttributes(attribute.String(key, value)))
}

// RecordFlush implements MetricsCollector.
func (c *OTelMetricsCollector) RecordFlush(clusters int, duration time.Duration, err error) {
	ctx := context.Background()
	c.flushes.Add(ctx, 1, metric.WithAttributes(attribute.Bool("error", err != nil)))
	c.flushTime.Record(ctx, float64(duration.Microseconds())/1000)
	if err == nil {
		c.clusters.Add(ctx, int64(clusters))
	}
}
