package xref

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
type MetricsCollector interface {
	// RecordProcess is called after each input record. stats.Tracked is false
	// for records that carried no cross-reference signal.
	RecordProcess(stats RecordStats, duration time.Duration)

	// RecordFlush is called after the output has been built and persisted.
	// clusters is the number of canonical records written.
	RecordFlush(clusters int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordProcess(RecordStats, time.Duration) {}
func (NoopMetricsCollector) RecordFlush(int, time.Duration, error)    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	Records         atomic.Int64
	TrackedRecords  atomic.Int64
	IDs             atomic.Int64
	Redirects       atomic.Int64
	PropertyIDs     atomic.Int64
	Skipped         atomic.Int64
	Conflicts       atomic.Int64
	ProcessNanos    atomic.Int64
	FlushCount      atomic.Int64
	FlushErrors     atomic.Int64
	FlushClusters   atomic.Int64
	FlushTotalNanos atomic.Int64
}

// RecordProcess implements MetricsCollector.
func (b *BasicMetricsCollector) RecordProcess(stats RecordStats, duration time.Duration) {
	b.Records.Add(1)
	b.ProcessNanos.Add(duration.Nanoseconds())
	if !stats.Tracked {
		return
	}
	b.TrackedRecords.Add(1)
	b.IDs.Add(int64(stats.IDs))
	b.Redirects.Add(int64(stats.Redirects))
	b.PropertyIDs.Add(int64(stats.PropertyIDs))
	b.Skipped.Add(int64(stats.Skipped))
	b.Conflicts.Add(int64(stats.Conflicts))
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(clusters int, duration time.Duration, err error) {
	b.FlushCount.Add(1)
	b.FlushTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FlushErrors.Add(1)
		return
	}
	b.FlushClusters.Add(int64(clusters))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		Records:         b.Records.Load(),
		TrackedRecords:  b.TrackedRecords.Load(),
		IDs:             b.IDs.Load(),
		Redirects:       b.Redirects.Load(),
		PropertyIDs:     b.PropertyIDs.Load(),
		Skipped:         b.Skipped.Load(),
		Conflicts:       b.Conflicts.Load(),
		ProcessAvgNanos: b.getAvgProcessNanos(),
		FlushCount:      b.FlushCount.Load(),
		FlushErrors:     b.FlushErrors.Load(),
		FlushClusters:   b.FlushClusters.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgProcessNanos() int64 {
	count := b.Records.Load()
	if count == 0 {
		return 0
	}
	return b.ProcessNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Records         int64
	TrackedRecords  int64
	IDs             int64
	Redirects       int64
	PropertyIDs     int64
	Skipped         int64
	Conflicts       int64
	ProcessAvgNanos int64
	FlushCount      int64
	FlushErrors     int64
	FlushClusters   int64
}
