package xref

import (
	"log/slog"

	"github.com/hupe1980/xref/codec"
	"github.com/hupe1980/xref/recordio"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type options struct {
	codec            codec.Codec
	logger           *Logger
	metricsCollector MetricsCollector
	tracer           trace.Tracer
	snapshot         bool
	workers          int
	queueSize        int
	limit            int64
	memoryLimit      int64
	ioLimit          int64
	compression      recordio.Compression
	strictPrimaryIDs bool
	skipSingletons   bool
}

// Option configures a Builder or a Mapping.
type Option func(*options)

// WithCodec configures the codec used for frames inside record files.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := xref.NewJSONLogger(slog.LevelInfo)
//	b := xref.NewBuilder(xref.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithTracer configures the tracer for build phases.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithSnapshot writes a fast-load snapshot next to the output on Flush.
func WithSnapshot(enabled bool) Option {
	return func(o *options) {
		o.snapshot = enabled
	}
}

// WithWorkers sets the number of ingestion workers. Values below 1 use one
// worker.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithQueueSize sets the capacity of the channel between the record reader
// and the workers.
func WithQueueSize(n int) Option {
	return func(o *options) {
		o.queueSize = n
	}
}

// WithLimit caps the number of input records read. A negative limit means
// unlimited.
func WithLimit(n int64) Option {
	return func(o *options) {
		o.limit = n
	}
}

// WithMemoryLimit bounds the bytes of records queued between the reader and
// the workers. 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit bounds input read throughput in bytes per second. 0 means
// unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithCompression sets the value compression of the output record file.
func WithCompression(c recordio.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithStrictPrimaryIDs refuses to merge two unpinned clusters that both hold
// a primary (non-redirect) id. Refused merges are counted as conflicts.
func WithStrictPrimaryIDs(strict bool) Option {
	return func(o *options) {
		o.strictPrimaryIDs = strict
	}
}

// WithSkipSingletons leaves clusters with a single identifier out of the
// output.
func WithSkipSingletons(skip bool) Option {
	return func(o *options) {
		o.skipSingletons = skip
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		tracer:           noop.NewTracerProvider().Tracer(""),
		workers:          1,
		queueSize:        1024,
		limit:            -1,
		compression:      recordio.CompressionNone,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}
