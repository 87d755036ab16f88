package xref

import (
	"context"

	"github.com/hupe1980/xref/blobstore"
	"github.com/hupe1980/xref/internal/resource"
	"github.com/hupe1980/xref/internal/task"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Run reads every record of inputs from store, in order, and processes them
// with the configured number of workers. Records are frames encoded with the
// configured codec.
//
// A read or decode failure is fatal and stops the run; merge conflicts are
// not. Run does not flush.
func (b *Builder) Run(ctx context.Context, store blobstore.BlobStore, inputs ...string) error {
	ctx, span := b.opts.tracer.Start(ctx, "xref.run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("xref.inputs", len(inputs)),
		attribute.Int("xref.workers", b.opts.workers),
	)

	rc := resource.NewController(resource.Config{
		MaxWorkers:         int64(b.opts.workers),
		MemoryLimitBytes:   b.opts.memoryLimit,
		IOLimitBytesPerSec: b.opts.ioLimit,
	})
	reader := task.NewRecordFileReader(store, inputs...)
	reader.Limit = b.opts.limit
	reader.Resources = rc
	reader.Counters = b.counters

	if err := task.Run(ctx, reader, rc, b.opts.queueSize, b.ProcessMessage); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int64("xref.records", b.counters.Get(task.CounterRecordsRead).Value()))
	return nil
}
