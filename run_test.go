package xref

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/xref/blobstore"
	"github.com/hupe1980/xref/codec"
	"github.com/hupe1980/xref/frame"
	"github.com/hupe1980/xref/recordio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"
)

func putFrames(t *testing.T, store blobstore.BlobStore, name string, frames ...*frame.Frame) {
	t.Helper()
	var buf bytes.Buffer
	w, err := recordio.NewWriter(&buf, recordio.Options{Compression: recordio.CompressionLZ4})
	require.NoError(t, err)
	enc := frame.NewEncoder(w, codec.Default)
	for _, f := range frames {
		require.NoError(t, enc.Encode(f))
	}
	require.NoError(t, w.Close())
	require.NoError(t, store.Put(context.Background(), name, buf.Bytes()))
}

func setupTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider, exporter
}

func spanByName(exporter *tracetest.InMemoryExporter, name string) (tracetest.SpanStub, bool) {
	for _, s := range exporter.GetSpans() {
		if s.Name == name {
			return s, true
		}
	}
	return tracetest.SpanStub{}, false
}

func TestRun_EndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	// Q0..Q99 chain through a shared catalog value per pair.
	var a, b []*frame.Frame
	for i := 0; i < 100; i += 2 {
		a = append(a, item(fmt.Sprintf("Q%d", i)).Add("catalog", frame.String(fmt.Sprint(i))))
		b = append(b, item(fmt.Sprintf("Q%d", i+1)).Add("catalog", frame.String(fmt.Sprint(i))))
	}
	a = append(a, item("Q1000")) // no signal
	putFrames(t, store, "in/a.rec", a...)
	putFrames(t, store, "in/b.rec", b...)

	provider, exporter := setupTestTracer(t)
	metrics := &BasicMetricsCollector{}
	builder := newStartedBuilder(t, testConfig(),
		WithWorkers(4),
		WithQueueSize(8),
		WithMemoryLimit(1<<20),
		WithTracer(provider.Tracer("xref")),
		WithMetricsCollector(metrics),
	)
	require.NoError(t, builder.Run(ctx, store, "in/a.rec", "in/b.rec"))
	require.NoError(t, builder.Flush(ctx, store, "out/xrefs.rec"))

	counters := builder.Counters()
	assert.Equal(t, int64(101), counters["records_read"])
	assert.Equal(t, int64(100), counters[CounterTracked])
	assert.Equal(t, int64(100), counters[CounterPropertyIDs])

	m, err := LoadMapping(ctx, store, "out/xrefs.rec")
	require.NoError(t, err)
	assert.Equal(t, 50, m.Len())
	for i := 0; i < 100; i += 2 {
		want := fmt.Sprintf("Q%d", i)
		got, ok := m.Lookup(fmt.Sprintf("Q%d", i+1))
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := m.Lookup("Q1000")
	assert.False(t, ok, "records without signal create no identifiers")

	stats := metrics.GetStats()
	assert.Equal(t, int64(101), stats.Records)
	assert.Equal(t, int64(100), stats.TrackedRecords)
	assert.Equal(t, int64(1), stats.FlushCount)
	assert.Equal(t, int64(50), stats.FlushClusters)

	for _, name := range []string{"xref.run", "xref.build", "xref.flush"} {
		_, ok := spanByName(exporter, name)
		assert.True(t, ok, name)
	}
}

func TestRun_Limit(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	putFrames(t, store, "a.rec", item("Q1", "Q2"), item("Q3", "Q4"), item("Q5", "Q6"))

	b := newStartedBuilder(t, testConfig(), WithLimit(2), WithWorkers(2))
	require.NoError(t, b.Run(ctx, store, "a.rec"))
	assert.Equal(t, int64(2), b.Counters()[CounterTracked])
}

func TestRun_ReadErrorIsFatal(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	putFrames(t, store, "a.rec", item("Q1", "Q2"))

	provider, exporter := setupTestTracer(t)
	b := newStartedBuilder(t, testConfig(), WithTracer(provider.Tracer("xref")))
	err := b.Run(ctx, store, "a.rec", "missing.rec")

	var re *ReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "missing.rec", re.File)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	span, ok := spanByName(exporter, "xref.run")
	require.True(t, ok)
	assert.Equal(t, codes.Error, span.Status.Code)
}

func TestRun_DecodeErrorIsFatal(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	var buf bytes.Buffer
	w, err := recordio.NewWriter(&buf, recordio.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, w.Append([]byte("Q1"), 0, []byte("{not json")))
	require.NoError(t, w.Close())
	require.NoError(t, store.Put(ctx, "bad.rec", buf.Bytes()))

	b := newStartedBuilder(t, testConfig())
	err = b.Run(ctx, store, "bad.rec")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `decode record "Q1"`)
}

func TestFlush_FailedWriteLeavesNoOutput(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	metrics := &BasicMetricsCollector{}

	b := newStartedBuilder(t, testConfig(), WithMetricsCollector(metrics), WithCompression(recordio.Compression(9)))
	process(t, b, item("Q1", "Q2"))

	err := b.Flush(ctx, store, "xrefs.rec")
	assert.ErrorIs(t, err, recordio.ErrUnknownCompression)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Equal(t, int64(1), metrics.GetStats().FlushErrors)
}
