package xref

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"github.com/hupe1980/xref/blobstore"
	"github.com/hupe1980/xref/frame"
	ixref "github.com/hupe1980/xref/internal/xref"
	"github.com/hupe1980/xref/recordio"
	"github.com/hupe1980/xref/snapshot"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SnapshotSuffix is appended to the output name for the snapshot blob.
const SnapshotSuffix = ".snap"

// SyntheticPrefix starts canonical ids of clusters without a bare id.
const SyntheticPrefix = "xref:"

// syntheticNamespace seeds the name-based UUIDs of synthetic canonical ids.
var syntheticNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("xref"))

type member struct {
	key      ixref.Key
	redirect bool
}

func (m member) less(o member) bool {
	if pa, pb := m.key.Priority(), o.key.Priority(); pa != pb {
		return pa < pb
	}
	if m.redirect != o.redirect {
		return !m.redirect
	}
	return m.key.Value < o.key.Value
}

// Build runs the output pass: one canonical frame per cluster followed by the
// mnemonics frame. It marks the builder flushed; Process fails afterwards.
//
// Clusters are emitted in canonical id order, so the output does not depend
// on the order records were processed in. Members are ordered by property
// priority, primary ids before redirects, then by value.
func (b *Builder) Build(ctx context.Context) (*frame.Store, error) {
	_, span := b.opts.tracer.Start(ctx, "xref.build")
	defer span.End()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flushed {
		return nil, ErrFlushed
	}
	b.flushed = true

	var frames []*frame.Frame
	_ = b.ids.ForEachCluster(func(_ ixref.Handle, handles *roaring.Bitmap) error {
		if b.opts.skipSingletons && handles.GetCardinality() == 1 {
			return nil
		}
		frames = append(frames, b.canonicalFrame(handles))
		return nil
	})
	// Canonical ids are unique: bare ids name one node each and synthetic
	// ids are derived from a member key.
	sort.Slice(frames, func(i, j int) bool { return frames[i].ID() < frames[j].ID() })

	out := frame.NewStore()
	out.AllocateSymbolTable(b.ids.Len() + 2*len(b.mnemonics) + 1)
	for _, f := range frames {
		if err := out.Add(f); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}
	clusters := out.Len()

	if len(b.mnemonics) > 0 {
		f := frame.New().AddID(frame.MnemonicsID)
		for _, m := range b.mnemonics {
			f.Add(m.Name, frame.String(m.Property))
		}
		if err := out.Add(f); err != nil {
			return nil, err
		}
	}

	out.GC()

	span.SetAttributes(
		attribute.Int("xref.clusters", clusters),
		attribute.Int("xref.symbols", len(out.Symbols())),
	)
	return out, nil
}

func (b *Builder) canonicalFrame(handles *roaring.Bitmap) *frame.Frame {
	members := make([]member, 0, handles.GetCardinality())
	it := handles.Iterator()
	for it.HasNext() {
		h := ixref.Handle(it.Next())
		members = append(members, member{key: b.ids.Key(h), redirect: b.ids.Redirect(h)})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].less(members[j]) })

	canonical := canonicalID(members)
	f := frame.New().AddID(canonical)
	for _, m := range members {
		if id := m.key.String(); id != canonical {
			f.AddID(id)
		}
	}
	return f
}

// canonicalID picks the representative of a sorted cluster: the first primary
// bare id, else the first redirect bare id, else a synthetic id derived from
// the highest-priority key.
func canonicalID(members []member) string {
	for _, m := range members {
		if m.key.IsBare() && !m.redirect {
			return m.key.Value
		}
	}
	for _, m := range members {
		if m.key.IsBare() {
			return m.key.Value
		}
	}
	return SyntheticPrefix + uuid.NewSHA1(syntheticNamespace, []byte(members[0].key.String())).String()
}

// Flush builds the output and persists it as the record file output in store.
// With WithSnapshot the snapshot is written to output+SnapshotSuffix.
//
// A failed write leaves no partial blob behind.
func (b *Builder) Flush(ctx context.Context, store blobstore.BlobStore, output string) (err error) {
	ctx, span := b.opts.tracer.Start(ctx, "xref.flush")
	start := time.Now()
	clusters := 0
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		b.opts.metricsCollector.RecordFlush(clusters, time.Since(start), err)
	}()

	out, err := b.Build(ctx)
	if err != nil {
		b.opts.logger.LogFlush(ctx, output, 0, 0, err)
		return err
	}
	clusters = out.Len()
	if len(b.mnemonics) > 0 {
		clusters--
	}

	if err := b.writeRecords(ctx, store, output, out); err != nil {
		b.opts.logger.LogFlush(ctx, output, 0, 0, err)
		return err
	}
	if b.opts.snapshot {
		if err := b.writeSnapshot(ctx, store, output+SnapshotSuffix, out); err != nil {
			b.opts.logger.LogFlush(ctx, output, 0, 0, err)
			return err
		}
	}

	b.opts.logger.LogFlush(ctx, output, clusters, len(out.Symbols()), nil)
	b.opts.logger.LogCounters(ctx, b.Counters())
	return nil
}

func (b *Builder) writeRecords(ctx context.Context, store blobstore.BlobStore, name string, out *frame.Store) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	rw, err := recordio.NewWriter(w, recordio.Options{Compression: b.opts.compression})
	if err != nil {
		return errors.Join(fmt.Errorf("write %s: %w", name, err), blobstore.Abort(w))
	}
	if err := frame.NewEncoder(rw, b.opts.codec).EncodeStore(out); err != nil {
		return errors.Join(fmt.Errorf("encode %s: %w", name, err), blobstore.Abort(w))
	}
	if err := rw.Flush(); err != nil {
		return errors.Join(fmt.Errorf("write %s: %w", name, err), blobstore.Abort(w))
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}

func (b *Builder) writeSnapshot(ctx context.Context, store blobstore.BlobStore, name string, out *frame.Store) error {
	_, span := b.opts.tracer.Start(ctx, "xref.snapshot")
	defer span.End()

	w, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := snapshot.Write(w, out); err != nil {
		return errors.Join(fmt.Errorf("snapshot %s: %w", name, err), blobstore.Abort(w))
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}
