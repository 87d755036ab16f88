package xref

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/xref/frame"
	"github.com/hupe1980/xref/internal/task"
	ixref "github.com/hupe1980/xref/internal/xref"
)

// RecordStats describes what one input record contributed.
type RecordStats struct {
	// Tracked is set when the record carried a cross-reference signal: two or
	// more ids, a redirect, or a tracked property.
	Tracked     bool
	IDs         int
	Redirects   int
	PropertyIDs int
	Skipped     int
	Conflicts   int
}

// Process folds the identifiers of one record into the cross reference.
//
// Records with fewer than two ids, no redirect and no tracked property are
// dropped without taking the lock. Refused merges never fail the record; they
// are counted as skips when a pinned cluster is involved and as conflicts
// otherwise.
func (b *Builder) Process(ctx context.Context, f *frame.Frame) (RecordStats, error) {
	return b.process(ctx, f, "")
}

// ProcessMessage decodes a record file message into a frame and processes it.
// Refused merges are logged with the record key.
func (b *Builder) ProcessMessage(ctx context.Context, msg *task.Message) error {
	f, err := frame.Unmarshal(b.opts.codec, msg.Value)
	if err != nil {
		return fmt.Errorf("decode record %q: %w", msg.Key, err)
	}
	_, err = b.process(ctx, f, string(msg.Key))
	return err
}

// process folds f; record names the input record in log output and defaults
// to the frame id.
func (b *Builder) process(ctx context.Context, f *frame.Frame, record string) (RecordStats, error) {
	var st RecordStats
	if !b.started.Load() {
		return st, ErrNotStarted
	}
	start := time.Now()
	if !b.signal(f) {
		b.opts.metricsCollector.RecordProcess(st, time.Since(start))
		return st, nil
	}

	b.mu.Lock()
	if b.flushed {
		b.mu.Unlock()
		return st, ErrFlushed
	}
	st.Tracked = true
	if record == "" {
		record = f.ID()
	}
	b.fold(ctx, f, record, &st)
	b.mu.Unlock()

	b.count(st)
	b.opts.metricsCollector.RecordProcess(st, time.Since(start))
	return st, nil
}

// signal reports whether f has at least two ids, a redirect or a tracked
// property. The registry is read-only after Startup, so no lock is needed.
func (b *Builder) signal(f *frame.Frame) bool {
	ids := 0
	for _, s := range f.Slots {
		switch s.Name {
		case frame.SlotID:
			ids++
		case frame.SlotIs:
			return true
		case frame.SlotIsA:
		default:
			if _, ok := b.registry.Lookup(s.Name); ok {
				return true
			}
		}
	}
	return ids >= 2
}

// fold merges every identifier of f into one anchor. Callers hold b.mu.
func (b *Builder) fold(ctx context.Context, f *frame.Frame, record string, st *RecordStats) {
	redirect := false
	for _, s := range f.Slots {
		if s.Name == frame.SlotIs {
			redirect = true
			break
		}
	}

	anchor := ixref.NoHandle
	for _, s := range f.Slots {
		switch s.Name {
		case frame.SlotID:
			st.IDs++
			text, _ := s.Value.Text()
			h := b.identifier(text)
			if h != ixref.NoHandle && redirect {
				b.ids.MarkRedirect(h)
			}
			anchor = b.merge(ctx, record, anchor, h, st)
		case frame.SlotIs:
			st.Redirects++
			text, _ := frame.Resolve(s.Value).Text()
			anchor = b.merge(ctx, record, anchor, b.identifier(text), st)
		case frame.SlotIsA:
		default:
			p, ok := b.registry.Lookup(s.Name)
			if !ok {
				continue
			}
			v := frame.Resolve(s.Value)
			if !v.IsString() {
				continue
			}
			key, ok := b.registry.PropertyKey(p, v.Str)
			if !ok {
				continue
			}
			st.PropertyIDs++
			h, _ := b.ids.Get(key, true)
			anchor = b.merge(ctx, record, anchor, h, st)
		}
	}
}

// identifier returns the node for a textual key, or NoHandle when the key is
// not tracked.
func (b *Builder) identifier(text string) ixref.Handle {
	key, ok := b.registry.ParseKey(text)
	if !ok {
		return ixref.NoHandle
	}
	h, _ := b.ids.Get(key, true)
	return h
}

// merge folds h into anchor and returns the anchor for the next identifier.
func (b *Builder) merge(ctx context.Context, record string, anchor, h ixref.Handle, st *RecordStats) ixref.Handle {
	switch {
	case h == ixref.NoHandle || h == anchor:
		return anchor
	case anchor == ixref.NoHandle:
		return h
	}
	if b.ids.Merge(anchor, h) {
		return anchor
	}
	a, k := b.ids.Key(anchor).String(), b.ids.Key(h).String()
	log := b.opts.logger.WithRecord(record)
	if b.ids.Conflict(anchor, h) {
		st.Conflicts++
		log.LogConflict(ctx, a, k)
	} else {
		st.Skipped++
		log.LogSkip(ctx, a, k)
	}
	return anchor
}

func (b *Builder) count(st RecordStats) {
	b.counters.Get(CounterTracked).Increment()
	b.counters.Get(CounterIDs).Add(int64(st.IDs))
	b.counters.Get(CounterRedirects).Add(int64(st.Redirects))
	b.counters.Get(CounterPropertyIDs).Add(int64(st.PropertyIDs))
	b.counters.Get(CounterSkipped).Add(int64(st.Skipped))
	b.counters.Get(CounterConflicts).Add(int64(st.Conflicts))
}
