package xref

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/xref/blobstore"
	"github.com/hupe1980/xref/frame"
	"github.com/hupe1980/xref/recordio"
	"github.com/hupe1980/xref/snapshot"
)

// Mapping resolves identifiers to the canonical id of their cluster.
//
// A Mapping is loaded either from the record file written by Flush or from its
// snapshot. Both behave the same. A Mapping is safe for concurrent reads.
type Mapping struct {
	canonical map[string]string
	members   map[string][]string
	snap      *snapshot.Snapshot
	mnemonics map[string]string
	clusters  int
	closed    atomic.Bool
}

// LoadMapping reads the record file name from store.
func LoadMapping(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Mapping, error) {
	opts := applyOptions(optFns)
	ctx, span := opts.tracer.Start(ctx, "xref.load_mapping")
	defer span.End()

	r, _, err := blobstore.NewReader(ctx, store, name)
	if err != nil {
		return nil, err
	}
	rr, err := recordio.NewReader(r)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = rr.Close() }()

	m := &Mapping{
		canonical: make(map[string]string),
		members:   make(map[string][]string),
		mnemonics: make(map[string]string),
	}
	dec := frame.NewDecoder(rr, opts.codec)
	for {
		f, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ReadError{File: name, Offset: rr.Tell(), Err: err}
		}
		m.add(f)
	}
	opts.logger.DebugContext(ctx, "xref mapping loaded", "name", name, "clusters", m.clusters)
	return m, nil
}

func (m *Mapping) add(f *frame.Frame) {
	if f.ID() == frame.MnemonicsID {
		for _, s := range f.Slots {
			if s.Name == frame.SlotID {
				continue
			}
			if property, ok := s.Value.Text(); ok {
				m.mnemonics[s.Name] = property
			}
		}
		return
	}
	ids := f.IDs()
	if len(ids) == 0 {
		return
	}
	m.clusters++
	m.members[ids[0]] = ids
	for _, id := range ids {
		m.canonical[id] = ids[0]
	}
}

// LoadSnapshotMapping memory-maps the snapshot at path.
func LoadSnapshotMapping(path string) (*Mapping, error) {
	snap, err := snapshot.Open(path)
	if err != nil {
		return nil, err
	}
	m := &Mapping{
		snap:      snap,
		mnemonics: make(map[string]string),
		clusters:  snap.NumClusters(),
	}
	for _, mn := range snap.Mnemonics() {
		m.mnemonics[strings.Clone(mn.Name)] = strings.Clone(mn.Property)
	}
	return m, nil
}

// Close releases the snapshot, if any. Close is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.snap != nil {
		return m.snap.Close()
	}
	return nil
}

// Len returns the number of clusters.
func (m *Mapping) Len() int { return m.clusters }

// Mnemonic returns the property for a short name.
func (m *Mapping) Mnemonic(name string) (string, bool) {
	p, ok := m.mnemonics[name]
	return p, ok
}

// Lookup returns the canonical id of id.
func (m *Mapping) Lookup(id string) (string, bool) {
	if m.closed.Load() {
		return "", false
	}
	if m.snap != nil {
		c, ok := m.snap.Lookup(id)
		if !ok {
			return "", false
		}
		return strings.Clone(c), true
	}
	c, ok := m.canonical[id]
	return c, ok
}

// Members returns the ids of the cluster of id, canonical id first.
func (m *Mapping) Members(id string) ([]string, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	canonical, ok := m.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if m.snap != nil {
		members, _ := m.snap.Members(canonical)
		out := make([]string, len(members))
		for i, s := range members {
			out[i] = strings.Clone(s)
		}
		return out, nil
	}
	return append([]string(nil), m.members[canonical]...), nil
}

// Map translates id to its canonical id.
//
// An id that is not in the cross reference but has the form DOMAIN/VALUE or
// DOMAIN:VALUE is rewritten to PROPERTY/VALUE, where DOMAIN is translated
// through the mnemonics table. The rewritten id is then looked up; if it is
// unknown the rewritten id itself is returned. Map reports false only when id
// is unknown and has no domain.
func (m *Mapping) Map(id string) (string, bool) {
	if c, ok := m.Lookup(id); ok {
		return c, true
	}

	sep := strings.IndexAny(id, "/:")
	if sep < 0 {
		return "", false
	}
	domain := strings.TrimSpace(id[:sep])
	value := strings.TrimSpace(id[sep+1:])
	if domain == "" || value == "" {
		return "", false
	}
	if p, ok := m.mnemonics[domain]; ok {
		domain = p
	}
	key := domain + "/" + value
	if c, ok := m.Lookup(key); ok {
		return c, true
	}
	return key, true
}
