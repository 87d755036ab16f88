package xref

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/xref/config"
	"github.com/hupe1980/xref/internal/task"
	ixref "github.com/hupe1980/xref/internal/xref"
)

// Counter names reported by Builder.Counters.
const (
	CounterTracked     = "tracked"
	CounterIDs         = "ids"
	CounterRedirects   = "redirects"
	CounterPropertyIDs = "property_ids"
	CounterSkipped     = "skipped"
	CounterConflicts   = "conflicts"
)

// Builder builds an identifier cross reference.
//
// A build has three phases:
//
//	b := xref.NewBuilder(xref.WithSnapshot(true))
//	b.Startup(ctx, cfg)        // single-threaded
//	b.Process(ctx, f) ...      // safe for concurrent use
//	b.Flush(ctx, store, "xrefs.rec")
//
// Run drives Process from record files with a worker pool.
type Builder struct {
	opts     options
	registry *ixref.Registry
	counters *task.Counters

	mnemonics []config.Mnemonic

	// mu serializes all mutation of ids, one record at a time.
	mu      sync.Mutex
	ids     *ixref.Store
	started atomic.Bool
	flushed bool
}

// NewBuilder creates a builder with no tracked properties.
func NewBuilder(optFns ...Option) *Builder {
	opts := applyOptions(optFns)
	b := &Builder{
		opts:     opts,
		registry: ixref.NewRegistry(),
		counters: task.NewCounters(),
		ids:      ixref.NewStore(ixref.Policy{StrictPrimaryIDs: opts.strictPrimaryIDs}),
	}
	for _, name := range []string{CounterTracked, CounterIDs, CounterRedirects, CounterPropertyIDs, CounterSkipped, CounterConflicts} {
		b.counters.Get(name)
	}
	return b
}

// Startup installs the configuration: properties in priority order, property
// mnemonics and the pinned mappings.
//
// Mappings are merged first and pinned afterwards, so several keys may map to
// the same target. A mapping that cannot be merged is logged as a conflict and
// its key is still pinned. Startup must run before any call to Process. A
// failed Startup leaves the builder unchanged and may be retried.
func (b *Builder) Startup(ctx context.Context, cfg *config.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started.Load() {
		return ErrAlreadyStarted
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	registry := ixref.NewRegistry()
	for _, ref := range cfg.Properties {
		if _, err := registry.Register(ref); err != nil {
			return &ConfigError{Section: config.SectionProperties, Key: ref, Err: err}
		}
	}
	for _, m := range cfg.Mnemonics {
		if err := registry.SetMnemonic(m.Property, m.Name); err != nil {
			return &ConfigError{Section: config.SectionMnemonics, Key: m.Name, Err: err}
		}
	}

	ids := ixref.NewStore(ixref.Policy{StrictPrimaryIDs: b.opts.strictPrimaryIDs})
	pinned := make([]ixref.Handle, 0, len(cfg.Mappings))
	for _, m := range cfg.Mappings {
		ref, err := mappingKey(registry, ids, m.Ref, m.Ref)
		if err != nil {
			return err
		}
		target, err := mappingKey(registry, ids, m.Ref, m.Target)
		if err != nil {
			return err
		}
		if !ids.Merge(ref, target) {
			b.opts.logger.LogMappingConflict(ctx, m.Ref, m.Target)
		}
		pinned = append(pinned, ref)
	}
	for _, h := range pinned {
		ids.Pin(h)
	}

	b.registry, b.ids, b.mnemonics = registry, ids, cfg.Mnemonics
	b.started.Store(true)
	b.opts.logger.LogStartup(ctx, registry.Len(), len(cfg.Mappings), len(cfg.Mnemonics))
	return nil
}

func mappingKey(registry *ixref.Registry, ids *ixref.Store, ref, text string) (ixref.Handle, error) {
	key, ok := registry.ParseKey(text)
	if !ok {
		return ixref.NoHandle, &ConfigError{
			Section: config.SectionMappings,
			Key:     ref,
			Err:     fmt.Errorf("%w: %q does not name a tracked identifier", ErrUnknownProperty, text),
		}
	}
	h, err := ids.Get(key, true)
	if err != nil {
		return ixref.NoHandle, &ConfigError{Section: config.SectionMappings, Key: ref, Err: err}
	}
	return h, nil
}

// Counters returns the current counter values.
func (b *Builder) Counters() map[string]int64 {
	return b.counters.Snapshot()
}

// Stats summarizes the identifier forest.
type Stats struct {
	Identifiers int
	Clusters    int
	Pinned      int
}

// Stats returns the current size of the cross reference.
func (b *Builder) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.ids.Stats()
	return Stats{Identifiers: st.Nodes, Clusters: st.Clusters, Pinned: st.Pinned}
}

func sortedNames(m map[string]int64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
