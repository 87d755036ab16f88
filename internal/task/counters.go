package task

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Counter is a named monotonic counter.
type Counter struct {
	name string
	v    atomic.Int64
}

// Name returns the counter name.
func (c *Counter) Name() string { return c.name }

// Increment adds one.
func (c *Counter) Increment() { c.v.Add(1) }

// Add adds n. Negative values are ignored.
func (c *Counter) Add(n int64) {
	if n > 0 {
		c.v.Add(n)
	}
}

// Value returns the current value.
func (c *Counter) Value() int64 { return c.v.Load() }

// Counters is a registry of named counters. It is safe for concurrent use.
type Counters struct {
	mu       sync.RWMutex
	counters map[string]*Counter
}

// NewCounters returns an empty registry.
func NewCounters() *Counters {
	return &Counters{counters: make(map[string]*Counter)}
}

// Get returns the counter with the given name, creating it on first use.
func (cs *Counters) Get(name string) *Counter {
	cs.mu.RLock()
	c, ok := cs.counters[name]
	cs.mu.RUnlock()
	if ok {
		return c
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if c, ok := cs.counters[name]; ok {
		return c
	}
	c = &Counter{name: name}
	cs.counters[name] = c
	return c
}

// Snapshot returns the current value of every counter.
func (cs *Counters) Snapshot() map[string]int64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make(map[string]int64, len(cs.counters))
	for name, c := range cs.counters {
		out[name] = c.Value()
	}
	return out
}

// Names returns the sorted counter names.
func (cs *Counters) Names() []string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	names := make([]string, 0, len(cs.counters))
	for name := range cs.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
