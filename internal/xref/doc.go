// Package xref implements the identifier cross-reference engine.
//
// Identifiers are kept in a union-find forest. Each cluster of the forest is
// one real-world entity as far as the corpus can tell. Clusters that were
// installed from curated configuration are pinned and refuse any later
// union with another cluster.
//
// # Concurrency
//
// Registry is configured single-threaded at startup and read-only afterwards.
// Store is not synchronized; callers serialize all mutation (Get with create,
// Pin, MarkRedirect, Merge) behind one lock.
package xref
