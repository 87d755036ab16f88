package xref

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrNotFound is returned when a key is absent and creation is disallowed.
var ErrNotFound = errors.New("identifier not found")

// Handle is a stable reference to an identifier node. Handles survive every
// union; resolving the current cluster is always done through Root.
type Handle uint32

// NoHandle is the zero handle; it never denotes a node.
const NoHandle Handle = 0

type node struct {
	key    Key
	parent Handle
	// size, pinned and primaries are only meaningful at a root.
	size      uint32
	pinned    bool
	primaries uint32
	redirect  bool
}

// primary reports whether the node is a non-redirect bare id.
func (n *node) primary() bool { return n.key.IsBare() && !n.redirect }

// Store is a union-find forest over identifier keys.
//
// Nodes live in one slice indexed by Handle; slot 0 is reserved so that the
// zero Handle stays invalid. Nodes are never deleted, only merged.
type Store struct {
	nodes  []node
	index  map[Key]Handle
	policy Policy
}

// Policy tunes the merge rules.
type Policy struct {
	// StrictPrimaryIDs refuses to union two unpinned clusters that both
	// contain a non-redirect bare id.
	StrictPrimaryIDs bool
}

// NewStore creates an empty forest.
func NewStore(policy Policy) *Store {
	return &Store{
		nodes:  make([]node, 1, 1024),
		index:  make(map[Key]Handle),
		policy: policy,
	}
}

// Get returns the node for key. A singleton cluster is created when create is
// set and the key is absent; otherwise ErrNotFound is returned.
func (s *Store) Get(key Key, create bool) (Handle, error) {
	if h, ok := s.index[key]; ok {
		return h, nil
	}
	if !create {
		return NoHandle, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	h := Handle(len(s.nodes))
	n := node{key: key, parent: h, size: 1}
	if n.primary() {
		n.primaries = 1
	}
	s.nodes = append(s.nodes, n)
	s.index[key] = h
	return h, nil
}

// Lookup returns the node for key without creating it.
func (s *Store) Lookup(key Key) (Handle, bool) {
	h, ok := s.index[key]
	return h, ok
}

// Root resolves h to its cluster root, halving the path on the way.
func (s *Store) Root(h Handle) Handle {
	for s.nodes[h].parent != h {
		p := s.nodes[h].parent
		s.nodes[h].parent = s.nodes[p].parent
		h = p
	}
	return h
}

// Pin marks the cluster containing h as pinned.
func (s *Store) Pin(h Handle) {
	s.nodes[s.Root(h)].pinned = true
}

// Pinned reports whether the cluster containing h is pinned.
func (s *Store) Pinned(h Handle) bool {
	return s.nodes[s.Root(h)].pinned
}

// MarkRedirect flags h as a redirect alias. The flag is sticky.
func (s *Store) MarkRedirect(h Handle) {
	n := &s.nodes[h]
	if n.redirect {
		return
	}
	wasPrimary := n.primary()
	n.redirect = true
	if wasPrimary {
		s.nodes[s.Root(h)].primaries--
	}
}

// Redirect reports whether h is a redirect alias.
func (s *Store) Redirect(h Handle) bool { return s.nodes[h].redirect }

// Key returns the key of h.
func (s *Store) Key(h Handle) Key { return s.nodes[h].key }

// Size returns the number of members in the cluster containing h.
func (s *Store) Size(h Handle) int { return int(s.nodes[s.Root(h)].size) }

// Len returns the number of nodes.
func (s *Store) Len() int { return len(s.nodes) - 1 }

// Members materializes the handles of every node in the cluster of h.
// It scans the whole forest and is meant for output, not ingestion.
func (s *Store) Members(h Handle) *roaring.Bitmap {
	root := s.Root(h)
	members := roaring.New()
	for i := 1; i < len(s.nodes); i++ {
		if s.Root(Handle(i)) == root {
			members.Add(uint32(i))
		}
	}
	return members
}

// ForEachCluster calls fn once per cluster in ascending root order with the
// handles of all members. Iteration stops at the first error.
func (s *Store) ForEachCluster(fn func(root Handle, members *roaring.Bitmap) error) error {
	roots := roaring.New()
	clusters := make(map[Handle]*roaring.Bitmap)
	for i := 1; i < len(s.nodes); i++ {
		root := s.Root(Handle(i))
		m, ok := clusters[root]
		if !ok {
			m = roaring.New()
			clusters[root] = m
			roots.Add(uint32(root))
		}
		m.Add(uint32(i))
	}

	it := roots.Iterator()
	for it.HasNext() {
		root := Handle(it.Next())
		if err := fn(root, clusters[root]); err != nil {
			return err
		}
	}
	return nil
}

// Stats summarizes the forest.
type Stats struct {
	Nodes    int
	Clusters int
	Pinned   int
}

// Stats counts nodes, clusters and pinned clusters.
func (s *Store) Stats() Stats {
	var st Stats
	st.Nodes = s.Len()
	for i := 1; i < len(s.nodes); i++ {
		if s.nodes[i].parent == Handle(i) {
			st.Clusters++
			if s.nodes[i].pinned {
				st.Pinned++
			}
		}
	}
	return st
}
