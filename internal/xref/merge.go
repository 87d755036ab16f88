package xref

// Merge unions the clusters of a and b and reports whether they now share a
// root.
//
// Rules:
//   - same cluster: no-op success
//   - either cluster pinned: refused; pinned clusters only grow through the
//     startup sequence Merge then Pin
//   - StrictPrimaryIDs and both clusters hold a non-redirect bare id: refused
//   - otherwise the larger cluster absorbs the smaller; on equal size the
//     lower handle stays root
//
// Merge performs no logging or counting.
func (s *Store) Merge(a, b Handle) bool {
	ra, rb := s.Root(a), s.Root(b)
	if ra == rb {
		return true
	}

	na, nb := &s.nodes[ra], &s.nodes[rb]
	if na.pinned || nb.pinned {
		return false
	}
	if s.policy.StrictPrimaryIDs && na.primaries > 0 && nb.primaries > 0 {
		return false
	}

	if nb.size > na.size || (nb.size == na.size && rb < ra) {
		ra, rb = rb, ra
		na, nb = nb, na
	}
	nb.parent = ra
	na.size += nb.size
	na.primaries += nb.primaries
	return true
}

// Conflict reports whether a refused merge between a and b is a genuine
// conflict rather than an expected skip against a protected cluster.
//
// Both clusters pinned is a conflict between two curated identities; exactly
// one pinned is a skip; neither pinned can only come from StrictPrimaryIDs and
// is a conflict.
func (s *Store) Conflict(a, b Handle) bool {
	pa, pb := s.Pinned(a), s.Pinned(b)
	return pa == pb
}
