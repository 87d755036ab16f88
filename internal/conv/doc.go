// Package conv provides checked integer conversions.
//
// Use cases:
//   - Validating untrusted data from disk (snapshot headers, table sizes)
//   - Converting between Go's int (platform-dependent) and fixed-width types
//
// For conversions that are provably safe by domain constraints (e.g., loop
// indices, bounded counters), use direct type casts instead to avoid overhead.
package conv
