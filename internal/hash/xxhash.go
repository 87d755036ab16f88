package hash

import "github.com/cespare/xxhash/v2"

// Fingerprint returns the 64-bit xxhash of s.
func Fingerprint(s string) uint64 {
	return xxhash.Sum64String(s)
}
