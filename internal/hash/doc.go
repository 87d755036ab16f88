// Package hash provides the checksums and fingerprints used by the on-disk
// formats: CRC32-Castagnoli for integrity, xxhash64 for key fingerprints.
package hash
