// Package mmap maps read-only files into memory.
//
// Snapshots are opened with Random access for hash-index probes; record
// files are opened with Sequential access and read front to back. The access
// pattern is passed to madvise(2) on Unix and ignored on Windows.
//
// Bytes must not be used after Close returns.
package mmap
