// Package snapshot writes and loads the fast-load layout of a
// cross-reference table.
//
// A snapshot is a single file that is memory mapped and queried in place:
//
//	[header 64B]
//	[string heap, padded to 4B]
//	[symbols:   off u64, len u32, cluster u32]
//	[clusters:  canonical u32, first member u32, member count u32]
//	[members:   symbol u32]
//	[index:     symbol+1 u32, open addressing over xxhash64]
//	[mnemonics: name u32, property u32]
//
// All integers are little endian. The header carries a CRC32C of the body.
//
// Strings returned by a Snapshot alias its memory and are only valid until
// Close.
package snapshot
