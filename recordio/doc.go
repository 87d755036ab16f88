// Package recordio reads and writes record files: a header followed by a
// sequence of checksummed key/version/value records.
//
// File layout:
//
//	[magic "XREFRECS"][version uint32][compression uint8][pad 3]
//	record*
//
// Record layout (little endian):
//
//	[CRC32C uint32][version uint64][keyLen uint32][valueLen uint32][key][value]
//
// The CRC covers everything after itself. When the file is compressed, each
// stored value is a block: [rawLen uint32][packedLen uint32][data], where a
// packedLen of 0 means the block was stored raw.
package recordio
