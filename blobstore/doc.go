// Package blobstore abstracts where record files are read from and where
// cross-reference artifacts are written to.
//
// Implementations must be safe for concurrent use.
//
//   - LocalStore: files under a root directory, mmap reads, atomic writes
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 with multipart uploads and CRC32C checksums
//   - minio.Store: MinIO and other S3-compatible services
//
// Blobs are read front to back with NewReader, or at once with ReadAll,
// which does not copy Mappable blobs. A WritableBlob publishes its blob on
// Close; Abort discards it.
package blobstore
