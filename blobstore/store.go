package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

var (
	// ErrNotFound is returned when a blob does not exist.
	//
	// Implementations return an error that satisfies errors.Is(err, ErrNotFound).
	ErrNotFound = os.ErrNotExist

	// ErrAborted is seen by uploads whose writer was aborted.
	ErrAborted = errors.New("blobstore: write aborted")
)

// BlobStore reads and writes named blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for streaming writes. The blob becomes visible
	// when the returned WritableBlob is closed without error.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a blob. Record files and configs are read
// front to back, so a blob only hands out sequential readers.
type Blob interface {
	io.Closer
	// Reader returns a reader over the whole blob.
	Reader(ctx context.Context) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.WriteCloser
}

// Aborter is implemented by writable blobs that can discard a partial write.
type Aborter interface {
	// Abort discards everything written so far. The blob is not published.
	Abort() error
}

// Abort discards w when it supports it and closes it otherwise.
func Abort(w WritableBlob) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort()
	}
	return w.Close()
}

// Mappable is implemented by blobs whose contents are memory resident.
type Mappable interface {
	// Bytes returns the blob contents. The slice is valid until the Blob is
	// closed.
	Bytes() ([]byte, error)
}
