package blobstore

import (
	"context"
	"fmt"
	"io"
)

// NewReader opens name and returns a sequential reader over the whole blob
// along with its size. Closing the reader closes the blob.
func NewReader(ctx context.Context, store BlobStore, name string) (io.ReadCloser, int64, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	rc, err := b.Reader(ctx)
	if err != nil {
		_ = b.Close()
		return nil, 0, fmt.Errorf("blobstore: read %s: %w", name, err)
	}
	return &blobReader{ReadCloser: rc, blob: b}, b.Size(), nil
}

type blobReader struct {
	io.ReadCloser
	blob Blob
}

func (r *blobReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.blob.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadAll returns the contents of name and a release function that must be
// called once the data is no longer used. Mappable blobs are not copied.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, func() error, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			_ = b.Close()
			return nil, nil, err
		}
		return data, b.Close, nil
	}
	defer b.Close()

	rc, err := b.Reader(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("blobstore: read %s: %w", name, err)
	}
	defer rc.Close()

	data := make([]byte, b.Size())
	if _, err := io.ReadFull(rc, data); err != nil {
		return nil, nil, fmt.Errorf("blobstore: read %s: %w", name, err)
	}
	return data, func() error { return nil }, nil
}
