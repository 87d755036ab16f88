package mmap

import (
	"errors"
	"os"
	"sync/atomic"

	"github.com/hupe1980/xref/internal/conv"
)

// Access describes how a region will be read.
type Access int

const (
	Normal Access = iota
	Sequential
	Random
)

// ErrClosed is returned by users of a closed region.
var ErrClosed = errors.New("mmap: region is closed")

// Region is a read-only mapping of a whole file.
type Region struct {
	data   []byte
	closed atomic.Bool
}

// Open maps the file at path. Empty files yield an empty region without a
// mapping.
func Open(path string, access Access) (*Region, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the blob store or the caller
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() <= 0 {
		return &Region{}, nil
	}
	size, err := conv.Uint64ToInt(uint64(fi.Size()))
	if err != nil {
		return nil, err
	}

	data, err := mapFile(f, size, access)
	if err != nil {
		return nil, &os.PathError{Op: "mmap", Path: path, Err: err}
	}
	return &Region{data: data}, nil
}

// Bytes returns the mapped bytes, or nil after Close.
func (r *Region) Bytes() []byte {
	if r.closed.Load() {
		return nil
	}
	return r.data
}

// Size returns the file size in bytes.
func (r *Region) Size() int { return len(r.data) }

// Close unmaps the region. Further calls are no-ops.
func (r *Region) Close() error {
	if r.closed.Swap(true) || len(r.data) == 0 {
		return nil
	}
	return unmapFile(r.data)
}
