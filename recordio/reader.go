package recordio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/xref/internal/fs"
)

// Reader iterates over the records of a record file.
type Reader struct {
	r           *bufio.Reader
	closer      io.Closer
	compression Compression
	offset      int64
	closed      bool
}

// NewReader reads the file header from r and returns a Reader.
// If r is an io.Closer it is closed by Close.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 64<<10)

	header := make([]byte, fileHeaderSize)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	c, err := decodeFileHeader(header)
	if err != nil {
		return nil, err
	}

	rr := &Reader{r: br, compression: c, offset: fileHeaderSize}
	if cl, ok := r.(io.Closer); ok {
		rr.closer = cl
	}
	return rr, nil
}

// Open opens the record file at path on fsys.
func Open(fsys fs.FileSystem, path string) (*Reader, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

// Next reads the next record. It returns io.EOF when there are no more records.
// On any other error, Tell reports the offset of the failing record.
func (r *Reader) Next() (*Record, error) {
	if r.closed {
		return nil, ErrClosed
	}
	rec, n, err := decodeRecord(r.r)
	if err != nil {
		return nil, err
	}
	value, err := unpack(r.compression, rec.Value)
	if err != nil {
		return nil, err
	}
	rec.Value = value
	r.offset += n
	return rec, nil
}

// Done reports whether all records have been read.
func (r *Reader) Done() bool {
	if r.closed {
		return true
	}
	_, err := r.r.Peek(1)
	return errors.Is(err, io.EOF)
}

// Tell returns the file offset of the next record.
func (r *Reader) Tell() int64 { return r.offset }

// Compression returns the compression used by the file.
func (r *Reader) Compression() Compression { return r.compression }

// Close closes the underlying reader if it is a Closer.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
