package recordio

import (
	"bufio"
	"io"
	"os"

	"github.com/hupe1980/xref/internal/fs"
)

// Options configures a Writer.
type Options struct {
	Compression Compression
	// BufferSize is the size of the write buffer. Zero uses 64KB.
	BufferSize int
}

// DefaultOptions returns the default writer options.
func DefaultOptions() Options {
	return Options{Compression: CompressionNone, BufferSize: 64 << 10}
}

// Writer appends records to a record file.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer
	opts   Options
	offset int64
	count  int64
	closed bool
}

// NewWriter writes a file header to w and returns a Writer.
// If w is an io.Closer it is closed by Close.
func NewWriter(w io.Writer, opts Options) (*Writer, error) {
	if opts.Compression > CompressionZSTD {
		return nil, ErrUnknownCompression
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 64 << 10
	}

	bw := bufio.NewWriterSize(w, opts.BufferSize)
	if _, err := bw.Write(encodeFileHeader(opts.Compression)); err != nil {
		return nil, err
	}

	rw := &Writer{w: bw, opts: opts, offset: fileHeaderSize}
	if c, ok := w.(io.Closer); ok {
		rw.closer = c
	}
	return rw, nil
}

// Create creates path on fsys and returns a Writer for it.
func Create(fsys fs.FileSystem, path string, opts Options) (*Writer, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// Append writes one record.
func (w *Writer) Append(key []byte, version uint64, value []byte) error {
	if w.closed {
		return ErrClosed
	}
	stored, err := pack(w.opts.Compression, value)
	if err != nil {
		return err
	}
	n, err := encodeRecord(w.w, key, version, stored)
	if err != nil {
		return err
	}
	w.offset += int64(n)
	w.count++
	return nil
}

// Offset returns the number of bytes written so far, including buffered bytes.
func (w *Writer) Offset() int64 { return w.offset }

// Count returns the number of records written.
func (w *Writer) Count() int64 { return w.count }

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	return w.w.Flush()
}

// Close flushes the writer and closes the underlying writer if it is a Closer.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	err := w.w.Flush()
	if s, ok := w.closer.(interface{ Sync() error }); ok && err == nil {
		err = s.Sync()
	}
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
