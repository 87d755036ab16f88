package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hupe1980/xref/internal/fs"
	"github.com/hupe1980/xref/internal/mmap"
)

// LocalStore keeps blobs as files under a root directory. Blob names use '/'
// as separator regardless of the platform.
type LocalStore struct {
	root string
	fs   fs.FileSystem
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithFileSystem sets the file system used for writes and listing.
func WithFileSystem(fsys fs.FileSystem) LocalOption {
	return func(s *LocalStore) { s.fs = fsys }
}

// NewLocalStore creates a LocalStore rooted at root.
func NewLocalStore(root string, opts ...LocalOption) *LocalStore {
	s := &LocalStore{root: root, fs: fs.Default}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file path of the blob name.
func (s *LocalStore) Path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open maps the blob into memory for a sequential scan.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	r, err := mmap.Open(s.Path(name), mmap.Sequential)
	if err != nil {
		return nil, err
	}
	return localBlob{r}, nil
}

// Create writes to a temporary file that is renamed into place on Close.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	f, err := fs.CreateAtomic(s.fs, s.Path(name))
	if err != nil {
		return nil, err
	}
	return localWriter{f}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Join(err, Abort(w))
	}
	return w.Close()
}

// List walks the root and returns the committed blobs whose names start
// with prefix. A missing root yields no names.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	var walk func(dir, rel string) error
	walk = func(dir, rel string) error {
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			name := e.Name()
			if rel != "" {
				name = rel + "/" + name
			}
			switch {
			case e.IsDir():
				if err := walk(filepath.Join(dir, e.Name()), name); err != nil {
					return err
				}
			case strings.HasSuffix(name, fs.TempSuffix), !strings.HasPrefix(name, prefix):
			default:
				names = append(names, name)
			}
		}
		return nil
	}
	if err := walk(s.root, ""); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

type localBlob struct {
	r *mmap.Region
}

func (b localBlob) Reader(context.Context) (io.ReadCloser, error) {
	data, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b localBlob) Bytes() ([]byte, error) {
	data := b.r.Bytes()
	if data == nil && b.r.Size() > 0 {
		return nil, mmap.ErrClosed
	}
	return data, nil
}

func (b localBlob) Size() int64  { return int64(b.r.Size()) }
func (b localBlob) Close() error { return b.r.Close() }

// localWriter publishes the blob on Close.
type localWriter struct {
	*fs.AtomicFile
}

func (w localWriter) Close() error { return w.Commit() }
