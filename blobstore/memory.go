package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps blobs in a map. Used by tests and small in-process runs.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Open(_ context.Context, name string) (Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[name]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: ErrNotFound}
	}
	// Stored slices are replaced, never mutated.
	return memoryBlob(data), nil
}

func (m *MemoryStore) Create(_ context.Context, name string) (WritableBlob, error) {
	return &memoryWriter{store: m, name: name}, nil
}

func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	m.blobs[name] = bytes.Clone(data)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

type memoryBlob []byte

func (b memoryBlob) Reader(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (b memoryBlob) Bytes() ([]byte, error) { return b, nil }
func (b memoryBlob) Size() int64            { return int64(len(b)) }
func (b memoryBlob) Close() error           { return nil }

type memoryWriter struct {
	store *MemoryStore
	name  string
	buf   bytes.Buffer
	done  bool
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, os.ErrClosed
	}
	return w.buf.Write(p)
}

// Close publishes the written bytes.
func (w *memoryWriter) Close() error {
	if w.done {
		return os.ErrClosed
	}
	w.done = true
	return w.store.Put(context.Background(), w.name, w.buf.Bytes())
}

func (w *memoryWriter) Abort() error {
	w.done = true
	w.buf.Reset()
	return nil
}
