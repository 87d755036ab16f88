package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/xref/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	name := "out/xrefs.rec"
	data := []byte("Q42 P214/113230702 P227/118529579")

	w, err := store.Create(ctx, name)
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	_, err = os.Stat(store.Path(name))
	require.True(t, os.IsNotExist(err), "blob must not be visible before Close")

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), os.ErrClosed)

	_, err = os.Stat(filepath.Join(tmpDir, "out", "xrefs.rec"))
	require.NoError(t, err)

	blob, err := store.Open(ctx, name)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	rc, err := blob.Reader(ctx)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	mapped, err := blob.(Mappable).Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, mapped)

	require.NoError(t, blob.Close())
	_, err = blob.Reader(ctx)
	assert.Error(t, err)
}

func TestLocalStore_List(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "in/a.rec", []byte("a")))
	require.NoError(t, store.Put(ctx, "in/b.rec", []byte("b")))
	require.NoError(t, store.Put(ctx, "out.rec", []byte("c")))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "in", "c.rec"+fs.TempSuffix), nil, 0o600))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"in/a.rec", "in/b.rec", "out.rec"}, names)

	names, err = store.List(ctx, "in/")
	require.NoError(t, err)
	assert.Equal(t, []string{"in/a.rec", "in/b.rec"}, names)

	_, err = store.Open(ctx, "in/missing.rec")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err = NewLocalStore(filepath.Join(t.TempDir(), "missing")).List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_FailedWriteKeepsPrevious(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()
	require.NoError(t, NewLocalStore(tmpDir).Put(ctx, "xrefs.snap", []byte("previous")))

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("xrefs.snap", fs.Fault{FailAfterBytes: -1, FailOnSync: true})
	store := NewLocalStore(tmpDir, WithFileSystem(ffs))

	w, err := store.Create(ctx, "xrefs.snap")
	require.NoError(t, err)
	_, err = w.Write([]byte("new"))
	require.NoError(t, err)
	assert.ErrorIs(t, w.Close(), fs.ErrInjected)

	data, release, err := ReadAll(ctx, store, "xrefs.snap")
	require.NoError(t, err)
	defer release()
	assert.Equal(t, "previous", string(data))

	_, err = os.Stat(store.Path("xrefs.snap") + fs.TempSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_PutWriteFault(t *testing.T) {
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("big", fs.Fault{FailAfterBytes: 2})
	store := NewLocalStore(t.TempDir(), WithFileSystem(ffs))

	assert.ErrorIs(t, store.Put(context.Background(), "big.rec", []byte("too long")), fs.ErrInjected)
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w, err := store.Create(ctx, "b")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)

	require.NoError(t, store.Put(ctx, "a", []byte("put")))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	blob, err := store.Open(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(8), blob.Size())
	require.NoError(t, blob.Close())

	_, err = store.Open(ctx, "c")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewReader_ReadAll(t *testing.T) {
	ctx := context.Background()
	for name, store := range map[string]BlobStore{
		"memory": NewMemoryStore(),
		"local":  NewLocalStore(t.TempDir()),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "blob", []byte("0123456789")))
			require.NoError(t, store.Put(ctx, "empty", nil))

			r, size, err := NewReader(ctx, store, "blob")
			require.NoError(t, err)
			assert.Equal(t, int64(10), size)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "0123456789", string(got))
			require.NoError(t, r.Close())

			data, release, err := ReadAll(ctx, store, "blob")
			require.NoError(t, err)
			assert.Equal(t, "0123456789", string(data))
			require.NoError(t, release())

			data, release, err = ReadAll(ctx, store, "empty")
			require.NoError(t, err)
			assert.Empty(t, data)
			require.NoError(t, release())

			_, _, err = NewReader(ctx, store, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			_, _, err = ReadAll(ctx, store, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestAbort(t *testing.T) {
	ctx := context.Background()
	for name, store := range map[string]BlobStore{
		"local":  NewLocalStore(t.TempDir()),
		"memory": NewMemoryStore(),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "a.rec", []byte("old")))

			w, err := store.Create(ctx, "a.rec")
			require.NoError(t, err)
			_, err = w.Write([]byte("partial"))
			require.NoError(t, err)
			require.NoError(t, Abort(w))

			data, release, err := ReadAll(ctx, store, "a.rec")
			require.NoError(t, err)
			assert.Equal(t, "old", string(data))
			require.NoError(t, release())

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"a.rec"}, names)
		})
	}
}

func TestPipeWriter(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	var uploaded []byte
	w := NewPipeWriter(ctx, func(_ context.Context, r io.Reader) error {
		var err error
		uploaded, err = io.ReadAll(r)
		return err
	})
	_, err := w.Write([]byte("Q42\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("Q5\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Equal(t, "Q42\nQ5\n", string(uploaded))

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.NoError(t, w.Abort())
}

func TestPipeWriter_UploadError(t *testing.T) {
	defer goleak.VerifyNone(t)
	boom := errors.New("bucket gone")

	w := NewPipeWriter(context.Background(), func(context.Context, io.Reader) error { return boom })
	_, _ = w.Write([]byte("Q42"))
	assert.ErrorIs(t, w.Close(), boom)
	assert.ErrorIs(t, w.Close(), boom)
}

func TestPipeWriter_Abort(t *testing.T) {
	defer goleak.VerifyNone(t)

	var readErr, ctxErr error
	w := NewPipeWriter(context.Background(), func(ctx context.Context, r io.Reader) error {
		_, readErr = io.ReadAll(r)
		ctxErr = ctx.Err()
		return readErr
	})
	_, err := w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	assert.ErrorIs(t, readErr, ErrAborted)
	assert.ErrorIs(t, ctxErr, context.Canceled)
	assert.NoError(t, w.Abort())
}
