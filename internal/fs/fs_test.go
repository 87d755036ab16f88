package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "out")
	require.NoError(t, lfs.MkdirAll(dir, 0o755))

	path := filepath.Join(dir, "xrefs.rec.tmp")
	f, err := lfs.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	final := filepath.Join(dir, "xrefs.rec")
	require.NoError(t, lfs.Rename(path, final))

	data, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entries, err := lfs.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, lfs.Remove(final))
	_, err = os.Stat(final)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule(".snap", Fault{FailAfterBytes: 4})
	ffs.AddRule(".sync", Fault{FailAfterBytes: -1, FailOnSync: true})

	f, err := ffs.OpenFile(filepath.Join(tmp, "a.snap"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("abcd"))
	require.NoError(t, err)
	_, err = f.Write([]byte("e"))
	assert.ErrorIs(t, err, ErrInjected)
	require.NoError(t, f.Close())

	f, err = ffs.OpenFile(filepath.Join(tmp, "b.sync"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), ErrInjected)
	require.NoError(t, f.Close())

	f, err = ffs.OpenFile(filepath.Join(tmp, "c.rec"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("no faults here"))
	assert.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestAtomicFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "xrefs.rec")

	a, err := CreateAtomic(nil, path)
	require.NoError(t, err)
	_, err = a.Write([]byte("first"))
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing is visible before Commit")
	require.NoError(t, a.Commit())
	assert.ErrorIs(t, a.Commit(), os.ErrClosed)
	assert.NoError(t, a.Abort())

	a, err = CreateAtomic(nil, path)
	require.NoError(t, err)
	_, err = a.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, a.Abort())
	_, err = a.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	_, err = os.Stat(path + TempSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestAtomicFile_SyncFault(t *testing.T) {
	ffs := NewFaultyFS(nil)
	ffs.AddRule("xrefs", Fault{FailAfterBytes: -1, FailOnSync: true})
	path := filepath.Join(t.TempDir(), "xrefs.rec")

	a, err := CreateAtomic(ffs, path)
	require.NoError(t, err)
	assert.ErrorIs(t, a.Commit(), ErrInjected)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path + TempSuffix)
	assert.True(t, os.IsNotExist(err))
}
