package fs

import (
	"os"
	"path/filepath"
	"sync/atomic"
)

// TempSuffix marks files that have not been committed yet.
const TempSuffix = ".tmp"

// AtomicFile is written under path+TempSuffix and renamed to path on Commit,
// so a reader of path sees either the previous file or the complete new one.
type AtomicFile struct {
	fsys FileSystem
	f    File
	path string
	done atomic.Bool
}

// CreateAtomic creates the parent directories of path and opens the
// temporary file.
func CreateAtomic(fsys FileSystem, path string) (*AtomicFile, error) {
	if fsys == nil {
		fsys = Default
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := fsys.OpenFile(path+TempSuffix, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &AtomicFile{fsys: fsys, f: f, path: path}, nil
}

func (a *AtomicFile) Write(p []byte) (int, error) {
	if a.done.Load() {
		return 0, os.ErrClosed
	}
	return a.f.Write(p)
}

// Commit syncs and closes the temporary file and renames it into place.
// On failure the temporary file is removed and path is untouched.
func (a *AtomicFile) Commit() error {
	if a.done.Swap(true) {
		return os.ErrClosed
	}
	tmp := a.path + TempSuffix
	if err := a.f.Sync(); err != nil {
		_ = a.f.Close()
		_ = a.fsys.Remove(tmp)
		return err
	}
	if err := a.f.Close(); err != nil {
		_ = a.fsys.Remove(tmp)
		return err
	}
	return a.fsys.Rename(tmp, a.path)
}

// Abort discards the temporary file. It is a no-op after Commit.
func (a *AtomicFile) Abort() error {
	if a.done.Swap(true) {
		return nil
	}
	_ = a.f.Close()
	return a.fsys.Remove(a.path + TempSuffix)
}
