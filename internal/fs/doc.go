// Package fs provides the filesystem abstraction behind the local blob store
// and record files.
//
// Output artifacts are written through [AtomicFile], so a failed build never
// replaces a previous artifact with a partial one. Tests inject [FaultyFS] to
// make writes, syncs or closes fail:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".snap", fs.Fault{FailAfterBytes: 0})
package fs
