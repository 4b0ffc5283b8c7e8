// Package fs abstracts the files the blob log and the key file live in.
//
//   - [File]: an open file addressed by absolute offsets
//   - [FileSystem]: open, remove, rename, stat, mkdir
//
// [LocalFS] is the production implementation; [Default] points at it.
// [FaultyFS] wraps any FileSystem and injects read, write, sync, truncate
// and close failures so error paths can be tested without a broken disk:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("info.log", fs.Fault{FailAfterBytes: 1024})
//
// Operations take no context.Context. Local file I/O is not cancellable at
// the syscall level; slow remote transfers go through the blobstore package.
package fs
